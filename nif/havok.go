// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package nif

import "fmt"

// havokBlockTypes lists the Havok collision/physics block types the
// converter understands structurally (spec §4.9).
var havokBlockTypes = []string{
	"hkPackedNiTriStripsData",
	"bhkPackedNiTriStripsShape",
	"bhkMoppBvTreeShape",
	"bhkRigidBody",
	"bhkRigidBodyT",
	"bhkCollisionObject",
}

// moppHeaderSize is the number of leading bytes in a bhkMoppBvTreeShape
// block that are ordinary numeric fields (MOPP data size and build type) before
// the declared-length, opaque MOPP byte stream, followed by any trailing
// numeric fields. The MOPP format itself is undocumented and must not be
// reinterpreted (spec §4.9, §GLOSSARY MOPP).
const moppHeaderSize = 8 // u32 dataSize, u32 buildType

// rewriteHavokGeneric returns a rewriter that swaps every 4-byte numeric
// field of a Havok block in place. bhkMoppBvTreeShape additionally carries
// a length-prefixed opaque MOPP byte stream that is copied through
// untouched (spec §4.9).
func rewriteHavokGeneric(typeName string) blockRewriter {
	return func(dst []byte) error {
		if typeName != "bhkMoppBvTreeShape" {
			return swapWords(dst, 0, len(dst))
		}
		if len(dst) < moppHeaderSize {
			return fmt.Errorf("nif: %s block too small (%d bytes)", typeName, len(dst))
		}
		dataSize := swap32Get(dst, 0)
		swap32(dst, 4) // buildType
		moppStart := moppHeaderSize
		moppEnd := moppStart + int(dataSize)
		if moppEnd > len(dst) {
			return fmt.Errorf("nif: %s MOPP stream (%d bytes) exceeds block size %d", typeName, dataSize, len(dst))
		}
		// MOPP bytes themselves: left untouched, opaque to this system.
		if moppEnd < len(dst) {
			if err := swapWords(dst, moppEnd, len(dst)); err != nil {
				return err
			}
		}
		return nil
	}
}

func swapWords(dst []byte, start, end int) error {
	n := end - start
	if n%4 != 0 {
		return fmt.Errorf("nif: havok block region [%d:%d) is not word-aligned (%d bytes)", start, end, n)
	}
	for off := start; off < end; off += 4 {
		swap32(dst, off)
	}
	return nil
}
