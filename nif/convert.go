// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package nif

import (
	"encoding/binary"
	"fmt"
)

// Result is the outcome of a ToLittleEndian conversion.
type Result struct {
	Data     []byte
	Warnings []string
}

// blockRewriter transforms one block's payload in place, from big-endian to
// little-endian. It returns an error only for malformed input; unknown
// fields within a recognized block type must never be silently dropped.
type blockRewriter func(dst []byte) error

// blockRewriters maps a NIF block type name to its structural rewriter
// (spec §4.7–§4.9). Types not present here fall back to a verbatim copy
// with a recorded warning (spec §4.6 state machine, UnknownBlockType).
var blockRewriters = map[string]blockRewriter{
	"NiSkinPartition":                 rewriteSkinPartition,
	"BSPackedAdditionalGeometryData": rewritePackedGeometry,
}

func init() {
	for _, name := range havokBlockTypes {
		blockRewriters[name] = rewriteHavokGeneric(name)
	}
}

// ToLittleEndian converts a big-endian (Xbox 360) NIF, starting at offset
// within src, into its little-endian (PC) equivalent (spec §4.6 converter
// contract). The endianness flag, header magic line, block count and block
// sizes are unchanged except for the flag itself; numeric fields are
// byte-swapped; length-prefixed strings keep their bytes and only swap
// their 4-byte length prefix.
func ToLittleEndian(src []byte, offset int) (*Result, error) {
	info, err := ParseHeader(src, offset)
	if err != nil {
		return nil, err
	}
	if info.Endianness != BigEndian {
		return nil, fmt.Errorf("%w: source is not big-endian", ErrInvalidFormat)
	}
	if err := info.ValidateSize(int64(len(src) - offset)); err != nil {
		return nil, err
	}

	region := src[offset : offset+int(info.TotalSize)]
	out := make([]byte, len(region))
	copy(out, region)

	rewriteHeader(out, info)

	result := &Result{Data: out}
	for _, blk := range info.Blocks {
		if blk.Size == 0 {
			continue
		}
		if blk.Start+int(blk.Size) > len(out) {
			return nil, ErrOutOfBounds
		}
		payload := out[blk.Start : blk.Start+int(blk.Size)]
		rewriter, ok := blockRewriters[blk.TypeName]
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("unknown block type %q at offset %d: copied unchanged", blk.TypeName, blk.Start))
			continue
		}
		if err := rewriter(payload); err != nil {
			return nil, fmt.Errorf("block %q at %d: %w", blk.TypeName, blk.Start, err)
		}
	}
	return result, nil
}

// rewriteHeader swaps the header's own numeric fields (user version, block
// count, block type/size tables, string-table length prefixes, group
// table) from big-endian to little-endian and flips the endianness flag.
func rewriteHeader(out []byte, info *Info) {
	out[info.EndianFlagOffset] = 0x01

	pos := info.EndianFlagOffset + 1
	swap32(out, pos) // user version
	pos += 4
	swap32(out, pos) // num blocks
	pos += 4
	swap32(out, pos) // bethesda version
	pos += 4
	swap32(out, pos) // user version 2
	pos += 4

	numBlockTypes := swap16Get(out, pos)
	pos += 2
	for i := 0; i < int(numBlockTypes); i++ {
		length := swap32Get(out, pos)
		pos += 4 + int(length) // string bytes themselves are untouched
	}
	for i := 0; i < int(info.NumBlocks); i++ {
		swap16(out, pos) // block type index
		pos += 2
	}
	for i := 0; i < int(info.NumBlocks); i++ {
		swap32(out, pos) // block size
		pos += 4
	}

	numStrings := swap32Get(out, pos)
	pos += 4
	swap32(out, pos) // max string length
	pos += 4
	for i := 0; i < int(numStrings); i++ {
		length := swap32Get(out, pos)
		pos += 4 + int(length)
	}

	numGroups := swap32Get(out, pos)
	pos += 4
	for i := 0; i < int(numGroups); i++ {
		swap32(out, pos)
		pos += 4
	}
}

func swap16(b []byte, off int) {
	b[off], b[off+1] = b[off+1], b[off]
}

func swap32(b []byte, off int) {
	b[off], b[off+3] = b[off+3], b[off]
	b[off+1], b[off+2] = b[off+2], b[off+1]
}

func swap64(b []byte, off int) {
	for i := 0; i < 4; i++ {
		b[off+i], b[off+7-i] = b[off+7-i], b[off+i]
	}
}

// swap16Get swaps the two bytes at off in place and returns the resulting
// little-endian value, used while walking length-prefixed tables whose
// length must be swapped as we go.
func swap16Get(b []byte, off int) uint16 {
	swap16(b, off)
	return binary.LittleEndian.Uint16(b[off:])
}

func swap32Get(b []byte, off int) uint32 {
	swap32(b, off)
	return binary.LittleEndian.Uint32(b[off:])
}
