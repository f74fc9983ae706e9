// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package nif

import "fmt"

// Packed-geometry stream type codes. The wire format only specifies stream
// *offsets* and semantic labels (spec §4.8); it does not define how the
// "type" field in a stream descriptor encodes the component format. We fix
// a small, internally consistent set of codes so the converter and its
// synthetic test fixtures agree on what each stream contains.
const (
	streamHalf4  uint32 = 0 // 4 half-precision components: Position/Normal/Tangent/Bitangent
	streamHalf2  uint32 = 1 // 2 half-precision components: UV
	streamUByte4 uint32 = 2 // 4 unsigned byte components: vertex color, endianness-invariant
)

// Per spec §4.8's empirically-verified semantic labels. Offset 8 is
// deliberately NOT "Normal" — see spec §9 Open Questions.
const (
	streamOffsetPosition = 0
	streamOffsetUnknown8 = 8 // NOT a unit-length normal; left unlabeled
	streamOffsetNormal   = 20
	streamOffsetTangent  = 32
	streamOffsetBitangent = 40
)

type streamDescriptor struct {
	typ         uint32
	unitSize    uint32
	totalSize   uint32
	stride      uint32
	blockIndex  uint32
	blockOffset uint32
	flags       uint8
}

// rewritePackedGeometry swaps every integer and float field of a
// BSPackedAdditionalGeometryData block in place, per spec §4.8. Half
// components are byte-swapped in place (2 bytes each); the block's overall
// size is unchanged, matching the NIF converter's "output block sizes
// unchanged" contract (spec §4.6). Decoding halves to float32 for
// consumers that want real floating vertex data is a separate, explicit
// step — see DecodeVertexStream.
func rewritePackedGeometry(dst []byte) error {
	pos := 0
	need := func(n int) error {
		if pos+n > len(dst) {
			return fmt.Errorf("nif: packed geometry truncated at %d (need %d, have %d)", pos, n, len(dst))
		}
		return nil
	}

	if err := need(2); err != nil {
		return err
	}
	numVertices := swap16Get(dst, pos)
	pos += 2

	if err := need(4); err != nil {
		return err
	}
	numBlockInfos := swap32Get(dst, pos)
	pos += 4

	descriptors := make([]streamDescriptor, numBlockInfos)
	for i := range descriptors {
		if err := need(25); err != nil {
			return err
		}
		d := streamDescriptor{
			typ:         swap32Get(dst, pos),
			unitSize:    swap32Get(dst, pos+4),
			totalSize:   swap32Get(dst, pos+8),
			stride:      swap32Get(dst, pos+12),
			blockIndex:  swap32Get(dst, pos+16),
			blockOffset: swap32Get(dst, pos+20),
			flags:       dst[pos+24],
		}
		descriptors[i] = d
		pos += 25
	}

	if err := need(4); err != nil {
		return err
	}
	numDataBlocks := swap32Get(dst, pos)
	pos += 4

	for dbIdx := uint32(0); dbIdx < numDataBlocks; dbIdx++ {
		if err := need(1); err != nil {
			return err
		}
		hasData := dst[pos] != 0
		pos++
		if !hasData {
			continue
		}

		if err := need(4); err != nil {
			return err
		}
		blockSize := swap32Get(dst, pos)
		pos += 4

		if err := need(4); err != nil {
			return err
		}
		numInnerBlocks := swap32Get(dst, pos)
		pos += 4
		if err := need(int(numInnerBlocks) * 4); err != nil {
			return err
		}
		for i := uint32(0); i < numInnerBlocks; i++ {
			swap32(dst, pos)
			pos += 4
		}

		if err := need(4); err != nil {
			return err
		}
		numData := swap32Get(dst, pos)
		pos += 4
		if err := need(int(numData) * 4); err != nil {
			return err
		}
		for i := uint32(0); i < numData; i++ {
			swap32(dst, pos)
			pos += 4
		}

		if err := need(int(blockSize)); err != nil {
			return err
		}
		vertexData := dst[pos : pos+int(blockSize)]
		rewriteVertexStreams(vertexData, descriptors, dbIdx, numVertices)
		pos += int(blockSize)

		if err := need(8); err != nil {
			return err
		}
		swap32(dst, pos) // shader index
		pos += 4
		swap32(dst, pos) // total size
		pos += 4
	}
	return nil
}

// rewriteVertexStreams byte-swaps the half-precision components of every
// stream belonging to data block dbIdx, leaving single-byte components
// (vertex color) untouched.
func rewriteVertexStreams(vertexData []byte, descriptors []streamDescriptor, dbIdx uint32, numVertices uint16) {
	for _, d := range descriptors {
		if d.blockIndex != dbIdx {
			continue
		}
		if d.typ == streamUByte4 {
			continue // single-byte components, endianness-invariant
		}
		components := int(d.unitSize) / 2
		for v := uint16(0); v < numVertices; v++ {
			base := int(d.blockOffset) + int(v)*int(d.stride)
			for c := 0; c < components; c++ {
				off := base + c*2
				if off+2 > len(vertexData) {
					return
				}
				swap16(vertexData, off)
			}
		}
	}
}

// DecodeVertexStream decodes a half4/half2 stream in vertexData (already in
// the caller's native endianness) into float32 components, for consumers
// that want real floating-point geometry rather than the packed half
// representation that the NIF file itself stores (spec §4.8 "Conversion"
// note).
func DecodeVertexStream(vertexData []byte, d streamDescriptor, numVertices uint16, decodeHalf func(uint16) float32, readHalf func([]byte, int) uint16) [][]float32 {
	components := int(d.unitSize) / 2
	out := make([][]float32, numVertices)
	for v := uint16(0); v < numVertices; v++ {
		base := int(d.blockOffset) + int(v)*int(d.stride)
		row := make([]float32, components)
		for c := 0; c < components; c++ {
			off := base + c*2
			if off+2 > len(vertexData) {
				break
			}
			row[c] = decodeHalf(readHalf(vertexData, off))
		}
		out[v] = row
	}
	return out
}
