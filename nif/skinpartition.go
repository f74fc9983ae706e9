// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package nif

import "fmt"

// rewriteSkinPartition swaps every integer and float field of a
// NiSkinPartition block in place, per spec §4.7. Booleans are single bytes
// and are left untouched.
func rewriteSkinPartition(dst []byte) error {
	pos := 0
	need := func(n int) error {
		if pos+n > len(dst) {
			return fmt.Errorf("nif: skin partition truncated at %d (need %d, have %d)", pos, n, len(dst))
		}
		return nil
	}

	if err := need(4); err != nil {
		return err
	}
	numPartitions := swap32Get(dst, pos)
	pos += 4

	for p := uint32(0); p < numPartitions; p++ {
		if err := need(10); err != nil {
			return err
		}
		numVertices := swap16Get(dst, pos)
		pos += 2
		numTriangles := swap16Get(dst, pos)
		pos += 2
		numBones := swap16Get(dst, pos)
		pos += 2
		numStrips := swap16Get(dst, pos)
		pos += 2
		numWeightsPerVertex := swap16Get(dst, pos)
		pos += 2

		if err := need(int(numBones) * 2); err != nil {
			return err
		}
		for i := uint16(0); i < numBones; i++ {
			swap16(dst, pos)
			pos += 2
		}

		if err := need(1); err != nil {
			return err
		}
		hasVertexMap := dst[pos] != 0
		pos++
		if hasVertexMap {
			if err := need(int(numVertices) * 2); err != nil {
				return err
			}
			for i := uint16(0); i < numVertices; i++ {
				swap16(dst, pos)
				pos += 2
			}
		}

		if err := need(1); err != nil {
			return err
		}
		hasVertexWeights := dst[pos] != 0
		pos++
		if hasVertexWeights {
			count := int(numVertices) * int(numWeightsPerVertex)
			if err := need(count * 4); err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				swap32(dst, pos)
				pos += 4
			}
		}

		if err := need(int(numStrips) * 2); err != nil {
			return err
		}
		stripLengths := make([]uint16, numStrips)
		for i := uint16(0); i < numStrips; i++ {
			stripLengths[i] = swap16Get(dst, pos)
			pos += 2
		}

		if err := need(1); err != nil {
			return err
		}
		hasFaces := dst[pos] != 0
		pos++
		if hasFaces {
			if numStrips > 0 {
				for _, sl := range stripLengths {
					if err := need(int(sl) * 2); err != nil {
						return err
					}
					for i := uint16(0); i < sl; i++ {
						swap16(dst, pos)
						pos += 2
					}
				}
			} else {
				count := int(numTriangles) * 3
				if err := need(count * 2); err != nil {
					return err
				}
				for i := 0; i < count; i++ {
					swap16(dst, pos)
					pos += 2
				}
			}
		}

		if err := need(1); err != nil {
			return err
		}
		hasBoneIndices := dst[pos] != 0
		pos++
		if hasBoneIndices {
			count := int(numVertices) * int(numWeightsPerVertex)
			if err := need(count); err != nil {
				return err
			}
			pos += count // u8 entries: endianness-invariant, position only
		}
	}
	return nil
}
