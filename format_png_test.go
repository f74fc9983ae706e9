// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "testing"

func buildPNGChunk(chunkType string, body []byte) []byte {
	chunk := make([]byte, 8+len(body)+4)
	putU32BE(chunk, 0, uint32(len(body)))
	copy(chunk[4:8], chunkType)
	copy(chunk[8:], body)
	return chunk
}

func TestParsePNGSumsChunksToIEND(t *testing.T) {
	var data []byte
	data = append(data, pngMagic...)
	data = append(data, buildPNGChunk("IHDR", make([]byte, 13))...)
	data = append(data, buildPNGChunk("IDAT", make([]byte, 32))...)
	data = append(data, buildPNGChunk("IEND", nil)...)

	result, ok := parsePNG(data, 0)
	if !ok {
		t.Fatal("parsePNG rejected a well-formed chunk stream")
	}
	if result.EstimatedSize != int64(len(data)) {
		t.Errorf("EstimatedSize = %d, want %d", result.EstimatedSize, len(data))
	}
}

func TestParsePNGRejectsBadMagic(t *testing.T) {
	data := append([]byte{}, pngMagic...)
	data[0] = 0x00
	data = append(data, buildPNGChunk("IEND", nil)...)
	if _, ok := parsePNG(data, 0); ok {
		t.Error("parsePNG accepted a corrupted magic")
	}
}

func TestParsePNGRejectsMissingIEND(t *testing.T) {
	var data []byte
	data = append(data, pngMagic...)
	data = append(data, buildPNGChunk("IHDR", make([]byte, 13))...)
	if _, ok := parsePNG(data, 0); ok {
		t.Error("parsePNG accepted a stream with no IEND chunk")
	}
}
