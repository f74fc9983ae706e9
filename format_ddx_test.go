// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "testing"

func putU32BE(b []byte, offset int, v uint32) {
	b[offset] = byte(v >> 24)
	b[offset+1] = byte(v >> 16)
	b[offset+2] = byte(v >> 8)
	b[offset+3] = byte(v)
}

func buildDDX(width, height, mipCount uint32, fourCC string, dataSize uint32) []byte {
	data := make([]byte, ddxHeaderTotalMin+int(dataSize))
	copy(data[0:4], "3XDO")
	putU32BE(data, 4, ddxHeaderFrom4)
	putU32BE(data, 8, width)
	putU32BE(data, 12, height)
	putU32BE(data, 16, mipCount)
	copy(data[20:24], fourCC)
	putU32BE(data, 24, dataSize)
	return data
}

func TestParseDDXAcceptsValidHeader(t *testing.T) {
	data := buildDDX(64, 64, 1, "DXT1", 2048)
	result, ok := parseDDX(data, 0)
	if !ok {
		t.Fatal("parseDDX rejected a valid header")
	}
	want := int64(ddxMagicSize + ddxHeaderFrom4 + 2048)
	if result.EstimatedSize != want {
		t.Errorf("EstimatedSize = %d, want %d", result.EstimatedSize, want)
	}
	if result.Metadata.DDS == nil || result.Metadata.DDS.Endianness != BigEndian {
		t.Error("expected DDS metadata tagged BigEndian")
	}
}

func TestParseDDXRejectsBadMagic(t *testing.T) {
	data := buildDDX(64, 64, 1, "DXT1", 0)
	copy(data[0:4], "XXXX")
	if _, ok := parseDDX(data, 0); ok {
		t.Error("parseDDX accepted a bad magic")
	}
}

func TestParseDDXRejectsZeroDimension(t *testing.T) {
	data := buildDDX(0, 64, 1, "DXT1", 0)
	if _, ok := parseDDX(data, 0); ok {
		t.Error("parseDDX accepted a zero width")
	}
}

func TestParseDDXRejectsMismatchedHeaderSize(t *testing.T) {
	data := buildDDX(64, 64, 1, "DXT1", 0)
	putU32BE(data, 4, ddxHeaderFrom4+4)
	if _, ok := parseDDX(data, 0); ok {
		t.Error("parseDDX accepted a header_size disagreeing with the fixed layout")
	}
}
