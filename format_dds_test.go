// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "testing"

func TestDdsBytesPerBlock(t *testing.T) {
	tests := []struct {
		fourCC string
		want   int64
	}{
		{"DXT1", 8},
		{"ATI1", 8},
		{"BC4U", 8},
		{"DXT5", 16},
		{"BC7 ", 16},
	}
	for _, tt := range tests {
		if got := ddsBytesPerBlock(tt.fourCC); got != tt.want {
			t.Errorf("ddsBytesPerBlock(%q) = %d, want %d", tt.fourCC, got, tt.want)
		}
	}
}

func TestDdsComputeSizeSingleMip(t *testing.T) {
	// A single 4x4 DXT1 mip is exactly one block: 128-byte header + 8 bytes.
	got := ddsComputeSize(4, 4, 1, "DXT1")
	want := int64(ddsHeaderTotal + 8)
	if got != want {
		t.Errorf("ddsComputeSize(4,4,1,DXT1) = %d, want %d", got, want)
	}
}

func TestDdsComputeSizeDescendsToOneBlock(t *testing.T) {
	// A 2x2 mip still occupies a full 4x4 block (clamped to >= 1 block per
	// axis), so it costs the same as a 4x4 mip of the same format.
	full := ddsMipSize(4, 4, 8)
	small := ddsMipSize(2, 2, 8)
	if small != full {
		t.Errorf("ddsMipSize(2,2,8) = %d, want %d (clamped to one block)", small, full)
	}
}

func TestParseDDSRejectsBadMagic(t *testing.T) {
	data := make([]byte, 256)
	copy(data, "NOTD")
	if _, ok := parseDDS(data, 0); ok {
		t.Error("parseDDS accepted data without DDS magic")
	}
}

func TestParseDDSRejectsOversizedDimensions(t *testing.T) {
	data := make([]byte, ddsHeaderTotal)
	copy(data[0:4], "DDS ")
	putU32LE(data, 4, ddsHeaderSize)
	putU32LE(data, 12, 20000) // height > ddsMaxDim
	putU32LE(data, 16, 256)
	putU32LE(data, 28, 1)
	copy(data[84:88], "DXT1")
	if _, ok := parseDDS(data, 0); ok {
		t.Error("parseDDS accepted an oversized dimension")
	}
}

func TestParseDDSAcceptsValidHeader(t *testing.T) {
	data := make([]byte, ddsHeaderTotal)
	copy(data[0:4], "DDS ")
	putU32LE(data, 4, ddsHeaderSize)
	putU32LE(data, 12, 256) // height
	putU32LE(data, 16, 256) // width
	putU32LE(data, 28, 1)   // mip count
	copy(data[84:88], "DXT1")

	result, ok := parseDDS(data, 0)
	if !ok {
		t.Fatal("parseDDS rejected a valid header")
	}
	wantSize := int64(ddsHeaderTotal) + 64*64*8
	if result.EstimatedSize != wantSize {
		t.Errorf("EstimatedSize = %d, want %d", result.EstimatedSize, wantSize)
	}
	if result.Metadata.DDS == nil || result.Metadata.DDS.Width != 256 {
		t.Errorf("metadata width = %+v", result.Metadata.DDS)
	}
}

func putU32LE(b []byte, offset int, v uint32) {
	b[offset] = byte(v)
	b[offset+1] = byte(v >> 8)
	b[offset+2] = byte(v >> 16)
	b[offset+3] = byte(v >> 24)
}
