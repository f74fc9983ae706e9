// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveOverlapsDropsLowerPriority(t *testing.T) {
	entries := []CarvedEntry{
		{Offset: 0, Length: 100, FormatID: "low", Priority: 50},
		{Offset: 10, Length: 10, FormatID: "high", Priority: 10},
	}
	got := resolveOverlaps(entries)
	if len(got) != 1 || got[0].FormatID != "high" {
		t.Errorf("resolveOverlaps = %+v, want only the higher-priority entry", got)
	}
}

func TestResolveOverlapsKeepsNonOverlapping(t *testing.T) {
	entries := []CarvedEntry{
		{Offset: 0, Length: 10, FormatID: "a", Priority: 10},
		{Offset: 20, Length: 10, FormatID: "b", Priority: 10},
	}
	got := resolveOverlaps(entries)
	if len(got) != 2 {
		t.Errorf("resolveOverlaps dropped a non-overlapping entry: %+v", got)
	}
}

func TestResolveOverlapsOrdersByOffset(t *testing.T) {
	entries := []CarvedEntry{
		{Offset: 50, Length: 4, FormatID: "b", Priority: 10},
		{Offset: 0, Length: 4, FormatID: "a", Priority: 10},
	}
	got := resolveOverlaps(entries)
	if got[0].Offset != 0 || got[1].Offset != 50 {
		t.Errorf("entries not in ascending offset order: %+v", got)
	}
}

func TestCarverAnalyzeFindsDDS(t *testing.T) {
	data := make([]byte, 4096)
	copy(data[0x100:], "DDS ")
	putU32LE(data, 0x100+4, ddsHeaderSize)
	putU32LE(data, 0x100+12, 256)
	putU32LE(data, 0x100+16, 256)
	putU32LE(data, 0x100+28, 1)
	copy(data[0x100+84:0x100+88], "DXT1")

	dump := OpenBytes(data, nil)
	carver := NewCarver(DefaultRegistry())
	result, err := carver.Analyze(context.Background(), dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("got %d entries, want 1: %+v", len(result.Entries), result.Entries)
	}
	if result.Entries[0].Offset != 0x100 || result.Entries[0].FormatID != "dds" {
		t.Errorf("unexpected entry: %+v", result.Entries[0])
	}
}

func TestCarverAnalyzeChunkBoundary(t *testing.T) {
	// Place a DDS header straddling a small chunk boundary to exercise the
	// overlap window.
	data := make([]byte, 2048)
	headerOffset := 100
	copy(data[headerOffset:], "DDS ")
	putU32LE(data, headerOffset+4, ddsHeaderSize)
	putU32LE(data, headerOffset+12, 64)
	putU32LE(data, headerOffset+16, 64)
	putU32LE(data, headerOffset+28, 1)
	copy(data[headerOffset+84:headerOffset+88], "DXT1")

	dump := OpenBytes(data, nil)
	carver := NewCarver(DefaultRegistry()).WithChunking(128, 64)
	result, err := carver.Analyze(context.Background(), dump, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 1 || result.Entries[0].Offset != int64(headerOffset) {
		t.Errorf("got %+v, want one entry at offset %d", result.Entries, headerOffset)
	}
}

func TestCarverAnalyzeMultipleFormatsGolden(t *testing.T) {
	data := make([]byte, 8192)

	ddsOffset := 0x100
	copy(data[ddsOffset:], "DDS ")
	putU32LE(data, ddsOffset+4, ddsHeaderSize)
	putU32LE(data, ddsOffset+12, 64)
	putU32LE(data, ddsOffset+16, 64)
	putU32LE(data, ddsOffset+28, 1)
	copy(data[ddsOffset+84:ddsOffset+88], "DXT1")

	pngOffset := 0x1000
	copy(data[pngOffset:], pngMagic)
	// one IEND chunk: 4-byte length (0) + "IEND" + 4-byte CRC
	putU32BE(data, pngOffset+8, 0)
	copy(data[pngOffset+8+4:], "IEND")

	dump := OpenBytes(data, nil)
	carver := NewCarver(DefaultRegistry())
	result, err := carver.Analyze(context.Background(), dump, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []CarvedEntry{
		{
			Offset:   int64(ddsOffset),
			Length:   int64(ddsHeaderTotal) + ddsMipSize(64, 64, 8),
			FormatID: "dds",
			Priority: 10,
			Metadata: Metadata{DDS: &DDSMetadata{
				Width: 64, Height: 64, MipCount: 1, FourCC: "DXT1", Endianness: LittleEndian,
			}},
		},
		{
			Offset:   int64(pngOffset),
			Length:   int64(len(pngMagic)) + pngChunkOverhead,
			FormatID: "png",
			Priority: 20,
		},
	}

	if diff := cmp.Diff(want, result.Entries); diff != "" {
		t.Errorf("Analyze() entries mismatch (-want +got):\n%s", diff)
	}
}
