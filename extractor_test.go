// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractorRunWritesSelectedEntries(t *testing.T) {
	data := make([]byte, 0x100+32896)
	copy(data[0x100:], "DDS ")
	putU32LE(data, 0x100+4, ddsHeaderSize)
	putU32LE(data, 0x100+12, 256)
	putU32LE(data, 0x100+16, 256)
	putU32LE(data, 0x100+28, 1)
	copy(data[0x100+84:0x100+88], "DXT1")

	dump := OpenBytes(data, nil)
	entry := CarvedEntry{Offset: 0x100, Length: 32896, FormatID: "dds"}

	dir := t.TempDir()
	extractor := NewExtractor(DefaultRegistry(), nil)
	summary := extractor.Run(dump, []CarvedEntry{entry}, ExtractionOptions{OutputPath: dir})

	if summary.Extracted != 1 {
		t.Fatalf("Extracted = %d, want 1: %+v", summary.Extracted, summary.Records)
	}
	got := summary.Records[0]
	if got.Status != Extracted {
		t.Fatalf("Status = %v, want Extracted: %v", got.Status, got.Err)
	}
	if _, err := os.Stat(got.Path); err != nil {
		t.Errorf("expected output file at %s: %v", got.Path, err)
	}
}

func TestExtractorRunSkipsExistingWhenRequested(t *testing.T) {
	data := make([]byte, 4096)
	copy(data[0x100:], "DDS ")
	putU32LE(data, 0x100+4, ddsHeaderSize)
	putU32LE(data, 0x100+12, 256)
	putU32LE(data, 0x100+16, 256)
	putU32LE(data, 0x100+28, 1)
	copy(data[0x100+84:0x100+88], "DXT1")

	dump := OpenBytes(data, nil)
	entry := CarvedEntry{Offset: 0x100, Length: 32896, FormatID: "dds"}

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "textures"), 0o755); err != nil {
		t.Fatal(err)
	}
	existingName := candidateName(entry, mustFormat(t, "dds"))
	existingPath := filepath.Join(dir, "textures", existingName)
	if err := os.WriteFile(existingPath, []byte("preexisting"), 0o644); err != nil {
		t.Fatal(err)
	}

	extractor := NewExtractor(DefaultRegistry(), nil)
	summary := extractor.Run(dump, []CarvedEntry{entry}, ExtractionOptions{OutputPath: dir, SkipExisting: true})

	if summary.SkippedN != 1 {
		t.Fatalf("SkippedN = %d, want 1: %+v", summary.SkippedN, summary.Records)
	}
}

func TestNameAllocatorAppendsSuffixOnCollision(t *testing.T) {
	a := newNameAllocator()
	first := a.allocate("textures", "dds_00000100.dds")
	second := a.allocate("textures", "dds_00000100.dds")
	if first == second {
		t.Errorf("allocator returned the same name twice: %q", first)
	}
	if second != "dds_00000100_1.dds" {
		t.Errorf("second allocation = %q, want dds_00000100_1.dds", second)
	}
}

func TestNameAllocatorScopesCollisionsPerFolder(t *testing.T) {
	a := newNameAllocator()
	first := a.allocate("textures", "same.dds")
	second := a.allocate("models", "same.dds")
	if first != second {
		t.Errorf("different folders should not collide: %q vs %q", first, second)
	}
}

func mustFormat(t *testing.T, id string) *FormatModule {
	t.Helper()
	module, ok := DefaultRegistry().ByID(id)
	if !ok {
		t.Fatalf("format %q not registered", id)
	}
	return module
}
