// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package minidump

import (
	"encoding/binary"
	"testing"
)

func putU32(b []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(b[offset:], v)
}

func putU64(b []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(b[offset:], v)
}

// buildMinidump assembles a minimal MINIDUMP container with a memory-region
// list stream and a module-list stream, each placed immediately after the
// header and directory.
func buildMinidump() []byte {
	const dirOffset = HeaderSize
	const numStreams = 2
	const dirSize = numStreams * directoryEntrySize

	memListOffset := dirOffset + dirSize
	memList := make([]byte, 4+16) // count + one 16-byte descriptor: start(8) dataSize(4) rva(4)
	putU32(memList, 0, 1)
	putU64(memList, 4, 0x82000000) // StartOfMemoryRange
	putU32(memList, 4+8, 0x1000)   // DataSize
	fileOffsetForRegion := memListOffset + len(memList)
	putU32(memList, 4+12, uint32(fileOffsetForRegion)) // file offset of the region's bytes

	name := []byte{'x', 0, 'e', 0, '.', 0, 'x', 0, 'e', 0} // "xe.xe" UTF-16LE
	moduleListOffset := memListOffset + len(memList) + 0x1000
	nameOffset := moduleListOffset + 4 + moduleRecordSize
	moduleList := make([]byte, 4+moduleRecordSize)
	putU32(moduleList, 0, 1)
	putU64(moduleList, 4, 0x82010000)         // BaseOfImage
	putU32(moduleList, 12, 0x2000)            // SizeOfImage
	putU32(moduleList, 4+20, uint32(nameOffset)) // ModuleNameRva

	nameBlob := make([]byte, 4+len(name))
	putU32(nameBlob, 0, uint32(len(name)))
	copy(nameBlob[4:], name)

	total := nameOffset + len(nameBlob)
	data := make([]byte, total)
	putU32(data, 0, magicMDMP)
	putU32(data, 4, 1)           // version
	putU32(data, 8, numStreams)
	putU32(data, 12, dirOffset)

	dirEntry := func(i int, streamType, size, rva uint32) {
		off := dirOffset + i*directoryEntrySize
		putU32(data, off, streamType)
		putU32(data, off+4, size)
		putU32(data, off+8, rva)
	}
	dirEntry(0, StreamMemoryList, uint32(len(memList)), uint32(memListOffset))
	dirEntry(1, StreamModuleList, uint32(len(moduleList)), uint32(moduleListOffset))

	copy(data[memListOffset:], memList)
	copy(data[moduleListOffset:], moduleList)
	copy(data[nameOffset:], nameBlob)
	return data
}

func TestParseRejectsBadSignature(t *testing.T) {
	data := make([]byte, HeaderSize)
	if _, err := Parse(data); err == nil {
		t.Error("Parse accepted a zeroed header with no MDMP signature")
	}
}

func TestParseReadsRegionsAndModules(t *testing.T) {
	data := buildMinidump()
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(m.Regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(m.Regions))
	}
	if m.Regions[0].StartOfMemoryRange != 0x82000000 {
		t.Errorf("StartOfMemoryRange = %#x, want 0x82000000", m.Regions[0].StartOfMemoryRange)
	}
	if len(m.Modules) != 1 {
		t.Fatalf("got %d modules, want 1", len(m.Modules))
	}
	if m.Modules[0].Name != "xe.xe" {
		t.Errorf("Module name = %q, want xe.xe", m.Modules[0].Name)
	}
	if m.Modules[0].BaseOfImage != 0x82010000 {
		t.Errorf("BaseOfImage = %#x, want 0x82010000", m.Modules[0].BaseOfImage)
	}
}

func TestFileOffsetForVATranslatesWithinRegion(t *testing.T) {
	data := buildMinidump()
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	off, ok := m.FileOffsetForVA(0x82000010)
	if !ok {
		t.Fatal("FileOffsetForVA failed to resolve an address within the region")
	}
	want := m.Regions[0].FileOffset + 0x10
	if off != want {
		t.Errorf("FileOffsetForVA = %d, want %d", off, want)
	}
}

func TestFileOffsetForVARejectsOutsideAnyRegion(t *testing.T) {
	data := buildMinidump()
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := m.FileOffsetForVA(0xFFFFFFFF); ok {
		t.Error("FileOffsetForVA resolved an address outside every region")
	}
}
