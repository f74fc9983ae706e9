// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

// Package minidump parses the Windows minidump container that carries an
// Xbox 360 memory dump: header, stream directory, memory-region list, and
// module list, plus the virtual-address → file-offset translation a
// downstream format parser needs when it wants to resolve a pointer found
// inside carved memory (spec §6). Read in the same explicit-offset,
// bounds-checked style as the rest of this module's binary readers
// (binaryreader.go), grounded on saferwall/pe's structUnpack discipline
// (helper.go) generalized from PE's on-disk layout to minidump's.
package minidump

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Errors returned while parsing a minidump container.
var (
	ErrInvalidFormat = errors.New("minidump: invalid format")
	ErrOutOfBounds   = errors.New("minidump: read out of bounds")
)

// HeaderSize is the fixed size of a MINIDUMP_HEADER (spec §6: "the
// MinidumpParser consumes the 32-byte header").
const HeaderSize = 32

// Recognized stream types (spec §6: "Only the memory-region list and
// module list are required; other streams are ignored"). Values match the
// well-known Windows minidump stream-type constants.
const (
	StreamModuleList = 4
	StreamMemoryList = 5
)

// Header is the minidump container header. The container is always
// little-endian, even when the memory it carries is big-endian (spec §6).
type Header struct {
	Signature          uint32
	Version            uint32
	NumberOfStreams    uint32
	StreamDirectoryRva uint32
	CheckSum           uint32
	TimeDateStamp      uint32
	Flags              uint64
}

const magicMDMP = 0x504d444d // "MDMP" read as a little-endian uint32

// directoryEntrySize is the size of one MINIDUMP_DIRECTORY entry: u32
// StreamType, u32 DataSize, u32 Rva.
const directoryEntrySize = 12

// MemoryRegion is one entry of the memory-region list: a contiguous range
// of target virtual memory and where its bytes live in the dump file.
type MemoryRegion struct {
	StartOfMemoryRange uint64
	DataSize           uint32
	FileOffset         int64
}

// End returns the exclusive end of the region's virtual-address range.
func (r MemoryRegion) End() uint64 {
	return r.StartOfMemoryRange + uint64(r.DataSize)
}

// Module is one entry of the module list.
type Module struct {
	BaseOfImage uint64
	SizeOfImage uint32
	Name        string
}

// Minidump is a parsed container: the header plus the two required
// streams.
type Minidump struct {
	Header  Header
	Regions []MemoryRegion
	Modules []Module
}

// Parse reads the minidump header, walks its stream directory, and parses
// the memory-region and module-list streams. Unrecognized stream types are
// skipped (spec §6).
func Parse(data []byte) (*Minidump, error) {
	if len(data) < HeaderSize {
		return nil, ErrOutOfBounds
	}
	h := Header{
		Signature:          binary.LittleEndian.Uint32(data[0:]),
		Version:            binary.LittleEndian.Uint32(data[4:]),
		NumberOfStreams:    binary.LittleEndian.Uint32(data[8:]),
		StreamDirectoryRva: binary.LittleEndian.Uint32(data[12:]),
		CheckSum:           binary.LittleEndian.Uint32(data[16:]),
		TimeDateStamp:      binary.LittleEndian.Uint32(data[20:]),
		Flags:              binary.LittleEndian.Uint64(data[24:]),
	}
	if h.Signature != magicMDMP {
		return nil, ErrInvalidFormat
	}

	m := &Minidump{Header: h}

	dirStart := int(h.StreamDirectoryRva)
	for i := uint32(0); i < h.NumberOfStreams; i++ {
		entryOffset := dirStart + int(i)*directoryEntrySize
		if entryOffset+directoryEntrySize > len(data) {
			return nil, fmt.Errorf("%w: stream directory entry %d", ErrOutOfBounds, i)
		}
		streamType := binary.LittleEndian.Uint32(data[entryOffset:])
		dataSize := binary.LittleEndian.Uint32(data[entryOffset+4:])
		rva := binary.LittleEndian.Uint32(data[entryOffset+8:])

		switch streamType {
		case StreamMemoryList:
			regions, err := parseMemoryList(data, int(rva), int(dataSize))
			if err != nil {
				return nil, err
			}
			m.Regions = regions
		case StreamModuleList:
			modules, err := parseModuleList(data, int(rva))
			if err != nil {
				return nil, err
			}
			m.Modules = modules
		}
	}
	return m, nil
}

func parseMemoryList(data []byte, offset, size int) ([]MemoryRegion, error) {
	if offset+4 > len(data) {
		return nil, fmt.Errorf("%w: memory list count", ErrOutOfBounds)
	}
	count := binary.LittleEndian.Uint32(data[offset:])
	regions := make([]MemoryRegion, 0, count)
	pos := offset + 4
	for i := uint32(0); i < count; i++ {
		if pos+16 > len(data) {
			return nil, fmt.Errorf("%w: memory descriptor %d", ErrOutOfBounds, i)
		}
		start := binary.LittleEndian.Uint64(data[pos:])
		dataSize := binary.LittleEndian.Uint32(data[pos+8:])
		rva := binary.LittleEndian.Uint32(data[pos+12:])
		regions = append(regions, MemoryRegion{StartOfMemoryRange: start, DataSize: dataSize, FileOffset: int64(rva)})
		pos += 16
	}
	return regions, nil
}

// moduleRecordSize is the fixed size of a MINIDUMP_MODULE entry.
const moduleRecordSize = 108

func parseModuleList(data []byte, offset int) ([]Module, error) {
	if offset+4 > len(data) {
		return nil, fmt.Errorf("%w: module list count", ErrOutOfBounds)
	}
	count := binary.LittleEndian.Uint32(data[offset:])
	modules := make([]Module, 0, count)
	pos := offset + 4
	for i := uint32(0); i < count; i++ {
		if pos+moduleRecordSize > len(data) {
			return nil, fmt.Errorf("%w: module record %d", ErrOutOfBounds, i)
		}
		base := binary.LittleEndian.Uint64(data[pos:])
		sizeOfImage := binary.LittleEndian.Uint32(data[pos+8:])
		nameRva := binary.LittleEndian.Uint32(data[pos+20:])
		name, _ := readModuleName(data, int(nameRva))
		modules = append(modules, Module{BaseOfImage: base, SizeOfImage: sizeOfImage, Name: name})
		pos += moduleRecordSize
	}
	return modules, nil
}

// readModuleName reads a MINIDUMP_STRING: u32 Length (bytes, not counting
// the length field), followed by that many bytes of UTF-16LE text.
func readModuleName(data []byte, offset int) (string, error) {
	if offset+4 > len(data) {
		return "", ErrOutOfBounds
	}
	length := binary.LittleEndian.Uint32(data[offset:])
	start := offset + 4
	end := start + int(length)
	if end > len(data) {
		return "", ErrOutOfBounds
	}
	return decodeUTF16LE(data[start:end]), nil
}

// decodeUTF16LE decodes a MINIDUMP_STRING's UTF-16LE payload.
func decodeUTF16LE(b []byte) string {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	s, err := decoder.Bytes(b)
	if err != nil {
		return ""
	}
	return string(s)
}

// FileOffsetForVA translates a target virtual address to its file offset
// by locating the memory region that contains it (spec §6's "virtual-
// address → file-offset mapping").
func (m *Minidump) FileOffsetForVA(va uint64) (int64, bool) {
	for _, r := range m.Regions {
		if va >= r.StartOfMemoryRange && va < r.End() {
			delta := va - r.StartOfMemoryRange
			return r.FileOffset + int64(delta), true
		}
	}
	return 0, false
}
