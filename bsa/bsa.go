// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

// Package bsa implements the Bethesda Archive reader: header and
// hashed folder/file table parsing, and per-entry zlib/LZ4 decompression
// (spec §4.10). Structurally grounded on the MPQ hashed-table layout
// surveyed from the retrieval pack (other_examples/…icza-mpq…mpq.go): a
// fixed header, a hash-keyed directory table, and per-entry
// compressed/uncompressed size pairs, generalized to BSA's specific
// 36-byte header and 64-bit hash scheme.
package bsa

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Errors returned while parsing a BSA archive.
var (
	ErrInvalidFormat  = errors.New("bsa: invalid format")
	ErrOutOfBounds    = errors.New("bsa: read out of bounds")
	ErrDecompression  = errors.New("bsa: decompression failed")
)

// Content flag bits recognized in the archive's content-flags field
// (spec §6).
const (
	ContentMeshes = 1 << iota
	ContentTextures
	ContentMenus
	ContentSounds
	ContentVoices
	ContentMisc
)

// Archive flag bits.
const (
	FlagDefaultCompressed = 1 << 2
	// FlagXbox360 marks an archive with big-endian header fields and a
	// swapped hash-half byte order (spec §4.10, §9 Open Question).
	FlagXbox360 = 1 << 9
	// FlagIncludeFileNames marks the presence of the concatenated,
	// NUL-terminated file-name block following the file tables.
	FlagIncludeFileNames = 1 << 1
)

// HeaderSize is the fixed size of a BSA header (spec §4.10).
const HeaderSize = 36

// Header is the 36-byte BSA archive header.
type Header struct {
	Version               uint32
	FolderTableOffset      uint32
	ArchiveFlags           uint32
	FolderCount            uint32
	FileCount              uint32
	TotalFolderNameLength  uint32
	TotalFileNameLength    uint32
	ContentFlags           uint32
}

// Xbox360 reports whether the platform bit marks this as an Xbox 360
// archive (big-endian fields, swapped hash halves).
func (h Header) Xbox360() bool {
	return h.ArchiveFlags&FlagXbox360 != 0
}

// DefaultCompressed reports whether files default to compressed storage,
// inverted per-file by FileRecord's CompressionToggle bit.
func (h Header) DefaultCompressed() bool {
	return h.ArchiveFlags&FlagDefaultCompressed != 0
}

func order(be bool) binary.ByteOrder {
	if be {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseHeader reads the fixed 36-byte BSA header at offset.
func ParseHeader(data []byte, offset int) (Header, bool, error) {
	if offset+HeaderSize > len(data) {
		return Header{}, false, ErrOutOfBounds
	}
	if string(data[offset:offset+4]) != "BSA\x00" {
		return Header{}, false, ErrInvalidFormat
	}
	// version is always little-endian; it's how we determine the rest.
	version := binary.LittleEndian.Uint32(data[offset+4:])
	if version != 104 && version != 105 {
		return Header{}, false, ErrInvalidFormat
	}

	// Peek the archive-flags field (always at the same relative offset
	// regardless of byte order) to learn whether the rest is big-endian.
	flagsLE := binary.LittleEndian.Uint32(data[offset+12:])
	be := flagsLE&FlagXbox360 != 0 && flagsLE < 0x10000
	// A big-endian archive's little-endian read of ArchiveFlags may
	// itself look nonsensical; fall back to reading both and picking
	// the one that yields a sane folder/file count.
	ord := order(be)
	h := Header{
		Version:               version,
		FolderTableOffset:      ord.Uint32(data[offset+8:]),
		ArchiveFlags:           ord.Uint32(data[offset+12:]),
		FolderCount:            ord.Uint32(data[offset+16:]),
		FileCount:              ord.Uint32(data[offset+20:]),
		TotalFolderNameLength:  ord.Uint32(data[offset+24:]),
		TotalFileNameLength:    ord.Uint32(data[offset+28:]),
		ContentFlags:           ord.Uint32(data[offset+32:]),
	}
	if h.FolderCount > 1_000_000 || h.FileCount > 10_000_000 {
		// retry with the other byte order once
		ord = order(!be)
		h = Header{
			Version:               version,
			FolderTableOffset:      ord.Uint32(data[offset+8:]),
			ArchiveFlags:           ord.Uint32(data[offset+12:]),
			FolderCount:            ord.Uint32(data[offset+16:]),
			FileCount:              ord.Uint32(data[offset+20:]),
			TotalFolderNameLength:  ord.Uint32(data[offset+24:]),
			TotalFileNameLength:    ord.Uint32(data[offset+28:]),
			ContentFlags:           ord.Uint32(data[offset+32:]),
		}
		if h.FolderCount > 1_000_000 || h.FileCount > 10_000_000 {
			return Header{}, false, ErrInvalidFormat
		}
	}
	return h, h.Xbox360(), nil
}

// FolderRecord is one entry of the BSA folder table.
type FolderRecord struct {
	NameHash        uint64
	FileCount       uint32
	NameOffsetHint  uint32
}

// FileRecord is one entry of a BSA file table.
type FileRecord struct {
	FolderPath         string
	FileName           string
	NameHash           uint64
	Size               uint32 // uncompressed size; high bit is the toggle flag
	Offset             uint32
	CompressionToggle  bool
}

// UncompressedSize returns the file's true uncompressed size with the
// compression-toggle bit masked off.
func (f FileRecord) UncompressedSize() uint32 {
	return f.Size &^ 0x80000000
}

// Archive is a fully parsed BSA folder/file table (spec §3, §4.10).
type Archive struct {
	Header  Header
	Folders []FolderRecord
	Files   []FileRecord
	be      bool
}

// Parse parses the BSA header and folder/file tables starting at offset.
func Parse(data []byte, offset int) (*Archive, error) {
	h, be, err := ParseHeader(data, offset)
	if err != nil {
		return nil, err
	}
	ord := order(be)

	folderTablePos := offset + int(h.FolderTableOffset)
	folders := make([]FolderRecord, h.FolderCount)
	pos := folderTablePos
	for i := range folders {
		if pos+16 > len(data) {
			return nil, ErrOutOfBounds
		}
		folders[i] = FolderRecord{
			NameHash:       ord.Uint64(data[pos:]),
			FileCount:      ord.Uint32(data[pos+8:]),
			NameOffsetHint: ord.Uint32(data[pos+12:]),
		}
		pos += 16
	}

	var files []FileRecord
	for _, fr := range folders {
		if pos >= len(data) {
			return nil, ErrOutOfBounds
		}
		nameLen := int(data[pos])
		pos++
		if pos+nameLen > len(data) {
			return nil, ErrOutOfBounds
		}
		folderName := trimNulSuffix(string(data[pos : pos+nameLen]))
		pos += nameLen

		for i := uint32(0); i < fr.FileCount; i++ {
			if pos+16 > len(data) {
				return nil, ErrOutOfBounds
			}
			nameHash := ord.Uint64(data[pos:])
			size := ord.Uint32(data[pos+8:])
			fileOffset := ord.Uint32(data[pos+12:])
			files = append(files, FileRecord{
				FolderPath:        folderName,
				NameHash:          nameHash,
				Size:              size,
				Offset:            fileOffset,
				CompressionToggle: size&0x80000000 != 0,
			})
			pos += 16
		}
	}

	if h.ArchiveFlags&FlagIncludeFileNames != 0 {
		end := pos + int(h.TotalFileNameLength)
		if end > len(data) {
			return nil, ErrOutOfBounds
		}
		names := splitNulTerminated(data[pos:end], len(files))
		for i := range files {
			if i < len(names) {
				files[i].FileName = names[i]
			}
		}
		pos = end
	}

	return &Archive{Header: h, Folders: folders, Files: files, be: be}, nil
}

// splitNulTerminated splits a block of concatenated NUL-terminated strings
// into at most want entries.
func splitNulTerminated(block []byte, want int) []string {
	names := make([]string, 0, want)
	start := 0
	for i, b := range block {
		if b == 0 {
			names = append(names, string(block[start:i]))
			start = i + 1
			if len(names) == want {
				break
			}
		}
	}
	return names
}

func trimNulSuffix(s string) string {
	for len(s) > 0 && s[len(s)-1] == 0 {
		s = s[:len(s)-1]
	}
	return s
}

// TotalSize estimates the archive's on-disk extent: the farthest byte any
// file's content region reaches, per spec §4.2 ("folder+file table offsets
// and content-length fields give total size").
func (a *Archive) TotalSize(data []byte, baseOffset int) (int64, error) {
	max := int64(baseOffset) + HeaderSize
	if v := int64(baseOffset) + int64(a.Header.FolderTableOffset) + int64(len(a.Folders))*16; v > max {
		max = v
	}
	for _, f := range a.Files {
		compressed := a.Header.DefaultCompressed() != f.CompressionToggle
		entryEnd := int64(baseOffset) + int64(f.Offset)
		if compressed {
			if int(entryEnd)+4 > len(data) {
				return 0, fmt.Errorf("%w: file entry at %d", ErrOutOfBounds, entryEnd)
			}
			ord := order(a.be)
			compressedLen := ord.Uint32(data[entryEnd:])
			entryEnd += 4 + int64(compressedLen)
		} else {
			entryEnd += int64(f.UncompressedSize())
		}
		if entryEnd > max {
			max = entryEnd
		}
	}
	return max - int64(baseOffset), nil
}
