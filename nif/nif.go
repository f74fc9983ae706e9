// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

// Package nif implements the Gamebryo/NetImmerse NIF header and per-block
// layout parser (spec §4.6) and the block-aware endianness converter (spec
// §4.6–§4.9). Blocks are held in a flat arena (REDESIGN FLAGS: no owning
// pointers between blocks; a block references another only by its
// BlockIndex into Info.Blocks).
package nif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Errors returned by the parser and converter (spec §4.6, §7).
var (
	ErrInvalidFormat  = errors.New("nif: invalid format")
	ErrSizeMismatch   = errors.New("nif: block-size accumulator does not match file length")
	ErrOutOfBounds    = errors.New("nif: read out of bounds")
)

// Endianness of a NIF file, keyed off the single flag byte at
// header_line_len + 4.
type Endianness int

// Endianness values.
const (
	BigEndian Endianness = iota // 0x00, Xbox 360
	LittleEndian                // 0x01, PC
)

// wideStringBethVersion is the Bethesda-version floor at and above which
// this converter treats the NIF string table's entries as UTF-16 rather
// than ASCII. The spec text never states a byte width for the high end of
// the BS-version range; this is a documented assumption (see DESIGN.md),
// not a value recoverable from spec.md alone.
const wideStringBethVersion = 131

// BlockIndex is an arena index into Info.Blocks.
type BlockIndex uint32

// Block describes one block's position and type within the file (spec §3
// NifInfo "per-block (type-index, size, start-offset)").
type Block struct {
	TypeIndex uint16
	TypeName  string
	Size      uint32
	Start     int // offset of the block's payload, relative to the start of the NIF
}

// Info is the parsed NIF header plus per-block layout (spec §3 NifInfo).
type Info struct {
	Endianness   Endianness
	HeaderLine   string // e.g. "Gamebryo File Format, Version 20.2.0.7\n"
	VersionBytes [4]byte
	UserVersion  uint32
	NumBlocks    uint32
	BethVersion  uint32
	UserVersion2 uint32

	BlockTypeNames []string
	Blocks         []Block

	Strings         []string
	MaxStringLength uint32
	// WideStrings reports whether Strings was decoded as UTF-16
	// (BethVersion >= wideStringBethVersion) rather than ASCII.
	WideStrings bool

	Groups []uint32

	// HeaderSize is the number of bytes consumed before the first block
	// payload begins.
	HeaderSize int
	// EndianFlagOffset is the absolute offset of the single endianness
	// flag byte, relative to the start of the NIF (header_line_len + 4).
	EndianFlagOffset int
	// TotalSize is HeaderSize + sum of all block sizes.
	TotalSize int64
}

func readU32(b []byte, off int, be bool) (uint32, error) {
	if off < 0 || off+4 > len(b) {
		return 0, ErrOutOfBounds
	}
	if be {
		return binary.BigEndian.Uint32(b[off:]), nil
	}
	return binary.LittleEndian.Uint32(b[off:]), nil
}

func readU16(b []byte, off int, be bool) (uint16, error) {
	if off < 0 || off+2 > len(b) {
		return 0, ErrOutOfBounds
	}
	if be {
		return binary.BigEndian.Uint16(b[off:]), nil
	}
	return binary.LittleEndian.Uint16(b[off:]), nil
}

// readTableString reads a length-prefixed string table entry at pos: a u32
// length in the given endianness, then either that many ASCII bytes or, if
// wide is set, that many UTF-16 code units (spec §4.1's length-prefixed
// string reader, supplemented for BS-version-dependent wide NIF string
// tables). It returns the decoded string and the number of bytes consumed,
// including the 4-byte length prefix.
func readTableString(region []byte, pos int, be, wide bool) (string, int, error) {
	length, err := readU32(region, pos, be)
	if err != nil {
		return "", 0, err
	}
	pos += 4
	if !wide {
		if pos+int(length) > len(region) {
			return "", 0, ErrOutOfBounds
		}
		return string(region[pos : pos+int(length)]), 4 + int(length), nil
	}

	byteLen := int(length) * 2
	if pos+byteLen > len(region) {
		return "", 0, ErrOutOfBounds
	}
	endian := unicode.LittleEndian
	if be {
		endian = unicode.BigEndian
	}
	decoded, err := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder().Bytes(region[pos : pos+byteLen])
	if err != nil {
		return "", 0, ErrInvalidFormat
	}
	return string(decoded), 4 + byteLen, nil
}

// ParseHeader parses the NIF header and per-block layout table starting at
// offset within data, per spec §4.6.
func ParseHeader(data []byte, offset int) (*Info, error) {
	if offset < 0 || offset >= len(data) {
		return nil, ErrOutOfBounds
	}
	region := data[offset:]

	nl := bytes.IndexByte(region, '\n')
	if nl < 0 || nl > 256 {
		return nil, ErrInvalidFormat
	}
	headerLine := string(region[:nl+1])
	if bytes.IndexByte([]byte(headerLine[:nl]), 0) >= 0 {
		return nil, ErrInvalidFormat
	}

	pos := nl + 1
	if pos+4 > len(region) {
		return nil, ErrOutOfBounds
	}
	var versionBytes [4]byte
	copy(versionBytes[:], region[pos:pos+4])
	pos += 4

	if pos >= len(region) {
		return nil, ErrOutOfBounds
	}
	flag := region[pos]
	var endian Endianness
	switch flag {
	case 0x00:
		endian = BigEndian
	case 0x01:
		endian = LittleEndian
	default:
		return nil, ErrInvalidFormat
	}
	endianFlagOffset := pos
	pos++
	be := endian == BigEndian

	userVersion, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	numBlocks, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	bethVersion, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	userVersion2, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4

	numBlockTypes, err := readU16(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 2

	blockTypeNames := make([]string, numBlockTypes)
	for i := range blockTypeNames {
		length, err := readU32(region, pos, be)
		if err != nil {
			return nil, err
		}
		pos += 4
		if pos+int(length) > len(region) {
			return nil, ErrOutOfBounds
		}
		blockTypeNames[i] = string(region[pos : pos+int(length)])
		pos += int(length)
	}

	if numBlocks > 10_000_000 {
		return nil, ErrInvalidFormat
	}
	typeIndices := make([]uint16, numBlocks)
	for i := range typeIndices {
		v, err := readU16(region, pos, be)
		if err != nil {
			return nil, err
		}
		typeIndices[i] = v
		pos += 2
	}
	blockSizes := make([]uint32, numBlocks)
	for i := range blockSizes {
		v, err := readU32(region, pos, be)
		if err != nil {
			return nil, err
		}
		blockSizes[i] = v
		pos += 4
	}

	numStrings, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	maxStringLength, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	wideStrings := bethVersion >= wideStringBethVersion
	strs := make([]string, numStrings)
	for i := range strs {
		s, n, err := readTableString(region, pos, be, wideStrings)
		if err != nil {
			return nil, err
		}
		strs[i] = s
		pos += n
	}

	numGroups, err := readU32(region, pos, be)
	if err != nil {
		return nil, err
	}
	pos += 4
	groups := make([]uint32, numGroups)
	for i := range groups {
		v, err := readU32(region, pos, be)
		if err != nil {
			return nil, err
		}
		groups[i] = v
		pos += 4
	}

	headerSize := pos
	blocks := make([]Block, numBlocks)
	running := headerSize
	var blockTotal int64
	for i := range blocks {
		typeIdx := typeIndices[i]
		name := ""
		if int(typeIdx) < len(blockTypeNames) {
			name = blockTypeNames[typeIdx]
		}
		blocks[i] = Block{
			TypeIndex: typeIdx,
			TypeName:  name,
			Size:      blockSizes[i],
			Start:     running,
		}
		running += int(blockSizes[i])
		blockTotal += int64(blockSizes[i])
	}

	return &Info{
		Endianness:       endian,
		HeaderLine:       headerLine,
		VersionBytes:     versionBytes,
		UserVersion:      userVersion,
		NumBlocks:        numBlocks,
		BethVersion:      bethVersion,
		UserVersion2:     userVersion2,
		BlockTypeNames:   blockTypeNames,
		Blocks:           blocks,
		Strings:          strs,
		MaxStringLength:  maxStringLength,
		WideStrings:      wideStrings,
		Groups:           groups,
		HeaderSize:       headerSize,
		EndianFlagOffset: endianFlagOffset,
		TotalSize:        int64(headerSize) + blockTotal,
	}, nil
}

// ValidateSize checks the parsed header's TotalSize against the number of
// bytes available starting at offset, returning ErrSizeMismatch unless they
// agree exactly (spec §8, "a NIF whose file length ≠ header_size + Σ
// block_sizes is rejected with SizeMismatch"). Callers that only know a
// lower bound on the file's true length — a carver scanning a memory dump,
// where "available" is simply the rest of the dump rather than the file's
// real end — should compare against info.TotalSize directly instead of
// calling ValidateSize, which enforces the stricter standalone-file
// invariant.
func (info *Info) ValidateSize(available int64) error {
	if info.TotalSize != available {
		return fmt.Errorf("%w: want %d have %d", ErrSizeMismatch, info.TotalSize, available)
	}
	return nil
}
