// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package bsa

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Extract reads and, if necessary, decompresses the file content for entry
// within data, a BSA archive that starts at baseOffset (spec §4.10
// "Extract"). The returned bytes satisfy the length invariant
// len(result) == entry.UncompressedSize() for every well-formed entry
// (spec §8).
func (a *Archive) Extract(data []byte, baseOffset int, entry FileRecord) ([]byte, error) {
	ord := order(a.be)
	pos := baseOffset + int(entry.Offset)
	compressed := a.Header.DefaultCompressed() != entry.CompressionToggle

	if !compressed {
		n := int(entry.UncompressedSize())
		if pos+n > len(data) {
			return nil, fmt.Errorf("%w: uncompressed file at %d", ErrOutOfBounds, pos)
		}
		out := make([]byte, n)
		copy(out, data[pos:pos+n])
		return out, nil
	}

	if pos+4 > len(data) {
		return nil, fmt.Errorf("%w: compressed length field at %d", ErrOutOfBounds, pos)
	}
	compressedLen := ord.Uint32(data[pos:])
	pos += 4
	if pos+int(compressedLen) > len(data) {
		return nil, fmt.Errorf("%w: compressed payload at %d", ErrOutOfBounds, pos)
	}
	payload := data[pos : pos+int(compressedLen)]

	var out []byte
	var err error
	switch a.Header.Version {
	case 104:
		out, err = inflateZlib(payload)
	case 105:
		out, err = inflateLZ4(payload, int(entry.UncompressedSize()))
	default:
		return nil, fmt.Errorf("%w: unsupported archive version %d", ErrInvalidFormat, a.Header.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompression, err)
	}
	if uint32(len(out)) != entry.UncompressedSize() {
		return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrDecompression, len(out), entry.UncompressedSize())
	}
	return out, nil
}

func inflateZlib(payload []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// inflateLZ4 decompresses a v105 BSA payload, which stores LZ4 data as a
// sequence of block-framed chunks rather than the canonical LZ4 frame
// format: a little-endian uint32 giving the compressed block size precedes
// each compressed block, terminated once wantSize bytes have been
// produced.
func inflateLZ4(payload []byte, wantSize int) ([]byte, error) {
	out := make([]byte, 0, wantSize)
	pos := 0
	for len(out) < wantSize {
		if pos+4 > len(payload) {
			return nil, fmt.Errorf("bsa: truncated LZ4 block frame at %d", pos)
		}
		blockLen := int(binary.LittleEndian.Uint32(payload[pos:]))
		pos += 4
		if pos+blockLen > len(payload) {
			return nil, fmt.Errorf("bsa: LZ4 block overruns payload at %d", pos)
		}
		block := payload[pos : pos+blockLen]
		pos += blockLen

		remaining := wantSize - len(out)
		dst := make([]byte, remaining)
		n, err := lz4.UncompressBlock(block, dst)
		if err != nil {
			return nil, err
		}
		out = append(out, dst[:n]...)
	}
	return out, nil
}
