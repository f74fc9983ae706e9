// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"encoding/binary"
	"math"
)

// This file implements the primitive reader described in spec §4.1:
// explicit-offset, explicit-endianness accessors over a byte slice, with no
// cursor state. Bounds checking follows the same additive-overflow-safe
// pattern as saferwall/pe's structUnpack/ReadBytesAtOffset (helper.go).

func boundsCheck(b []byte, offset, size int) error {
	if offset < 0 || size < 0 {
		return ErrOutOfBounds
	}
	end := offset + size
	if end < offset {
		return ErrOutOfBounds
	}
	if end > len(b) {
		return ErrOutOfBounds
	}
	return nil
}

// U8 reads a single byte at offset.
func U8(b []byte, offset int) (uint8, error) {
	if err := boundsCheck(b, offset, 1); err != nil {
		return 0, err
	}
	return b[offset], nil
}

// U16LE reads a little-endian uint16 at offset.
func U16LE(b []byte, offset int) (uint16, error) {
	if err := boundsCheck(b, offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[offset:]), nil
}

// U16BE reads a big-endian uint16 at offset.
func U16BE(b []byte, offset int) (uint16, error) {
	if err := boundsCheck(b, offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[offset:]), nil
}

// U32LE reads a little-endian uint32 at offset.
func U32LE(b []byte, offset int) (uint32, error) {
	if err := boundsCheck(b, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[offset:]), nil
}

// U32BE reads a big-endian uint32 at offset.
func U32BE(b []byte, offset int) (uint32, error) {
	if err := boundsCheck(b, offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[offset:]), nil
}

// U64LE reads a little-endian uint64 at offset.
func U64LE(b []byte, offset int) (uint64, error) {
	if err := boundsCheck(b, offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[offset:]), nil
}

// U64BE reads a big-endian uint64 at offset.
func U64BE(b []byte, offset int) (uint64, error) {
	if err := boundsCheck(b, offset, 8); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[offset:]), nil
}

// I16LE reads a little-endian int16 at offset.
func I16LE(b []byte, offset int) (int16, error) {
	v, err := U16LE(b, offset)
	return int16(v), err
}

// I16BE reads a big-endian int16 at offset.
func I16BE(b []byte, offset int) (int16, error) {
	v, err := U16BE(b, offset)
	return int16(v), err
}

// I32LE reads a little-endian int32 at offset.
func I32LE(b []byte, offset int) (int32, error) {
	v, err := U32LE(b, offset)
	return int32(v), err
}

// I32BE reads a big-endian int32 at offset.
func I32BE(b []byte, offset int) (int32, error) {
	v, err := U32BE(b, offset)
	return int32(v), err
}

// I64LE reads a little-endian int64 at offset.
func I64LE(b []byte, offset int) (int64, error) {
	v, err := U64LE(b, offset)
	return int64(v), err
}

// I64BE reads a big-endian int64 at offset.
func I64BE(b []byte, offset int) (int64, error) {
	v, err := U64BE(b, offset)
	return int64(v), err
}

// F32LE reads a little-endian IEEE-754 single at offset.
func F32LE(b []byte, offset int) (float32, error) {
	v, err := U32LE(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F32BE reads a big-endian IEEE-754 single at offset.
func F32BE(b []byte, offset int) (float32, error) {
	v, err := U32BE(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F64LE reads a little-endian IEEE-754 double at offset.
func F64LE(b []byte, offset int) (float64, error) {
	v, err := U64LE(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// F64BE reads a big-endian IEEE-754 double at offset.
func F64BE(b []byte, offset int) (float64, error) {
	v, err := U64BE(b, offset)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// HalfLE reads a little-endian IEEE-754 half-precision float and decodes it
// to float32 (sign · exponent-5 · mantissa-10, with subnormal and Inf/NaN
// handled per IEEE 754).
func HalfLE(b []byte, offset int) (float32, error) {
	v, err := U16LE(b, offset)
	if err != nil {
		return 0, err
	}
	return DecodeHalf(v), nil
}

// HalfBE reads a big-endian IEEE-754 half-precision float and decodes it.
func HalfBE(b []byte, offset int) (float32, error) {
	v, err := U16BE(b, offset)
	if err != nil {
		return 0, err
	}
	return DecodeHalf(v), nil
}

// DecodeHalf decodes a raw 16-bit IEEE-754 half into a float32.
func DecodeHalf(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h) & 0x3ff

	var f32bits uint32
	switch {
	case exp == 0 && mant == 0:
		// zero
		f32bits = sign << 31
	case exp == 0:
		// subnormal: normalize by shifting until the leading bit is set
		e := 0
		m := mant
		for m&0x400 == 0 {
			m <<= 1
			e--
		}
		m &= 0x3ff
		exp32 := uint32(int32(e) + 127 - 15 + 1)
		f32bits = (sign << 31) | (exp32 << 23) | (m << 13)
	case exp == 0x1f:
		// Inf / NaN
		f32bits = (sign << 31) | (0xff << 23) | (mant << 13)
	default:
		exp32 := exp - 15 + 127
		f32bits = (sign << 31) | (exp32 << 23) | (mant << 13)
	}
	return math.Float32frombits(f32bits)
}

// EncodeHalf encodes a float32 into a raw 16-bit IEEE-754 half, rounding
// toward zero. The NIF converter does not call it: it swaps packed-geometry
// half fields as raw 16-bit words.
func EncodeHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		// too small to represent, flush to signed zero
		return sign
	case exp >= 0x1f:
		// overflow to Inf
		return sign | 0x7c00
	default:
		return sign | uint16(exp<<10) | uint16(mant>>13)
	}
}

// NullTerminatedASCII returns the ASCII slice up to (exclusive) the first
// NUL byte or maxLen, whichever comes first.
func NullTerminatedASCII(b []byte, offset, maxLen int) (string, error) {
	if err := boundsCheck(b, offset, 0); err != nil {
		return "", err
	}
	end := offset + maxLen
	if end > len(b) {
		end = len(b)
	}
	run := b[offset:end]
	for i, c := range run {
		if c == 0 {
			return string(run[:i]), nil
		}
	}
	return string(run), nil
}

// LengthPrefixedString reads a uint32 length (in the given endianness) then
// that many ASCII bytes.
func LengthPrefixedString(b []byte, offset int, bigEndian bool) (string, int, error) {
	var length uint32
	var err error
	if bigEndian {
		length, err = U32BE(b, offset)
	} else {
		length, err = U32LE(b, offset)
	}
	if err != nil {
		return "", 0, err
	}
	start := offset + 4
	if err := boundsCheck(b, start, int(length)); err != nil {
		return "", 0, err
	}
	return string(b[start : start+int(length)]), 4 + int(length), nil
}
