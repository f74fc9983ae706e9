// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "testing"

// buildMinimalNIF assembles a tiny little-endian NIF with no blocks, just
// enough for parseNIF's header validation.
func buildMinimalNIF() []byte {
	var b []byte
	b = append(b, nifMagicPrefix+" 20.2.0.7\n"...)
	b = append(b, 20, 2, 0, 7) // version bytes
	b = append(b, 0x01)        // little-endian flag

	u32 := func(v uint32) {
		b = append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	}
	u16 := func(v uint16) {
		b = append(b, byte(v), byte(v>>8))
	}

	u32(11) // user version
	u32(0)  // num blocks
	u32(34) // beth version
	u32(0)  // user version 2
	u16(0)  // num block types
	u32(0)  // num strings
	u32(0)  // max string length
	u32(0)  // num groups
	return b
}

func TestParseNIFAcceptsValidHeader(t *testing.T) {
	data := buildMinimalNIF()
	result, ok := parseNIF(data, 0)
	if !ok {
		t.Fatal("parseNIF rejected a valid little-endian header")
	}
	if result.Metadata.NIF == nil {
		t.Fatal("expected NIF metadata")
	}
	if result.Metadata.NIF.Endianness != LittleEndian {
		t.Errorf("Endianness = %v, want LittleEndian", result.Metadata.NIF.Endianness)
	}
	if result.Metadata.NIF.BSVersion != 34 {
		t.Errorf("BSVersion = %d, want 34", result.Metadata.NIF.BSVersion)
	}
}

func TestParseNIFRejectsBadMagic(t *testing.T) {
	data := buildMinimalNIF()
	data[0] = 'x'
	if _, ok := parseNIF(data, 0); ok {
		t.Error("parseNIF accepted a corrupted magic prefix")
	}
}

func TestParseNIFRejectsTruncatedHeader(t *testing.T) {
	data := buildMinimalNIF()
	data = data[:len(data)-4]
	if _, ok := parseNIF(data, 0); ok {
		t.Error("parseNIF accepted a truncated header")
	}
}
