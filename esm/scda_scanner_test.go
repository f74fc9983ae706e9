// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package esm

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/xbdump/carve/scda"
)

func u16le(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func TestScanScdaDecompilesRecognizedBytecode(t *testing.T) {
	var bytecode []byte
	bytecode = append(bytecode, u16le(scda.OpBegin)...)
	bytecode = append(bytecode, u16le(2)...)
	bytecode = append(bytecode, u16le(0)...)
	bytecode = append(bytecode, u16le(scda.OpEnd)...)

	var data []byte
	data = append(data, "SCDA"...)
	data = append(data, u16le(uint16(len(bytecode)))...)
	data = append(data, bytecode...)

	records := ScanScda(data, nil)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if !strings.Contains(records[0].Source, "Begin GameMode") {
		t.Errorf("Source = %q, missing decompiled Begin", records[0].Source)
	}
}

func TestScanScdaSkipsUnrecognizedBody(t *testing.T) {
	var data []byte
	data = append(data, "SCDA"...)
	data = append(data, u16le(2)...)
	data = append(data, u16le(0x0005)...) // not a recognized leading opcode

	records := ScanScda(data, nil)
	if len(records) != 0 {
		t.Errorf("got %d records, want 0 for an unrecognized body", len(records))
	}
}

func TestScanScdaCorrelatesNearbyFormIDs(t *testing.T) {
	var bytecode []byte
	bytecode = append(bytecode, u16le(scda.OpEnd)...)

	var data []byte
	data = append(data, "SCDA"...)
	data = append(data, u16le(uint16(len(bytecode)))...)
	data = append(data, bytecode...)

	scroBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(scroBody, 0x01002233)
	data, _ = appendSubrecord(data, "SCRO", scroBody)

	records := ScanScda(data, nil)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if len(records[0].FormIDs) != 1 || records[0].FormIDs[0] != 0x01002233 {
		t.Errorf("FormIDs = %v, want [0x01002233]", records[0].FormIDs)
	}
}
