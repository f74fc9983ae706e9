// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package esm

import (
	"encoding/binary"
	"testing"
)

// appendSubrecord appends a 4-byte signature, a u16 length prefix, and body
// to b, returning the offset the signature was written at.
func appendSubrecord(b []byte, sig string, body []byte) ([]byte, int) {
	offset := len(b)
	b = append(b, sig...)
	length := make([]byte, 2)
	binary.LittleEndian.PutUint16(length, uint16(len(body)))
	b = append(b, length...)
	b = append(b, body...)
	return b, offset
}

func TestParseEDIDAcceptsIdentifierShapedName(t *testing.T) {
	data, _ := appendSubrecord(nil, "EDID", []byte("VaultBoyStatue01\x00"))
	hit, ok := parseEDID(data, 0)
	if !ok {
		t.Fatal("parseEDID rejected a valid editor ID")
	}
	if hit.Name != "VaultBoyStatue01" {
		t.Errorf("Name = %q, want VaultBoyStatue01", hit.Name)
	}
}

func TestParseEDIDRejectsNonIdentifierStart(t *testing.T) {
	data, _ := appendSubrecord(nil, "EDID", []byte("123Bad\x00"))
	if _, ok := parseEDID(data, 0); ok {
		t.Error("parseEDID accepted a name starting with a digit")
	}
}

func TestParseEDIDRejectsLowAlnumRatio(t *testing.T) {
	data, _ := appendSubrecord(nil, "EDID", []byte("a!@#$%^&*()"))
	if _, ok := parseEDID(data, 0); ok {
		t.Error("parseEDID accepted a name below the 90% alnum threshold")
	}
}

func TestParseGMSTAcceptsValidPrefix(t *testing.T) {
	data, _ := appendSubrecord(nil, "GMST", []byte("fMovementBase\x00"))
	hit, ok := parseGMST(data, 0)
	if !ok || hit.Name != "fMovementBase" {
		t.Errorf("parseGMST = %+v, %v, want fMovementBase, true", hit, ok)
	}
}

func TestParseGMSTRejectsBadPrefix(t *testing.T) {
	data, _ := appendSubrecord(nil, "GMST", []byte("xMovementBase\x00"))
	if _, ok := parseGMST(data, 0); ok {
		t.Error("parseGMST accepted a name with an invalid type prefix")
	}
}

func TestParseSCTXAcceptsScriptKeyword(t *testing.T) {
	data, _ := appendSubrecord(nil, "SCTX", []byte("if (GetStage == 10)\n\tEnable\nendif\n"))
	if _, ok := parseSCTX(data, 0); !ok {
		t.Error("parseSCTX rejected text containing recognized keywords")
	}
}

func TestParseSCTXRejectsShortBody(t *testing.T) {
	data, _ := appendSubrecord(nil, "SCTX", []byte("if"))
	if _, ok := parseSCTX(data, 0); ok {
		t.Error("parseSCTX accepted a body at or under the 10-byte floor")
	}
}

func TestParseSCRORejectsSentinels(t *testing.T) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 0xFFFFFFFF)
	data, _ := appendSubrecord(nil, "SCRO", body)
	if _, ok := parseSCRO(data, 0); ok {
		t.Error("parseSCRO accepted the 0xFFFFFFFF sentinel")
	}
}

func TestParseSCRORejectsHighTopByte(t *testing.T) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 0x10000001)
	data, _ := appendSubrecord(nil, "SCRO", body)
	if _, ok := parseSCRO(data, 0); ok {
		t.Error("parseSCRO accepted a FormID with top byte above 0x0F")
	}
}

func TestParseSCROAcceptsPlausibleFormID(t *testing.T) {
	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 0x01002345)
	data, _ := appendSubrecord(nil, "SCRO", body)
	hit, ok := parseSCRO(data, 0)
	if !ok || hit.FormID != 0x01002345 {
		t.Errorf("parseSCRO = %+v, %v, want 0x01002345, true", hit, ok)
	}
}

// buildRecordWithEDID constructs a 24-byte main-record header followed by
// an EDID subrecord inside its body, for correlation tests.
func buildRecordWithEDID(sig string, formID uint32, name string) []byte {
	var body []byte
	body, edidOffset := appendSubrecord(body, "EDID", []byte(name+"\x00"))
	_ = edidOffset

	header := make([]byte, RecordHeaderSize)
	copy(header[0:4], sig)
	binary.LittleEndian.PutUint32(header[4:], uint32(len(body)))
	binary.LittleEndian.PutUint32(header[8:], 0)
	binary.LittleEndian.PutUint32(header[12:], formID)

	return append(header, body...)
}

func TestScanCorrelatesFormIDToEditorID(t *testing.T) {
	data := buildRecordWithEDID("STAT", 0x0100123A, "VaultDoor01")
	result := Scan(data)

	if len(result.EditorIDs) != 1 || result.EditorIDs[0].Name != "VaultDoor01" {
		t.Fatalf("EditorIDs = %+v, want one VaultDoor01 hit", result.EditorIDs)
	}
	name, ok := result.FormIDToEditorID[0x0100123A]
	if !ok || name != "VaultDoor01" {
		t.Errorf("FormIDToEditorID[0x0100123A] = %q, %v, want VaultDoor01, true", name, ok)
	}
}

func TestScanDedupesEditorIDsByName(t *testing.T) {
	var data []byte
	data = append(data, buildRecordWithEDID("STAT", 0x01000001, "DupeName")...)
	data = append(data, buildRecordWithEDID("STAT", 0x01000002, "DupeName")...)

	result := Scan(data)
	if len(result.EditorIDs) != 1 {
		t.Errorf("got %d EditorIDs, want 1 after dedup", len(result.EditorIDs))
	}
}

func TestFindOwningRecordRequiresEdidWithinBody(t *testing.T) {
	data := buildRecordWithEDID("STAT", 0x01000003, "Lonely")
	edidOffset := int64(RecordHeaderSize)
	header, ok := findOwningRecord(data, edidOffset)
	if !ok {
		t.Fatal("findOwningRecord failed to locate the owning header")
	}
	if header.FormID != 0x01000003 {
		t.Errorf("FormID = %#x, want 0x01000003", header.FormID)
	}
}
