// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

// Package esm implements the EsmRecordScanner and ScdaScanner: chunked,
// whole-dump fragment harvesters that do not require an intact surrounding
// record (spec §4.12). Grounded on the same chunked, overlapping scan
// discipline as the carver (other_examples/…shubham030-recovery…carver.go),
// generalized from magic-byte carving into record-fragment validation and
// FormID↔EditorID correlation.
package esm

import (
	"encoding/binary"
	"sort"
	"strings"
)

// ChunkSize and Overlap match the carver's defaults (spec §4.12: "run over
// the whole dump in overlapping chunks (16 MiB + 1 KiB overlap)").
const (
	ChunkSize = 16 * 1024 * 1024
	Overlap   = 1024
)

// RecordHeaderSize is the fixed size of a main-record header (spec §4.2,
// §4.12): 4-byte signature, u32 data size, u32 flags, u32 form ID, u32
// version-control info, u16 form version, u16 unknown.
const RecordHeaderSize = 24

// RecordHeader is a parsed main-record header.
type RecordHeader struct {
	Signature string
	DataSize  uint32
	Flags     uint32
	FormID    uint32
	Offset    int64
}

// EditorIDHit is a validated EDID fragment.
type EditorIDHit struct {
	Offset int64
	Name   string
}

// GameSettingHit is a validated GMST fragment.
type GameSettingHit struct {
	Offset int64
	Name   string
}

// ScriptTextHit is a validated SCTX fragment.
type ScriptTextHit struct {
	Offset int64
	Text   string
}

// ScriptReferenceHit is a validated SCRO fragment.
type ScriptReferenceHit struct {
	Offset int64
	FormID uint32
}

// ScanResult is the output of a full-dump EsmRecordScanner pass (spec §3's
// EsmRecordScanResult).
type ScanResult struct {
	EditorIDs        []EditorIDHit
	GameSettings     []GameSettingHit
	ScriptTexts      []ScriptTextHit
	ScriptReferences []ScriptReferenceHit

	// FormIDToEditorID is built by the single scanner pass, per spec §5
	// ("the FormID→EditorID map is built by a single scanner pass before
	// any consumer reads it"); first mapping for a FormID wins.
	FormIDToEditorID map[uint32]string
}

// Scan walks data in overlapping chunks, harvesting every recognized
// record-fragment signature and correlating FormIDs to EditorIDs.
func Scan(data []byte) *ScanResult {
	result := &ScanResult{FormIDToEditorID: make(map[uint32]string)}
	seenEID := make(map[string]bool)
	seenGMST := make(map[string]bool)
	seenSCRO := make(map[uint32]bool)

	for pos := 0; pos < len(data); {
		end := pos + ChunkSize
		if end > len(data) {
			end = len(data)
		}
		reportTo := end
		if end < len(data) {
			reportTo = end - Overlap
		}

		for i := pos; i < reportTo && i+6 <= len(data); i++ {
			sig := string(data[i : i+4])
			switch sig {
			case "EDID":
				if hit, ok := parseEDID(data, i); ok && !seenEID[hit.Name] {
					seenEID[hit.Name] = true
					result.EditorIDs = append(result.EditorIDs, hit)
					if header, ok := findOwningRecord(data, int64(i)); ok {
						if _, exists := result.FormIDToEditorID[header.FormID]; !exists {
							result.FormIDToEditorID[header.FormID] = hit.Name
						}
					}
				}
			case "GMST":
				if hit, ok := parseGMST(data, i); ok && !seenGMST[hit.Name] {
					seenGMST[hit.Name] = true
					result.GameSettings = append(result.GameSettings, hit)
				}
			case "SCTX":
				if hit, ok := parseSCTX(data, i); ok {
					result.ScriptTexts = append(result.ScriptTexts, hit)
				}
			case "SCRO":
				if hit, ok := parseSCRO(data, i); ok && !seenSCRO[hit.FormID] {
					seenSCRO[hit.FormID] = true
					result.ScriptReferences = append(result.ScriptReferences, hit)
				}
			}
		}

		if end >= len(data) {
			break
		}
		pos = reportTo
	}

	sort.Slice(result.EditorIDs, func(i, j int) bool { return result.EditorIDs[i].Name < result.EditorIDs[j].Name })
	sort.Slice(result.GameSettings, func(i, j int) bool { return result.GameSettings[i].Name < result.GameSettings[j].Name })
	return result
}

func subrecordBody(data []byte, sigOffset int) ([]byte, bool) {
	if sigOffset+6 > len(data) {
		return nil, false
	}
	length := binary.LittleEndian.Uint16(data[sigOffset+4:])
	start := sigOffset + 6
	end := start + int(length)
	if end > len(data) {
		return nil, false
	}
	return data[start:end], true
}

// parseEDID validates an EDID fragment: the string must start with a
// letter and be at least 90% alphanumeric-or-underscore (spec §4.12).
func parseEDID(data []byte, offset int) (EditorIDHit, bool) {
	body, ok := subrecordBody(data, offset)
	if !ok || len(body) == 0 {
		return EditorIDHit{}, false
	}
	name := trimNul(string(body))
	if !identifierShaped(name) {
		return EditorIDHit{}, false
	}
	return EditorIDHit{Offset: int64(offset), Name: name}, true
}

// parseGMST validates a GMST fragment: first character is f/i/s/b and the
// body is identifier-shaped (spec §4.12).
func parseGMST(data []byte, offset int) (GameSettingHit, bool) {
	body, ok := subrecordBody(data, offset)
	if !ok || len(body) == 0 {
		return GameSettingHit{}, false
	}
	name := trimNul(string(body))
	if len(name) == 0 {
		return GameSettingHit{}, false
	}
	switch name[0] {
	case 'f', 'i', 's', 'b':
	default:
		return GameSettingHit{}, false
	}
	if !identifierShaped(name) {
		return GameSettingHit{}, false
	}
	return GameSettingHit{Offset: int64(offset), Name: name}, true
}

var sctxKeywords = []string{"enable", "disable", "moveto", "setstage", "getstage", "if", "endif", "ref"}

// parseSCTX validates a SCTX fragment: length > 10 and the payload contains
// at least one recognized script keyword, case-insensitive (spec §4.12).
func parseSCTX(data []byte, offset int) (ScriptTextHit, bool) {
	body, ok := subrecordBody(data, offset)
	if !ok || len(body) <= 10 {
		return ScriptTextHit{}, false
	}
	text := trimNul(string(body))
	lower := strings.ToLower(text)
	for _, kw := range sctxKeywords {
		if strings.Contains(lower, kw) {
			return ScriptTextHit{Offset: int64(offset), Text: text}, true
		}
	}
	return ScriptTextHit{}, false
}

// parseSCRO validates a SCRO fragment: a 4-byte FormID, rejecting 0,
// 0xFFFFFFFF, and FormIDs whose top byte exceeds 0x0F (spec §4.12).
func parseSCRO(data []byte, offset int) (ScriptReferenceHit, bool) {
	if offset+6+4 > len(data) {
		return ScriptReferenceHit{}, false
	}
	length := binary.LittleEndian.Uint16(data[offset+4:])
	if length != 4 {
		return ScriptReferenceHit{}, false
	}
	formID := binary.LittleEndian.Uint32(data[offset+6:])
	if formID == 0 || formID == 0xFFFFFFFF {
		return ScriptReferenceHit{}, false
	}
	if byte(formID>>24) > 0x0F {
		return ScriptReferenceHit{}, false
	}
	return ScriptReferenceHit{Offset: int64(offset), FormID: formID}, true
}

// findOwningRecord scans backward up to 200 bytes from an EDID hit for a
// plausible 24-byte main-record header (spec §4.12's FormID↔EditorID
// correlation).
func findOwningRecord(data []byte, edidOffset int64) (RecordHeader, bool) {
	const backScan = 200
	start := edidOffset - backScan
	if start < 0 {
		start = 0
	}
	for o := edidOffset - RecordHeaderSize; o >= start; o-- {
		if o < 0 || int(o)+RecordHeaderSize > len(data) {
			continue
		}
		h, ok := parseRecordHeader(data, int(o))
		if !ok {
			continue
		}
		bodyStart := o + RecordHeaderSize
		bodyEnd := bodyStart + int64(h.DataSize)
		if edidOffset >= bodyStart && edidOffset < bodyEnd {
			return h, true
		}
	}
	return RecordHeader{}, false
}

// parseRecordHeader reads a candidate 24-byte main-record header and
// validates that its signature looks identifier-shaped and its FormID
// falls within the valid top-byte range (spec §4.12 "TES4 rules").
func parseRecordHeader(data []byte, offset int) (RecordHeader, bool) {
	if offset+RecordHeaderSize > len(data) {
		return RecordHeader{}, false
	}
	sig := string(data[offset : offset+4])
	if !recordSignatureShaped(sig) {
		return RecordHeader{}, false
	}
	dataSize := binary.LittleEndian.Uint32(data[offset+4:])
	flags := binary.LittleEndian.Uint32(data[offset+8:])
	formID := binary.LittleEndian.Uint32(data[offset+12:])
	if byte(formID>>24) > 0x0F {
		return RecordHeader{}, false
	}
	return RecordHeader{Signature: sig, DataSize: dataSize, Flags: flags, FormID: formID, Offset: int64(offset)}, true
}

func recordSignatureShaped(sig string) bool {
	for _, c := range sig {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func identifierShaped(s string) bool {
	if len(s) == 0 {
		return false
	}
	c0 := s[0]
	if !((c0 >= 'a' && c0 <= 'z') || (c0 >= 'A' && c0 <= 'Z')) {
		return false
	}
	alnum := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			alnum++
		}
	}
	return float64(alnum)/float64(len(s)) >= 0.9
}

func trimNul(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
