// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package esm

import (
	"encoding/binary"

	"github.com/xbdump/carve/scda"
)

// ScdaRecord is a validated SCDA fragment harvested from the whole dump,
// independent of the generic Carver (spec §3's ScdaRecord, §4.12).
type ScdaRecord struct {
	Offset   int64
	Bytecode []byte
	Source   string
	FormIDs  []uint32
}

// ScanScda walks data in the same overlapping chunks as Scan, re-running
// the SCDA format validator on every "SCDA" signature hit (spec §4.12:
// "SCDA records are validated by re-running the SCDA format parser").
// Recognized fragments are decompiled and associated with any SCRO FormIDs
// found within the following 512 bytes, a heuristic proximity window for
// script-reference correlation.
func ScanScda(data []byte, ops *scda.Opcodes) []ScdaRecord {
	var records []ScdaRecord

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
			if string(data[i:i+4]) != "SCDA" {
				continue
			}
			length := binary.LittleEndian.Uint16(data[i+4:])
			bodyStart := i + 6
			bodyEnd := bodyStart + int(length)
			if bodyEnd > len(data) {
				continue
			}
			bytecode := data[bodyStart:bodyEnd]
			if !scda.LooksLikeBytecode(bytecode) {
				continue
			}
			result := scda.Decompile(bytecode, ops)
			records = append(records, ScdaRecord{
				Offset:   int64(i),
				Bytecode: append([]byte(nil), bytecode...),
				Source:   result.Source,
				FormIDs:  nearbyFormIDs(data, bodyEnd),
			})
		}

		if end >= len(data) {
			break
		}
		pos = reportTo
	}
	return records
}

// nearbyFormIDs scans the 512 bytes following a SCDA record for valid SCRO
// fragments, associating them with that script.
func nearbyFormIDs(data []byte, from int) []uint32 {
	const window = 512
	end := from + window
	if end > len(data) {
		end = len(data)
	}
	var ids []uint32
	for i := from; i+6 <= end; i++ {
		if string(data[i:i+4]) != "SCRO" {
			continue
		}
		if hit, ok := parseSCRO(data, i); ok {
			ids = append(ids, hit.FormID)
		}
	}
	return ids
}
