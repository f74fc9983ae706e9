// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "github.com/xbdump/carve/scda"

func scdaFormat() FormatModule {
	return FormatModule{
		FormatID:        "scda",
		DisplayName:     "Script Bytecode",
		Extension:       ".scda.txt",
		Category:        CategoryScript,
		OutputFolder:    "scripts",
		MinSize:         7,
		MaxSize:         16 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 50,
		Signatures:      []FormatSignature{{ID: "scda", Magic: []byte("SCDA")}},
		Parse:           parseSCDA,
	}
}

// parseSCDA validates a candidate SCDA block: magic, a u16 bytecode length,
// and a leading opcode that appears in the recognized-opcode set (spec
// §4.2's SCDA row and §4.11).
func parseSCDA(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+6 > len(data) {
		return ParseResult{}, false
	}
	if string(data[o:o+4]) != "SCDA" {
		return ParseResult{}, false
	}
	length, err := U16LE(data, o+4)
	if err != nil {
		return ParseResult{}, false
	}
	bodyStart := o + 6
	bodyEnd := bodyStart + int(length)
	if bodyEnd > len(data) {
		return ParseResult{}, false
	}
	if !scda.LooksLikeBytecode(data[bodyStart:bodyEnd]) {
		return ParseResult{}, false
	}
	return ParseResult{
		FormatID:      "scda",
		EstimatedSize: int64(6 + int(length)),
		Metadata: Metadata{
			Script: &ScriptMetadata{BytecodeLength: length},
		},
	}, true
}
