// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

func xmaFormat() FormatModule {
	return FormatModule{
		FormatID:        "xma",
		DisplayName:     "Xbox Media Audio",
		Extension:       ".xma",
		Category:        CategoryAudio,
		OutputFolder:    "audio",
		MinSize:         12,
		MaxSize:         256 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 40,
		Signatures: []FormatSignature{
			{ID: "xma", Magic: []byte("RIFF")},
			{ID: "xma", Magic: []byte("XMA2")},
		},
		Parse: parseXMA,
	}
}

// parseXMA sums RIFF-style chunk bytes (spec §4.2): a "RIFF"…"XMA2"/"WAVE"
// container uses the 8-byte RIFF header plus its declared little-endian
// content size; a bare "XMA2" fourCC is treated as a standalone
// fourCC+size chunk.
func parseXMA(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+12 > len(data) {
		return ParseResult{}, false
	}

	if string(data[o:o+4]) == "RIFF" {
		size, err := U32LE(data, o+4)
		if err != nil {
			return ParseResult{}, false
		}
		fourCC := string(data[o+8 : o+12])
		if fourCC != "XMA2" && fourCC != "WAVE" {
			return ParseResult{}, false
		}
		total := int64(8) + int64(size)
		if o+int(total) > len(data) {
			return ParseResult{}, false
		}
		return ParseResult{FormatID: "xma", EstimatedSize: total}, true
	}

	if string(data[o:o+4]) == "XMA2" {
		size, err := U32LE(data, o+4)
		if err != nil {
			return ParseResult{}, false
		}
		total := int64(8) + int64(size)
		if o+int(total) > len(data) {
			return ParseResult{}, false
		}
		return ParseResult{FormatID: "xma", EstimatedSize: total}, true
	}

	return ParseResult{}, false
}
