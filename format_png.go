// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const pngChunkOverhead = 12 // 4-byte length + 4-byte type + 4-byte CRC

func pngFormat() FormatModule {
	return FormatModule{
		FormatID:        "png",
		DisplayName:     "Portable Network Graphics",
		Extension:       ".png",
		Category:        CategoryImage,
		OutputFolder:    "images",
		MinSize:         int64(len(pngMagic)) + pngChunkOverhead, // at least an IEND chunk
		MaxSize:         256 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 20,
		Signatures:      []FormatSignature{{ID: "png", Magic: pngMagic}},
		Parse:           parsePNG,
	}
}

// parsePNG walks PNG chunks until IEND, summing their bytes (spec §4.2).
func parsePNG(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+len(pngMagic) > len(data) {
		return ParseResult{}, false
	}
	for i, b := range pngMagic {
		if data[o+i] != b {
			return ParseResult{}, false
		}
	}

	pos := o + len(pngMagic)
	total := int64(len(pngMagic))
	const maxChunks = 1 << 20
	for i := 0; i < maxChunks; i++ {
		length, err := U32BE(data, pos)
		if err != nil {
			return ParseResult{}, false
		}
		if pos+pngChunkOverhead+int(length) > len(data) {
			return ParseResult{}, false
		}
		chunkType := string(data[pos+4 : pos+8])
		chunkBytes := int64(pngChunkOverhead) + int64(length)
		total += chunkBytes
		pos += int(chunkBytes)
		if chunkType == "IEND" {
			return ParseResult{
				FormatID:      "png",
				EstimatedSize: total,
			}, true
		}
	}
	return ParseResult{}, false
}
