// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "github.com/xbdump/carve/bsa"

func bsaFormat() FormatModule {
	return FormatModule{
		FormatID:        "bsa",
		DisplayName:     "Bethesda Archive",
		Extension:       ".bsa",
		Category:        CategoryXbox,
		OutputFolder:    "archives",
		MinSize:         int64(bsa.HeaderSize),
		MaxSize:         4 * 1024 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 5,
		Signatures:      []FormatSignature{{ID: "bsa", Magic: []byte("BSA\x00")}},
		Parse:           parseBSA,
	}
}

// parseBSA validates a candidate BSA header and computes the archive's
// total on-disk size from its folder/file tables (spec §4.2).
func parseBSA(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	archive, err := bsa.Parse(data, o)
	if err != nil {
		return ParseResult{}, false
	}
	size, err := archive.TotalSize(data, o)
	if err != nil {
		return ParseResult{}, false
	}
	return ParseResult{
		FormatID:      "bsa",
		EstimatedSize: size,
	}, true
}
