// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"bytes"

	"github.com/xbdump/carve/nif"
)

const nifMagicPrefix = "Gamebryo File Format, Version"

func nifFormat() FormatModule {
	return FormatModule{
		FormatID:        "nif",
		DisplayName:     "Gamebryo/NetImmerse Model",
		Extension:       ".nif",
		Category:        CategoryModel,
		OutputFolder:    "models",
		MinSize:         64,
		MaxSize:         256 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 30,
		Signatures:      []FormatSignature{{ID: "nif", Magic: []byte(nifMagicPrefix)}},
		Parse:           parseNIF,
	}
}

func parseNIF(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+len(nifMagicPrefix) > len(data) {
		return ParseResult{}, false
	}
	if !bytes.HasPrefix(data[o:], []byte(nifMagicPrefix)) {
		return ParseResult{}, false
	}

	info, err := nif.ParseHeader(data, o)
	if err != nil {
		return ParseResult{}, false
	}
	// A carver only knows a lower bound on the NIF's true extent (the rest
	// of the dump); it cannot require exact agreement the way
	// info.ValidateSize does for a standalone file, so it checks fit
	// instead of equality.
	if info.TotalSize <= 0 || info.TotalSize > int64(len(data)-o) {
		return ParseResult{}, false
	}

	endian := LittleEndian
	if info.Endianness == nif.BigEndian {
		endian = BigEndian
	}

	return ParseResult{
		FormatID:      "nif",
		EstimatedSize: info.TotalSize,
		Metadata: Metadata{NIF: &NIFMetadata{
			Endianness: endian,
			Version:    info.HeaderLine,
			BSVersion:  info.BethVersion,
			NumBlocks:  info.NumBlocks,
			NumStrings: uint32(len(info.Strings)),
		}},
	}, true
}
