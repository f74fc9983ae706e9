// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

const (
	ddsMagicSize   = 4
	ddsHeaderSize  = 124
	ddsHeaderTotal = ddsMagicSize + ddsHeaderSize
	ddsMaxDim      = 16384
)

// ddsFourCC block-size-per-byte table, spec §4.2: DXT1/ATI1/BC4 = 8 else 16.
func ddsBytesPerBlock(fourCC string) int64 {
	switch fourCC {
	case "DXT1", "ATI1", "BC4U", "BC4S":
		return 8
	default:
		return 16
	}
}

// ddsMipSize computes the total compressed-block size for a single mip
// level of dimensions w x h.
func ddsMipSize(w, h uint32, bpb int64) int64 {
	blocksWide := int64((w + 3) / 4)
	if blocksWide < 1 {
		blocksWide = 1
	}
	blocksHigh := int64((h + 3) / 4)
	if blocksHigh < 1 {
		blocksHigh = 1
	}
	return blocksWide * blocksHigh * bpb
}

// ddsComputeSize implements spec §4.2's DDS size formula:
// 128 + sum over mip levels of blocks_wide*blocks_high*bpb, mip dimensions
// descending by max(1, dim/2).
func ddsComputeSize(width, height, mipCount uint32, fourCC string) int64 {
	bpb := ddsBytesPerBlock(fourCC)
	total := int64(ddsHeaderTotal)
	w, h := width, height
	n := mipCount
	if n == 0 {
		n = 1
	}
	for i := uint32(0); i < n; i++ {
		total += ddsMipSize(w, h, bpb)
		if w > 1 {
			w /= 2
		}
		if h > 1 {
			h /= 2
		}
	}
	return total
}

func ddsFormat() FormatModule {
	return FormatModule{
		FormatID:        "dds",
		DisplayName:     "DirectDraw Surface",
		Extension:       ".dds",
		Category:        CategoryTexture,
		OutputFolder:    "textures",
		MinSize:         int64(ddsHeaderTotal),
		MaxSize:         512 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 10,
		Signatures:      []FormatSignature{{ID: "dds", Magic: []byte("DDS ")}},
		Parse:           parseDDS,
	}
}

func parseDDS(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+ddsHeaderTotal > len(data) {
		return ParseResult{}, false
	}
	if string(data[o:o+4]) != "DDS " {
		return ParseResult{}, false
	}

	// Little-endian first; Xbox 360 DDS headers are big-endian, so retry.
	headerSize, err := U32LE(data, o+4)
	endian := LittleEndian
	if err != nil || headerSize != ddsHeaderSize {
		headerSize, err = U32BE(data, o+4)
		endian = BigEndian
		if err != nil || headerSize != ddsHeaderSize {
			return ParseResult{}, false
		}
	}

	read32 := U32LE
	if endian == BigEndian {
		read32 = U32BE
	}

	height, err1 := read32(data, o+12)
	width, err2 := read32(data, o+16)
	mipCount, err3 := read32(data, o+28)
	fourCCBytes := make([]byte, 4)
	if o+84+4 > len(data) {
		return ParseResult{}, false
	}
	copy(fourCCBytes, data[o+84:o+88])
	if err1 != nil || err2 != nil || err3 != nil {
		return ParseResult{}, false
	}
	if width == 0 || height == 0 || width > ddsMaxDim || height > ddsMaxDim {
		return ParseResult{}, false
	}
	if mipCount == 0 {
		mipCount = 1
	}

	fourCC := string(fourCCBytes)
	size := ddsComputeSize(width, height, mipCount, fourCC)

	texPath, fileName, _ := ExtractTexturePath(data, offset)

	return ParseResult{
		FormatID:      "dds",
		EstimatedSize: size,
		Filename:      fileName,
		Metadata: Metadata{DDS: &DDSMetadata{
			Width: width, Height: height, MipCount: mipCount,
			FourCC: fourCC, Endianness: endian,
			TexturePath: texPath, FileName: fileName,
		}},
	}, true
}
