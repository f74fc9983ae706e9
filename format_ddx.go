// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

// DDX is the Xbox 360 big-endian, tiled variant of DDS (spec §GLOSSARY).
// The wire layout of its header beyond the 4-byte magic is not specified
// by the format description beyond "4-byte magic + parsed DDX header"
// (spec §4.2); we fix a concrete, self-consistent big-endian header here
// (documented as an Open Question resolution in DESIGN.md):
//
//	offset  0: magic ("3XDO" or "3XDR")
//	offset  4: u32 header_size   (bytes of fixed fields following the magic, 24; 0 is also accepted)
//	offset  8: u32 width
//	offset 12: u32 height
//	offset 16: u32 mip_count
//	offset 20: [4]byte fourCC
//	offset 24: u32 data_size     (tiled pixel payload length)
const (
	ddxMagicSize      = 4
	ddxHeaderFrom4    = 24 // bytes of fixed fields following the magic
	ddxHeaderTotalMin = ddxMagicSize + ddxHeaderFrom4
)

func ddxFormat() FormatModule {
	return FormatModule{
		FormatID:        "ddx",
		DisplayName:     "Xbox 360 Tiled Texture",
		Extension:       ".ddx",
		Category:        CategoryTexture,
		OutputFolder:    "textures",
		MinSize:         int64(ddxHeaderTotalMin),
		MaxSize:         512 * 1024 * 1024,
		ShowInFilterUI:  true,
		DisplayPriority: 10,
		Signatures: []FormatSignature{
			{ID: "ddx", Magic: []byte("3XDO")},
			{ID: "ddx", Magic: []byte("3XDR")},
		},
		Parse: parseDDX,
	}
}

func parseDDX(data []byte, offset int64) (ParseResult, bool) {
	o := int(offset)
	if o+ddxHeaderTotalMin > len(data) {
		return ParseResult{}, false
	}
	magic := string(data[o : o+4])
	if magic != "3XDO" && magic != "3XDR" {
		return ParseResult{}, false
	}

	headerSize, err := U32BE(data, o+4)
	if err != nil {
		return ParseResult{}, false
	}
	width, err := U32BE(data, o+8)
	if err != nil {
		return ParseResult{}, false
	}
	height, err := U32BE(data, o+12)
	if err != nil {
		return ParseResult{}, false
	}
	mipCount, err := U32BE(data, o+16)
	if err != nil {
		return ParseResult{}, false
	}
	fourCCBytes := data[o+20 : o+24]
	dataSize, err := U32BE(data, o+24)
	if err != nil {
		return ParseResult{}, false
	}

	if width == 0 || height == 0 || width > ddsMaxDim || height > ddsMaxDim {
		return ParseResult{}, false
	}
	if headerSize != 0 && int64(headerSize) != int64(ddxHeaderFrom4) {
		return ParseResult{}, false
	}

	totalSize := int64(ddxMagicSize) + int64(ddxHeaderFrom4) + int64(dataSize)

	texPath, fileName, _ := ExtractTexturePath(data, offset)

	return ParseResult{
		FormatID:      "ddx",
		EstimatedSize: totalSize,
		Filename:      fileName,
		Metadata: Metadata{DDS: &DDSMetadata{
			Width: width, Height: height, MipCount: mipCount,
			FourCC: string(fourCCBytes), Endianness: BigEndian,
			TexturePath: texPath, FileName: fileName,
		}},
	}, true
}
