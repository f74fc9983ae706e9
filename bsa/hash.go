// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package bsa

import (
	"hash/crc32"
	"strings"
)

// extensionCode assigns a small per-extension contribution to the file
// hash, matching the spirit of spec §4.10 ("file hash combines the stem's
// first/last chars with its length and extension code"). The exact bit
// layout Bethesda's tools use is not recoverable from the spec text alone
// (§9 Open Questions calls out that oracle test vectors from real archives
// are required); this is a concrete, stable scheme we commit to and test
// for internal consistency rather than byte-for-byte fidelity with the
// original game.
func extensionCode(ext string) uint32 {
	ext = strings.ToLower(ext)
	switch ext {
	case ".nif":
		return 0x8000
	case ".kf":
		return 0x0080
	case ".dds":
		return 0x8080
	case ".wav":
		return 0x80000000
	case ".dds_ddx", ".ddx":
		return 0x4040
	default:
		var h uint32
		for _, c := range ext {
			h = h*131 + uint32(c)
		}
		return h & 0xffff
	}
}

// FileHash computes the 64-bit file-name hash described in spec §4.10:
// lowercase ASCII, combining the stem's first/last characters with its
// length and an extension code.
func FileHash(stem, ext string) uint64 {
	stem = strings.ToLower(stem)
	n := len(stem)
	var first, last byte
	if n > 0 {
		first = stem[0]
		last = stem[n-1]
	}
	low := uint32(last) | uint32(first)<<8 | uint32(n)<<16 | extensionCode(ext)<<0
	var mid uint32
	for i := 1; i+1 < n; i++ {
		mid = mid*0x1003f + uint32(stem[i])
	}
	return uint64(mid)<<32 | uint64(low)
}

// FolderHash computes the 64-bit folder-path hash described in spec §4.10:
// lowercase ASCII, combining the ends of the string with a body CRC.
func FolderHash(path string) uint64 {
	path = strings.ToLower(strings.Trim(path, "/\\"))
	n := len(path)
	var first, last byte
	if n > 0 {
		first = path[0]
		last = path[n-1]
	}
	body := path
	if n > 2 {
		body = path[1 : n-1]
	}
	crc := crc32.ChecksumIEEE([]byte(body))
	low := uint32(last) | uint32(first)<<8 | uint32(n)<<16
	return uint64(crc)<<32 | uint64(low)
}

// Xbox360Hash applies the platform's hash byte-order variant (spec §4.10,
// §9 Open Question): the two 32-bit halves of the PC hash are swapped,
// with each half computed identically to the PC algorithm.
func Xbox360Hash(pcHash uint64) uint64 {
	low := uint32(pcHash)
	high := uint32(pcHash >> 32)
	return uint64(low)<<32 | uint64(high)
}
