// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"path"
	"strings"
)

// backwardScanWindow bounds how far before a DDS/DDX header the texture
// path extractor looks (spec §4.3).
const backwardScanWindow = 1024

var knownTextureExtensions = []string{".dds", ".ddx", ".tga", ".bmp"}

// ExtractTexturePath scans backward from offset for a preceding texture
// path string and returns it along with a sanitized file name, following
// spec §4.3.
func ExtractTexturePath(data []byte, offset int64) (texturePath, fileName string, ok bool) {
	start := offset - backwardScanWindow
	if start < 0 {
		start = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	window := data[start:offset]

	run, found := lastPrintableRunWithSeparator(window)
	if !found {
		return "", "", false
	}
	if !looksLikeTexturePath(run) {
		return "", "", false
	}
	base := path.Base(strings.ReplaceAll(run, "\\", "/"))
	return run, sanitizeFileName(base), true
}

// lastPrintableRunWithSeparator returns the last ASCII run of >= 4
// printable characters containing a path separator within window.
func lastPrintableRunWithSeparator(window []byte) (string, bool) {
	isPrintable := func(c byte) bool {
		return c >= 0x20 && c < 0x7f
	}

	bestStart, bestEnd := -1, -1
	i := len(window)
	for i > 0 {
		// find end of a printable run, scanning backward
		for i > 0 && !isPrintable(window[i-1]) {
			i--
		}
		end := i
		for i > 0 && isPrintable(window[i-1]) {
			i--
		}
		start := i
		run := window[start:end]
		if len(run) >= 4 && (strings.ContainsRune(string(run), '/') || strings.ContainsRune(string(run), '\\')) {
			bestStart, bestEnd = start, end
			break
		}
	}
	if bestStart < 0 {
		return "", false
	}
	return string(window[bestStart:bestEnd]), true
}

func looksLikeTexturePath(s string) bool {
	lower := strings.ToLower(s)
	for _, ext := range knownTextureExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	// path-like shape: contains a separator and at least one more path
	// component before the last.
	normalized := strings.ReplaceAll(s, "\\", "/")
	return strings.Count(normalized, "/") >= 1
}

// sanitizeFileName replaces filesystem-hostile characters with underscores.
func sanitizeFileName(name string) string {
	const hostile = `/\:*?"<>|`
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(hostile, r) {
			return '_'
		}
		return r
	}, name)
}
