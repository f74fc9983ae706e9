// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "errors"

// Error kinds of this package. The format parsers themselves report a
// rejected candidate with a false result, not an error; ErrInvalidFormat,
// ErrSizeOutOfRange and ErrDecompression name those kinds but are not
// returned by any function in this package.
var (
	// ErrOutOfBounds is returned when a read would run past the end of the
	// backing byte slice, and by the Extractor for an entry whose range runs
	// past the end of the dump.
	ErrOutOfBounds = errors.New("carve: read out of bounds")

	// ErrInvalidFormat names a candidate whose magic matched but whose
	// structural invariants failed validation.
	ErrInvalidFormat = errors.New("carve: invalid format")

	// ErrSizeOutOfRange names a parsed size outside the format's declared
	// [min_size, max_size].
	ErrSizeOutOfRange = errors.New("carve: size out of range")

	// ErrDecompression names a compressed payload that failed to decode.
	ErrDecompression = errors.New("carve: decompression failed")

	// ErrCancelled is returned when a long-running scan observed a
	// cancelled context.
	ErrCancelled = errors.New("carve: cancelled")
)
