// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

// Package carve implements the core binary-recognition and reconstruction
// engine for Xbox 360 Bethesda memory dumps: signature carving, the format
// registry, texture-path recovery, and extraction. Endianness conversion,
// archive reading, script decompilation, and whole-dump scanning live in
// the nif, bsa, scda, esm and minidump sub-packages.
package carve

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/xbdump/carve/internal/log"
)

// Dump is a read-only view over a memory dump, either memory-mapped from a
// file on disk or wrapping an in-memory buffer. Modeled on saferwall/pe's
// File.New/NewBytes split (file.go).
type Dump struct {
	data   mmap.MMap
	bytes  []byte
	f      *os.File
	size   int64
	logger *log.Helper
}

// Options configures dump opening and downstream analysis components that
// accept a *Dump.
type Options struct {
	// Logger receives diagnostic messages. A nil Logger means silent.
	Logger log.Logger
}

func newHelper(opts *Options) *log.Helper {
	if opts == nil || opts.Logger == nil {
		return log.NewHelper(nil)
	}
	return log.NewHelper(log.NewFilter(opts.Logger, log.FilterLevel(log.LevelInfo)))
}

// Open memory-maps the dump file at path as a read-only view.
func Open(path string, opts *Options) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Dump{
		data:   data,
		bytes:  []byte(data),
		f:      f,
		size:   int64(len(data)),
		logger: newHelper(opts),
	}, nil
}

// OpenBytes wraps an in-memory buffer as a Dump, for tests and for callers
// that already hold the dump contents.
func OpenBytes(data []byte, opts *Options) *Dump {
	return &Dump{
		bytes:  data,
		size:   int64(len(data)),
		logger: newHelper(opts),
	}
}

// Bytes returns the dump's backing byte slice. Callers must not mutate it.
func (d *Dump) Bytes() []byte {
	return d.bytes
}

// Logger returns the Dump's diagnostic helper, shared with components that
// operate on it (Carver, Extractor), so a single Options.Logger configured
// at Open/OpenBytes time reaches the whole analysis pipeline.
func (d *Dump) Logger() *log.Helper {
	return d.logger
}

// Size returns the dump length in bytes.
func (d *Dump) Size() int64 {
	return d.size
}

// Close releases the memory-mapped view and the underlying file handle, if
// any. It is a no-op for dumps opened with OpenBytes.
func (d *Dump) Close() error {
	var err error
	if d.data != nil {
		err = d.data.Unmap()
	}
	if d.f != nil {
		if cerr := d.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
