// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"

	"github.com/xbdump/carve/bsa"
	"github.com/xbdump/carve/internal/log"
	"github.com/xbdump/carve/nif"
	"github.com/xbdump/carve/scda"
)

// DdxTranscoder converts a carved DDX payload to DDS bytes (spec §6's
// "collaborator interfaces consumed"). It is an external collaborator the
// caller supplies; this package does not implement the DDX bitstream
// itself.
type DdxTranscoder interface {
	Convert(ddx []byte, verbose bool) ([]byte, error)
}

// Extractor writes selected CarvedEntrys out to per-category output
// directories (spec §4.5). Distinct output paths are written in parallel;
// writes that land on the same path are serialized by acquiring that path's
// slot before writing, per spec §5 ("same-path writes are serialized").
type Extractor struct {
	registry   *FormatRegistry
	transcoder DdxTranscoder

	pathMu sync.Map // map[string]*sync.Mutex, lazily populated
}

// NewExtractor builds an Extractor over registry. transcoder may be nil;
// convert_ddx then degrades to "keep the .ddx" with a recorded error, per
// spec §4.5.
func NewExtractor(registry *FormatRegistry, transcoder DdxTranscoder) *Extractor {
	return &Extractor{registry: registry, transcoder: transcoder}
}

// Run extracts every entry selected by opts, from the dump's backing bytes,
// returning a batch summary. Failures on individual entries never abort the
// run (spec §4.5).
func (x *Extractor) Run(dump *Dump, entries []CarvedEntry, opts ExtractionOptions) *ExtractionSummary {
	logger := dump.Logger()
	if logger == nil {
		logger = log.NewHelper(nil)
	}
	selected := make([]CarvedEntry, 0, len(entries))
	for _, e := range entries {
		if opts.Included(e.FormatID) {
			selected = append(selected, e)
		}
	}

	records := make([]ExtractionRecord, len(selected))
	used := newNameAllocator()

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, e := range selected {
		i, e := i, e
		g.Go(func() error {
			records[i] = x.extractOne(dump, e, opts, used)
			return nil
		})
	}
	_ = g.Wait()

	summary := &ExtractionSummary{Records: records}
	for _, r := range records {
		switch r.Status {
		case Extracted:
			summary.Extracted++
		case Skipped:
			summary.SkippedN++
		case Failed:
			summary.FailedN++
			logger.Warnf("extract: %s failed: %v", r.Entry.FormatID, r.Err)
		}
	}
	logger.Infof("extract: %d extracted, %d skipped, %d failed", summary.Extracted, summary.SkippedN, summary.FailedN)
	return summary
}

func (x *Extractor) extractOne(dump *Dump, e CarvedEntry, opts ExtractionOptions, used *nameAllocator) ExtractionRecord {
	module, ok := x.registry.ByID(e.FormatID)
	if !ok {
		return ExtractionRecord{Entry: e, Status: Failed, Err: fmt.Errorf("carve: unknown format %q", e.FormatID)}
	}

	name := used.allocate(module.OutputFolder, candidateName(e, module))
	outPath := filepath.Join(opts.OutputPath, module.OutputFolder, name)

	if opts.SkipExisting {
		if _, err := os.Stat(outPath); err == nil {
			return ExtractionRecord{Entry: e, Status: Skipped, Path: outPath}
		}
	}

	unlock := x.lockPath(outPath)
	defer unlock()

	data := dump.Bytes()
	if e.Offset < 0 || e.End() > int64(len(data)) {
		return ExtractionRecord{Entry: e, Status: Failed, Err: ErrOutOfBounds}
	}
	content := data[e.Offset:e.End()]
	written := content
	var convertErr error

	switch {
	case e.FormatID == "scda":
		// The carved range includes the 6-byte "SCDA"+u16-length header;
		// the decompiler only wants the bytecode that follows it.
		if len(content) > 6 {
			result := scda.Decompile(content[6:], nil)
			written = []byte(result.Source)
		}
	case e.FormatID == "nif" && opts.ConvertNIF && e.Metadata.NIF != nil && e.Metadata.NIF.Endianness == BigEndian:
		if conv, err := nif.ToLittleEndian(content, 0); err != nil {
			// keep the original big-endian bytes; record the conversion
			// failure without failing the overall extraction.
			convertErr = err
		} else {
			written = conv.Data
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return ExtractionRecord{Entry: e, Status: Failed, Err: err}
	}
	if err := renameio.WriteFile(outPath, written, 0o644); err != nil {
		return ExtractionRecord{Entry: e, Status: Failed, Err: err}
	}

	if opts.ConvertDDX && e.FormatID == "ddx" {
		if err := x.convertDDX(content, outPath, opts.Verbose); err != nil {
			// keep the .ddx; record the conversion failure without
			// failing the overall extraction of this entry.
			return ExtractionRecord{Entry: e, Status: Extracted, Path: outPath, Err: err}
		}
	}

	if e.FormatID == "bsa" {
		if err := x.extractBSA(data, e, outPath); err != nil {
			convertErr = err
		}
	}

	return ExtractionRecord{Entry: e, Status: Extracted, Path: outPath, Err: convertErr}
}

// extractBSA parses the carved BSA at e.Offset and unpacks every file it
// contains into a directory named after the archive's own output path,
// mirroring the generic extractor's "carve, then decode" contract for a
// format whose per-file payloads need their own decompression step.
func (x *Extractor) extractBSA(data []byte, e CarvedEntry, bsaPath string) error {
	archive, err := bsa.Parse(data, int(e.Offset))
	if err != nil {
		return err
	}
	unpackDir := strings.TrimSuffix(bsaPath, filepath.Ext(bsaPath)) + "_unpacked"
	_, err = archive.ExtractAll(data, int(e.Offset), unpackDir)
	return err
}

func (x *Extractor) convertDDX(ddx []byte, ddxPath string, verbose bool) error {
	if x.transcoder == nil {
		return fmt.Errorf("carve: no DDX transcoder configured")
	}
	dds, err := x.transcoder.Convert(ddx, verbose)
	if err != nil {
		return err
	}
	ddsPath := strings.TrimSuffix(ddxPath, filepath.Ext(ddxPath)) + ".dds"
	return renameio.WriteFile(ddsPath, dds, 0o644)
}

// lockPath returns an unlock function after acquiring a per-path mutex,
// ensuring writes that land on the same output path serialize (spec §5).
func (x *Extractor) lockPath(path string) func() {
	v, _ := x.pathMu.LoadOrStore(path, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// candidateName derives a file's base name: the parse result's recovered
// filename if one exists, else "<category>_<offset_hex>.<ext>" (spec §4.5).
func candidateName(e CarvedEntry, module *FormatModule) string {
	if e.Filename != "" {
		return sanitizeFileName(e.Filename)
	}
	ext := strings.TrimPrefix(module.Extension, ".")
	return fmt.Sprintf("%s_%08x.%s", strings.ToLower(module.Category.String()), e.Offset, ext)
}

// nameAllocator resolves filename collisions within a single extraction
// folder by appending "_N" for N = 1, 2, … (spec §4.5).
type nameAllocator struct {
	mu   sync.Mutex
	seen map[string]map[string]int
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{seen: make(map[string]map[string]int)}
}

func (a *nameAllocator) allocate(folder, name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	folderSeen, ok := a.seen[folder]
	if !ok {
		folderSeen = make(map[string]int)
		a.seen[folder] = folderSeen
	}

	count, exists := folderSeen[name]
	folderSeen[name] = count + 1
	if !exists {
		return name
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", stem, count, ext)
}
