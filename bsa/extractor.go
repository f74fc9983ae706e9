// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package bsa

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/renameio"
	"golang.org/x/sync/errgroup"
)

// ExtractionResult is the per-file outcome of a BsaExtractor run.
type ExtractionResult struct {
	File FileRecord
	Path string
	Err  error
}

// ExtractionReport is the batch result of extracting every file in an
// archive (spec §6, BsaExtractionReport).
type ExtractionReport struct {
	Results   []ExtractionResult
	Succeeded int
	Failed    int
}

// ExtractAll extracts every file in the archive under outputDir, preserving
// folder structure. Distinct files extract in parallel, bounded by
// runtime.NumCPU(), each using its own read over the shared data slice — spec §5
// ("BSA extraction of distinct files within one archive may run in
// parallel; each worker uses its own read handle over the archive path").
// Extracted files are written atomically via renameio so a crash never
// leaves a half-written file behind.
func (a *Archive) ExtractAll(data []byte, baseOffset int, outputDir string) (*ExtractionReport, error) {
	report := &ExtractionReport{Results: make([]ExtractionResult, len(a.Files))}

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range a.Files {
		i, f := i, f
		g.Go(func() error {
			path := filepath.Join(outputDir, filepath.FromSlash(f.FolderPath), f.FileName)
			content, err := a.Extract(data, baseOffset, f)
			if err != nil {
				report.Results[i] = ExtractionResult{File: f, Err: err}
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				report.Results[i] = ExtractionResult{File: f, Err: err}
				return nil
			}
			if err := renameio.WriteFile(path, content, 0o644); err != nil {
				report.Results[i] = ExtractionResult{File: f, Err: err}
				return nil
			}
			report.Results[i] = ExtractionResult{File: f, Path: path}
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range report.Results {
		if r.Err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report, nil
}
