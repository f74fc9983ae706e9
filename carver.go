// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/xbdump/carve/internal/log"
)

// DefaultChunkSize and DefaultOverlap implement spec §4.4's default
// streaming window: 16 MiB chunks with a 1 KiB overlap so a signature
// straddling a chunk boundary is never missed.
const (
	DefaultChunkSize = 16 * 1024 * 1024
	DefaultOverlap   = 1024
)

// ProgressFunc receives fractional progress in [0,1] and a short status
// message, reported at chunk boundaries (spec §4.4, §6 "Progress sink").
type ProgressFunc func(fraction float64, message string)

// Carver streams a Dump through the FormatRegistry's signatures, producing
// an ordered, non-overlapping AnalysisResult (spec §4.4). Structurally
// grounded on the retrieval pack's sliding-window carver
// (other_examples/…shubham030-recovery…carver.go), generalized from a
// single-pattern-per-byte linear scan into a registry-driven multi-pattern
// dispatch with chunk-level parallelism.
type Carver struct {
	registry  *FormatRegistry
	chunkSize int
	overlap   int
}

// NewCarver builds a Carver over registry using the default chunk size and
// overlap.
func NewCarver(registry *FormatRegistry) *Carver {
	return &Carver{registry: registry, chunkSize: DefaultChunkSize, overlap: DefaultOverlap}
}

// WithChunking overrides the chunk size and overlap, mainly for tests that
// want to exercise boundary behavior without scanning megabytes of data.
func (c *Carver) WithChunking(chunkSize, overlap int) *Carver {
	c.chunkSize = chunkSize
	c.overlap = overlap
	return c
}

type chunkSpec struct {
	start, end int // [start, end) bytes actually read, including overlap
	reportTo   int // hits starting before this offset are reported; = end - overlap, except on the last chunk where it is end
}

func (c *Carver) planChunks(total int) []chunkSpec {
	if total == 0 {
		return nil
	}
	var chunks []chunkSpec
	pos := 0
	for pos < total {
		end := pos + c.chunkSize
		if end > total {
			end = total
		}
		reportTo := end
		if end < total {
			reportTo = end - c.overlap
			if reportTo < pos {
				reportTo = pos
			}
		}
		chunks = append(chunks, chunkSpec{start: pos, end: end, reportTo: reportTo})
		if end >= total {
			break
		}
		pos = reportTo
		if pos <= chunks[len(chunks)-1].start {
			// overlap larger than chunk size would stall progress; force advance
			pos = end
		}
	}
	return chunks
}

// Analyze streams dump's bytes through the registry and returns the ordered,
// overlap-resolved set of carved entries. progress may be nil. Cancellation
// is checked at chunk boundaries; ctx.Err() (if non-nil when checked) aborts
// the scan and is returned wrapped in ErrCancelled.
func (c *Carver) Analyze(ctx context.Context, dump *Dump, progress ProgressFunc) (*AnalysisResult, error) {
	logger := dump.Logger()
	if logger == nil {
		logger = log.NewHelper(nil)
	}
	data := dump.Bytes()
	chunks := c.planChunks(len(data))
	logger.Infof("carve: scanning %d bytes in %d chunk(s)", len(data), len(chunks))

	results := make([][]CarvedEntry, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, ch := range chunks {
		i, ch := i, ch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.scanChunk(data, ch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warnf("carve: scan cancelled: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	var all []CarvedEntry
	for i, r := range results {
		all = append(all, r...)
		if progress != nil {
			frac := float64(chunks[i].end) / float64(len(data))
			progress(frac, "scanning")
		}
	}

	entries := resolveOverlaps(all)
	counts := make(map[string]int, len(entries))
	for _, e := range entries {
		counts[e.FormatID]++
	}
	logger.Infof("carve: %d candidate hit(s) resolved to %d entries", len(all), len(entries))
	return &AnalysisResult{Entries: entries, CountByFmt: counts}, nil
}

// scanChunk runs the multi-pattern matcher over one chunk, reporting hits
// whose start offset is < ch.reportTo (the non-overlap prefix), per spec
// §4.4 step 2.
func (c *Carver) scanChunk(data []byte, ch chunkSpec) []CarvedEntry {
	var hits []CarvedEntry
	window := data[ch.start:ch.end]
	for i := 0; i < len(window); i++ {
		offset := ch.start + i
		if offset >= ch.reportTo {
			break
		}
		candidates := c.registry.CandidatesAt(window[i])
		for _, m := range candidates {
			if !matchesSignature(window[i:], m) {
				continue
			}
			result, ok := m.Parse(data, int64(offset))
			if !ok {
				continue
			}
			if result.EstimatedSize < m.MinSize || result.EstimatedSize > m.MaxSize {
				continue
			}
			hits = append(hits, CarvedEntry{
				Offset:   int64(offset),
				Length:   result.EstimatedSize,
				FormatID: result.FormatID,
				Filename: result.Filename,
				Metadata: result.Metadata,
				Priority: m.DisplayPriority,
			})
		}
	}
	return hits
}

func matchesSignature(window []byte, m *FormatModule) bool {
	for _, sig := range m.Signatures {
		if len(sig.Magic) > len(window) {
			continue
		}
		match := true
		for j, b := range sig.Magic {
			if window[j] != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// resolveOverlaps implements spec §4.4's overlap policy: sort by
// (offset asc, priority asc), then walk in order dropping any candidate
// whose range overlaps a previously accepted entry of equal or higher
// priority (lower priority number wins; equal-priority ties are first-wins).
// A candidate that outranks every accepted entry it overlaps evicts those
// entries, so the result never contains two overlapping ranges.
func resolveOverlaps(all []CarvedEntry) []CarvedEntry {
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Offset != all[j].Offset {
			return all[i].Offset < all[j].Offset
		}
		if all[i].Priority != all[j].Priority {
			return all[i].Priority < all[j].Priority
		}
		return all[i].FormatID < all[j].FormatID
	})

	var accepted []CarvedEntry
	for _, cand := range all {
		conflict := false
		for _, a := range accepted {
			if cand.Overlaps(a) && a.Priority <= cand.Priority {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		kept := accepted[:0]
		for _, a := range accepted {
			if !cand.Overlaps(a) {
				kept = append(kept, a)
			}
		}
		accepted = append(kept, cand)
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		if accepted[i].Offset != accepted[j].Offset {
			return accepted[i].Offset < accepted[j].Offset
		}
		if accepted[i].Priority != accepted[j].Priority {
			return accepted[i].Priority < accepted[j].Priority
		}
		return accepted[i].FormatID < accepted[j].FormatID
	})
	return accepted
}
