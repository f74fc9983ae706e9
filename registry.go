// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "sort"

// FormatSignature is a fixed magic-byte prefix a format module is keyed by
// (spec §3, §4.2). A format may declare more than one signature (e.g. DDX's
// "3XDO"/"3XDR").
type FormatSignature struct {
	ID          string
	Magic       []byte
	Description string
}

// ParseFunc validates a candidate hit at offset and computes its true
// length and metadata. It returns ok=false whenever bytes is too short, the
// magic doesn't match past the cheap signature pre-check, or a structural
// invariant fails — never as a programming error (spec §4.2).
type ParseFunc func(data []byte, offset int64) (ParseResult, bool)

// FormatModule is a single recognized format (spec §3, §4.2).
type FormatModule struct {
	FormatID        string
	DisplayName     string
	Extension       string
	Category        Category
	OutputFolder    string
	MinSize         int64
	MaxSize         int64
	ShowInFilterUI  bool
	DisplayPriority int
	Signatures      []FormatSignature
	Parse           ParseFunc
}

// FormatRegistry enumerates Format modules and maps signature prefixes to
// the owning module, mirroring saferwall/pe's big constant lookup tables
// (pe.go) generalized into a built-once, read-only value (REDESIGN FLAGS:
// no singleton mutable state).
type FormatRegistry struct {
	modules    []FormatModule
	byID       map[string]*FormatModule
	bySig      map[byte][]*FormatModule // keyed by first signature byte, for the carver's dispatch
	maxSigLen  int
}

// NewFormatRegistry builds a registry from the given modules. The returned
// registry is immutable; construct once and share across workers.
func NewFormatRegistry(modules []FormatModule) *FormatRegistry {
	r := &FormatRegistry{
		byID:  make(map[string]*FormatModule, len(modules)),
		bySig: make(map[byte][]*FormatModule),
	}
	r.modules = make([]FormatModule, len(modules))
	copy(r.modules, modules)
	// stable priority ordering for ties: DisplayPriority asc, then FormatID
	sort.SliceStable(r.modules, func(i, j int) bool {
		if r.modules[i].DisplayPriority != r.modules[j].DisplayPriority {
			return r.modules[i].DisplayPriority < r.modules[j].DisplayPriority
		}
		return r.modules[i].FormatID < r.modules[j].FormatID
	})
	for i := range r.modules {
		m := &r.modules[i]
		r.byID[m.FormatID] = m
		for _, sig := range m.Signatures {
			if len(sig.Magic) == 0 {
				continue
			}
			r.bySig[sig.Magic[0]] = append(r.bySig[sig.Magic[0]], m)
			if len(sig.Magic) > r.maxSigLen {
				r.maxSigLen = len(sig.Magic)
			}
		}
	}
	return r
}

// Modules returns all registered modules in priority order.
func (r *FormatRegistry) Modules() []FormatModule {
	return r.modules
}

// ByID looks up a module by its FormatID.
func (r *FormatRegistry) ByID(id string) (*FormatModule, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// CandidatesAt returns the modules whose signature could start at the given
// first byte, used by the Carver's multi-pattern dispatch.
func (r *FormatRegistry) CandidatesAt(firstByte byte) []*FormatModule {
	return r.bySig[firstByte]
}

// MaxSignatureLength returns the length of the longest registered
// signature, which bounds how many bytes the carver must have available to
// even attempt a magic match.
func (r *FormatRegistry) MaxSignatureLength() int {
	return r.maxSigLen
}

// DefaultRegistry builds the format registry described in spec §4.2's
// required-modules table.
func DefaultRegistry() *FormatRegistry {
	return NewFormatRegistry([]FormatModule{
		ddsFormat(),
		ddxFormat(),
		pngFormat(),
		nifFormat(),
		xmaFormat(),
		bsaFormat(),
		scdaFormat(),
	})
}
