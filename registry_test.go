// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package carve

import "testing"

func TestDefaultRegistryCandidatesAt(t *testing.T) {
	r := DefaultRegistry()
	candidates := r.CandidatesAt('D')
	found := false
	for _, m := range candidates {
		if m.FormatID == "dds" {
			found = true
		}
	}
	if !found {
		t.Error("expected dds module to be a candidate for first byte 'D'")
	}
}

func TestDefaultRegistryByID(t *testing.T) {
	r := DefaultRegistry()
	for _, id := range []string{"dds", "ddx", "png", "nif", "xma", "bsa", "scda"} {
		if _, ok := r.ByID(id); !ok {
			t.Errorf("missing module %q from default registry", id)
		}
	}
}

func TestFormatRegistryPriorityOrdering(t *testing.T) {
	r := NewFormatRegistry([]FormatModule{
		{FormatID: "b", DisplayPriority: 20},
		{FormatID: "a", DisplayPriority: 10},
		{FormatID: "c", DisplayPriority: 10},
	})
	modules := r.Modules()
	if modules[0].FormatID != "a" || modules[1].FormatID != "c" || modules[2].FormatID != "b" {
		t.Errorf("unexpected order: %v", modules)
	}
}
