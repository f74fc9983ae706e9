// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package esm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio"
)

// WriteOutputs emits the esm_records/ output layout described in spec §6:
// editor_ids.txt, game_settings.txt, formid_map.csv, formid_references.txt,
// and one script_sources/sctx_NNNN_0xXXXXXXXX.txt per script-text hit, named
// with its correlated FormID or 0x00000000 when none was found.
func WriteOutputs(outputDir string, result *ScanResult, scripts []ScdaRecord) error {
	dir := filepath.Join(outputDir, "esm_records")
	if err := os.MkdirAll(filepath.Join(dir, "script_sources"), 0o755); err != nil {
		return err
	}

	if err := writeEditorIDs(dir, result); err != nil {
		return err
	}
	if err := writeGameSettings(dir, result); err != nil {
		return err
	}
	if err := writeFormIDMap(dir, result); err != nil {
		return err
	}
	if err := writeFormIDReferences(dir, result); err != nil {
		return err
	}
	if err := writeScriptSources(dir, result); err != nil {
		return err
	}
	return writeDecompiledScripts(dir, scripts)
}

func writeEditorIDs(dir string, result *ScanResult) error {
	names := make([]string, len(result.EditorIDs))
	for i, h := range result.EditorIDs {
		names[i] = h.Name
	}
	sort.Strings(names)
	return renameio.WriteFile(filepath.Join(dir, "editor_ids.txt"), []byte(strings.Join(names, "\n")+"\n"), 0o644)
}

func writeGameSettings(dir string, result *ScanResult) error {
	seen := make(map[string]bool)
	var names []string
	for _, h := range result.GameSettings {
		if !seen[h.Name] {
			seen[h.Name] = true
			names = append(names, h.Name)
		}
	}
	sort.Strings(names)
	return renameio.WriteFile(filepath.Join(dir, "game_settings.txt"), []byte(strings.Join(names, "\n")+"\n"), 0o644)
}

func writeFormIDMap(dir string, result *ScanResult) error {
	ids := make([]uint32, 0, len(result.FormIDToEditorID))
	for id := range result.FormIDToEditorID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString("FormID,EditorID\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "0x%08X,%s\n", id, result.FormIDToEditorID[id])
	}
	return renameio.WriteFile(filepath.Join(dir, "formid_map.csv"), []byte(b.String()), 0o644)
}

func writeFormIDReferences(dir string, result *ScanResult) error {
	refs := append([]ScriptReferenceHit(nil), result.ScriptReferences...)
	sort.Slice(refs, func(i, j int) bool { return refs[i].FormID < refs[j].FormID })

	var b strings.Builder
	for _, r := range refs {
		name := result.FormIDToEditorID[r.FormID]
		fmt.Fprintf(&b, "0x%08X (%s)\n", r.FormID, name)
	}
	return renameio.WriteFile(filepath.Join(dir, "formid_references.txt"), []byte(b.String()), 0o644)
}

// writeScriptSources emits one script_sources/sctx_NNNN_0xXXXXXXXX.txt per
// harvested SCTX fragment, correlated to the nearest following SCRO
// FormID within a 1 KiB proximity window.
func writeScriptSources(dir string, result *ScanResult) error {
	refs := append([]ScriptReferenceHit(nil), result.ScriptReferences...)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Offset < refs[j].Offset })

	const proximity = 1024
	for i, s := range result.ScriptTexts {
		var formID uint32
		for _, r := range refs {
			if r.Offset >= s.Offset && r.Offset-s.Offset <= proximity {
				formID = r.FormID
				break
			}
		}
		name := fmt.Sprintf("sctx_%04d_0x%08X.txt", i, formID)
		path := filepath.Join(dir, "script_sources", name)
		if err := renameio.WriteFile(path, []byte(s.Text), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// writeDecompiledScripts emits the ScdaDecompiler's reconstructed pseudo-
// source for every harvested SCDA record, alongside the SCTX sources, under
// the same script_sources folder.
func writeDecompiledScripts(dir string, scripts []ScdaRecord) error {
	for i, s := range scripts {
		if s.Source == "" {
			continue
		}
		var formID uint32
		if len(s.FormIDs) > 0 {
			formID = s.FormIDs[0]
		}
		name := fmt.Sprintf("scda_%04d_0x%08X.txt", i, formID)
		path := filepath.Join(dir, "script_sources", name)
		if err := renameio.WriteFile(path, []byte(s.Source), 0o644); err != nil {
			return err
		}
	}
	return nil
}
