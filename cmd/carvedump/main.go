// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/xbdump/carve"
	"github.com/xbdump/carve/esm"
)

func main() {
	analyzeCmd := flag.NewFlagSet("analyze", flag.ExitOnError)
	analyzeVerbose := analyzeCmd.Bool("verbose", false, "print every carved entry")

	extractCmd := flag.NewFlagSet("extract", flag.ExitOnError)
	extractOut := extractCmd.String("out", "./extracted", "output directory")
	extractConvertDDX := extractCmd.Bool("convert-ddx", false, "convert carved DDX textures to DDS")
	extractConvertNIF := extractCmd.Bool("convert-nif", false, "convert carved big-endian NIF models to little-endian")
	extractSkipExisting := extractCmd.Bool("skip-existing", false, "skip entries whose output file already exists")

	scanCmd := flag.NewFlagSet("scan-esm", flag.ExitOnError)
	scanOut := scanCmd.String("out", "./extracted", "output directory for esm_records/")

	if len(os.Args) < 3 {
		showHelp()
	}

	switch os.Args[1] {
	case "analyze":
		analyzeCmd.Parse(os.Args[3:])
		runAnalyze(os.Args[2], *analyzeVerbose)
	case "extract":
		extractCmd.Parse(os.Args[3:])
		runExtract(os.Args[2], *extractOut, *extractConvertDDX, *extractConvertNIF, *extractSkipExisting)
	case "scan-esm":
		scanCmd.Parse(os.Args[3:])
		runScanEsm(os.Args[2], *scanOut)
	default:
		showHelp()
	}
}

func openDump(path string) *carve.Dump {
	dump, err := carve.Open(path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "carvedump: %v\n", err)
		os.Exit(1)
	}
	return dump
}

func runAnalyze(path string, verbose bool) {
	dump := openDump(path)
	defer dump.Close()

	registry := carve.DefaultRegistry()
	carver := carve.NewCarver(registry)

	var progress carve.ProgressFunc
	if verbose {
		progress = func(fraction float64, message string) {
			fmt.Fprintf(os.Stderr, "\r%-20s %5.1f%%", message, fraction*100)
		}
	}

	result, err := carver.Analyze(context.Background(), dump, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "carvedump: analyze failed: %v\n", err)
		os.Exit(1)
	}
	if verbose {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Printf("found %d entries\n", len(result.Entries))
	for id, count := range result.CountByFmt {
		fmt.Printf("  %-8s %d\n", id, count)
	}
	if verbose {
		for _, e := range result.Entries {
			fmt.Printf("0x%08x %-8s %d bytes\n", e.Offset, e.FormatID, e.Length)
		}
	}
}

func runExtract(path, outDir string, convertDDX, convertNIF, skipExisting bool) {
	dump := openDump(path)
	defer dump.Close()

	registry := carve.DefaultRegistry()
	carver := carve.NewCarver(registry)
	result, err := carver.Analyze(context.Background(), dump, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "carvedump: analyze failed: %v\n", err)
		os.Exit(1)
	}

	extractor := carve.NewExtractor(registry, nil)
	summary := extractor.Run(dump, result.Entries, carve.ExtractionOptions{
		OutputPath:   outDir,
		ConvertDDX:   convertDDX,
		ConvertNIF:   convertNIF,
		SkipExisting: skipExisting,
	})

	fmt.Printf("extracted %d, skipped %d, failed %d\n", summary.Extracted, summary.SkippedN, summary.FailedN)
	for _, r := range summary.Records {
		if r.Status == carve.Failed {
			fmt.Fprintf(os.Stderr, "  0x%08x %-8s failed: %v\n", r.Entry.Offset, r.Entry.FormatID, r.Err)
		}
	}
}

func runScanEsm(path, outDir string) {
	dump := openDump(path)
	defer dump.Close()

	data := dump.Bytes()
	result := esm.Scan(data)
	scripts := esm.ScanScda(data, nil)

	if err := esm.WriteOutputs(outDir, result, scripts); err != nil {
		fmt.Fprintf(os.Stderr, "carvedump: writing esm_records failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("editor ids: %d, game settings: %d, script refs: %d, scripts: %d\n",
		len(result.EditorIDs), len(result.GameSettings), len(result.ScriptReferences), len(scripts))
}

func showHelp() {
	fmt.Print(
		`carvedump - recover textures, models, audio, and scripts from Xbox 360
Bethesda memory dumps.

Usage:
  carvedump analyze  <dump>  [-verbose]
  carvedump extract  <dump>  [-out DIR] [-convert-ddx] [-convert-nif] [-skip-existing]
  carvedump scan-esm <dump>  [-out DIR]

extract also unpacks every carved .bsa archive's per-file contents into a
"<name>_unpacked/" directory alongside it.
`)
	os.Exit(1)
}
