// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package scda

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// opcodeTableFile is the on-disk shape of an extended opcode table (spec
// §4.11: "callers MAY load an extended table from an optional CSV" —
// generalized here to TOML; LoadOpcodeTableCSV reads the CSV form).
type opcodeTableFile struct {
	Function map[string]string `toml:"function"`
}

// LoadOpcodeTable reads an extended function-opcode table from a TOML file
// and layers it over the built-in defaults. Keys are hex or decimal opcode
// strings ("0x0120" or "288"); values are function names.
func LoadOpcodeTable(path string) (*Opcodes, error) {
	var f opcodeTableFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("scda: loading opcode table %s: %w", path, err)
	}
	overrides := make(map[uint16]string, len(f.Function))
	for key, name := range f.Function {
		op, err := strconv.ParseUint(key, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("scda: invalid opcode key %q: %w", key, err)
		}
		overrides[uint16(op)] = name
	}
	return NewOpcodes(overrides), nil
}

// LoadOpcodeTableCSV reads an extended function-opcode table from a
// two-column "opcode,name" CSV file (spec §4.11's literal "callers MAY load
// an extended table from an optional CSV"), for callers that want exact
// spec-text fidelity instead of the TOML path above.
func LoadOpcodeTableCSV(path string) (*Opcodes, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scda: loading opcode table %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.TrimLeadingSpace = true

	overrides := make(map[uint16]string)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scda: parsing opcode table %s: %w", path, err)
		}
		op, err := strconv.ParseUint(rec[0], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("scda: invalid opcode %q: %w", rec[0], err)
		}
		overrides[uint16(op)] = rec[1]
	}
	return NewOpcodes(overrides), nil
}
