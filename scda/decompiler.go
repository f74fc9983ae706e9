// Copyright 2026 The xbdump authors.
// Use of this source code is governed by an Apache v2 license
// license that can be found in the LICENSE file.

package scda

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Result is the decompiler's output: the reconstructed pseudo-source plus
// any non-fatal issues encountered while walking the bytecode.
type Result struct {
	Source   string
	Warnings []string
}

// Decompile walks SCDA bytecode (the bytes following the 6-byte SCDA
// header) and reconstructs indented pseudo-source (spec §4.11). It never
// returns an error: malformed or truncated regions degrade to an
// "; Unknown opcode" / "; truncated" comment line rather than aborting, so
// that a decompile over a carved, possibly partial fragment still produces
// readable output.
func Decompile(bytecode []byte, ops *Opcodes) Result {
	if ops == nil {
		ops = NewOpcodes(nil)
	}
	d := &decompiler{data: bytecode, ops: ops}
	d.run()
	return Result{Source: d.out.String(), Warnings: d.warnings}
}

type decompiler struct {
	data     []byte
	pos      int
	depth    int
	out      strings.Builder
	warnings []string
}

func (d *decompiler) emit(line string) {
	d.out.WriteString(indentOf(d.depth))
	d.out.WriteString(line)
	d.out.WriteByte('\n')
}

func (d *decompiler) warn(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

func (d *decompiler) remaining() int { return len(d.data) - d.pos }

func (d *decompiler) u16() (uint16, bool) {
	if d.remaining() < 2 {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, true
}

func (d *decompiler) take(n int) ([]byte, bool) {
	if d.remaining() < n {
		return nil, false
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, true
}

func (d *decompiler) run() {
	for d.remaining() >= 2 {
		op, _ := d.u16()
		switch op {
		case OpBegin:
			d.stepBegin()
		case OpEnd:
			if d.depth > 0 {
				d.depth--
			}
			d.emit("End")
		case OpSet:
			d.stepSet()
		case OpIf:
			d.stepCondition("if")
		case OpElseIf:
			if d.depth > 0 {
				d.depth--
			}
			d.stepCondition("elseif")
		case OpElse:
			if d.depth > 0 {
				d.depth--
			}
			d.emit("else")
			d.depth++
		case OpEndIf:
			if d.depth > 0 {
				d.depth--
			}
			d.emit("endif")
		case OpSetRef:
			d.emit("; SetRef")
		case OpScriptName:
			d.emit("ScriptName")
		case OpReturn:
			d.emit("Return")
		default:
			if op >= FuncOpcodeBase {
				d.stepFunctionCall(op)
			} else {
				d.emit(fmt.Sprintf("; Unknown opcode 0x%04X", op))
			}
		}
	}
	if d.remaining() == 1 {
		d.warn("trailing byte at offset %d ignored", d.pos)
	}
}

func (d *decompiler) stepBegin() {
	modeLen, ok := d.u16()
	if !ok {
		d.emit("; truncated Begin")
		return
	}
	_ = modeLen // the payload's declared length; the mode value itself follows
	mode, ok := d.u16()
	if !ok {
		d.emit("; truncated Begin")
		return
	}
	d.emit(fmt.Sprintf("Begin %s", blockTypeName(mode)))
	d.depth++
}

func (d *decompiler) stepSet() {
	varName, ok := d.readLengthPrefixed()
	if !ok {
		d.emit("; truncated Set")
		return
	}
	exprLen, ok := d.u16()
	if !ok {
		d.emit("; truncated Set")
		return
	}
	exprBytes, ok := d.take(int(exprLen))
	if !ok {
		d.emit("; truncated Set expression")
		return
	}
	expr := evalExpression(exprBytes, d.ops)
	d.emit(fmt.Sprintf("set %s to %s", varName, expr))
}

func (d *decompiler) stepCondition(keyword string) {
	exprLen, ok := d.u16()
	if !ok {
		d.emit(fmt.Sprintf("; truncated %s", keyword))
		return
	}
	exprBytes, ok := d.take(int(exprLen))
	if !ok {
		d.emit(fmt.Sprintf("; truncated %s expression", keyword))
		return
	}
	expr := evalExpression(exprBytes, d.ops)
	d.emit(fmt.Sprintf("%s %s", keyword, expr))
	d.depth++
}

func (d *decompiler) stepFunctionCall(op uint16) {
	paramLen, ok := d.u16()
	if !ok {
		d.emit(fmt.Sprintf("; truncated call 0x%04X", op))
		return
	}
	paramCount, ok := d.u16()
	if !ok {
		d.emit(fmt.Sprintf("; truncated call 0x%04X", op))
		return
	}
	payload, ok := d.take(int(paramLen))
	if !ok {
		d.emit(fmt.Sprintf("; truncated call 0x%04X params", op))
		return
	}
	params := decodeParams(payload, int(paramCount))
	name := d.ops.Name(op)
	d.emit(fmt.Sprintf("%s %s", name, strings.Join(params, " ")))
}

func (d *decompiler) readLengthPrefixed() (string, bool) {
	l, ok := d.u16()
	if !ok {
		return "", false
	}
	b, ok := d.take(int(l))
	if !ok {
		return "", false
	}
	return string(b), true
}

// decodeParams is a best-effort reader for function-call parameter payloads:
// each parameter is one operand-stack marker byte followed by its operand
// (integer, float, reference), decoded by decodeOperand; there is no
// per-parameter length prefix.
func decodeParams(payload []byte, count int) []string {
	out := make([]string, 0, count)
	pos := 0
	for i := 0; i < count && pos < len(payload); i++ {
		if pos+1 > len(payload) {
			break
		}
		marker := payload[pos]
		pos++
		val, n := decodeOperand(marker, payload[pos:])
		pos += n
		out = append(out, val)
	}
	return out
}

// decodeOperand reads one marked operand from b, returning its textual
// rendering and the number of bytes consumed after the marker byte.
func decodeOperand(marker byte, b []byte) (string, int) {
	switch marker {
	case MarkerI32Long:
		if len(b) < 4 {
			return "?", len(b)
		}
		return fmt.Sprintf("%d", int32(binary.LittleEndian.Uint32(b))), 4
	case MarkerF64:
		if len(b) < 8 {
			return "?", len(b)
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(b))
		return fmt.Sprintf("%g", v), 8
	case MarkerReference, MarkerIntegerLocal:
		if len(b) < 4 {
			return "?", len(b)
		}
		return fmt.Sprintf("ref_%d", binary.LittleEndian.Uint32(b)), 4
	case MarkerFloatLocal:
		if len(b) < 4 {
			return "?", len(b)
		}
		v := math.Float32frombits(binary.LittleEndian.Uint32(b))
		return fmt.Sprintf("%g", v), 4
	default:
		return fmt.Sprintf("0x%02X", marker), 0
	}
}

// evalExpression walks an expression's operand-stack bytecode, folding
// operators over the marked operands as it goes, and renders the result as
// an infix string (spec §4.11's expression parser).
func evalExpression(b []byte, ops *Opcodes) string {
	var stack []string
	pos := 0
	for pos < len(b) {
		marker := b[pos]
		pos++
		if op, n := matchOperator(marker); op != "" {
			pos += n
			if len(stack) >= 2 {
				rhs := stack[len(stack)-1]
				lhs := stack[len(stack)-2]
				stack = stack[:len(stack)-2]
				stack = append(stack, fmt.Sprintf("(%s %s %s)", lhs, op, rhs))
			}
			continue
		}
		val, n := decodeOperand(marker, b[pos:])
		pos += n
		stack = append(stack, val)
	}
	if len(stack) == 0 {
		return ""
	}
	return stack[len(stack)-1]
}

// matchOperator recognizes a single-byte operator tag; these codes are
// implementation-internal (the spec names the operator set textually, not
// its byte encoding) and are chosen not to collide with the operand
// markers above.
func matchOperator(marker byte) (string, int) {
	switch marker {
	case 0x01:
		return "==", 0
	case 0x02:
		return "!=", 0
	case 0x03:
		return ">=", 0
	case 0x04:
		return "<=", 0
	case 0x05:
		return ">", 0
	case 0x06:
		return "<", 0
	case 0x07:
		return "+", 0
	case 0x08:
		return "-", 0
	case 0x09:
		return "*", 0
	case 0x0A:
		return "/", 0
	case 0x0B:
		return "&&", 0
	case 0x0C:
		return "||", 0
	default:
		return "", 0
	}
}
