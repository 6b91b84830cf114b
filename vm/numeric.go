// Copyright 2024 The mrbcvm Authors
// This file is part of the mrbcvm library.
//
// The mrbcvm library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The mrbcvm library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the mrbcvm library. If not, see <http://www.gnu.org/licenses/>.

package vm

import "github.com/mrbcvm/mrbcvm/value"

// opMethodName maps a numeric opcode to the method name used when the
// Fixnum/Float fast path doesn't apply and dispatch falls through to SEND
// (spec.md §4.3: "inline Fixnum×Fixnum arithmetic and comparisons, falling
// through to full method dispatch otherwise").
func opMethodName(op Op) string {
	switch op {
	case OpADD:
		return "+"
	case OpSUB:
		return "-"
	case OpMUL:
		return "*"
	case OpDIV:
		return "/"
	case OpEQ:
		return "=="
	case OpLT:
		return "<"
	case OpLE:
		return "<="
	case OpGT:
		return ">"
	case OpGE:
		return ">="
	default:
		return ""
	}
}

// execBinOp implements ADD/SUB/MUL/DIV/EQ/LT/LE/GT/GE: regs[a] <op>
// regs[a+1], result into regs[a] (the two-register operand convention the
// register-VM references under _examples/other_examples use).
func (v *VM) execBinOp(op Op, a int) {
	lhs, rhs := v.reg(a), v.reg(a+1)
	if lhs.Tag == value.TagFixnum && rhs.Tag == value.TagFixnum {
		v.setReg(a, fixnumOp(op, lhs.FixnumValue(), rhs.FixnumValue()))
		return
	}
	if isNumericTag(lhs.Tag) && isNumericTag(rhs.Tag) {
		v.setReg(a, floatOp(op, asFloat(lhs), asFloat(rhs)))
		return
	}
	sym := v.rt.Heap.Symbols.Intern(opMethodName(op))
	v.execSend(a, sym, 1)
}

// execImmOp implements ADDI/SUBI: regs[a] <op> immediate c, Fixnum fast
// path only; any other receiver falls through to full dispatch with c
// boxed as a Fixnum argument.
func (v *VM) execImmOp(op Op, a, c int) {
	lhs := v.reg(a)
	if lhs.Tag == value.TagFixnum {
		v.setReg(a, fixnumOp(op, lhs.FixnumValue(), int32(c)))
		return
	}
	v.setReg(a+1, value.Int(int32(c)))
	sym := v.rt.Heap.Symbols.Intern(opMethodName(op))
	v.execSend(a, sym, 1)
}

func isNumericTag(t value.Tag) bool { return t == value.TagFixnum || t == value.TagFloat }

func asFloat(v value.Value) float64 {
	if v.Tag == value.TagFixnum {
		return float64(v.FixnumValue())
	}
	return v.FloatValue()
}

func fixnumOp(op Op, a, b int32) value.Value {
	switch op {
	case OpADD:
		return value.Int(a + b)
	case OpSUB:
		return value.Int(a - b)
	case OpMUL:
		return value.Int(a * b)
	case OpDIV:
		if b == 0 {
			return value.Nil()
		}
		return value.Int(a / b)
	case OpEQ:
		return value.Bool(a == b)
	case OpLT:
		return value.Bool(a < b)
	case OpLE:
		return value.Bool(a <= b)
	case OpGT:
		return value.Bool(a > b)
	case OpGE:
		return value.Bool(a >= b)
	default:
		return value.Nil()
	}
}

func floatOp(op Op, a, b float64) value.Value {
	switch op {
	case OpADD:
		return value.Flt(a + b)
	case OpSUB:
		return value.Flt(a - b)
	case OpMUL:
		return value.Flt(a * b)
	case OpDIV:
		return value.Flt(a / b)
	case OpEQ:
		return value.Bool(a == b)
	case OpLT:
		return value.Bool(a < b)
	case OpLE:
		return value.Bool(a <= b)
	case OpGT:
		return value.Bool(a > b)
	case OpGE:
		return value.Bool(a >= b)
	default:
		return value.Nil()
	}
}
