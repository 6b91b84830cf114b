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

import (
	"testing"

	"github.com/mrbcvm/mrbcvm/rite"
	"github.com/mrbcvm/mrbcvm/value"
)

// TestPutsArithmetic hand-assembles `puts 1+2*3`, exercising the Fixnum
// fast paths for MUL/ADD and SEND's dispatch to the puts built-in
// (spec.md §8).
func TestPutsArithmetic(t *testing.T) {
	rt, plat := newTestRuntime()
	putsSym := rt.Heap.Symbols.Intern("puts")

	root := &rite.Irep{
		NLocals: 1,
		NRegs:   4,
		Symbols: []value.SymbolID{putsSym},
		Code: []uint32{
			instrAsBx(OpLOADI, 2, 2), // r2 = 2
			instrAsBx(OpLOADI, 3, 3), // r3 = 3
			instr(OpMUL, 2, 0, 0),    // r2 = r2 * r3 = 6
			instrAsBx(OpLOADI, 1, 1), // r1 = 1
			instr(OpADD, 1, 0, 0),    // r1 = r1 + r2 = 7
			instr(OpSEND, 0, 0, 1),   // regs[0].puts(r1), sym idx 0, argc=1
			instr(OpSTOP, 0, 0, 0),
		},
	}

	v := runToHalt(rt, root)
	if v.Errno() != ErrNone {
		t.Fatalf("unexpected errno: %v", v.Errno())
	}
	if got := plat.out.String(); got != "7\n" {
		t.Fatalf("got %q, want %q", got, "7\n")
	}
}

// TestArrayPushLoop builds an array via a JMP-based loop appending 0..4
// and checks its length, exercising JMPNOT/JMP, ADDI, and the Array
// built-ins (spec.md §8's array/loop scenario).
func TestArrayPushLoop(t *testing.T) {
	rt, _ := newTestRuntime()
	pushSym := rt.Heap.Symbols.Intern("push")
	lenSym := rt.Heap.Symbols.Intern("length")

	// r1 = array, r2 = counter. Loop while counter < 5, pushing counter's
	// value each iteration, then read r1.length into r3.
	code := []uint32{
		instr(OpARRAY, 1, 0, 0),  // 0: r1 = []
		instrAsBx(OpLOADI, 2, 0), // 1: r2 = 0 (counter)
		instr(OpMOVE, 4, 2, 0),   // 2: r4 = r2               <- loop head (pc=2)
		instrAsBx(OpLOADI, 5, 5), // 3: r5 = 5
		instr(OpLT, 4, 0, 0),     // 4: r4 = (r4 < r5) = (counter < 5)
		instrAsBx(OpJMPNOT, 4, 0), // 5: if !r4 jump to done (offset patched below)
		instr(OpMOVE, 4, 1, 0),   // 6: r4 = r1 (push receiver)
		instr(OpMOVE, 5, 2, 0),   // 7: r5 = r2 (push arg)
		instr(OpSEND, 4, 0, 1),   // 8: r4.push(r5)
		instr(OpADDI, 2, 0, 1),   // 9: r2 = r2 + 1
		instrAsBx(OpJMP, 0, 0),   // 10: jump back to loop head (offset patched below)
		instr(OpMOVE, 3, 1, 0),   // 11: r3 = r1               <- done (pc=11)
		instr(OpSEND, 3, 1, 0),   // 12: r3.length()
		instr(OpSTOP, 0, 0, 0),   // 13
	}
	// pc after fetching instruction at index i is i+1; patch the two jumps
	// now that every index is fixed.
	const jmpnotIdx, doneIdx = 5, 11
	code[jmpnotIdx] = instrAsBx(OpJMPNOT, 4, doneIdx-(jmpnotIdx+1))
	const jmpIdx, loopHeadIdx = 10, 2
	code[jmpIdx] = instrAsBx(OpJMP, 0, loopHeadIdx-(jmpIdx+1))

	root := &rite.Irep{
		NLocals: 2,
		NRegs:   6,
		Symbols: []value.SymbolID{pushSym, lenSym},
		Code:    code,
	}

	v := runToHalt(rt, root)
	if v.Errno() != ErrNone {
		t.Fatalf("unexpected errno: %v", v.Errno())
	}
	result := v.reg(3)
	if result.Tag != value.TagFixnum || result.FixnumValue() != 5 {
		t.Fatalf("got %#v, want Fixnum(5)", result)
	}
}

// TestHashKeysAndLength builds a two-entry hash and checks its length and
// that one of its keys round-trips through [].
func TestHashKeysAndLength(t *testing.T) {
	rt, _ := newTestRuntime()
	getSym := rt.Heap.Symbols.Intern("[]")
	lenSym := rt.Heap.Symbols.Intern("length")
	nameSym := rt.Heap.Symbols.Intern("name")
	ageSym := rt.Heap.Symbols.Intern("age")

	// r1 = {:name => 1, :age => 42}; r6 = r1.length(); r7 = r1[:name].
	root := &rite.Irep{
		NLocals: 1,
		NRegs:   9,
		Symbols: []value.SymbolID{getSym, lenSym, nameSym, ageSym},
		Code: []uint32{
			instrABx(OpLOADSYM, 2, 2), // 0: r2 = :name
			instrAsBx(OpLOADI, 3, 1),  // 1: r3 = 1
			instrABx(OpLOADSYM, 4, 3), // 2: r4 = :age
			instrAsBx(OpLOADI, 5, 42), // 3: r5 = 42
			instr(OpHASH, 1, 2, 2),    // 4: r1 = {r2=>r3, r4=>r5}
			instr(OpMOVE, 6, 1, 0),    // 5: r6 = r1 (receiver for length)
			instr(OpSEND, 6, 1, 0),    // 6: r6 = r6.length()
			instr(OpMOVE, 7, 1, 0),    // 7: r7 = r1 (receiver for [])
			instrABx(OpLOADSYM, 8, 2), // 8: r8 = :name (arg for [])
			instr(OpSEND, 7, 0, 1),    // 9: r7 = r7[r8]
			instr(OpSTOP, 0, 0, 0),    // 10
		},
	}

	v := runToHalt(rt, root)
	if v.Errno() != ErrNone {
		t.Fatalf("unexpected errno: %v", v.Errno())
	}
	length := v.reg(6)
	if length.Tag != value.TagFixnum || length.FixnumValue() != 2 {
		t.Fatalf("length = %#v, want Fixnum(2)", length)
	}
	nameVal := v.reg(7)
	if nameVal.Tag != value.TagFixnum || nameVal.FixnumValue() != 1 {
		t.Fatalf("hash[:name] = %#v, want Fixnum(1)", nameVal)
	}
}
