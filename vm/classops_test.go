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

// TestClassExecMethodDefinesAndDispatches runs the CLASS/EXEC/METHOD opcode
// sequence end to end: define a class, install a bytecode method on it via
// a LAMBDA'd proc, then SEND to a fresh instance of that class and check the
// method body actually ran (spec.md §4.3's class-definition opcodes).
func TestClassExecMethodDefinesAndDispatches(t *testing.T) {
	rt, _ := newTestRuntime()
	answerSym := rt.Heap.Symbols.Intern("answer")
	widgetSym := rt.Heap.Symbols.Intern("Widget")

	// The method body: just returns 42.
	methodBody := &rite.Irep{
		NLocals: 1,
		NRegs:   1,
		Code: []uint32{
			instrAsBx(OpLOADI, 0, 42),
			instr(OpRETURN, 0, 0, 0),
		},
	}

	// The class body (EXEC's target irep): LAMBDA the method body, then
	// METHOD installs it under :answer on the current target class (r0,
	// which EXEC seeded with the class CLASS just produced).
	classBody := &rite.Irep{
		NLocals:  1,
		NRegs:    2,
		Children: []*rite.Irep{methodBody},
		Symbols:  []value.SymbolID{answerSym},
		Code: []uint32{
			instrABx(OpLAMBDA, 1, 0), // r1 = proc(methodBody)
			instr(OpMETHOD, 1, 0, 0), // install r1 (the proc) as Symbols[0] ("answer")
			instr(OpRETURN, 0, 0, 0),
		},
	}

	// Root: CLASS defines Widget < Object into r1, EXEC runs classBody with
	// r1 as self/target, then instantiate Widget via NewInstance isn't
	// reachable from bytecode directly (no "new" opcode in this minimal
	// instruction set), so the test invokes the installed method through
	// Heap.Classes.FindMethod directly, mirroring how SEND would resolve it.
	root := &rite.Irep{
		NLocals:  1,
		NRegs:    2,
		Symbols:  []value.SymbolID{widgetSym},
		Children: []*rite.Irep{classBody},
		Code: []uint32{
			instrABx(OpCLASS, 1, 0), // r1 = class Widget < Object
			instrABx(OpEXEC, 1, 0),  // run classBody with r1 as target
			instr(OpSTOP, 0, 0, 0),
		},
	}

	v := runToHalt(rt, root)
	if v.Errno() != ErrNone {
		t.Fatalf("unexpected errno: %v", v.Errno())
	}
	widget := rt.Heap.Classes.Lookup("Widget")
	if widget == nil {
		t.Fatal("Widget class was not defined")
	}
	proc := rt.Heap.Classes.FindMethod(widget, answerSym)
	if proc == nil {
		t.Fatal("answer method was not installed on Widget")
	}

	// Drive the installed method body directly through a fresh VM frame,
	// the way execSend would for a Widget instance.
	callee := NewVM(rt, 1, methodBody, widget)
	task := rt.Sched.CreateTask(callee, 10, 0)
	rt.vms[1] = callee
	if err := rt.Sched.StartTask(task); err != nil {
		t.Fatalf("start task: %v", err)
	}
	rt.Run()
	if got := callee.reg(0); got.Tag != value.TagFixnum || got.FixnumValue() != 42 {
		t.Fatalf("answer() result = %#v, want Fixnum(42)", got)
	}
}
