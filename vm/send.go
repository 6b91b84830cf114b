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
	"github.com/mrbcvm/mrbcvm/rite"
	"github.com/mrbcvm/mrbcvm/value"
)

// classOf resolves v's class for method dispatch: Instance carries its own
// class pointer, every other tag maps to one of the built-in classes the
// Runtime registers at construction time (spec.md §4.3's SEND dispatch
// entry point).
func (v *VM) classOf(val value.Value) *value.Class {
	if val.Tag == value.TagObject {
		return value.AsInstance(val).Class
	}
	return v.rt.builtinClass(val.Tag)
}

// execSend implements SEND/SENDB: look up sym on the receiver's class
// chain and invoke it, native or bytecode. The window convention mirrors
// the teacher references under _examples/other_examples' register VMs: the
// callee's frame is built directly on top of the caller's registers
// starting at the receiver's slot, so no argument copy is needed.
func (v *VM) execSend(a int, sym value.SymbolID, argc int) {
	recvAbs := v.base + a
	recv := v.regs[recvAbs]
	class := v.classOf(recv)
	proc := v.rt.Heap.Classes.FindMethod(class, sym)
	if proc == nil {
		v.diagnostic(ErrNoMethod, "no method: "+v.rt.Heap.Symbols.Name(sym))
		v.setReg(a, value.Nil())
		return
	}
	v.invokeProc(proc, a, argc, class)
}

// execCall implements CALL: invoke the Proc currently held in register 0
// (the value OP_LAMBDA most recently produced), with argc arguments
// already placed in registers 1..argc.
func (v *VM) execCall(argc int) {
	recv := v.reg(0)
	if recv.Tag != value.TagProc {
		v.diagnostic(ErrType, "call target is not a proc")
		return
	}
	proc := value.AsProc(recv)
	v.invokeProc(proc, 0, argc, v.targetClass)
}

func (v *VM) invokeProc(proc *value.Proc, a, argc int, owner *value.Class) {
	if proc.Native != nil {
		end := v.base + a + argc + 2
		if end > len(v.regs) {
			end = len(v.regs)
		}
		window := v.regs[v.base+a : end]
		proc.Native(v.rt.Heap, v.vmID, window, argc)
		return
	}

	var childIrep *rite.Irep
	var env []value.Value
	switch body := proc.IrepRef.(type) {
	case *rite.Irep:
		childIrep = body
	case *closureBody:
		childIrep = body.irep
		env = body.env
	default:
		v.diagnostic(ErrNotImplemented, "proc has no body")
		v.setReg(a, value.Nil())
		return
	}

	newBase := v.base + a
	if newBase+int(childIrep.NRegs) > len(v.regs) {
		v.diagnostic(ErrNoMemory, "register file exhausted on call")
		v.setReg(a, value.Nil())
		return
	}
	if len(v.callStack) >= DefaultCallStackSize {
		v.diagnostic(ErrRuntime, "call stack exhausted")
		v.setReg(a, value.Nil())
		return
	}

	v.callStack = append(v.callStack, callInfo{
		irep:        v.irep,
		pc:          v.pc,
		base:        v.base,
		targetClass: v.targetClass,
		resultReg:   a,
		env:         v.currentEnv,
	})
	v.irep = childIrep
	v.pc = 0
	v.base = newBase
	v.targetClass = owner
	v.currentEnv = env
	v.currentArgc = argc
}

// execReturn implements RETURN: release every other live register in the
// departing frame's window, then restore the caller's frame (or halt, for
// the outermost call).
func (v *VM) execReturn(a int) {
	result := v.regs[v.base+a]
	limit := int(v.irep.NRegs)
	if v.base+limit > len(v.regs) {
		limit = len(v.regs) - v.base
	}
	for i := 0; i < limit; i++ {
		if i == a {
			continue
		}
		value.Release(v.rt.Heap, v.regs[v.base+i])
		v.regs[v.base+i] = value.Nil()
	}

	if len(v.callStack) == 0 {
		value.Release(v.rt.Heap, result)
		v.halted = true
		return
	}

	ci := v.callStack[len(v.callStack)-1]
	v.callStack = v.callStack[:len(v.callStack)-1]
	v.irep = ci.irep
	v.pc = ci.pc
	v.base = ci.base
	v.targetClass = ci.targetClass
	v.currentEnv = ci.env
	v.setReg(ci.resultReg, result)
}
