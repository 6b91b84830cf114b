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

// execLambda implements LAMBDA: wraps child irep Bx as a Proc, closing over
// a snapshot of the defining frame's current register window (see
// closureBody).
func (v *VM) execLambda(a, bx int) {
	childIrep := v.irep.Children[bx]
	env := make([]value.Value, v.irep.NRegs)
	for i := range env {
		env[i] = value.Dup(v.regs[v.base+i])
	}
	procVal, ok := value.NewProc(v.rt.Heap, v.vmID, value.NoSymbol)
	if !ok {
		v.diagnostic(ErrNoMemory, "proc alloc failed")
		v.setReg(a, value.Nil())
		return
	}
	value.AsProc(procVal).IrepRef = &closureBody{irep: childIrep, env: env}
	v.setReg(a, procVal)
}

// execClass implements CLASS: defines (or looks up) the class named
// Symbols[Bx], with its superclass taken from regs[A] if that register
// already holds a class, else Object, and stores the resulting class back
// into regs[A] for the following EXEC to target.
func (v *VM) execClass(a, bx int) {
	sym := v.irep.Symbols[bx]
	super := v.rt.ObjectClass
	if sv := v.reg(a); sv.Tag == value.TagClass {
		super = value.AsClass(sv)
	}
	class := v.rt.Heap.Classes.DefineSym(sym, super)
	v.setReg(a, value.ClassVal(class))
}

// execExec implements EXEC: runs the class/module body irep Children[Bx]
// with regs[A] (the class CLASS just produced) as both self and the new
// target class, per spec.md §4.3's CLASS/EXEC/METHOD sequence.
func (v *VM) execExec(a, bx int) {
	recv := v.reg(a)
	if recv.Tag != value.TagClass {
		v.diagnostic(ErrType, "exec target is not a class")
		return
	}
	class := value.AsClass(recv)
	childIrep := v.irep.Children[bx]

	newBase := v.base + a
	if newBase+int(childIrep.NRegs) > len(v.regs) || len(v.callStack) >= DefaultCallStackSize {
		v.diagnostic(ErrNoMemory, "register file or call stack exhausted on exec")
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
	v.targetClass = class
	v.currentEnv = nil
	v.currentArgc = 0
}

// execMethod implements METHOD: installs the Proc currently in regs[A]
// (built by a preceding LAMBDA) as Symbols[B]'s implementation on the
// current target class. A closure's captured environment is not carried
// into the installed method — methods are looked up and invoked through
// the class registry, not through the lexical scope that defined them.
func (v *VM) execMethod(a, b int) {
	recv := v.reg(a)
	if recv.Tag != value.TagProc {
		v.diagnostic(ErrType, "method body is not a proc")
		return
	}
	proc := value.AsProc(recv)
	var irepRef interface{}
	switch body := proc.IrepRef.(type) {
	case *rite.Irep:
		irepRef = body
	case *closureBody:
		irepRef = body.irep
	default:
		v.diagnostic(ErrNotImplemented, "native proc cannot be installed via METHOD")
		return
	}
	v.rt.Heap.Classes.DefineBytecodeMethod(v.targetClass, v.irep.Symbols[b], irepRef)
}
