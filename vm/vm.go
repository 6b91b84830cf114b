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
	"github.com/mrbcvm/mrbcvm/sched"
	"github.com/mrbcvm/mrbcvm/value"
)

// DefaultRegFileSize and DefaultCallStackSize are the fixed capacities
// spec.md §4.3 assigns each VM ("a fixed register file (default 100
// cells) and a call-info stack (default 100 frames)").
const (
	DefaultRegFileSize   = 100
	DefaultCallStackSize = 100
)

// callInfo is one call-info frame: everything RETURN restores on the
// caller's behalf (spec.md §4.3).
type callInfo struct {
	irep        *rite.Irep
	pc          int
	base        int
	targetClass *value.Class
	resultReg   int // register (caller-window-relative) RETURN's value lands in
	env         []value.Value
}

// closureBody is what OP_LAMBDA installs as a Proc's IrepRef: a child irep
// plus the snapshot of the defining frame's registers it closes over.
// Materializing this snapshot at LAMBDA time (rather than keeping a live
// pointer into a frame that may since have returned) is this interpreter's
// resolution to the upvar-lifetime hazard the teacher's register-window
// reuse otherwise creates — see SPEC_FULL.md §4.3.
type closureBody struct {
	irep *rite.Irep
	env  []value.Value
}

// VM is one register-based interpreter instance: a fixed register file, a
// call-info stack, and the irep/pc/base/target-class quadruple a call-info
// frame captures. VM implements sched.Runnable so a Scheduler can
// multiplex many of them.
type VM struct {
	rt   *Runtime
	vmID uint8
	task *sched.Task

	regs        []value.Value
	base        int
	callStack   []callInfo
	irep        *rite.Irep
	pc          int
	targetClass *value.Class
	currentEnv  []value.Value // non-nil while executing inside a closure body
	currentArgc int           // argc of the call that entered the current frame, consumed by its leading OP_ENTER

	errno  Errno
	halted bool
	freed  bool
}

// NewVM allocates a VM executing root, with self (register 0) bound to an
// instance of objectClass.
func NewVM(rt *Runtime, vmID uint8, root *rite.Irep, objectClass *value.Class) *VM {
	v := &VM{
		rt:          rt,
		vmID:        vmID,
		regs:        make([]value.Value, DefaultRegFileSize),
		irep:        root,
		targetClass: objectClass,
	}
	for i := range v.regs {
		v.regs[i] = value.Nil()
	}
	if self, ok := value.NewInstance(rt.Heap, vmID, objectClass); ok {
		v.regs[0] = self
	}
	return v
}

// VMID returns the allocator tag this VM's values carry.
func (v *VM) VMID() uint8 { return v.vmID }

// Errno returns the last diagnostic status code recorded (spec.md §7).
func (v *VM) Errno() Errno { return v.errno }

func (v *VM) reg(i int) value.Value { return v.regs[v.base+i] }

// setReg releases whatever previously occupied window slot i and takes
// ownership of val (the caller must have already produced an owned
// reference — Dup'd or freshly constructed).
func (v *VM) setReg(i int, val value.Value) {
	value.Release(v.rt.Heap, v.regs[v.base+i])
	v.regs[v.base+i] = val
}

func (v *VM) diagnostic(code Errno, msg string) {
	v.errno = code
	v.rt.Log.Warn("vm diagnostic", "vm", v.vmID, "errno", code.String(), "msg", msg)
}

// Step runs opcodes until the task yields (preemption flag set), the
// program halts (STOP/ABORT or the outermost RETURN), or the end of the
// root irep's code is reached. It satisfies sched.Runnable.
func (v *VM) Step(t *sched.Task) (bool, error) {
	v.task = t
	for {
		if v.halted {
			v.freeOnHalt()
			return true, nil
		}
		if t.ShouldYield() {
			return false, nil
		}
		if v.pc >= len(v.irep.Code) {
			v.halted = true
			v.freeOnHalt()
			return true, nil
		}
		word := v.irep.Code[v.pc]
		v.pc++
		v.dispatch(decodeOp(word), word)
	}
}

// freeOnHalt reclaims every allocation tagged with this VM's vmID the first
// time Step observes the halted flag set, regardless of which of the three
// ways a task exits (outermost RETURN, STOP, ABORT) tripped it: spec.md
// §5's free_all(vm_id) task-exit contract. freed guards against a second
// call, since the scheduler never re-runs a Dormant task but Step's own
// halted check would otherwise call FreeAll again on every stray Step.
func (v *VM) freeOnHalt() {
	if v.freed {
		return
	}
	v.freed = true
	v.rt.Heap.Pool.FreeAll(v.vmID)
}

func (v *VM) dispatch(op Op, word uint32) {
	switch op {
	case OpNOP:
	case OpMOVE:
		a, b, _ := decodeABC(word)
		v.setReg(a, value.Dup(v.reg(b)))
	case OpLOADL, OpSTRING:
		a, bx := decodeABx(word)
		v.setReg(a, value.Dup(v.irep.Pool[bx]))
	case OpLOADI:
		a, sbx := decodeAsBx(word)
		v.setReg(a, value.Int(int32(sbx)))
	case OpLOADSYM:
		a, bx := decodeABx(word)
		v.setReg(a, value.SymVal(v.irep.Symbols[bx]))
	case OpLOADNIL:
		a, _, _ := decodeABC(word)
		v.setReg(a, value.Nil())
	case OpLOADSELF:
		a, _, _ := decodeABC(word)
		v.setReg(a, value.Dup(v.reg(0)))
	case OpLOADT:
		a, _, _ := decodeABC(word)
		v.setReg(a, value.True())
	case OpLOADF:
		a, _, _ := decodeABC(word)
		v.setReg(a, value.False())
	case OpGETGLOBAL:
		a, bx := decodeABx(word)
		v.setReg(a, v.rt.Heap.Globals.GetGlobal(v.irep.Symbols[bx]))
	case OpSETGLOBAL:
		a, bx := decodeABx(word)
		v.rt.Heap.Globals.SetGlobal(v.rt.Heap, v.irep.Symbols[bx], v.reg(a))
	case OpGETCONST:
		a, bx := decodeABx(word)
		v.setReg(a, v.rt.Heap.Globals.GetConst(v.irep.Symbols[bx]))
	case OpSETCONST:
		a, bx := decodeABx(word)
		v.rt.Heap.Globals.SetConst(v.rt.Heap, v.irep.Symbols[bx], v.reg(a))
	case OpGETIV:
		a, bx := decodeABx(word)
		if inst := instanceOf(v.reg(0)); inst != nil {
			v.setReg(a, value.Dup(inst.GetIVar(v.irep.Symbols[bx])))
		} else {
			v.setReg(a, value.Nil())
		}
	case OpSETIV:
		a, bx := decodeABx(word)
		if inst := instanceOf(v.reg(0)); inst != nil {
			inst.SetIVar(v.rt.Heap, v.irep.Symbols[bx], v.reg(a))
		}
	case OpGETUPVAR:
		a, b, c := decodeABC(word)
		v.setReg(a, value.Dup(v.upvarReg(c, b)))
	case OpSETUPVAR:
		a, b, c := decodeABC(word)
		v.setUpvarReg(c, b, v.reg(a))
	case OpJMP:
		_, sbx := decodeAsBx(word)
		v.pc += sbx
	case OpJMPIF:
		a, sbx := decodeAsBx(word)
		if v.reg(a).IsTruthy() {
			v.pc += sbx
		}
	case OpJMPNOT:
		a, sbx := decodeAsBx(word)
		if v.reg(a).IsFalsey() {
			v.pc += sbx
		}
	case OpSEND:
		a, b, c := decodeABC(word)
		v.execSend(a, v.irep.Symbols[b], c)
	case OpSENDB:
		a, b, c := decodeABC(word)
		v.execSend(a, v.irep.Symbols[b], c)
	case OpCALL:
		a, _, _ := decodeABC(word)
		v.execCall(a)
	case OpENTER:
		v.execEnter(uint32(decodeAx(word)))
	case OpRETURN:
		a, _, _ := decodeABC(word)
		v.execReturn(a)
	case OpBLKPUSH:
		a, bx := decodeABx(word)
		v.setReg(a, value.Dup(v.upvarReg(0, bx)))
	case OpADD, OpSUB, OpMUL, OpDIV, OpEQ, OpLT, OpLE, OpGT, OpGE:
		a, _, _ := decodeABC(word)
		v.execBinOp(op, a)
	case OpADDI:
		a, _, c := decodeABC(word)
		v.execImmOp(OpADD, a, c)
	case OpSUBI:
		a, _, c := decodeABC(word)
		v.execImmOp(OpSUB, a, c)
	case OpARRAY:
		a, b, c := decodeABC(word)
		v.execArray(a, b, c)
	case OpSTRCAT:
		a, b, _ := decodeABC(word)
		v.execStrcat(a, b)
	case OpHASH:
		a, b, c := decodeABC(word)
		v.execHash(a, b, c)
	case OpRANGE:
		a, b, c := decodeABC(word)
		v.execRange(a, b, c)
	case OpLAMBDA:
		a, bx := decodeABx(word)
		v.execLambda(a, bx)
	case OpCLASS:
		a, bx := decodeABx(word)
		v.execClass(a, bx)
	case OpEXEC:
		a, bx := decodeABx(word)
		v.execExec(a, bx)
	case OpMETHOD:
		a, b, _ := decodeABC(word)
		v.execMethod(a, b)
	case OpTCLASS:
		a, _, _ := decodeABC(word)
		v.setReg(a, value.ClassVal(v.targetClass))
	case OpSTOP:
		v.halted = true
	case OpABORT:
		v.halted = true
		v.diagnostic(ErrRuntime, "abort")
	default:
		v.diagnostic(ErrNotImplemented, "unknown opcode, skipped")
	}
}

func instanceOf(v value.Value) *value.Instance {
	if v.Tag != value.TagObject {
		return nil
	}
	return value.AsInstance(v)
}

// upvarReg returns a borrowed reference to local register idx of the
// enclosing scope rc levels up. This interpreter materializes closure
// environments as a flat snapshot rather than a chain of live frames (see
// closureBody), so rc beyond the immediate enclosing scope clamps to it —
// a documented simplification, not full lexical nesting.
func (v *VM) upvarReg(rc, idx int) value.Value {
	if v.currentEnv == nil || idx < 0 || idx >= len(v.currentEnv) {
		return value.Nil()
	}
	return v.currentEnv[idx]
}

func (v *VM) setUpvarReg(rc, idx int, val value.Value) {
	if v.currentEnv == nil || idx < 0 || idx >= len(v.currentEnv) {
		return
	}
	value.Release(v.rt.Heap, v.currentEnv[idx])
	v.currentEnv[idx] = value.Dup(val)
}
