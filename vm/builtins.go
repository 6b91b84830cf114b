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

// registerBuiltins installs the console I/O, scheduler, and container
// native methods every embedder gets for free (spec.md §6's
// define_method(class, name, native_fn) seeded at init time rather than
// left for the host to wire one by one).
func (rt *Runtime) registerBuiltins() {
	rt.DefineMethod(rt.ObjectClass, "puts", rt.builtinPuts)
	rt.DefineMethod(rt.ObjectClass, "print", rt.builtinPrint)
	rt.DefineMethod(rt.ObjectClass, "p", rt.builtinP)

	rt.DefineMethod(rt.ObjectClass, "sleep_ms", rt.builtinSleepMs)
	rt.DefineMethod(rt.ObjectClass, "suspend_task", rt.builtinSuspend)
	rt.DefineMethod(rt.ObjectClass, "resume_task", rt.builtinResume)
	rt.DefineMethod(rt.ObjectClass, "relinquish", rt.builtinRelinquish)
	rt.DefineMethod(rt.ObjectClass, "change_priority", rt.builtinChangePriority)

	rt.DefineMethod(rt.ArrayClass, "push", rt.builtinArrayPush)
	rt.DefineMethod(rt.ArrayClass, "<<", rt.builtinArrayPush)
	rt.DefineMethod(rt.ArrayClass, "pop", rt.builtinArrayPop)
	rt.DefineMethod(rt.ArrayClass, "length", rt.builtinArrayLength)
	rt.DefineMethod(rt.ArrayClass, "size", rt.builtinArrayLength)
	rt.DefineMethod(rt.ArrayClass, "[]", rt.builtinArrayGet)
	rt.DefineMethod(rt.ArrayClass, "[]=", rt.builtinArraySet)
	rt.DefineMethod(rt.ArrayClass, "min", rt.builtinArrayMin)
	rt.DefineMethod(rt.ArrayClass, "max", rt.builtinArrayMax)

	rt.DefineMethod(rt.HashClass, "[]", rt.builtinHashGet)
	rt.DefineMethod(rt.HashClass, "[]=", rt.builtinHashSet)
	rt.DefineMethod(rt.HashClass, "delete", rt.builtinHashDelete)
	rt.DefineMethod(rt.HashClass, "keys", rt.builtinHashKeys)
	rt.DefineMethod(rt.HashClass, "values", rt.builtinHashValues)
	rt.DefineMethod(rt.HashClass, "length", rt.builtinHashLength)

	rt.DefineMethod(rt.StringClass, "length", rt.builtinStringLength)
	rt.DefineMethod(rt.StringClass, "size", rt.builtinStringLength)
	rt.DefineMethod(rt.StringClass, "+", rt.builtinStringPlus)
	rt.DefineMethod(rt.StringClass, "[]", rt.builtinStringIndex)
}

// setResult releases whatever regs[0] (the receiver slot, which doubles as
// the return-value slot) currently holds and installs result in its place.
// Every built-in below uses this instead of writing regs[0] directly, so
// the receiver's reference is always accounted for, including the common
// "return self" case (setResult(h, regs, value.Dup(regs[0]))).
func setResult(h *value.Heap, regs []value.Value, result value.Value) {
	value.Release(h, regs[0])
	regs[0] = result
}

func (rt *Runtime) writeLine(b []byte) {
	if rt.Platform == nil {
		return
	}
	line := make([]byte, 0, len(b)+1)
	line = append(line, b...)
	line = append(line, '\n')
	rt.Platform.Write(1, line)
}

func (rt *Runtime) write(b []byte) {
	if rt.Platform == nil {
		return
	}
	rt.Platform.Write(1, b)
}

func (rt *Runtime) builtinPuts(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc == 0 {
		rt.writeLine(nil)
	}
	for i := 1; i <= argc; i++ {
		rt.writeLine(valueToString(h, regs[i]))
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinPrint(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	for i := 1; i <= argc; i++ {
		rt.write(valueToString(h, regs[i]))
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinP(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc == 0 {
		setResult(h, regs, value.Nil())
		return
	}
	for i := 1; i <= argc; i++ {
		rt.writeLine(valueToString(h, regs[i]))
	}
	setResult(h, regs, value.Dup(regs[argc]))
}

// Scheduler built-ins act on the calling task itself: this minimal
// embedder surface has no Task value type to address a different task by
// handle (that would need its own opcode or object type), so resume_task
// is a documented no-op unless the caller's own task happens to be
// Suspended — which it never is while running. A host wanting
// cross-task control uses the Runtime/Scheduler API directly instead of
// bytecode.

func (rt *Runtime) builtinSleepMs(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc >= 1 && regs[1].Tag == value.TagFixnum {
		if t := rt.taskFor(vmID); t != nil {
			rt.Sched.SleepMs(t, uint64(regs[1].FixnumValue()))
		}
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinSuspend(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if t := rt.taskFor(vmID); t != nil {
		rt.Sched.Suspend(t)
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinResume(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if t := rt.taskFor(vmID); t != nil {
		rt.Sched.Resume(t)
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinRelinquish(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if t := rt.taskFor(vmID); t != nil {
		rt.Sched.Relinquish(t)
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinChangePriority(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc >= 1 && regs[1].Tag == value.TagFixnum {
		if t := rt.taskFor(vmID); t != nil {
			rt.Sched.ChangePriority(t, uint8(regs[1].FixnumValue()))
		}
	}
	setResult(h, regs, value.Nil())
}

func (rt *Runtime) builtinArrayPush(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	arr := value.AsArray(regs[0])
	for i := 1; i <= argc; i++ {
		arr.Push(regs[i])
	}
	setResult(h, regs, value.Dup(regs[0]))
}

func (rt *Runtime) builtinArrayPop(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	v := value.AsArray(regs[0]).Pop()
	setResult(h, regs, v)
}

func (rt *Runtime) builtinArrayLength(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.Int(int32(value.AsArray(regs[0]).Len())))
}

func (rt *Runtime) builtinArrayGet(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 1 || regs[1].Tag != value.TagFixnum {
		setResult(h, regs, value.Nil())
		return
	}
	setResult(h, regs, value.AsArray(regs[0]).Get(int(regs[1].FixnumValue())))
}

func (rt *Runtime) builtinArraySet(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 2 || regs[1].Tag != value.TagFixnum {
		setResult(h, regs, value.Nil())
		return
	}
	value.AsArray(regs[0]).Set(h, int(regs[1].FixnumValue()), regs[2])
	setResult(h, regs, value.Dup(regs[2]))
}

func (rt *Runtime) builtinArrayMin(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.AsArray(regs[0]).Min())
}

func (rt *Runtime) builtinArrayMax(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.AsArray(regs[0]).Max())
}

func (rt *Runtime) builtinHashGet(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 1 {
		setResult(h, regs, value.Nil())
		return
	}
	setResult(h, regs, value.AsHash(regs[0]).Get(regs[1]))
}

func (rt *Runtime) builtinHashSet(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 2 {
		setResult(h, regs, value.Nil())
		return
	}
	value.AsHash(regs[0]).Set(h, regs[1], regs[2])
	setResult(h, regs, value.Dup(regs[2]))
}

func (rt *Runtime) builtinHashDelete(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 1 {
		setResult(h, regs, value.Nil())
		return
	}
	setResult(h, regs, value.AsHash(regs[0]).Delete(h, regs[1]))
}

func (rt *Runtime) builtinHashKeys(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.AsHash(regs[0]).Keys(h, vmID))
}

func (rt *Runtime) builtinHashValues(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.AsHash(regs[0]).Values(h, vmID))
}

func (rt *Runtime) builtinHashLength(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.Int(int32(value.AsHash(regs[0]).Len())))
}

func (rt *Runtime) builtinStringLength(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	setResult(h, regs, value.Int(int32(value.AsString(regs[0]).Len())))
}

func (rt *Runtime) builtinStringPlus(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 1 || regs[1].Tag != value.TagString {
		setResult(h, regs, value.Nil())
		return
	}
	out, ok := value.NewString(h, vmID, value.AsString(regs[0]).Bytes())
	if !ok {
		setResult(h, regs, value.Nil())
		return
	}
	value.AsString(out).Append(value.AsString(regs[1]).Bytes())
	setResult(h, regs, out)
}

func (rt *Runtime) builtinStringIndex(h *value.Heap, vmID uint8, regs []value.Value, argc int) {
	if argc < 1 || regs[1].Tag != value.TagFixnum {
		setResult(h, regs, value.Nil())
		return
	}
	setResult(h, regs, value.AsString(regs[0]).Index(h, vmID, int(regs[1].FixnumValue())))
}
