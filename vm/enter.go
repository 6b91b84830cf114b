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

// execEnter implements OP_ENTER's full aspec binding (spec.md §9 Open
// Question #1): required args, optional args, a rest ("splat") array, and
// post-required args, decoded from the Ax operand the same way
// MRB_ASPEC_REQ/OPT/REST/POST unpack it in the original's opcode.h. Keyword
// arguments and an explicit block parameter (the two low bits of aspec) are
// out of this interpreter's scope (spec.md Non-goals exclude keyword
// argument binding) and are ignored.
//
// Default-value expressions for unfilled optional arguments are left to the
// method body itself (an `arg ||= default`-shaped sequence right after
// ENTER), rather than the jump-table-of-labels scheme aspec's bit layout
// alone cannot express without also carrying per-optional jump targets;
// unfilled optionals bind to Nil here and the body supplies its own
// default.
func (v *VM) execEnter(aspec uint32) {
	req := int((aspec >> 18) & 0x1f)
	opt := int((aspec >> 13) & 0x1f)
	rest := (aspec>>12)&0x1 == 1
	post := int((aspec >> 7) & 0x1f)

	nargs := v.currentArgc
	actual := make([]value.Value, nargs)
	for i := 0; i < nargs; i++ {
		actual[i] = v.regs[v.base+1+i]
	}

	spare := nargs - req - post
	if spare < 0 {
		spare = 0
	}
	optBound := opt
	if spare < opt {
		optBound = spare
	}
	restBound := 0
	if rest {
		restBound = spare - optBound
		if restBound < 0 {
			restBound = 0
		}
	}

	dst := 1
	for i := 0; i < req; i++ {
		v.bindArg(dst, actual, i)
		dst++
	}
	for i := 0; i < opt; i++ {
		if i < optBound {
			v.bindArg(dst, actual, req+i)
		} else {
			v.setReg(dst, value.Nil())
		}
		dst++
	}
	if rest {
		restArr, ok := value.NewArray(v.rt.Heap, v.vmID)
		if !ok {
			v.diagnostic(ErrNoMemory, "rest array alloc failed")
			restArr = value.Nil()
		} else {
			arr := value.AsArray(restArr)
			for i := 0; i < restBound; i++ {
				if idx := req + optBound + i; idx < len(actual) {
					arr.Push(actual[idx])
				}
			}
		}
		v.setReg(dst, restArr)
		dst++
	}
	for i := 0; i < post; i++ {
		v.bindArg(dst, actual, nargs-post+i)
		dst++
	}

	if nargs < req+post {
		v.diagnostic(ErrArgument, "too few arguments")
	}
}

func (v *VM) bindArg(dstIdx int, actual []value.Value, idx int) {
	if idx < 0 || idx >= len(actual) {
		v.setReg(dstIdx, value.Nil())
		return
	}
	v.setReg(dstIdx, value.Dup(actual[idx]))
}
