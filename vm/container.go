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

// execArray implements ARRAY: collects registers B..B+C-1 into a new Array
// stored at A.
func (v *VM) execArray(a, b, c int) {
	arrVal, ok := value.NewArray(v.rt.Heap, v.vmID)
	if !ok {
		v.diagnostic(ErrNoMemory, "array alloc failed")
		v.setReg(a, value.Nil())
		return
	}
	arr := value.AsArray(arrVal)
	for i := 0; i < c; i++ {
		arr.Push(v.reg(b + i))
	}
	v.setReg(a, arrVal)
}

// execStrcat implements STRCAT: regs[A] += regs[B], in place.
func (v *VM) execStrcat(a, b int) {
	lhs, rhs := v.reg(a), v.reg(b)
	if lhs.Tag != value.TagString || rhs.Tag != value.TagString {
		v.diagnostic(ErrType, "strcat on non-string")
		return
	}
	value.AsString(lhs).Append(value.AsString(rhs).Bytes())
}

// execHash implements HASH: collects C key/value pairs starting at register
// B (key, value, key, value, ...) into a new Hash stored at A.
func (v *VM) execHash(a, b, c int) {
	hashVal, ok := value.NewHash(v.rt.Heap, v.vmID)
	if !ok {
		v.diagnostic(ErrNoMemory, "hash alloc failed")
		v.setReg(a, value.Nil())
		return
	}
	h := value.AsHash(hashVal)
	for i := 0; i < c; i++ {
		h.Set(v.rt.Heap, v.reg(b+2*i), v.reg(b+2*i+1))
	}
	v.setReg(a, hashVal)
}

// execRange implements RANGE: {regs[B], regs[B+1], exclude_end=C!=0} stored
// at A.
func (v *VM) execRange(a, b, c int) {
	rangeVal, ok := value.NewRange(v.rt.Heap, v.vmID, v.reg(b), v.reg(b+1), c != 0)
	if !ok {
		v.diagnostic(ErrNoMemory, "range alloc failed")
		v.setReg(a, value.Nil())
		return
	}
	v.setReg(a, rangeVal)
}
