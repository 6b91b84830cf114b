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

package value

// arrayGrowStep is the original's "push grows by +6 elements" policy
// (c_array.c's function summary), kept instead of Go's usual doubling
// growth so container capacity behavior matches the spec exactly.
const arrayGrowStep = 6

// Array is a contiguous, ref-counted, ordered sequence. It exclusively owns
// the references held in its backing slice.
type Array struct {
	hdr  RefHeader
	data []Value
}

func (a *Array) header() *RefHeader { return &a.hdr }

func (a *Array) releaseChildren(h *Heap) {
	for _, v := range a.data {
		Release(h, v)
	}
	a.data = nil
}

// NewArray allocates an empty array tagged to vmID.
func NewArray(h *Heap, vmID uint8) (Value, bool) {
	hdr, ok := allocHeader(h, vmID, TagArray, 0)
	if !ok {
		return Value{}, false
	}
	return fromObj(TagArray, &Array{hdr: hdr}), true
}

func AsArray(v Value) *Array { return v.obj.(*Array) }

// Len returns the array's element count.
func (a *Array) Len() int { return len(a.data) }

func (a *Array) resolveIndex(i int) (int, bool) {
	if i < 0 {
		i += len(a.data)
	}
	if i < 0 {
		return 0, false
	}
	return i, true
}

// Get returns the element at i (negative indices wrap from the end) or Nil
// if out of range, per spec.md §8 boundary behavior.
func (a *Array) Get(i int) Value {
	idx, ok := a.resolveIndex(i)
	if !ok || idx >= len(a.data) {
		return Nil()
	}
	return Dup(a.data[idx])
}

// Set stores v at i, growing the array with Nil fill if i is beyond the
// current length (spec.md §4.2: "Set beyond length fills intermediate
// slots with Nil and extends length").
func (a *Array) Set(h *Heap, i int, v Value) {
	idx, ok := a.resolveIndex(i)
	if !ok {
		return
	}
	for idx >= len(a.data) {
		a.data = append(a.data, Nil())
	}
	Release(h, a.data[idx])
	a.data[idx] = Dup(v)
}

// Push appends v, taking ownership of a reference to it.
func (a *Array) Push(v Value) {
	if len(a.data) == cap(a.data) {
		grown := make([]Value, len(a.data), len(a.data)+arrayGrowStep)
		copy(grown, a.data)
		a.data = grown
	}
	a.data = append(a.data, Dup(v))
}

// Pop removes and returns the last element, or Nil if empty.
func (a *Array) Pop() Value {
	if len(a.data) == 0 {
		return Nil()
	}
	v := a.data[len(a.data)-1]
	a.data = a.data[:len(a.data)-1]
	return v // ownership transferred to the caller, no Dup
}

// Shift removes and returns the first element, or Nil if empty.
func (a *Array) Shift() Value {
	if len(a.data) == 0 {
		return Nil()
	}
	v := a.data[0]
	a.data = a.data[1:]
	return v
}

// Unshift prepends v.
func (a *Array) Unshift(v Value) {
	a.data = append([]Value{Dup(v)}, a.data...)
}

// Insert inserts v at i, memmove-ing the tail (spec.md §4.2).
func (a *Array) Insert(i int, v Value) {
	idx, ok := a.resolveIndex(i)
	if !ok {
		return
	}
	if idx >= len(a.data) {
		for idx > len(a.data) {
			a.data = append(a.data, Nil())
		}
		a.data = append(a.data, Dup(v))
		return
	}
	a.data = append(a.data, Value{})
	copy(a.data[idx+1:], a.data[idx:])
	a.data[idx] = Dup(v)
}

// Remove removes and returns the element at i, or Nil if out of range.
func (a *Array) Remove(h *Heap, i int) Value {
	idx, ok := a.resolveIndex(i)
	if !ok || idx >= len(a.data) {
		return Nil()
	}
	v := a.data[idx]
	copy(a.data[idx:], a.data[idx+1:])
	a.data = a.data[:len(a.data)-1]
	return v
}

// Slice returns a new Array containing len elements starting at idx
// (negative idx wraps). Out-of-range requests are clamped; a start beyond
// the array's length returns Nil, matching String's slice boundary rule.
func (a *Array) Slice(h *Heap, vmID uint8, idx, length int) Value {
	start, ok := a.resolveIndex(idx)
	if !ok || start > len(a.data) || length < 0 {
		return Nil()
	}
	end := start + length
	if end > len(a.data) {
		end = len(a.data)
	}
	out, allocOK := NewArray(h, vmID)
	if !allocOK {
		return Nil()
	}
	arr := AsArray(out)
	for _, v := range a.data[start:end] {
		arr.Push(v)
	}
	return out
}

// SetSlice replaces the length-element sub-range starting at idx with the
// elements of replacement (an Array) or, for any other Value, that single
// value — growing or shrinking the backing slice as needed. This resolves
// spec.md Open Question #2, left unimplemented in the original.
func (a *Array) SetSlice(h *Heap, idx, length int, replacement Value) {
	start, ok := a.resolveIndex(idx)
	if !ok || length < 0 {
		return
	}
	for start > len(a.data) {
		a.data = append(a.data, Nil())
	}
	end := start + length
	if end > len(a.data) {
		end = len(a.data)
	}
	for _, v := range a.data[start:end] {
		Release(h, v)
	}

	var repl []Value
	if replacement.Tag == TagArray {
		for _, v := range AsArray(replacement).data {
			repl = append(repl, Dup(v))
		}
	} else {
		repl = []Value{Dup(replacement)}
	}

	tail := append([]Value{}, a.data[end:]...)
	a.data = append(a.data[:start], repl...)
	a.data = append(a.data, tail...)
}

// Min returns the numerically smallest element, or Nil for an empty array
// (spec.md §8 boundary behavior).
func (a *Array) Min() Value { return a.minmax(true) }

// Max returns the numerically largest element, or Nil for an empty array.
func (a *Array) Max() Value { return a.minmax(false) }

func (a *Array) minmax(wantMin bool) Value {
	if len(a.data) == 0 {
		return Nil()
	}
	best := a.data[0]
	for _, v := range a.data[1:] {
		c := Compare(v, best)
		if (wantMin && c < 0) || (!wantMin && c > 0) {
			best = v
		}
	}
	return Dup(best)
}

// CompareArrays compares two arrays element-wise (spec.md §4.2).
func CompareArrays(a, b *Array) int {
	n := len(a.data)
	if len(b.data) < n {
		n = len(b.data)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.data[i], b.data[i]); c != 0 {
			return c
		}
	}
	return len(a.data) - len(b.data)
}
