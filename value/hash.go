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

// pair is a key/value entry in a Hash's backing slice.
type pair struct {
	key, val Value
}

// Hash is a contiguous key/value pair array; new pairs are added with Go's
// append, not Array's fixed +6 growth step. Lookup is linear O(n) per
// spec.md §4.2. Any replacement lookup strategy that keeps
// Get/Set/Delete/Keys/Values semantics equivalent can be swapped in without
// touching callers.
type Hash struct {
	hdr   RefHeader
	pairs []pair
}

func (h *Hash) header() *RefHeader { return &h.hdr }

func (h *Hash) releaseChildren(heap *Heap) {
	for _, p := range h.pairs {
		Release(heap, p.key)
		Release(heap, p.val)
	}
	h.pairs = nil
}

// NewHash allocates an empty hash tagged to vmID.
func NewHash(heap *Heap, vmID uint8) (Value, bool) {
	hdr, ok := allocHeader(heap, vmID, TagHash, 0)
	if !ok {
		return Value{}, false
	}
	return fromObj(TagHash, &Hash{hdr: hdr}), true
}

func AsHash(v Value) *Hash { return v.obj.(*Hash) }

// Len returns the number of pairs.
func (h *Hash) Len() int { return len(h.pairs) }

func (h *Hash) indexOf(key Value) int {
	for i, p := range h.pairs {
		if Compare(p.key, key) == 0 {
			return i
		}
	}
	return -1
}

// Get returns the value bound to key, or Nil if absent.
func (h *Hash) Get(key Value) Value {
	if i := h.indexOf(key); i >= 0 {
		return Dup(h.pairs[i].val)
	}
	return Nil()
}

// Set binds key to val, overwriting any existing binding in place (so
// insertion order of the surviving keys never changes on update).
func (h *Hash) Set(heap *Heap, key, val Value) {
	if i := h.indexOf(key); i >= 0 {
		Release(heap, h.pairs[i].val)
		h.pairs[i].val = Dup(val)
		return
	}
	h.pairs = append(h.pairs, pair{key: Dup(key), val: Dup(val)})
}

// Delete removes key's binding and returns its value, or Nil if absent.
// The remaining pairs keep their relative insertion order (spec.md §9 Open
// Question #3, pinned by hash_test.go).
func (h *Hash) Delete(heap *Heap, key Value) Value {
	i := h.indexOf(key)
	if i < 0 {
		return Nil()
	}
	v := h.pairs[i].val
	Release(heap, h.pairs[i].key)
	copy(h.pairs[i:], h.pairs[i+1:])
	h.pairs = h.pairs[:len(h.pairs)-1]
	return v
}

// Keys returns a new Array of the hash's keys, insertion order preserved.
func (h *Hash) Keys(heap *Heap, vmID uint8) Value {
	out, ok := NewArray(heap, vmID)
	if !ok {
		return Nil()
	}
	arr := AsArray(out)
	for _, p := range h.pairs {
		arr.Push(p.key)
	}
	return out
}

// Values returns a new Array of the hash's values, insertion order
// preserved.
func (h *Hash) Values(heap *Heap, vmID uint8) Value {
	out, ok := NewArray(heap, vmID)
	if !ok {
		return Nil()
	}
	arr := AsArray(out)
	for _, p := range h.pairs {
		arr.Push(p.val)
	}
	return out
}
