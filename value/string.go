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

import "bytes"

// stripSet is the fixed whitespace set c_string.c's strip implementation
// trims: space, tab, CR, LF, FF, VT.
var stripSet = [256]bool{' ': true, '\t': true, '\r': true, '\n': true, '\f': true, '\v': true}

// String is mrbcvm's byte string: a length-prefixed buffer (the trailing
// NUL c_string.c appends for cheap C interop has no Go equivalent need, so
// it is omitted; callers needing a C string should use StringObj.Bytes()
// plus an explicit append when crossing a cgo boundary).
type StringObj struct {
	hdr  RefHeader
	data []byte
}

func (s *StringObj) header() *RefHeader   { return &s.hdr }
func (s *StringObj) releaseChildren(*Heap) {}

// NewString allocates a string tagged to vmID with the given initial
// content (copied).
func NewString(h *Heap, vmID uint8, content []byte) (Value, bool) {
	hdr, ok := allocHeader(h, vmID, TagString, len(content))
	if !ok {
		return Value{}, false
	}
	data := make([]byte, len(content))
	copy(data, content)
	return fromObj(TagString, &StringObj{hdr: hdr, data: data}), true
}

func AsString(v Value) *StringObj { return v.obj.(*StringObj) }

// Bytes returns the string's raw content. Callers must not retain the slice
// across a mutating call (Append, Strip and Chomp replace it).
func (s *StringObj) Bytes() []byte { return s.data }
func (s *StringObj) Len() int      { return len(s.data) }

// Append appends other's bytes in place.
func (s *StringObj) Append(other []byte) {
	s.data = append(s.data, other...)
}

func (s *StringObj) resolveIndex(i int) (int, bool) {
	if i < 0 {
		i += len(s.data)
	}
	if i < 0 || i > len(s.data) {
		return 0, false
	}
	return i, true
}

// Index returns the single-byte substring at i (negative indices wrap), or
// Nil if i is out of range — spec.md §8: "index -(len+1) returns Nil".
func (s *StringObj) Index(h *Heap, vmID uint8, i int) Value {
	idx, ok := s.resolveIndex(i)
	if !ok || idx >= len(s.data) {
		return Nil()
	}
	out, allocOK := NewString(h, vmID, s.data[idx:idx+1])
	if !allocOK {
		return Nil()
	}
	return out
}

// Slice returns the length-byte substring starting at idx (negative idx
// wraps), clamped to the string's bounds, or Nil if idx is out of range.
func (s *StringObj) Slice(h *Heap, vmID uint8, idx, length int) Value {
	start, ok := s.resolveIndex(idx)
	if !ok || length < 0 {
		return Nil()
	}
	end := start + length
	if end > len(s.data) {
		end = len(s.data)
	}
	out, allocOK := NewString(h, vmID, s.data[start:end])
	if !allocOK {
		return Nil()
	}
	return out
}

// IndexOf returns the byte offset of the first occurrence of needle at or
// after fromIdx, or -1 if absent. Naive O(n*m) per spec.md §4.2.
func (s *StringObj) IndexOf(needle []byte, fromIdx int) int {
	if fromIdx < 0 {
		fromIdx = 0
	}
	if fromIdx > len(s.data) {
		return -1
	}
	i := bytes.Index(s.data[fromIdx:], needle)
	if i < 0 {
		return -1
	}
	return i + fromIdx
}

// Strip trims the fixed whitespace set from the left, right, or both ends.
func (s *StringObj) Strip(left, right bool) {
	data := s.data
	if left {
		i := 0
		for i < len(data) && stripSet[data[i]] {
			i++
		}
		data = data[i:]
	}
	if right {
		j := len(data)
		for j > 0 && stripSet[data[j-1]] {
			j--
		}
		data = data[:j]
	}
	out := make([]byte, len(data))
	copy(out, data)
	s.data = out
}

// Chomp removes a single trailing CR?LF? sequence, per spec.md §4.2.
func (s *StringObj) Chomp() {
	n := len(s.data)
	if n == 0 {
		return
	}
	if s.data[n-1] == '\n' {
		n--
		if n > 0 && s.data[n-1] == '\r' {
			n--
		}
	} else if s.data[n-1] == '\r' {
		n--
	}
	s.data = s.data[:n]
}

// CompareStrings orders two strings by byte content.
func CompareStrings(a, b *StringObj) int {
	return bytes.Compare(a.data, b.data)
}
