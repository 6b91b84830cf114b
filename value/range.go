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

// RangeObj is {first, last, exclude_end?} per spec.md §4.2. Iteration is
// only defined here for integer endpoints; other endpoint types defer to
// method dispatch in the vm package.
type RangeObj struct {
	hdr        RefHeader
	First, Last Value
	ExcludeEnd bool
}

func (r *RangeObj) header() *RefHeader { return &r.hdr }

func (r *RangeObj) releaseChildren(h *Heap) {
	Release(h, r.First)
	Release(h, r.Last)
}

// NewRange allocates a range tagged to vmID.
func NewRange(h *Heap, vmID uint8, first, last Value, excludeEnd bool) (Value, bool) {
	hdr, ok := allocHeader(h, vmID, TagRange, 0)
	if !ok {
		return Value{}, false
	}
	return fromObj(TagRange, &RangeObj{hdr: hdr, First: Dup(first), Last: Dup(last), ExcludeEnd: excludeEnd}), true
}

func AsRange(v Value) *RangeObj { return v.obj.(*RangeObj) }

// IntValues returns the integers the range iterates over: 1..5 yields
// 1,2,3,4,5; 1...5 yields 1,2,3,4 (spec.md §8). Returns nil, false when
// either endpoint is not a Fixnum.
func (r *RangeObj) IntValues() ([]int32, bool) {
	if r.First.Tag != TagFixnum || r.Last.Tag != TagFixnum {
		return nil, false
	}
	first, last := r.First.FixnumValue(), r.Last.FixnumValue()
	end := last
	if r.ExcludeEnd {
		end--
	}
	if end < first {
		return []int32{}, true
	}
	out := make([]int32, 0, end-first+1)
	for i := first; i <= end; i++ {
		out = append(out, i)
	}
	return out, true
}

// CompareRanges orders ranges endpoint-wise then by exclude-end flag, per
// spec.md §4.2.
func CompareRanges(a, b *RangeObj) int {
	if c := Compare(a.First, b.First); c != 0 {
		return c
	}
	if c := Compare(a.Last, b.Last); c != 0 {
		return c
	}
	if a.ExcludeEnd == b.ExcludeEnd {
		return 0
	}
	if a.ExcludeEnd {
		return 1
	}
	return -1
}
