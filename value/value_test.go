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

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrbcvm/mrbcvm/alloc"
)

func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	pool, err := alloc.NewPool(make([]byte, 64*1024-1))
	require.NoError(t, err)
	return NewHeap(pool)
}

func TestDupIncrementsRefCount(t *testing.T) {
	h := newTestHeap(t)
	v, ok := NewString(h, 1, []byte("hi"))
	require.True(t, ok)

	v2 := Dup(v)
	require.Equal(t, uint16(2), AsString(v).hdr.RefCount)

	Release(h, v2)
	require.Equal(t, uint16(1), AsString(v).hdr.RefCount)

	Release(h, v)
}

func TestReleaseFreesPoolSlotAtZero(t *testing.T) {
	h := newTestHeap(t)
	before := h.Pool.Stats().UsedBytes

	v, ok := NewString(h, 1, []byte("hello"))
	require.True(t, ok)
	require.Greater(t, h.Pool.Stats().UsedBytes, before)

	Release(h, v)
	require.Equal(t, before, h.Pool.Stats().UsedBytes)
}

func TestImmediateValuesAreNotHeapTagged(t *testing.T) {
	require.False(t, TagNil.IsHeap())
	require.False(t, TagFixnum.IsHeap())
	require.True(t, TagString.IsHeap())
	require.True(t, TagArray.IsHeap())
}

func TestNilAndEmptyTruthiness(t *testing.T) {
	require.True(t, Nil().IsNil())
	require.True(t, Nil().IsFalsey())
	require.True(t, False().IsFalsey())
	require.True(t, True().IsTruthy())
	require.True(t, Int(0).IsTruthy()) // 0 is truthy, per spec.md: only nil/false are falsey
}
