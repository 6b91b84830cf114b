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
)

func TestCompareNumericPromotesFixnumAndFloat(t *testing.T) {
	require.Equal(t, 0, Compare(Int(3), Flt(3.0)))
	require.Less(t, Compare(Int(2), Flt(2.5)), 0)
	require.Greater(t, Compare(Flt(5.5), Int(5)), 0)
}

func TestCompareEmptyEqualsNil(t *testing.T) {
	require.True(t, Equal(Empty(), Nil()))
}

func TestCompareFixnumExact(t *testing.T) {
	require.Equal(t, 0, Compare(Int(5), Int(5)))
	require.Less(t, Compare(Int(1), Int(2)), 0)
	require.Greater(t, Compare(Int(9), Int(1)), 0)
}

func TestCompareStringsByByteContent(t *testing.T) {
	h := newTestHeap(t)
	a, _ := NewString(h, 1, []byte("abc"))
	b, _ := NewString(h, 1, []byte("abd"))
	require.Less(t, Compare(a, b), 0)
	require.True(t, Equal(a, a))

	Release(h, a)
	Release(h, b)
}

func TestCompareAcrossUnrelatedTagsIsDeterministic(t *testing.T) {
	h := newTestHeap(t)
	s, _ := NewString(h, 1, []byte("x"))
	arr, _ := NewArray(h, 1)

	c1 := Compare(s, arr)
	c2 := Compare(s, arr)
	require.Equal(t, c1, c2)
	require.NotEqual(t, 0, c1)

	Release(h, s)
	Release(h, arr)
}
