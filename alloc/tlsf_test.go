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

package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRejectsUndersizedBuffer(t *testing.T) {
	_, err := NewPool(make([]byte, 2))
	assert.Error(t, err)
}

func TestAllocFreeRoundTrip(t *testing.T) {
	p, err := NewPool(make([]byte, 1024))
	require.NoError(t, err)

	ref, ok := p.Alloc(1, 40)
	require.True(t, ok)
	assert.Equal(t, 40, p.VMUsed(1))

	p.Free(ref)
	assert.Equal(t, 0, p.VMUsed(1))
}

func TestPoolSizeConserved(t *testing.T) {
	p, err := NewPool(make([]byte, 2048))
	require.NoError(t, err)

	var refs []Ref
	for i := 0; i < 20; i++ {
		ref, ok := p.Alloc(uint8(i%3), 16+i)
		if ok {
			refs = append(refs, ref)
		}
	}
	stats := p.Stats()
	assert.Equal(t, stats.TotalBytes, stats.UsedBytes+stats.FreeBytes)

	for _, r := range refs {
		p.Free(r)
	}
	stats = p.Stats()
	assert.Equal(t, 0, stats.UsedBytes)
	assert.Equal(t, stats.TotalBytes, stats.FreeBytes)
}

func TestFreeAllReclaimsOnlyTaggedTask(t *testing.T) {
	p, err := NewPool(make([]byte, 2048))
	require.NoError(t, err)

	a, ok := p.Alloc(1, 32)
	require.True(t, ok)
	b, ok := p.Alloc(2, 32)
	require.True(t, ok)
	_ = a

	p.FreeAll(1)
	assert.Equal(t, 0, p.VMUsed(1))
	assert.Equal(t, 32, p.VMUsed(2))

	p.Free(b)
	assert.Equal(t, 0, p.VMUsed(2))
}

func TestOOMOnExhaustedPool(t *testing.T) {
	p, err := NewPool(make([]byte, 1024))
	require.NoError(t, err)

	count := 0
	for {
		_, ok := p.Alloc(1, 100)
		if !ok {
			break
		}
		count++
	}
	assert.GreaterOrEqual(t, count, 8)

	// Freeing one block must make room for a subsequent allocation of no
	// more than its original size.
	p2, err := NewPool(make([]byte, 1024))
	require.NoError(t, err)
	var refs []Ref
	for {
		ref, ok := p2.Alloc(1, 100)
		if !ok {
			break
		}
		refs = append(refs, ref)
	}
	require.NotEmpty(t, refs)
	p2.Free(refs[0])
	_, ok := p2.Alloc(1, 100)
	assert.True(t, ok)
}

func TestReallocGrowAndShrink(t *testing.T) {
	p, err := NewPool(make([]byte, 2048))
	require.NoError(t, err)

	ref, ok := p.Alloc(1, 16)
	require.True(t, ok)

	// Shrinking to 8 would leave an 8-byte remainder, too small to become a
	// free block of its own, so the block keeps its 16-byte body.
	ref, ok = p.Realloc(ref, 8)
	require.True(t, ok)
	assert.Equal(t, 16, p.VMUsed(1))

	ref, ok = p.Realloc(ref, 200)
	require.True(t, ok)
	assert.GreaterOrEqual(t, p.VMUsed(1), 200)

	p.Free(ref)
	assert.Equal(t, 0, p.VMUsed(1))
}
