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
	"os"

	"github.com/edsrzf/mmap-go"
)

// MappedPool is a Pool whose backing buffer is a memory-mapped file instead
// of a plain Go slice, the way the teacher's trie package memory-maps state
// files. Useful for inspecting a VM's heap from outside the process after a
// crash, or for exercising pool sizes larger than convenient to keep as a
// live Go allocation during fuzzing.
type MappedPool struct {
	*Pool
	mapping mmap.MMap
	file    *os.File
}

// NewMappedPool creates or truncates the file at path to size bytes, maps
// it, and installs it as a fresh TLSF pool.
func NewMappedPool(path string, size int) (*MappedPool, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	pool, err := NewPool([]byte(m))
	if err != nil {
		m.Unmap()
		f.Close()
		return nil, err
	}
	return &MappedPool{Pool: pool, mapping: m, file: f}, nil
}

// Close flushes and unmaps the pool's backing file.
func (m *MappedPool) Close() error {
	if err := m.mapping.Flush(); err != nil {
		m.file.Close()
		return err
	}
	if err := m.mapping.Unmap(); err != nil {
		m.file.Close()
		return err
	}
	return m.file.Close()
}
