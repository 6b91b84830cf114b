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

import "github.com/mrbcvm/mrbcvm/alloc"

// Heap bundles the process-wide singletons spec.md §9 describes: the
// allocator pool, the interned symbol table, and the class registry. One
// Heap is shared by every VM instance a scheduler multiplexes; it is what
// makes values, classes, and symbols shareable across tasks while each
// task's own allocations stay tagged and independently reclaimable.
type Heap struct {
	Pool    *alloc.Pool
	Symbols *SymbolTable
	Classes *ClassRegistry
	Globals *GlobalTable
}

// NewHeap wires a freshly created Pool to fresh symbol/class/global tables.
func NewHeap(pool *alloc.Pool) *Heap {
	h := &Heap{
		Pool:    pool,
		Symbols: newSymbolTable(),
		Globals: newGlobalTable(),
	}
	h.Classes = newClassRegistry(h)
	return h
}

// allocHeader reserves size bytes tagged to vmID for a new container and
// returns the header to embed in it, or ok=false on OOM.
func allocHeader(h *Heap, vmID uint8, tag Tag, size int) (RefHeader, bool) {
	ref, ok := h.Pool.Alloc(vmID, size)
	if !ok {
		return RefHeader{}, false
	}
	return RefHeader{RefCount: 1, TypeTag: tag, VMID: vmID, PoolRef: ref}, true
}
