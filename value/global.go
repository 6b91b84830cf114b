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

import "sort"

type globalKind uint8

const (
	kindGlobal globalKind = iota
	kindConst
)

type globalEntry struct {
	kind globalKind
	sym  SymbolID
	val  Value
}

// GlobalTable holds $global and CONSTANT bindings, ordered by symbol id per
// spec.md §3 ("Global/Constant: entries in a fixed-capacity array, ordered
// by symbol id; created on first write, overwritten on subsequent writes").
// The backing slice grows as entries are added; it has no fixed capacity.
// Entries are owned (dup'd on store, released on overwrite) the way
// global.c's global_object_add/const_object_add do.
type GlobalTable struct {
	entries []globalEntry
}

func newGlobalTable() *GlobalTable { return &GlobalTable{} }

func (g *GlobalTable) search(kind globalKind, sym SymbolID) int {
	return sort.Search(len(g.entries), func(i int) bool {
		if g.entries[i].sym != sym {
			return g.entries[i].sym >= sym
		}
		return g.entries[i].kind >= kind
	})
}

func (g *GlobalTable) find(kind globalKind, sym SymbolID) (int, bool) {
	i := g.search(kind, sym)
	if i < len(g.entries) && g.entries[i].sym == sym && g.entries[i].kind == kind {
		return i, true
	}
	return i, false
}

func (g *GlobalTable) set(h *Heap, kind globalKind, sym SymbolID, v Value) {
	i, ok := g.find(kind, sym)
	if ok {
		Release(h, g.entries[i].val)
		g.entries[i].val = Dup(v)
		return
	}
	g.entries = append(g.entries, globalEntry{})
	copy(g.entries[i+1:], g.entries[i:])
	g.entries[i] = globalEntry{kind: kind, sym: sym, val: Dup(v)}
}

func (g *GlobalTable) get(kind globalKind, sym SymbolID) Value {
	if i, ok := g.find(kind, sym); ok {
		return Dup(g.entries[i].val)
	}
	return Nil()
}

// SetGlobal stores $<sym>, releasing any previous binding.
func (g *GlobalTable) SetGlobal(h *Heap, sym SymbolID, v Value) { g.set(h, kindGlobal, sym, v) }

// GetGlobal returns a new reference to $<sym>, or Nil if unbound.
func (g *GlobalTable) GetGlobal(sym SymbolID) Value { return g.get(kindGlobal, sym) }

// SetConst stores CONSTANT<sym>.
func (g *GlobalTable) SetConst(h *Heap, sym SymbolID, v Value) { g.set(h, kindConst, sym, v) }

// GetConst returns a new reference to CONSTANT<sym>, or Nil if unbound.
func (g *GlobalTable) GetConst(sym SymbolID) Value { return g.get(kindConst, sym) }

// ClearVMID retags every global/constant entry to vm-id 0 ("owned by the
// process"), mirroring mrbc_global_clear_vm_id, called when a value crosses
// a task boundary into shared process-global storage.
func (g *GlobalTable) ClearVMID() {
	for _, e := range g.entries {
		if e.val.Tag.IsHeap() && e.val.obj != nil {
			e.val.obj.header().VMID = 0
		}
	}
}
