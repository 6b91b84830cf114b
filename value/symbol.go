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
	"encoding/binary"
	"sort"

	"github.com/VictoriaMetrics/fastcache"
)

// SymbolID is the interned index of a name in the process-wide symbol
// table. Equality is id equality; symbols are never freed.
type SymbolID int32

// NoSymbol is returned by lookups that fail.
const NoSymbol SymbolID = -1

type symEntry struct {
	hash uint16
	name string
	id   SymbolID
}

// SymbolTable interns strings once, process-wide. The authoritative store
// is a hash-ordered slice searched with binary search (symbol.c's
// MRBC_SYMBOL_SEARCH_BTREE option, flattened to a sorted slice here); a
// fastcache instance fronts it so repeated interning of a hot method/ivar
// name during execution is O(1) average instead of a binary search every
// time.
type SymbolTable struct {
	byHash []symEntry      // sorted by hash, for find()
	byID   []string        // id -> name, insertion order
	cache  *fastcache.Cache
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{cache: fastcache.New(64 * 1024)}
}

// polyHash is mruby/c's symbol hash: h = h*37 + c over the name's bytes.
func polyHash(name string) uint16 {
	var h uint16
	for i := 0; i < len(name); i++ {
		h = h*37 + uint16(name[i])
	}
	return h
}

// Intern returns the SymbolID for name, creating a new entry if this is the
// first time it has been seen.
func (t *SymbolTable) Intern(name string) SymbolID {
	if buf, ok := t.cache.HasGet(nil, []byte(name)); ok {
		return SymbolID(int32(binary.LittleEndian.Uint32(buf)))
	}
	if id := t.find(name); id != NoSymbol {
		t.cacheStore(name, id)
		return id
	}

	id := SymbolID(len(t.byID))
	t.byID = append(t.byID, name)

	h := polyHash(name)
	i := sort.Search(len(t.byHash), func(i int) bool { return t.byHash[i].hash >= h })
	t.byHash = append(t.byHash, symEntry{})
	copy(t.byHash[i+1:], t.byHash[i:])
	t.byHash[i] = symEntry{hash: h, name: name, id: id}

	t.cacheStore(name, id)
	return id
}

func (t *SymbolTable) cacheStore(name string, id SymbolID) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(int32(id)))
	t.cache.Set([]byte(name), buf[:])
}

// find performs the binary-search-over-hash lookup, then a linear scan
// within the (rare) hash-collision run.
func (t *SymbolTable) find(name string) SymbolID {
	h := polyHash(name)
	i := sort.Search(len(t.byHash), func(i int) bool { return t.byHash[i].hash >= h })
	for ; i < len(t.byHash) && t.byHash[i].hash == h; i++ {
		if t.byHash[i].name == name {
			return t.byHash[i].id
		}
	}
	return NoSymbol
}

// Name returns the interned string for id, or "" if id is unknown.
func (t *SymbolTable) Name(id SymbolID) string {
	if id < 0 || int(id) >= len(t.byID) {
		return ""
	}
	return t.byID[id]
}
