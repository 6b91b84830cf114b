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

import "github.com/davecgh/go-spew/spew"

// dumpConfig renders plain Go data only: DisableMethods keeps spew from
// calling a String()/GoString() a user-defined method table might one day
// attach to these types, and a depth cap keeps a cyclic Array/Hash graph
// from producing an unbounded dump.
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	MaxDepth:                6,
}

// snapshot is the plain-data shadow of a Value graph that dumpConfig walks.
// Building this by hand (rather than handing spew the live Value, whose
// heap-backed variants carry unexported ref-counted pointers and interned
// symbol ids) is what keeps Dump from needing Heap-free type switches on
// dump.go's output shape.
type snapshot struct {
	Tag    string
	Fixnum int32      `json:",omitempty"`
	Float  float64    `json:",omitempty"`
	Symbol string     `json:",omitempty"`
	Class  string     `json:",omitempty"`
	String string     `json:",omitempty"`
	Array  []snapshot `json:",omitempty"`
	Hash   []hashPair `json:",omitempty"`
	IVars  int        `json:",omitempty"`
}

type hashPair struct {
	Key snapshot
	Val snapshot
}

// Dump renders v as a cycle-safe, bounded-depth textual tree for tests and
// the stats CLI command, without invoking any overridable to_s/inspect
// method on the receiver (a debug dump must not itself allocate or error
// out of the non-throwing interpreter core).
func Dump(h *Heap, v Value) string {
	return dumpConfig.Sdump(snapshotOf(h, v, 0))
}

func snapshotOf(h *Heap, v Value, depth int) snapshot {
	s := snapshot{Tag: v.Tag.String()}
	if depth >= dumpConfig.MaxDepth {
		return s
	}
	switch v.Tag {
	case TagFixnum:
		s.Fixnum = v.FixnumValue()
	case TagFloat:
		s.Float = v.FloatValue()
	case TagSymbol:
		s.Symbol = h.Symbols.Name(v.SymbolValue())
	case TagClass:
		s.Class = AsClass(v).Name(h)
	case TagString:
		s.String = string(AsString(v).Bytes())
	case TagArray:
		arr := AsArray(v)
		s.Array = make([]snapshot, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			elem := arr.Get(i)
			s.Array[i] = snapshotOf(h, elem, depth+1)
			Release(h, elem)
		}
	case TagHash:
		ha := AsHash(v)
		s.Hash = make([]hashPair, 0, ha.Len())
		for _, p := range ha.pairs {
			s.Hash = append(s.Hash, hashPair{
				Key: snapshotOf(h, p.key, depth+1),
				Val: snapshotOf(h, p.val, depth+1),
			})
		}
	case TagObject:
		s.IVars = len(AsInstance(v).ivars)
	}
	return s
}
