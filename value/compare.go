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

func isNumeric(t Tag) bool { return t == TagFixnum || t == TagFloat }

func sign(f float64) int {
	switch {
	case f < 0:
		return -1
	case f > 0:
		return 1
	default:
		return 0
	}
}

// Compare implements spec.md §4.2's tag-dispatch comparison: numeric
// promotion between Fixnum/Float, Empty==Nil for legacy reasons,
// element-wise Array/Hash, byte-content String, endpoint-wise Range, and a
// deterministic but unspecified ordering (by tag value) across unrelated
// types.
func Compare(a, b Value) int {
	if (a.Tag == TagEmpty || a.Tag == TagNil) && (b.Tag == TagEmpty || b.Tag == TagNil) {
		return 0
	}
	if isNumeric(a.Tag) && isNumeric(b.Tag) {
		return compareNumeric(a, b)
	}
	if a.Tag != b.Tag {
		if a.Tag < b.Tag {
			return -1
		}
		return 1
	}
	switch a.Tag {
	case TagSymbol:
		return int(a.sym) - int(b.sym)
	case TagArray:
		return CompareArrays(AsArray(a), AsArray(b))
	case TagHash:
		return compareHashes(AsHash(a), AsHash(b))
	case TagString:
		return CompareStrings(AsString(a), AsString(b))
	case TagRange:
		return CompareRanges(AsRange(a), AsRange(b))
	default:
		return 0
	}
}

func compareNumeric(a, b Value) int {
	if a.Tag == TagFixnum && b.Tag == TagFixnum {
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	}
	af, bf := asFloat(a), asFloat(b)
	return sign(af - bf)
}

func asFloat(v Value) float64 {
	if v.Tag == TagFixnum {
		return float64(v.i)
	}
	return v.f
}

func compareHashes(a, b *Hash) int {
	n := len(a.pairs)
	if len(b.pairs) < n {
		n = len(b.pairs)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a.pairs[i].key, b.pairs[i].key); c != 0 {
			return c
		}
		if c := Compare(a.pairs[i].val, b.pairs[i].val); c != 0 {
			return c
		}
	}
	return len(a.pairs) - len(b.pairs)
}

// Equal is the common case of Compare(a,b) == 0, spelled out for callers
// that only need equality (e.g. Hash/Array lookups).
func Equal(a, b Value) bool { return Compare(a, b) == 0 }
