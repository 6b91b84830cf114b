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

package vm

import (
	"strconv"
	"strings"

	"github.com/mrbcvm/mrbcvm/value"
)

// valueToString renders v the way puts/print/p do: no quoting on strings,
// plain decimal for numbers, a best-effort bracketed form for arrays.
func valueToString(h *value.Heap, v value.Value) []byte {
	switch v.Tag {
	case value.TagNil, value.TagEmpty:
		return nil
	case value.TagTrue:
		return []byte("true")
	case value.TagFalse:
		return []byte("false")
	case value.TagFixnum:
		return []byte(strconv.FormatInt(int64(v.FixnumValue()), 10))
	case value.TagFloat:
		return []byte(strconv.FormatFloat(v.FloatValue(), 'g', -1, 64))
	case value.TagSymbol:
		return []byte(":" + h.Symbols.Name(v.SymbolValue()))
	case value.TagString:
		return value.AsString(v).Bytes()
	case value.TagArray:
		arr := value.AsArray(v)
		parts := make([]string, arr.Len())
		for i := range parts {
			elem := arr.Get(i)
			parts[i] = string(valueToString(h, elem))
			value.Release(h, elem)
		}
		return []byte("[" + strings.Join(parts, ", ") + "]")
	default:
		return []byte("#<" + v.Tag.String() + ">")
	}
}
