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

package rite

import (
	"strconv"

	"github.com/mrbcvm/mrbcvm/common"
	"github.com/mrbcvm/mrbcvm/value"
)

// Pool constant type tags (spec.md §6).
const (
	poolTypeString = 0
	poolTypeFixnum = 1
	poolTypeFloat  = 2
)

// Irep is one node of the depth-first irep tree a compiled method or block
// produces: its own code, literal pool, local symbol names, and children
// (nested blocks/methods defined lexically inside it).
type Irep struct {
	NLocals  uint16
	NRegs    uint16
	Code     []uint32 // ilen words, decoded big-endian
	Pool     []value.Value
	Symbols  []value.SymbolID
	Children []*Irep
}

// Parse decodes a full RITE image into its root Irep. Pool string literals
// are materialized as vm-id-0 (process-owned) heap strings on h, so they
// survive any single task's free_all and never need an explicit release;
// symbol names are interned into h.Symbols. Code and everything structural
// remain plain values, not pointers into data, since data's lifetime is
// the caller's to manage — the interpreter only ever reads Irep fields.
func Parse(h *value.Heap, data []byte) (*Irep, error) {
	if _, err := parseHeader(data); err != nil {
		return nil, err
	}
	c := &cursor{data: data, pos: HeaderSize}

	for {
		sectionID, err := c.take(4)
		if err != nil {
			return nil, err
		}
		sectionLen, err := c.u32()
		if err != nil {
			return nil, err
		}
		sectionEnd := c.pos - 8 + int(sectionLen)
		if sectionLen < 8 || sectionEnd > len(data) {
			return nil, common.ErrImageTruncated
		}

		switch string(sectionID) {
		case "IREP":
			if _, err := c.take(4); err != nil { // rite version, e.g. "0000"
				return nil, err
			}
			return parseIrep(h, c)
		case "END\x00":
			return nil, common.ErrBadImageHeader
		default: // "LVAR" and any other section: skip
			c.pos = sectionEnd
		}
	}
}

func parseIrep(h *value.Heap, c *cursor) (*Irep, error) {
	if _, err := c.u32(); err != nil { // record size, informational only
		return nil, err
	}
	nlocals, err := c.u16()
	if err != nil {
		return nil, err
	}
	nregs, err := c.u16()
	if err != nil {
		return nil, err
	}
	rlen, err := c.u16()
	if err != nil {
		return nil, err
	}
	ilen, err := c.u32()
	if err != nil {
		return nil, err
	}

	c.align4()
	codeBytes, err := c.take(int(ilen) * 4)
	if err != nil {
		return nil, err
	}
	code := make([]uint32, ilen)
	for i := range code {
		code[i] = uint32(codeBytes[i*4])<<24 | uint32(codeBytes[i*4+1])<<16 |
			uint32(codeBytes[i*4+2])<<8 | uint32(codeBytes[i*4+3])
	}

	plen, err := c.u32()
	if err != nil {
		return nil, err
	}
	pool := make([]value.Value, plen)
	for i := range pool {
		v, err := parsePoolEntry(h, c)
		if err != nil {
			return nil, err
		}
		pool[i] = v
	}

	slen, err := c.u32()
	if err != nil {
		return nil, err
	}
	symbols := make([]value.SymbolID, slen)
	for i := range symbols {
		length, err := c.u16()
		if err != nil {
			return nil, err
		}
		name, err := c.take(int(length))
		if err != nil {
			return nil, err
		}
		if _, err := c.u8(); err != nil { // trailing NUL
			return nil, err
		}
		symbols[i] = h.Symbols.Intern(string(name))
	}

	irep := &Irep{
		NLocals: nlocals,
		NRegs:   nregs,
		Code:    code,
		Pool:    pool,
		Symbols: symbols,
	}

	irep.Children = make([]*Irep, rlen)
	for i := range irep.Children {
		child, err := parseIrep(h, c)
		if err != nil {
			return nil, err
		}
		irep.Children[i] = child
	}
	return irep, nil
}

func parsePoolEntry(h *value.Heap, c *cursor) (value.Value, error) {
	typ, err := c.u8()
	if err != nil {
		return value.Value{}, err
	}
	length, err := c.u16()
	if err != nil {
		return value.Value{}, err
	}
	payload, err := c.take(int(length))
	if err != nil {
		return value.Value{}, err
	}

	switch typ {
	case poolTypeString:
		v, ok := value.NewString(h, 0, payload)
		if !ok {
			return value.Value{}, common.ErrImageTruncated
		}
		return v, nil
	case poolTypeFixnum:
		n, err := strconv.ParseInt(string(payload), 10, 32)
		if err != nil {
			return value.Value{}, common.ErrBadImageHeader
		}
		return value.Int(int32(n)), nil
	case poolTypeFloat:
		f, err := strconv.ParseFloat(string(payload), 64)
		if err != nil {
			return value.Value{}, common.ErrBadImageHeader
		}
		return value.Flt(f), nil
	default:
		return value.Value{}, common.ErrBadImageHeader
	}
}
