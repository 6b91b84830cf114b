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
	"encoding/binary"

	"github.com/mrbcvm/mrbcvm/common"
)

// cursor is a bounds-checked big-endian reader over an image buffer. All
// multi-byte fields in a RITE image are big-endian on the wire (spec.md
// §1 Non-goals: "byte-order portability of the bytecode image... is
// always big-endian").
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int { return len(c.data) - c.pos }

func (c *cursor) u8() (byte, error) {
	if c.remaining() < 1 {
		return 0, common.ErrImageTruncated
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) u16() (uint16, error) {
	if c.remaining() < 2 {
		return 0, common.ErrImageTruncated
	}
	v := binary.BigEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) u32() (uint32, error) {
	if c.remaining() < 4 {
		return 0, common.ErrImageTruncated
	}
	v := binary.BigEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if n < 0 || c.remaining() < n {
		return nil, common.ErrImageTruncated
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// align4 skips forward to the next 4-byte-aligned absolute offset.
func (c *cursor) align4() {
	if rem := c.pos % 4; rem != 0 {
		c.pos += 4 - rem
	}
}
