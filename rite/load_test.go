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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrbcvm/mrbcvm/alloc"
	"github.com/mrbcvm/mrbcvm/common"
	"github.com/mrbcvm/mrbcvm/value"
)

func newTestHeap(t *testing.T) *value.Heap {
	t.Helper()
	pool, err := alloc.NewPool(make([]byte, 64*1024-1))
	require.NoError(t, err)
	return value.NewHeap(pool)
}

func putU16(buf []byte, v uint16) []byte { return append(buf, byte(v>>8), byte(v)) }
func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// recordFieldsAbsOffset is where an irep record's nlocals field lands in
// the full image buildImage/buildStopImage assemble: HeaderSize, plus
// "IREP"+sectionLen (8 bytes), plus the rite version tag "0000" (4
// bytes), plus the record-size field (4 bytes). The code section must
// start on a 4-byte boundary of the whole image, not of the record, so
// padding has to account for this fixed prefix.
const recordFieldsAbsOffset = HeaderSize + 8 + 4 + 4

// buildImage assembles a minimal single-irep RITE image: one NOP-ish code
// word, a fixnum pool entry, a string pool entry, no symbols, no children.
func buildImage(t *testing.T) []byte {
	t.Helper()

	var record []byte
	record = putU16(record, 2) // nlocals
	record = putU16(record, 5) // nregs
	record = putU16(record, 0) // rlen (no children)
	record = putU32(record, 1) // ilen (1 instruction word)
	for (recordFieldsAbsOffset+len(record))%4 != 0 {
		record = append(record, 0)
	}
	record = putU32(record, 0xAABBCCDD) // the one code word

	record = putU32(record, 2) // plen
	// pool[0]: fixnum "42"
	record = append(record, poolTypeFixnum)
	record = putU16(record, 2)
	record = append(record, []byte("42")...)
	// pool[1]: string "hi"
	record = append(record, poolTypeString)
	record = putU16(record, 2)
	record = append(record, []byte("hi")...)

	record = putU32(record, 0) // slen (no symbols)

	recordWithSize := putU32(nil, uint32(len(record)+4))
	recordWithSize = append(recordWithSize, record...)

	irepSectionBody := append([]byte("0000"), recordWithSize...)
	irepSection := append([]byte("IREP"), putU32(nil, uint32(8+len(irepSectionBody)))...)
	irepSection = append(irepSection, irepSectionBody...)

	endSection := append([]byte("END\x00"), putU32(nil, 8)...)

	header := []byte("RITE0004")
	header = putU16(header, 0) // CRC
	header = putU32(header, 0) // total size, unvalidated
	header = append(header, []byte("MATZ0000")...)
	require.Len(t, header, HeaderSize)

	img := append([]byte{}, header...)
	img = append(img, irepSection...)
	img = append(img, endSection...)
	return img
}

func TestParseMinimalImage(t *testing.T) {
	h := newTestHeap(t)
	img := buildImage(t)

	irep, err := Parse(h, img)
	require.NoError(t, err)
	require.Equal(t, uint16(2), irep.NLocals)
	require.Equal(t, uint16(5), irep.NRegs)
	require.Len(t, irep.Code, 1)
	require.Equal(t, uint32(0xAABBCCDD), irep.Code[0])
	require.Len(t, irep.Pool, 2)
	require.Equal(t, int32(42), irep.Pool[0].FixnumValue())
	require.Equal(t, "hi", string(value.AsString(irep.Pool[1]).Bytes()))
	require.Empty(t, irep.Symbols)
	require.Empty(t, irep.Children)
}

func TestParseRejectsBadMagic(t *testing.T) {
	h := newTestHeap(t)
	img := buildImage(t)
	img[0] = 'X'

	_, err := Parse(h, img)
	require.ErrorIs(t, err, common.ErrBadImageHeader)
}

func TestParseRejectsTruncatedImage(t *testing.T) {
	h := newTestHeap(t)
	img := buildImage(t)

	_, err := Parse(h, img[:HeaderSize+10])
	require.ErrorIs(t, err, common.ErrImageTruncated)
}

func TestParseRejectsWrongProducerTag(t *testing.T) {
	h := newTestHeap(t)
	img := buildImage(t)
	copy(img[14:18], "NOPE")

	_, err := Parse(h, img)
	require.ErrorIs(t, err, common.ErrBadImageHeader)
}
