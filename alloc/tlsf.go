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

// Package alloc implements a single-pool two-level segregated-fit (TLSF)
// allocator over a caller-supplied byte buffer. Every allocation carries a
// task (vm-id) tag used for O(n) bulk release on task exit.
//
// The bucket math and block header layout are modeled on mruby/c's
// alloc.c/alloc.h (first-level/second-level index, tail/free flags,
// prev-physical-offset for O(1) coalescing); the free-list-per-size-class
// shape follows the size-class free lists in a tcmalloc-style allocator.
package alloc

import (
	"encoding/binary"
	"math/bits"

	mapset "github.com/deckarep/golang-set"

	"github.com/mrbcvm/mrbcvm/common"
)

const (
	fliBits    = 9
	fliCount   = fliBits + 1
	sliBits    = 3
	sliCount   = 1 << sliBits
	lsbShift   = 4 // ignored low bits; smallest distinguished bucket covers [16,32)
	headerSize = 6 // flags(1) + vmID(1) + size(2) + prevPhysOffset(2)
	freeLinks  = 8 // nextFree(4) + prevFree(4), only valid while the block is free
	minBlock   = headerSize + freeLinks

	flagTail = 1 << 0
	flagFree = 1 << 1
)

// Ref addresses the body (the first usable byte after the header) of a live
// allocation within a Pool. The zero value is never a valid Ref returned
// from Alloc (offset 0 is always inside the header of the pool's first
// block), so it doubles as a "no allocation" sentinel for convenience.
type Ref uint32

// NullRef is the explicit "no allocation" sentinel, used for intrusive
// free-list links where offset 0 is a legitimate block position.
const NullRef Ref = 1<<32 - 1

// Pool is a TLSF heap over a single caller-supplied buffer.
type Pool struct {
	buf []byte

	flBitmap uint32
	slBitmap [fliCount]uint32
	heads    [fliCount][sliCount]Ref // free-block header offsets, NullRef if empty

	activeVMs mapset.Set // vm-ids with at least one live block
}

// NewPool installs buf as a single tail-flagged free block spanning its
// entire length. buf's length must fit the memsize width (uint16 here,
// giving a 64KiB ceiling per spec) and be large enough for one header.
func NewPool(buf []byte) (*Pool, error) {
	if len(buf) > 1<<16-1 {
		return nil, common.ErrPoolTooLarge
	}
	if len(buf) < minBlock {
		return nil, common.ErrPoolTooSmall
	}
	p := &Pool{buf: buf, activeVMs: mapset.NewSet()}
	for i := range p.heads {
		for j := range p.heads[i] {
			p.heads[i][j] = NullRef
		}
	}
	p.setFlags(0, flagTail|flagFree)
	p.setVMID(0, 0)
	p.setSize(0, uint16(len(buf)))
	p.setPrevPhysOffset(0, 0)
	p.insertFree(0)
	return p, nil
}

// --- raw header accessors (offsets are byte positions of the block header
// within buf; headerOff+headerSize is the start of the body/free-links) ---

func (p *Pool) flags(off uint32) uint8        { return p.buf[off] }
func (p *Pool) setFlags(off uint32, f uint8)  { p.buf[off] = f }
func (p *Pool) isTail(off uint32) bool        { return p.flags(off)&flagTail != 0 }
func (p *Pool) isFree(off uint32) bool        { return p.flags(off)&flagFree != 0 }
func (p *Pool) vmID(off uint32) uint8         { return p.buf[off+1] }
func (p *Pool) setVMID(off uint32, id uint8)  { p.buf[off+1] = id }
func (p *Pool) size(off uint32) uint16        { return binary.LittleEndian.Uint16(p.buf[off+2:]) }
func (p *Pool) setSize(off uint32, sz uint16) { binary.LittleEndian.PutUint16(p.buf[off+2:], sz) }
func (p *Pool) prevPhysOffset(off uint32) uint16 {
	return binary.LittleEndian.Uint16(p.buf[off+4:])
}
func (p *Pool) setPrevPhysOffset(off uint32, d uint16) {
	binary.LittleEndian.PutUint16(p.buf[off+4:], d)
}

func (p *Pool) nextFree(off uint32) Ref {
	return Ref(binary.LittleEndian.Uint32(p.buf[off+headerSize:]))
}
func (p *Pool) setNextFree(off uint32, r Ref) {
	binary.LittleEndian.PutUint32(p.buf[off+headerSize:], uint32(r))
}
func (p *Pool) prevFree(off uint32) Ref {
	return Ref(binary.LittleEndian.Uint32(p.buf[off+headerSize+4:]))
}
func (p *Pool) setPrevFree(off uint32, r Ref) {
	binary.LittleEndian.PutUint32(p.buf[off+headerSize+4:], uint32(r))
}

func (p *Pool) physNext(off uint32) (uint32, bool) {
	if p.isTail(off) {
		return 0, false
	}
	return off + uint32(p.size(off)), true
}

func (p *Pool) physPrev(off uint32) (uint32, bool) {
	d := p.prevPhysOffset(off)
	if d == 0 {
		return 0, false
	}
	return off - uint32(d), true
}

// --- bucket mapping ---

func fls(x uint32) int {
	if x == 0 {
		return -1
	}
	return bits.Len32(x) - 1
}

// mappingFloor returns the bucket that a free block of exactly this size is
// stored in: the largest bucket whose range still starts at or below size.
func mappingFloor(size uint32) (fl, sl int) {
	if size < 1<<lsbShift {
		return 0, 0
	}
	f := fls(size) - lsbShift
	if f >= fliCount {
		f = fliCount - 1
	}
	shift := uint(f + lsbShift - sliBits)
	s := int(size>>shift) & (sliCount - 1)
	return f, s
}

// mappingCeil returns the smallest bucket guaranteed to hold only blocks of
// at least size bytes, by rounding size up to the next sub-range boundary
// before mapping it.
func mappingCeil(size uint32) (fl, sl int) {
	if size < 1<<lsbShift {
		return 0, 0
	}
	f := fls(size) - lsbShift
	if f >= fliCount {
		f = fliCount - 1
	}
	shift := uint(f + lsbShift - sliBits)
	round := uint32(1) << shift
	rounded := size
	if size&(round-1) != 0 {
		rounded = size + round
	}
	return mappingFloor(rounded)
}

// findSuitable returns the first non-empty bucket at or above (fl, sl), or
// ok=false if the pool has no free block large enough.
func (p *Pool) findSuitable(fl, sl int) (int, int, bool) {
	slMap := p.slBitmap[fl] & (^uint32(0) << uint(sl))
	if slMap != 0 {
		return fl, bits.TrailingZeros32(slMap), true
	}
	flMap := p.flBitmap & (^uint32(0) << uint(fl+1))
	if flMap == 0 {
		return 0, 0, false
	}
	fl = bits.TrailingZeros32(flMap)
	sl = bits.TrailingZeros32(p.slBitmap[fl])
	return fl, sl, true
}

func (p *Pool) markBucket(fl, sl int) {
	p.flBitmap |= 1 << uint(fl)
	p.slBitmap[fl] |= 1 << uint(sl)
}

func (p *Pool) clearBucketIfEmpty(fl, sl int) {
	if p.heads[fl][sl] != NullRef {
		return
	}
	p.slBitmap[fl] &^= 1 << uint(sl)
	if p.slBitmap[fl] == 0 {
		p.flBitmap &^= 1 << uint(fl)
	}
}

// --- free-list linkage ---

func (p *Pool) insertFree(off uint32) {
	fl, sl := mappingFloor(uint32(p.size(off)))
	head := p.heads[fl][sl]
	p.setNextFree(off, head)
	p.setPrevFree(off, NullRef)
	if head != NullRef {
		p.setPrevFree(uint32(head), Ref(off))
	}
	p.heads[fl][sl] = Ref(off)
	p.setFlags(off, p.flags(off)|flagFree)
	p.markBucket(fl, sl)
}

func (p *Pool) removeFree(off uint32) {
	fl, sl := mappingFloor(uint32(p.size(off)))
	next := p.nextFree(off)
	prev := p.prevFree(off)
	if prev != NullRef {
		p.setNextFree(uint32(prev), next)
	} else {
		p.heads[fl][sl] = next
	}
	if next != NullRef {
		p.setPrevFree(uint32(next), prev)
	}
	p.clearBucketIfEmpty(fl, sl)
}

// --- alloc/free/realloc ---

func align4(n int) int { return (n + 3) &^ 3 }

// Alloc reserves at least size bytes tagged with vmID and returns a Ref to
// the body. It returns (0, false) on OOM (the allocator never panics).
func (p *Pool) Alloc(vmID uint8, size int) (Ref, bool) {
	if size < 0 {
		size = 0
	}
	need := headerSize + align4(size)
	if need < minBlock {
		need = minBlock
	}
	if need > len(p.buf) {
		return 0, false
	}
	var off uint32
	fl, sl := mappingCeil(uint32(need))
	if fl, sl, ok := p.findSuitable(fl, sl); ok {
		off = uint32(p.heads[fl][sl])
	} else {
		// The rounded-up search skips the bucket need itself maps to, which
		// may still hold a large enough block (e.g. a freed block of exactly
		// this size); search that bucket before reporting OOM.
		fl, sl = mappingFloor(uint32(need))
		r := p.heads[fl][sl]
		for r != NullRef && int(p.size(uint32(r))) < need {
			r = p.nextFree(uint32(r))
		}
		if r == NullRef {
			return 0, false
		}
		off = uint32(r)
	}
	p.removeFree(off)

	total := uint32(p.size(off))
	remaining := total - uint32(need)
	if remaining >= minBlock {
		p.setSize(off, uint16(need))
		newOff := off + uint32(need)
		wasTail := p.isTail(off)
		p.setFlags(off, p.flags(off)&^flagTail)
		p.setFlags(newOff, flagFree)
		if wasTail {
			p.setFlags(newOff, p.flags(newOff)|flagTail)
		}
		p.setVMID(newOff, 0)
		p.setSize(newOff, uint16(remaining))
		p.setPrevPhysOffset(newOff, uint16(need))
		if next, hasNext := p.physNext(newOff); hasNext {
			p.setPrevPhysOffset(next, uint16(remaining))
		}
		p.insertFree(newOff)
	}

	p.setFlags(off, p.flags(off)&^flagFree)
	p.setVMID(off, vmID)
	p.activeVMs.Add(vmID)
	return Ref(off + headerSize), true
}

func (p *Pool) headerOf(ref Ref) uint32 { return uint32(ref) - headerSize }

// Free releases the allocation referenced by ref, coalescing with any free
// physical neighbors.
func (p *Pool) Free(ref Ref) {
	p.freeBlock(p.headerOf(ref))
}

func (p *Pool) freeBlock(off uint32) {
	if next, ok := p.physNext(off); ok && p.isFree(next) {
		p.removeFree(next)
		if p.isTail(next) {
			p.setFlags(off, p.flags(off)|flagTail)
		}
		p.setSize(off, p.size(off)+p.size(next))
		if nn, ok := p.physNext(off); ok {
			p.setPrevPhysOffset(nn, p.size(off))
		}
	}
	if prev, ok := p.physPrev(off); ok && p.isFree(prev) {
		p.removeFree(prev)
		if p.isTail(off) {
			p.setFlags(prev, p.flags(prev)|flagTail)
		}
		p.setSize(prev, p.size(prev)+p.size(off))
		if nn, ok := p.physNext(prev); ok {
			p.setPrevPhysOffset(nn, p.size(prev))
		}
		off = prev
	}
	p.insertFree(off)
	p.refreshActiveVMs()
}

func (p *Pool) refreshActiveVMs() {
	// Cheap incremental maintenance is not attempted here: a freed block's
	// vm-id may or may not still have other live blocks. The set is not
	// pruned on free; only FreeAll removes a vm-id from it, and Stats takes
	// its per-vm-id numbers from a scan of the block chain instead. See Stats.
}

// Realloc resizes the allocation referenced by ref. It may return a new Ref;
// on OOM during a grow that requires relocation it returns (0, false) and
// leaves the original allocation untouched.
func (p *Pool) Realloc(ref Ref, newSize int) (Ref, bool) {
	off := p.headerOf(ref)
	oldBodyCap := int(p.size(off)) - headerSize
	need := align4(newSize)

	if need <= oldBodyCap {
		// Shrink in place, splitting off the remainder if it's worth it.
		newTotal := headerSize + need
		if newTotal < minBlock {
			newTotal = minBlock
		}
		remaining := int(p.size(off)) - newTotal
		if remaining >= minBlock {
			wasTail := p.isTail(off)
			vmID := p.vmID(off)
			p.setSize(off, uint16(newTotal))
			p.setFlags(off, p.flags(off)&^flagTail)
			newOff := off + uint32(newTotal)
			p.setFlags(newOff, 0)
			p.setVMID(newOff, 0)
			p.setSize(newOff, uint16(remaining))
			p.setPrevPhysOffset(newOff, uint16(newTotal))
			if wasTail {
				p.setFlags(newOff, p.flags(newOff)|flagTail)
			}
			if next, ok := p.physNext(newOff); ok {
				p.setPrevPhysOffset(next, uint16(remaining))
			}
			p.setVMID(off, vmID)
			p.freeBlock(newOff)
		}
		return ref, true
	}

	if next, ok := p.physNext(off); ok && p.isFree(next) {
		if int(p.size(off))+int(p.size(next))-headerSize >= need {
			p.removeFree(next)
			wasTail := p.isTail(next)
			p.setSize(off, p.size(off)+p.size(next))
			if wasTail {
				p.setFlags(off, p.flags(off)|flagTail)
			}
			if nn, ok := p.physNext(off); ok {
				p.setPrevPhysOffset(nn, p.size(off))
			}
			return ref, true
		}
	}

	vmID := p.vmID(off)
	newRef, ok := p.Alloc(vmID, newSize)
	if !ok {
		return 0, false
	}
	copy(p.buf[uint32(newRef):], p.buf[ref:uint32(ref)+uint32(oldBodyCap)])
	p.Free(ref)
	return newRef, true
}

// FreeAll releases every allocation tagged with vmID, per spec's per-task
// bulk teardown: a linear scan of the physical block chain.
func (p *Pool) FreeAll(vmID uint8) {
	off := uint32(0)
	for {
		next, hasNext := p.physNext(off)
		if !p.isFree(off) && p.vmID(off) == vmID {
			p.freeBlock(off)
		}
		if !hasNext {
			break
		}
		off = next
	}
	p.activeVMs.Remove(vmID)
}

// Len returns the pool's total byte capacity.
func (p *Pool) Len() int { return len(p.buf) }
