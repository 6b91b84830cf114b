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

package alloc

// Stats mirrors the MRBC_DEBUG statistics hooks of the original allocator
// (mrbc_alloc_statistics, mrbc_alloc_vm_used): totals plus a per-vm-id used
// breakdown.
type Stats struct {
	TotalBytes       int
	UsedBytes        int
	FreeBytes        int
	FragmentedBlocks int // free blocks that are not the single largest free run
	UsedBytesByVMID  map[uint8]int
}

// Stats walks the physical block chain once and reports allocator-wide
// statistics. The vm-id set maintained incrementally by Alloc/FreeAll is
// used only to presize the result map; the authoritative numbers always
// come from the scan, since Free() does not eagerly prune a vm-id whose
// last block was just released.
func (p *Pool) Stats() Stats {
	s := Stats{
		TotalBytes:     len(p.buf),
		UsedBytesByVMID: make(map[uint8]int, p.activeVMs.Cardinality()),
	}

	largestFree := 0
	off := uint32(0)
	for {
		sz := int(p.size(off))
		if p.isFree(off) {
			s.FreeBytes += sz
			if sz > largestFree {
				largestFree = sz
			}
		} else {
			s.UsedBytes += sz
			s.UsedBytesByVMID[p.vmID(off)] += sz - headerSize
		}
		next, hasNext := p.physNext(off)
		if !hasNext {
			break
		}
		off = next
	}

	off = 0
	for {
		if p.isFree(off) && int(p.size(off)) != largestFree {
			s.FragmentedBlocks++
		}
		next, hasNext := p.physNext(off)
		if !hasNext {
			break
		}
		off = next
	}
	return s
}

// VMUsed returns the number of bytes currently tagged to vmID.
func (p *Pool) VMUsed(vmID uint8) int {
	return p.Stats().UsedBytesByVMID[vmID]
}
