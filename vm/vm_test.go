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
	"bytes"

	"github.com/mrbcvm/mrbcvm/alloc"
	"github.com/mrbcvm/mrbcvm/rite"
)

// fakePlatform captures fd-1 writes so tests can assert on interpreter
// output instead of touching a real console.
type fakePlatform struct {
	out bytes.Buffer
}

func (p *fakePlatform) Write(fd int, buf []byte) (int, error) {
	if fd == 1 {
		p.out.Write(buf)
	}
	return len(buf), nil
}

func (p *fakePlatform) Flush(fd int) error { return nil }
func (p *fakePlatform) Idle()              {}

// instr packs an ABC-form instruction word.
func instr(op Op, a, b, c int) uint32 {
	return uint32(op) | uint32(a&0x1FF)<<23 | uint32(b&0x1FF)<<14 | uint32(c&0x7F)<<7
}

// instrABx packs an ABx-form instruction word.
func instrABx(op Op, a, bx int) uint32 {
	return uint32(op) | uint32(a&0x1FF)<<23 | uint32(bx&0xFFFF)<<7
}

// instrAsBx packs an sBx-form instruction word.
func instrAsBx(op Op, a, sbx int) uint32 {
	return instrABx(op, a, sbx+sBxBias)
}

func newTestRuntime() (*Runtime, *fakePlatform) {
	buf := make([]byte, 64*1024-1)
	pool, err := alloc.NewPool(buf)
	if err != nil {
		panic(err)
	}
	plat := &fakePlatform{}
	return NewRuntime(pool, plat, nil), plat
}

// runToHalt registers root as a fresh task and drives the scheduler to
// completion, the way an embedder's create_task/start_task/run() would.
func runToHalt(rt *Runtime, root *rite.Irep) *VM {
	vmID := rt.nextVMID
	rt.nextVMID++
	v := NewVM(rt, vmID, root, rt.ObjectClass)
	task := rt.Sched.CreateTask(v, 10, 0)
	rt.vms[vmID] = v
	if err := rt.Sched.StartTask(task); err != nil {
		panic(err)
	}
	rt.Run()
	return v
}
