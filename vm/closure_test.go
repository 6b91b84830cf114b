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
	"testing"

	"github.com/mrbcvm/mrbcvm/rite"
	"github.com/mrbcvm/mrbcvm/value"
)

// TestClosureCapturesEnclosingRegister builds a LAMBDA that closes over the
// defining frame's r1, then CALLs it and checks the captured value is
// visible inside the closure body via GETUPVAR, per spec.md §4.3's
// "closures materialize an explicit environment object" contract.
func TestClosureCapturesEnclosingRegister(t *testing.T) {
	rt, _ := newTestRuntime()

	child := &rite.Irep{
		NLocals: 1,
		NRegs:   2,
		Code: []uint32{
			instr(OpGETUPVAR, 1, 1, 0), // r1 = upvar[1] (outer's r1)
			instr(OpADDI, 1, 0, 5),     // r1 = r1 + 5
			instr(OpRETURN, 1, 0, 0),
		},
	}

	outer := &rite.Irep{
		NLocals:  1,
		NRegs:    3,
		Children: []*rite.Irep{child},
		Code: []uint32{
			instrAsBx(OpLOADI, 1, 10), // r1 = 10 (captured)
			instrABx(OpLAMBDA, 0, 0),  // r0 = proc closing over this frame
			instr(OpCALL, 0, 0, 0),    // r0 = r0.call() -> 15
			instr(OpSTOP, 0, 0, 0),
		},
	}

	v := runToHalt(rt, outer)
	if v.Errno() != ErrNone {
		t.Fatalf("unexpected errno: %v", v.Errno())
	}
	if got := v.reg(0); got.Tag != value.TagFixnum || got.FixnumValue() != 15 {
		t.Fatalf("call result = %#v, want Fixnum(15)", got)
	}
}
