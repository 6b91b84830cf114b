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

// Package vm implements the register-based bytecode interpreter: opcode
// decode and dispatch, the call-info stack, method lookup/SEND, OP_ENTER
// argument binding, and the numeric fast paths. Grounded on spec.md §4.3
// and §6's exact instruction word layout.
package vm

// Op identifies an opcode, per spec.md §4.3's recognized set.
type Op uint8

const (
	OpNOP Op = iota
	OpMOVE
	OpLOADL
	OpLOADI
	OpLOADSYM
	OpLOADNIL
	OpLOADSELF
	OpLOADT
	OpLOADF
	OpGETGLOBAL
	OpSETGLOBAL
	OpGETIV
	OpSETIV
	OpGETCONST
	OpSETCONST
	OpGETUPVAR
	OpSETUPVAR
	OpJMP
	OpJMPIF
	OpJMPNOT
	OpSEND
	OpSENDB
	OpCALL
	OpENTER
	OpRETURN
	OpBLKPUSH
	OpADD
	OpADDI
	OpSUB
	OpSUBI
	OpMUL
	OpDIV
	OpEQ
	OpLT
	OpLE
	OpGT
	OpGE
	OpARRAY
	OpSTRING
	OpSTRCAT
	OpHASH
	OpLAMBDA
	OpRANGE
	OpCLASS
	OpEXEC
	OpMETHOD
	OpTCLASS
	OpSTOP
	OpABORT

	opCount
)

// Instruction word bit layout (spec.md §6): opcode in bits [0..6], A in
// [23..31], B in [14..22], C in [7..13]; or Bx in [7..22]; sBx = Bx -
// 0x7FFF; or Ax in [7..31].
const sBxBias = 0x7FFF

func decodeOp(word uint32) Op { return Op(word & 0x7F) }

func decodeABC(word uint32) (a, b, c int) {
	a = int((word >> 23) & 0x1FF)
	b = int((word >> 14) & 0x1FF)
	c = int((word >> 7) & 0x7F)
	return
}

func decodeABx(word uint32) (a int, bx int) {
	a = int((word >> 23) & 0x1FF)
	bx = int((word >> 7) & 0xFFFF)
	return
}

func decodeAsBx(word uint32) (a int, sbx int) {
	a, bx := decodeABx(word)
	return a, bx - sBxBias
}

func decodeAx(word uint32) int {
	return int((word >> 7) & 0x1FFFFFF)
}
