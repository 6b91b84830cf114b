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

// Errno is an in-VM status code. It never unwinds the call stack (spec.md
// §7: "the interpreter is non-throwing") — it is stored on the VM and
// surfaced to the host after run() returns, or checked by a catcher that
// inspects it explicitly.
type Errno int

const (
	ErrNone Errno = iota
	ErrNoMemory
	ErrRuntime
	ErrType
	ErrArgument
	ErrIndex
	ErrRangeError
	ErrName
	ErrNoMethod
	ErrScript
	ErrSyntax
	ErrLocalJump
	ErrRegexp
	ErrNotImplemented
	ErrFloatDomain
	ErrKey
)

func (e Errno) String() string {
	switch e {
	case ErrNone:
		return "none"
	case ErrNoMemory:
		return "no_memory"
	case ErrRuntime:
		return "runtime"
	case ErrType:
		return "type"
	case ErrArgument:
		return "argument"
	case ErrIndex:
		return "index"
	case ErrRangeError:
		return "range"
	case ErrName:
		return "name"
	case ErrNoMethod:
		return "no_method"
	case ErrScript:
		return "script"
	case ErrSyntax:
		return "syntax"
	case ErrLocalJump:
		return "local_jump"
	case ErrRegexp:
		return "regexp"
	case ErrNotImplemented:
		return "not_implemented"
	case ErrFloatDomain:
		return "float_domain"
	case ErrKey:
		return "key"
	default:
		return "unknown"
	}
}
