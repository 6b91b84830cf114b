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

// Package value implements the tagged value representation, reference
// counting, and container types (Array, Hash, Range, String, Symbol, Class,
// Instance, Proc) that back every register, argument, and return value in
// the interpreter.
//
// Grounded on _examples/original_source/src/value.c/.h (MRBC_OBJECT_HEADER,
// mrbc_obj_alloc/mrbc_rproc_alloc), c_array.c/c_hash.c/c_string.c/c_range.c
// (container operation summaries) and class.c/keyvalue.c (instance-variable
// table). Heap-backed containers are ordinary Go values (the Go runtime
// supplies memory safety the original achieves by hand); each one still
// reserves and releases its byte footprint through the shared alloc.Pool so
// vm-id tagging and bulk task teardown behave exactly as specified.
package value

import "github.com/mrbcvm/mrbcvm/alloc"

// Tag identifies a Value's variant.
type Tag uint8

const (
	TagEmpty Tag = iota
	TagNil
	TagFalse
	TagTrue
	TagFixnum
	TagFloat
	TagSymbol
	TagClass
	TagObject
	TagProc
	TagArray
	TagString
	TagRange
	TagHash
	TagHandle
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "empty"
	case TagNil:
		return "nil"
	case TagFalse:
		return "false"
	case TagTrue:
		return "true"
	case TagFixnum:
		return "fixnum"
	case TagFloat:
		return "float"
	case TagSymbol:
		return "symbol"
	case TagClass:
		return "class"
	case TagObject:
		return "object"
	case TagProc:
		return "proc"
	case TagArray:
		return "array"
	case TagString:
		return "string"
	case TagRange:
		return "range"
	case TagHash:
		return "hash"
	case TagHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// IsHeap reports whether values of this tag carry a ref-counted allocation.
func (t Tag) IsHeap() bool {
	switch t {
	case TagObject, TagProc, TagArray, TagString, TagRange, TagHash:
		return true
	default:
		return false
	}
}

// Value is the unit of register contents, argument passing, and return
// values: a tag plus a small fixed payload, per spec.md §3.
type Value struct {
	Tag Tag
	i   int32
	f   float64
	sym SymbolID
	obj refCounted // non-nil only when Tag.IsHeap(); TagHandle uses hdl instead
	hdl interface{}
}

// refCounted is implemented by every heap-backed container type.
type refCounted interface {
	header() *RefHeader
	releaseChildren(h *Heap)
}

// RefHeader is the {ref_count, type_tag, vm_id} triple spec.md §3 places
// immediately before every heap allocation's body.
type RefHeader struct {
	RefCount uint16
	TypeTag  Tag
	VMID     uint8
	PoolRef  alloc.Ref
}

const maxRefCount = ^uint16(0)

func (h *RefHeader) dup() {
	if h.RefCount < maxRefCount {
		h.RefCount++
	}
}

// dec decrements and reports whether the count reached zero.
func (h *RefHeader) dec() bool {
	if h.RefCount == 0 {
		return true
	}
	h.RefCount--
	return h.RefCount == 0
}

// --- constructors for the non-heap variants ---

func Empty() Value { return Value{Tag: TagEmpty} }
func Nil() Value   { return Value{Tag: TagNil} }
func False() Value { return Value{Tag: TagFalse} }
func True() Value  { return Value{Tag: TagTrue} }

func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}

func Int(n int32) Value { return Value{Tag: TagFixnum, i: n} }
func Flt(f float64) Value { return Value{Tag: TagFloat, f: f} }
func SymVal(id SymbolID) Value { return Value{Tag: TagSymbol, sym: id} }

// Handle wraps a scheduler-internal opaque pointer. Handles are never
// ref-counted or released through the pool: they point at scheduler state,
// not VM heap memory.
func Handle(p interface{}) Value { return Value{Tag: TagHandle, hdl: p} }

func (v Value) IsNil() bool   { return v.Tag == TagNil }
func (v Value) IsFalsey() bool {
	return v.Tag == TagNil || v.Tag == TagFalse
}
func (v Value) IsTruthy() bool { return !v.IsFalsey() }

func (v Value) FixnumValue() int32   { return v.i }
func (v Value) FloatValue() float64  { return v.f }
func (v Value) SymbolValue() SymbolID { return v.sym }
func (v Value) HandleValue() interface{} { return v.hdl }

func fromObj(tag Tag, o refCounted) Value {
	return Value{Tag: tag, obj: o}
}

// Dup increments the reference count of a heap-backed Value. A no-op for
// non-heap variants.
func Dup(v Value) Value {
	if v.Tag.IsHeap() && v.obj != nil {
		v.obj.header().dup()
	}
	return v
}

// Release decrements the reference count of a heap-backed Value and, at
// zero, recursively releases its contents and returns the allocation to h's
// pool. A no-op for non-heap variants.
func Release(h *Heap, v Value) {
	if !v.Tag.IsHeap() || v.obj == nil {
		return
	}
	hdr := v.obj.header()
	if hdr.dec() {
		v.obj.releaseChildren(h)
		h.Pool.Free(hdr.PoolRef)
	}
}
