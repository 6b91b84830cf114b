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

package value

import "sort"

// NativeFn is a built-in method: it receives the register window
// [recv, arg1, ..., argN, block?] and writes its result into regs[0], per
// spec.md §6's define_method(class, name, native_fn) contract.
type NativeFn func(h *Heap, vmID uint8, regs []Value, argc int)

// Proc is a method or block: either native (Native != nil) or bytecode
// (IrepRef holds an opaque *rite.Irep, set by the vm package — value
// doesn't depend on rite to avoid an import cycle, mirroring
// mrbc_rproc_alloc's name-tagged, singly-linked-chain shape in value.c).
type Proc struct {
	hdr     RefHeader
	Sym     SymbolID
	Native  NativeFn
	IrepRef interface{}
	Next    *Proc // class-owned method chain, singly linked per spec.md §3
}

func (p *Proc) header() *RefHeader    { return &p.hdr }
func (p *Proc) releaseChildren(*Heap) {}

// NewProc allocates a bytecode or native Proc tagged to vmID.
func NewProc(h *Heap, vmID uint8, sym SymbolID) (Value, bool) {
	hdr, ok := allocHeader(h, vmID, TagProc, 0)
	if !ok {
		return Value{}, false
	}
	return fromObj(TagProc, &Proc{hdr: hdr, Sym: sym}), true
}

func AsProc(v Value) *Proc { return v.obj.(*Proc) }

// Class is a class object: process-owned (vm_id 0), with a name, an
// optional superclass, and a singly linked method chain it exclusively
// owns.
type Class struct {
	hdr     RefHeader
	Sym     SymbolID
	Super   *Class
	methods *Proc
}

func (c *Class) header() *RefHeader { return &c.hdr }
func (c *Class) releaseChildren(*Heap) {}

// Name returns the class's interned name.
func (c *Class) Name(h *Heap) string { return h.Symbols.Name(c.Sym) }

// SuperOf returns c's superclass, or nil for a root class.
func (c *Class) SuperOf() *Class { return c.Super }

// ClassVal wraps c as a Value. Safe to call freely: TagClass is excluded
// from Tag.IsHeap(), so Dup/Release never touch c's header — classes are
// process-wide singletons, never individually freed.
func ClassVal(c *Class) Value { return fromObj(TagClass, c) }

// AsClass unwraps a TagClass Value.
func AsClass(v Value) *Class { return v.obj.(*Class) }

// ClassRegistry is the process-wide, symbol-keyed class table (spec.md §3).
// Registered once during init or OP_METHOD execution; after the
// registration phase it is read-mostly from concurrent tasks' perspective
// (spec.md §9).
type ClassRegistry struct {
	heap    *Heap
	classes map[SymbolID]*Class
}

func newClassRegistry(h *Heap) *ClassRegistry {
	return &ClassRegistry{heap: h, classes: make(map[SymbolID]*Class)}
}

// Define registers a new class named name with the given superclass (nil
// for a root class), or returns the existing class if already registered.
func (r *ClassRegistry) Define(name string, super *Class) *Class {
	sym := r.heap.Symbols.Intern(name)
	if c, ok := r.classes[sym]; ok {
		return c
	}
	c := &Class{hdr: RefHeader{RefCount: 1, TypeTag: TagClass, VMID: 0}, Sym: sym, Super: super}
	r.classes[sym] = c
	return c
}

// Lookup returns the class registered under name, or nil.
func (r *ClassRegistry) Lookup(name string) *Class {
	sym, ok := r.heap.Symbols.tryIntern(name)
	if !ok {
		return nil
	}
	return r.classes[sym]
}

// LookupSym returns the class registered under the already-interned symbol
// sym, or nil. Used by OP_CLASS, which addresses the name through the
// irep's local symbol table rather than a string.
func (r *ClassRegistry) LookupSym(sym SymbolID) *Class { return r.classes[sym] }

// DefineSym is Define's SymbolID-addressed counterpart, used by OP_CLASS.
func (r *ClassRegistry) DefineSym(sym SymbolID, super *Class) *Class {
	if c, ok := r.classes[sym]; ok {
		return c
	}
	c := &Class{hdr: RefHeader{RefCount: 1, TypeTag: TagClass, VMID: 0}, Sym: sym, Super: super}
	r.classes[sym] = c
	return c
}

// DefineMethod appends a native method to class's method chain. Redefining
// an existing name replaces its Native/IrepRef in place, keeping chain
// order stable (new methods still append to the tail, matching the
// original's simple prepend-free registration during OP_METHOD).
func (r *ClassRegistry) DefineMethod(class *Class, name string, fn NativeFn) {
	sym := r.heap.Symbols.Intern(name)
	if p := findInChain(class.methods, sym); p != nil {
		p.Native = fn
		p.IrepRef = nil
		return
	}
	p := &Proc{hdr: RefHeader{RefCount: 1, TypeTag: TagProc, VMID: 0}, Sym: sym, Native: fn}
	class.methods = appendChain(class.methods, p)
}

// DefineBytecodeMethod is OP_METHOD's entry point: it installs irepRef
// (an opaque *rite.Irep) as sym's implementation on class.
func (r *ClassRegistry) DefineBytecodeMethod(class *Class, sym SymbolID, irepRef interface{}) {
	if p := findInChain(class.methods, sym); p != nil {
		p.Native = nil
		p.IrepRef = irepRef
		return
	}
	p := &Proc{hdr: RefHeader{RefCount: 1, TypeTag: TagProc, VMID: 0}, Sym: sym, IrepRef: irepRef}
	class.methods = appendChain(class.methods, p)
}

func findInChain(head *Proc, sym SymbolID) *Proc {
	for p := head; p != nil; p = p.Next {
		if p.Sym == sym {
			return p
		}
	}
	return nil
}

func appendChain(head, p *Proc) *Proc {
	if head == nil {
		return p
	}
	cur := head
	for cur.Next != nil {
		cur = cur.Next
	}
	cur.Next = p
	return head
}

// FindMethod walks class's superclass chain looking up sym, per spec.md
// §4.3's SEND/SENDB dispatch.
func (r *ClassRegistry) FindMethod(class *Class, sym SymbolID) *Proc {
	for c := class; c != nil; c = c.Super {
		if p := findInChain(c.methods, sym); p != nil {
			return p
		}
	}
	return nil
}

// tryIntern looks a name up without creating a new symbol, used by
// ClassRegistry.Lookup so probing for an undefined class name doesn't
// pollute the symbol table — mirrored from symbol.c's find-before-create
// discipline.
func (t *SymbolTable) tryIntern(name string) (SymbolID, bool) {
	id := t.find(name)
	return id, id != NoSymbol
}

// ivarEntry is one binding in an Instance's sorted instance-variable table.
type ivarEntry struct {
	sym SymbolID
	val Value
}

// Instance is a user object: a class pointer plus its own sorted,
// binary-searched instance-variable table (spec.md §4.2), which it
// exclusively owns.
type Instance struct {
	hdr   RefHeader
	Class *Class
	ivars []ivarEntry
}

func (o *Instance) header() *RefHeader { return &o.hdr }

func (o *Instance) releaseChildren(h *Heap) {
	for _, e := range o.ivars {
		Release(h, e.val)
	}
	o.ivars = nil
}

// NewInstance allocates an instance of class, tagged to vmID.
func NewInstance(h *Heap, vmID uint8, class *Class) (Value, bool) {
	hdr, ok := allocHeader(h, vmID, TagObject, 0)
	if !ok {
		return Value{}, false
	}
	return fromObj(TagObject, &Instance{hdr: hdr, Class: class}), true
}

func AsInstance(v Value) *Instance { return v.obj.(*Instance) }

func (o *Instance) search(sym SymbolID) int {
	return sort.Search(len(o.ivars), func(i int) bool { return o.ivars[i].sym >= sym })
}

// GetIVar returns a borrowed reference (per spec.md §4.2 — the caller must
// Dup it before storing it anywhere beyond the current operation).
func (o *Instance) GetIVar(sym SymbolID) Value {
	i := o.search(sym)
	if i < len(o.ivars) && o.ivars[i].sym == sym {
		return o.ivars[i].val
	}
	return Nil()
}

// SetIVar takes ownership of (Dups) val and stores it under sym,
// overwriting and releasing any previous binding.
func (o *Instance) SetIVar(h *Heap, sym SymbolID, val Value) {
	i := o.search(sym)
	if i < len(o.ivars) && o.ivars[i].sym == sym {
		Release(h, o.ivars[i].val)
		o.ivars[i].val = Dup(val)
		return
	}
	o.ivars = append(o.ivars, ivarEntry{})
	copy(o.ivars[i+1:], o.ivars[i:])
	o.ivars[i] = ivarEntry{sym: sym, val: Dup(val)}
}
