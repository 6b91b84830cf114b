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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefineClassIsIdempotent(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)
	c1 := h.Classes.Define("Animal", object)
	c2 := h.Classes.Define("Animal", object)
	require.Same(t, c1, c2)
}

func TestFindMethodWalksSuperclassChain(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)
	animal := h.Classes.Define("Animal", object)
	dog := h.Classes.Define("Dog", animal)

	called := false
	h.Classes.DefineMethod(animal, "speak", func(h *Heap, vmID uint8, regs []Value, argc int) {
		called = true
		regs[0] = Int(1)
	})

	p := h.Classes.FindMethod(dog, h.Symbols.Intern("speak"))
	require.NotNil(t, p)

	regs := []Value{Nil()}
	p.Native(h, 1, regs, 0)
	require.True(t, called)
	require.Equal(t, int32(1), regs[0].FixnumValue())
}

func TestFindMethodMissingReturnsNil(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)
	require.Nil(t, h.Classes.FindMethod(object, h.Symbols.Intern("nonexistent")))
}

func TestDefineMethodOverridesWithoutDuplicatingChainEntry(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)

	h.Classes.DefineMethod(object, "greet", func(h *Heap, vmID uint8, regs []Value, argc int) {
		regs[0] = Int(1)
	})
	h.Classes.DefineMethod(object, "greet", func(h *Heap, vmID uint8, regs []Value, argc int) {
		regs[0] = Int(2)
	})

	sym := h.Symbols.Intern("greet")
	require.Equal(t, sym, findInChain(object.methods, sym).Sym)
	require.Nil(t, object.methods.Next)

	regs := []Value{Nil()}
	h.Classes.FindMethod(object, sym).Native(h, 1, regs, 0)
	require.Equal(t, int32(2), regs[0].FixnumValue())
}

func TestInstanceVariablesSortedAndBinarySearched(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)
	v, ok := NewInstance(h, 1, object)
	require.True(t, ok)
	inst := AsInstance(v)

	symC := h.Symbols.Intern("@c")
	symA := h.Symbols.Intern("@a")
	symB := h.Symbols.Intern("@b")

	inst.SetIVar(h, symC, Int(3))
	inst.SetIVar(h, symA, Int(1))
	inst.SetIVar(h, symB, Int(2))

	require.Equal(t, int32(1), inst.GetIVar(symA).FixnumValue())
	require.Equal(t, int32(2), inst.GetIVar(symB).FixnumValue())
	require.Equal(t, int32(3), inst.GetIVar(symC).FixnumValue())
	require.True(t, inst.GetIVar(h.Symbols.Intern("@missing")).IsNil())

	for i := 1; i < len(inst.ivars); i++ {
		require.Less(t, inst.ivars[i-1].sym, inst.ivars[i].sym)
	}

	Release(h, v)
}

func TestSetIVarOverwriteReleasesPreviousValue(t *testing.T) {
	h := newTestHeap(t)
	object := h.Classes.Define("Object", nil)
	v, _ := NewInstance(h, 1, object)
	inst := AsInstance(v)

	sym := h.Symbols.Intern("@name")
	s1, _ := NewString(h, 1, []byte("first"))
	inst.SetIVar(h, sym, s1)
	Release(h, s1) // the caller's own reference; inst.ivars still holds its Dup

	s2, _ := NewString(h, 1, []byte("second"))
	inst.SetIVar(h, sym, s2)
	Release(h, s2)

	require.Equal(t, "second", string(AsString(inst.GetIVar(sym)).Bytes()))

	Release(h, v)
}
