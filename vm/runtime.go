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
	"sort"

	"github.com/mrbcvm/mrbcvm/alloc"
	"github.com/mrbcvm/mrbcvm/internal/vmlog"
	"github.com/mrbcvm/mrbcvm/rite"
	"github.com/mrbcvm/mrbcvm/sched"
	"github.com/mrbcvm/mrbcvm/value"
)

// Runtime bundles everything a scheduler-multiplexed set of VMs shares: the
// heap, the scheduler, the host platform, and a vm-id-keyed index back to
// each VM instance so a built-in method — which only receives a vmID, per
// value.NativeFn's signature — can recover the calling scheduler task (e.g.
// for sleep_ms) without value importing sched or NativeFn's signature
// growing a parameter. This is the layering this interpreter uses in place
// of a global VM registry.
type Runtime struct {
	Heap     *value.Heap
	Sched    *sched.Scheduler
	Platform Platform
	Log      vmlog.Logger

	vms      map[uint8]*VM
	nextVMID uint8

	ObjectClass *value.Class
	FixnumClass *value.Class
	FloatClass  *value.Class
	StringClass *value.Class
	ArrayClass  *value.Class
	HashClass   *value.Class
	RangeClass  *value.Class
	SymbolClass *value.Class
	NilClass    *value.Class
	TrueClass   *value.Class
	FalseClass  *value.Class
	ProcClass   *value.Class
}

// NewRuntime wires a fresh Heap over pool, a fresh Scheduler, the given
// host Platform (may be nil for headless/test use), and the built-in class
// hierarchy and method table spec.md §6's embedder API expects to already
// exist at init time.
func NewRuntime(pool *alloc.Pool, platform Platform, log vmlog.Logger) *Runtime {
	if log == nil {
		log = vmlog.Discard()
	}
	rt := &Runtime{
		Heap:     value.NewHeap(pool),
		Platform: platform,
		Log:      log,
		vms:      make(map[uint8]*VM),
		nextVMID: 1, // 0 is reserved for rite.Parse's process-owned pool constants
	}
	rt.Sched = sched.New(log)
	rt.defineBuiltinClasses()
	rt.registerBuiltins()
	return rt
}

func (rt *Runtime) defineBuiltinClasses() {
	rt.ObjectClass = rt.Heap.Classes.Define("Object", nil)
	rt.FixnumClass = rt.Heap.Classes.Define("Fixnum", rt.ObjectClass)
	rt.FloatClass = rt.Heap.Classes.Define("Float", rt.ObjectClass)
	rt.StringClass = rt.Heap.Classes.Define("String", rt.ObjectClass)
	rt.ArrayClass = rt.Heap.Classes.Define("Array", rt.ObjectClass)
	rt.HashClass = rt.Heap.Classes.Define("Hash", rt.ObjectClass)
	rt.RangeClass = rt.Heap.Classes.Define("Range", rt.ObjectClass)
	rt.SymbolClass = rt.Heap.Classes.Define("Symbol", rt.ObjectClass)
	rt.NilClass = rt.Heap.Classes.Define("NilClass", rt.ObjectClass)
	rt.TrueClass = rt.Heap.Classes.Define("TrueClass", rt.ObjectClass)
	rt.FalseClass = rt.Heap.Classes.Define("FalseClass", rt.ObjectClass)
	rt.ProcClass = rt.Heap.Classes.Define("Proc", rt.ObjectClass)
}

// builtinClass maps a non-Instance tag to its built-in class, for method
// dispatch on Fixnum/String/Array/etc. receivers.
func (rt *Runtime) builtinClass(t value.Tag) *value.Class {
	switch t {
	case value.TagFixnum:
		return rt.FixnumClass
	case value.TagFloat:
		return rt.FloatClass
	case value.TagString:
		return rt.StringClass
	case value.TagArray:
		return rt.ArrayClass
	case value.TagHash:
		return rt.HashClass
	case value.TagRange:
		return rt.RangeClass
	case value.TagSymbol:
		return rt.SymbolClass
	case value.TagNil, value.TagEmpty:
		return rt.NilClass
	case value.TagTrue:
		return rt.TrueClass
	case value.TagFalse:
		return rt.FalseClass
	case value.TagProc:
		return rt.ProcClass
	default:
		return rt.ObjectClass
	}
}

// CreateTask parses bytecode into a root Irep, wraps it in a new VM tagged
// with a fresh vm-id, and registers it with the Scheduler in the Dormant
// state (spec.md §6's create_task).
func (rt *Runtime) CreateTask(bytecode []byte, priority uint8, timeslice int) (*sched.Task, error) {
	root, err := rite.Parse(rt.Heap, bytecode)
	if err != nil {
		return nil, err
	}
	vmID := rt.nextVMID
	rt.nextVMID++
	vmInst := NewVM(rt, vmID, root, rt.ObjectClass)
	t := rt.Sched.CreateTask(vmInst, priority, timeslice)
	rt.vms[vmID] = vmInst
	return t, nil
}

// StartTask moves t to Ready (spec.md §6's start_task).
func (rt *Runtime) StartTask(t *sched.Task) error { return rt.Sched.StartTask(t) }

// Run drives the scheduler to completion, consulting the host Platform's
// Idle hook when no task is Ready (spec.md §6's run()).
func (rt *Runtime) Run() {
	var idle func()
	if rt.Platform != nil {
		idle = rt.Platform.Idle
	}
	rt.Sched.Run(idle)
}

// DefineClass registers name with the given superclass (nil defaults to
// Object), per spec.md §6's embedder-facing define_class.
func (rt *Runtime) DefineClass(name string, super *value.Class) *value.Class {
	if super == nil {
		super = rt.ObjectClass
	}
	return rt.Heap.Classes.Define(name, super)
}

// DefineMethod installs a native method on class, per spec.md §6's
// define_method(class, name, native_fn).
func (rt *Runtime) DefineMethod(class *value.Class, name string, fn value.NativeFn) {
	rt.Heap.Classes.DefineMethod(class, name, fn)
}

// taskFor recovers the scheduler task currently driving vmID's VM, used by
// scheduler-facing built-ins (sleep_ms, suspend, ...) that only receive a
// vmID through value.NativeFn's signature.
func (rt *Runtime) taskFor(vmID uint8) *sched.Task {
	if v, ok := rt.vms[vmID]; ok {
		return v.task
	}
	return nil
}

// RegisterZero returns vmID's register 0 (self) as a borrowed value, for a
// host's introspection surface to render with value.Dump without taking on
// any refcount bookkeeping of its own.
func (rt *Runtime) RegisterZero(vmID uint8) value.Value {
	if v, ok := rt.vms[vmID]; ok {
		return v.reg(0)
	}
	return value.Nil()
}

// TaskInfo is a read-only snapshot of one task, for a host's introspection
// surface (cmd/mrbcvm's debug server) to render without reaching into
// scheduler/VM internals.
type TaskInfo struct {
	VMID          uint8
	CorrelationID string
	State         string
	Errno         string
}

// Tasks snapshots every task this Runtime has ever created, in vm-id order,
// for the debug server's task list and live state stream.
func (rt *Runtime) Tasks() []TaskInfo {
	ids := make([]uint8, 0, len(rt.vms))
	for vmID := range rt.vms {
		ids = append(ids, vmID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	infos := make([]TaskInfo, 0, len(ids))
	for _, vmID := range ids {
		v := rt.vms[vmID]
		info := TaskInfo{VMID: vmID, Errno: v.Errno().String()}
		if v.task != nil {
			info.CorrelationID = v.task.CorrelationID.String()
			info.State = v.task.State().String()
		}
		infos = append(infos, info)
	}
	return infos
}
