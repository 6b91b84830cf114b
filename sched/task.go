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

// Package sched implements the cooperative, priority-ordered task scheduler
// described in spec.md §4.4: four task queues, tick-driven timeslice
// preemption, sleep/suspend/resume/relinquish, and a mutex with a FIFO wait
// queue.
//
// Grounded on spec.md §4.4/§5 (queue shape, preemption contract, ordering
// guarantees); the intrusive singly-linked-list queue style mirrors
// alloc.Pool's own free-list bookkeeping, kept consistent across the two
// subsystems that share the "no dynamic allocation for bookkeeping structures"
// embedded-systems discipline the original targets.
package sched

import "github.com/google/uuid"

// State is one of the five states spec.md §4.4 requires every Task to be in.
type State uint8

const (
	Dormant State = iota
	Ready
	Running
	Waiting
	Suspended
)

func (s State) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// WaitReason distinguishes the two ways a task can be Waiting: asleep until
// a tick deadline, or blocked acquiring an already-held Mutex.
type WaitReason uint8

const (
	WaitNone WaitReason = iota
	WaitSleep
	WaitMutex
)

// Runnable is the interpreter side of the scheduler/VM contract (spec.md
// §4.4: "the interpreter loop tests the preemption flag after every
// opcode"). Step must run until the task's Preempt flag is observed set, or
// until the task calls back into the Scheduler to sleep/suspend/relinquish/
// block on a mutex, or until the program halts naturally (done=true).
type Runnable interface {
	Step(t *Task) (done bool, err error)
}

// Task is a TCB: the scheduler's view of one VM instance. All fields are
// scheduler-owned; embedders reach a task's VM only through Runnable.
type Task struct {
	ID            uint8
	CorrelationID uuid.UUID
	Priority      uint8 // ascending value = higher effective priority
	Runnable      Runnable

	state      State
	waitReason WaitReason
	wakeupTick uint64
	waitingOn  *Mutex

	timeslice int // quantum length, ticks
	remaining int // ticks left in the current quantum
	preempt   bool

	next *Task // intrusive singly-linked queue pointer; nil when not queued
}

// State returns the task's current scheduler state.
func (t *Task) State() State { return t.state }

// ShouldYield reports whether Runnable.Step must return control to the
// scheduler now (spec.md §4.4: "opcode execution is atomic with respect to
// ticks" — the interpreter checks this only between opcodes).
func (t *Task) ShouldYield() bool { return t.preempt }
