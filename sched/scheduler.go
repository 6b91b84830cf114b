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

package sched

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mrbcvm/mrbcvm/common"
	"github.com/mrbcvm/mrbcvm/internal/vmlog"
)

// DefaultTimeslice is the quantum, in ticks, a newly created task receives
// if it doesn't request its own.
const DefaultTimeslice = 10

// Scheduler holds the four task queues and the monotonic tick counter.
// Every queue edit is bracketed by a weight-1 semaphore acquire/release,
// standing in for the disable_irq/enable_irq critical section spec.md §5
// requires around shared scheduler state — the tick source (sched/tick.go)
// acquires the same semaphore before touching the running task's timeslice.
type Scheduler struct {
	tick uint64

	ready, waiting, suspended, dormant queue
	running                            *Task

	nextTaskID uint8
	sem        *semaphore.Weighted
	log        vmlog.Logger
}

// New creates an empty Scheduler.
func New(log vmlog.Logger) *Scheduler {
	if log == nil {
		log = vmlog.Discard()
	}
	return &Scheduler{sem: semaphore.NewWeighted(1), log: log}
}

func (s *Scheduler) critical(f func()) {
	_ = s.sem.Acquire(context.Background(), 1)
	defer s.sem.Release(1)
	f()
}

// CreateTask allocates a TCB in the Dormant state for r. timeslice <= 0
// uses DefaultTimeslice.
func (s *Scheduler) CreateTask(r Runnable, priority uint8, timeslice int) *Task {
	if timeslice <= 0 {
		timeslice = DefaultTimeslice
	}
	t := &Task{
		ID:            s.nextTaskID,
		CorrelationID: uuid.New(),
		Priority:      priority,
		Runnable:      r,
		state:         Dormant,
		timeslice:     timeslice,
	}
	s.nextTaskID++
	s.critical(func() { s.dormant.pushTail(t) })
	return t
}

// StartTask moves t from Dormant to Ready; legal only from Dormant
// (spec.md §4.4).
func (s *Scheduler) StartTask(t *Task) error {
	if t.state != Dormant {
		return common.ErrTaskNotDormant
	}
	s.critical(func() {
		s.dormant.remove(t)
		t.state = Ready
		t.remaining = t.timeslice
		s.ready.priorityInsert(t)
	})
	s.log.Debug("task started", "task", t.ID, "priority", t.Priority)
	return nil
}

// SleepMs moves the calling (Running) task t to Waiting with reason Sleep,
// waking at now + ms ticks (the scheduler treats one tick as one
// millisecond by convention; embedders configuring a different tick rate
// convert at the call site).
func (s *Scheduler) SleepMs(t *Task, ms uint64) {
	s.critical(func() {
		s.unqueue(t)
		t.state = Waiting
		t.waitReason = WaitSleep
		t.wakeupTick = s.tick + ms
		s.waiting.pushTail(t)
		if t == s.running {
			s.running = nil
		}
	})
}

// Suspend moves t to Suspended from any state it's currently queued in.
func (s *Scheduler) Suspend(t *Task) {
	s.critical(func() {
		s.unqueue(t)
		t.state = Suspended
		s.suspended.pushTail(t)
		if t == s.running {
			s.running = nil
		}
	})
}

// Resume moves a Suspended task back to Ready, raising preemption on the
// currently running task if any (spec.md §4.4).
func (s *Scheduler) Resume(t *Task) {
	s.critical(func() {
		if t.state != Suspended {
			return
		}
		s.suspended.remove(t)
		t.state = Ready
		t.remaining = t.timeslice
		s.ready.priorityInsert(t)
		if s.running != nil {
			s.running.preempt = true
		}
	})
}

// Relinquish is a cooperative yield: t (the Running task) goes to the tail
// of its own priority class in Ready without waiting for anything.
func (s *Scheduler) Relinquish(t *Task) {
	s.critical(func() {
		t.state = Ready
		t.remaining = t.timeslice
		s.ready.priorityInsert(t)
		if t == s.running {
			s.running = nil
		}
	})
}

// ChangePriority writes t's priority through and raises preemption, since a
// lower priority value may now outrank the currently running task.
func (s *Scheduler) ChangePriority(t *Task, p uint8) {
	s.critical(func() {
		t.Priority = p
		if t.state == Ready {
			s.ready.remove(t)
			s.ready.priorityInsert(t)
		}
		if s.running != nil {
			s.running.preempt = true
		}
	})
}

// unqueue removes t from whichever queue currently holds it. A Running
// task is in no queue and is left as it is; Ready, Waiting and Suspended
// tasks are unlinked from their own queue.
func (s *Scheduler) unqueue(t *Task) {
	switch t.state {
	case Ready:
		s.ready.remove(t)
	case Waiting:
		s.waiting.remove(t)
	case Suspended:
		s.suspended.remove(t)
	}
}

// Tick advances the monotonic counter, decrements the running task's
// remaining quantum (raising preemption at zero), and wakes any sleepers
// whose deadline has passed (spec.md §4.4).
func (s *Scheduler) Tick() {
	s.critical(func() {
		s.tick++
		if s.running != nil {
			s.running.remaining--
			if s.running.remaining <= 0 {
				s.running.preempt = true
			}
		}
		var woke []*Task
		for cur := s.waiting.head; cur != nil; {
			next := cur.next
			if cur.waitReason == WaitSleep && cur.wakeupTick <= s.tick {
				s.waiting.remove(cur)
				woke = append(woke, cur)
			}
			cur = next
		}
		for _, t := range woke {
			t.state = Ready
			t.remaining = t.timeslice
			t.waitReason = WaitNone
			s.ready.priorityInsert(t)
		}
		if len(woke) > 0 && s.running != nil {
			s.running.preempt = true
		}
	})
}

// RunOnce dequeues the head of Ready, runs it until it yields or halts, and
// returns the task that ran (nil if Ready was empty). A task that halts
// naturally (done=true from Step) is not re-queued.
func (s *Scheduler) RunOnce() *Task {
	var t *Task
	s.critical(func() {
		t = s.ready.popHead()
		if t == nil {
			return
		}
		t.state = Running
		t.preempt = false
		s.running = t
	})
	if t == nil {
		return nil
	}

	done, err := t.Runnable.Step(t)
	if err != nil {
		s.log.Error("task step failed", "task", t.ID, "err", err)
	}

	s.critical(func() {
		s.running = nil
		if done {
			t.state = Dormant
			return
		}
		switch t.state {
		case Running:
			t.state = Ready
			t.remaining = t.timeslice
			s.ready.priorityInsert(t)
		case Waiting, Suspended:
			// already queued by SleepMs/Suspend/Mutex.Lock
		}
	})
	return t
}

// Run drives RunOnce until no task is Ready, calling idle when the queue
// empties (spec.md §6's host-defined idle hook). idle may be nil.
func (s *Scheduler) Run(idle func()) {
	for {
		if t := s.RunOnce(); t != nil {
			continue
		}
		if idle == nil {
			return
		}
		idle()
		if s.ready.empty() {
			return
		}
	}
}
