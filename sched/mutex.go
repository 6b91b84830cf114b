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

import "github.com/mrbcvm/mrbcvm/common"

// Mutex is {locked, owner} plus implicit access to its Scheduler's Waiting
// queue, per spec.md §4.4. It carries no wait list of its own: a blocked
// task is just another Waiting-queue entry tagged WaitMutex, found by
// Unlock's scan.
type Mutex struct {
	sched  *Scheduler
	locked bool
	owner  *Task
}

// NewMutex creates a Mutex whose blocked waiters queue on s.
func (s *Scheduler) NewMutex() *Mutex { return &Mutex{sched: s} }

// Lock acquires m for t if unlocked; if t already owns it, returns
// ErrRecursiveLock (mrbcvm mutexes are non-recursive); otherwise moves t to
// Waiting with reason Mutex and raises preemption — the caller must check
// t.State() after this call to know whether it actually blocked.
func (m *Mutex) Lock(t *Task) error {
	var err error
	m.sched.critical(func() {
		if !m.locked {
			m.locked = true
			m.owner = t
			return
		}
		if m.owner == t {
			err = common.ErrRecursiveLock
			return
		}
		m.sched.unqueue(t)
		t.state = Waiting
		t.waitReason = WaitMutex
		t.waitingOn = m
		m.sched.waiting.pushTail(t)
		t.preempt = true
		if t == m.sched.running {
			m.sched.running = nil
		}
	})
	return err
}

// TryLock acquires m without blocking, reporting success.
func (m *Mutex) TryLock(t *Task) bool {
	ok := false
	m.sched.critical(func() {
		if !m.locked {
			m.locked = true
			m.owner = t
			ok = true
		}
	})
	return ok
}

// Unlock releases m, rejecting the call if t does not hold the lock. If a
// task is waiting on m, ownership transfers to the first one (FIFO) and it
// is moved to Ready with preemption raised; otherwise m becomes unlocked.
func (m *Mutex) Unlock(t *Task) error {
	var err error
	m.sched.critical(func() {
		if !m.locked || m.owner != t {
			err = common.ErrMutexNotOwned
			return
		}
		next := m.sched.waiting.removeFirstMatch(func(c *Task) bool {
			return c.waitReason == WaitMutex && c.waitingOn == m
		})
		if next != nil {
			m.owner = next
			next.waitingOn = nil
			next.waitReason = WaitNone
			next.state = Ready
			next.remaining = next.timeslice
			m.sched.ready.priorityInsert(next)
			if m.sched.running != nil {
				m.sched.running.preempt = true
			}
			return
		}
		m.locked = false
		m.owner = nil
	})
	return err
}

// Locked reports whether m is currently held.
func (m *Mutex) Locked() bool { return m.locked }
