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

import "time"

// TickSource drives Scheduler.Tick from a host timer. Each tick advances the
// counter, sets preemption flags, and moves sleepers whose deadline has
// passed from Waiting to Ready. On a hosted build (cmd/mrbcvm) that's a
// time.Ticker goroutine; a bare-metal embedder instead calls Scheduler.Tick
// directly from its own timer ISR and never constructs a TickSource.
type TickSource struct {
	ticker *time.Ticker
	stop   chan struct{}
}

// StartTickSource starts calling s.Tick() every interval in its own
// goroutine. Tick's internal semaphore acquire is what keeps this goroutine
// from racing the cooperative main loop over queue edits — the same
// critical section spec.md §6 attributes to disable_irq/enable_irq.
func StartTickSource(s *Scheduler, interval time.Duration) *TickSource {
	ts := &TickSource{ticker: time.NewTicker(interval), stop: make(chan struct{})}
	go func() {
		for {
			select {
			case <-ts.ticker.C:
				s.Tick()
			case <-ts.stop:
				return
			}
		}
	}()
	return ts
}

// Stop halts the tick goroutine.
func (ts *TickSource) Stop() {
	ts.ticker.Stop()
	close(ts.stop)
}
