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

// Platform is the host abstraction spec.md §6 requires the core to consume:
// byte output and an idle hook. Tick delivery and the disable_irq/
// enable_irq critical section are realized by the sched package instead
// (sched.Scheduler.Tick, the semaphore-guarded critical section), since
// those are scheduler concerns, not per-VM ones.
type Platform interface {
	// Write emits buf to the stream identified by fd (1 is stdout, 2 is
	// stderr, matching the original's fd convention).
	Write(fd int, buf []byte) (int, error)
	// Flush flushes any buffering on fd.
	Flush(fd int) error
	// Idle is invoked by the scheduler's main loop when no task is Ready.
	Idle()
}
