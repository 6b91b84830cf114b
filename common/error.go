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

// Package common holds sentinel errors and small shared types used across
// API boundaries (loader, scheduler, allocator setup). These are ordinary Go
// errors returned by constructors and host-facing calls; they are distinct
// from the in-VM Errno domain codes used by opcode dispatch, which never
// unwind the call stack (see vm.Errno).
package common

import "errors"

var (
	// ErrPoolTooSmall is returned by alloc.NewPool when the supplied buffer
	// cannot hold even the smallest TLSF block header.
	ErrPoolTooSmall = errors.New("mrbcvm: memory pool too small")

	// ErrPoolTooLarge is returned when the supplied buffer exceeds the
	// addressable range of the configured memsize type (default uint16,
	// giving a 64KiB pool ceiling).
	ErrPoolTooLarge = errors.New("mrbcvm: memory pool exceeds memsize width")

	// ErrIndexOutOfBounds is returned by host-facing accessors; in-VM
	// container methods instead report E_INDEX through vm.Errno and leave
	// the receiver Value unchanged, per the non-throwing interpreter core.
	ErrIndexOutOfBounds = errors.New("mrbcvm: index out of bounds")

	// ErrTaskNotDormant is returned by Scheduler.StartTask when called on a
	// task that is not in the Dormant state.
	ErrTaskNotDormant = errors.New("mrbcvm: task is not dormant")

	// ErrRecursiveLock is returned by Mutex.Lock when the caller already
	// owns the mutex; mrbcvm mutexes are non-recursive.
	ErrRecursiveLock = errors.New("mrbcvm: mutex already locked by caller")

	// ErrMutexNotOwned is returned by Mutex.Unlock when the caller does not
	// hold the lock, or the mutex is not currently locked.
	ErrMutexNotOwned = errors.New("mrbcvm: mutex not locked by caller")

	// ErrBadImageHeader is returned by rite.Parse when the RITE file header
	// magic, version, or producer tag does not match.
	ErrBadImageHeader = errors.New("mrbcvm: bad RITE image header")

	// ErrImageTruncated is returned by rite.Parse when a section or irep
	// record runs past the end of the supplied image bytes.
	ErrImageTruncated = errors.New("mrbcvm: bytecode image truncated")
)
