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

package main

import (
	"bufio"
	"os"
	"time"
)

// hostPlatform is the vm.Platform this demo binary hands to vm.NewRuntime:
// fd 1/2 go to the process's own stdout/stderr, and Idle backs off for a
// slice of the configured tick interval while every task is Waiting or
// Suspended, the way a bare-metal embedder's idle hook would enter a
// low-power wait instead of busy-spinning between ticks.
type hostPlatform struct {
	stdout      *bufio.Writer
	stderr      *bufio.Writer
	idleBackoff time.Duration
}

func newHostPlatform(idleBackoff time.Duration) *hostPlatform {
	return &hostPlatform{
		stdout:      bufio.NewWriter(os.Stdout),
		stderr:      bufio.NewWriter(os.Stderr),
		idleBackoff: idleBackoff,
	}
}

func (p *hostPlatform) Write(fd int, buf []byte) (int, error) {
	switch fd {
	case 2:
		return p.stderr.Write(buf)
	default:
		return p.stdout.Write(buf)
	}
}

func (p *hostPlatform) Flush(fd int) error {
	if fd == 2 {
		return p.stderr.Flush()
	}
	return p.stdout.Flush()
}

func (p *hostPlatform) Idle() {
	p.stdout.Flush()
	time.Sleep(p.idleBackoff)
}
