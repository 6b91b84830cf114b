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

// Package vmlog is the contextual logger every mrbcvm package obtains its
// logger from, mirroring the teacher project's log package: a thin wrapper
// around log15 so call sites stay short (log.Error(msg, "k", v, ...))
// without every package importing log15 directly.
package vmlog

import (
	"os"

	"github.com/inconshreveable/log15"
)

// Logger is the interface every package depends on, so tests can substitute
// a discard logger without pulling in log15.
type Logger = log15.Logger

var root = log15.New()

func init() {
	root.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StreamHandler(os.Stderr, log15.TerminalFormat())))
}

// SetLevel adjusts the root handler's minimum level. Embedders running on a
// constrained target typically call this with LvlWarn or LvlCrit to avoid
// formatting cost for suppressed lines.
func SetLevel(lvl log15.Lvl) {
	root.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.TerminalFormat())))
}

// New returns a logger with the given context bound, the way core/state and
// probe/handler.go obtain loggers from the teacher's log package.
func New(ctx ...interface{}) Logger {
	return root.New(ctx...)
}

// Discard returns a logger that drops everything, for tests that don't want
// diagnostic noise on stderr.
func Discard() Logger {
	l := log15.New()
	l.SetHandler(log15.DiscardHandler())
	return l
}
