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
	"encoding/binary"
	"flag"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/urfave/cli.v1"

	"github.com/mrbcvm/mrbcvm/rite"
	"github.com/mrbcvm/mrbcvm/vm"
)

func putU16(buf []byte, v uint16) []byte { return append(buf, byte(v>>8), byte(v)) }
func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// recordFieldsAbsOffset is where an irep record's nlocals field lands in
// the full image, mirroring rite/load_test.go's buildImage: HeaderSize,
// plus "IREP"+sectionLen (8 bytes), plus the rite version tag "0000" (4
// bytes), plus the record-size field (4 bytes).
const recordFieldsAbsOffset = rite.HeaderSize + 8 + 4 + 4

// buildStopImage assembles the smallest valid RITE image: a one-instruction
// irep (OpSTOP, ABC form with a=b=c=0) and no pool/symbol/child data, the
// same construction rite/load_test.go's buildImage uses for its minimal
// case.
func buildStopImage(t *testing.T) []byte {
	t.Helper()
	var record []byte
	record = putU16(record, 1) // nlocals
	record = putU16(record, 1) // nregs
	record = putU16(record, 0) // rlen
	record = putU32(record, 1) // ilen
	for (recordFieldsAbsOffset+len(record))%4 != 0 {
		record = append(record, 0)
	}
	record = putU32(record, uint32(vm.OpSTOP))
	record = putU32(record, 0) // plen
	record = putU32(record, 0) // slen

	recordWithSize := putU32(nil, uint32(len(record)+4))
	recordWithSize = append(recordWithSize, record...)

	irepSectionBody := append([]byte("0000"), recordWithSize...)
	irepSection := append([]byte("IREP"), putU32(nil, uint32(8+len(irepSectionBody)))...)
	irepSection = append(irepSection, irepSectionBody...)

	endSection := append([]byte("END\x00"), putU32(nil, 8)...)

	header := []byte("RITE0004")
	header = putU16(header, 0)
	header = putU32(header, 0)
	header = append(header, []byte("MATZ0000")...)
	require.Len(t, header, rite.HeaderSize)

	img := append([]byte{}, header...)
	img = append(img, irepSection...)
	img = append(img, endSection...)
	return img
}

// newTestContext builds a cli.Context the way cli.App.Run would before
// invoking a command's Action, so a test can call an Action directly
// without going through the full argv parse/dispatch path. The returned
// context's parent carries app.Flags, so ctx.GlobalString resolves the
// same way it would inside a real run.
func newTestContext(t *testing.T, app *cli.App, localFlags []cli.Flag, args []string) *cli.Context {
	t.Helper()

	globalSet := flag.NewFlagSet("mrbcvm", flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(globalSet)
	}
	require.NoError(t, globalSet.Parse(nil))
	globalCtx := cli.NewContext(app, globalSet, nil)

	set := flag.NewFlagSet("mrbcvm", flag.ContinueOnError)
	for _, f := range localFlags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, globalCtx)
}

func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Flags = []cli.Flag{configFileFlag}
	return app
}

// TestRunActionHaltsCleanly drives the run command's Action over a minimal
// bytecode image and checks it returns with no error — the host's
// CreateTask/StartTask/Run wiring exercised end to end, the way les_test.go
// drives gprobe's RPC surface end to end rather than unit-testing it.
func TestRunActionHaltsCleanly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.mrb")
	require.NoError(t, os.WriteFile(path, buildStopImage(t), 0o644))

	app := newTestApp()
	ctx := newTestContext(t, app, runCommand.Flags, []string{path})

	require.NoError(t, runAction(ctx))
}

// TestStatsActionHaltsCleanly exercises the stats command's full path,
// including the allocator-statistics and register-zero dump output.
func TestStatsActionHaltsCleanly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.mrb")
	require.NoError(t, os.WriteFile(path, buildStopImage(t), 0o644))

	app := newTestApp()
	ctx := newTestContext(t, app, statsCommand.Flags, []string{path})

	require.NoError(t, statsAction(ctx))
}

// TestDumpConfigWritesTOML checks the dumpconfig command round-trips the
// defaults through naoina/toml without hitting tomlSettings.MissingField
// (which would fire on a struct-tag/field mismatch).
func TestDumpConfigWritesTOML(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mrbcvm.toml")

	app := newTestApp()
	ctx := newTestContext(t, app, nil, []string{out})
	require.NoError(t, dumpConfig(ctx))

	var cfg mrbcvmConfig
	require.NoError(t, loadConfig(out, &cfg))
	require.Equal(t, defaultConfig(), cfg)
}

// TestDebugServerTasksAndStats runs a tiny program to completion, then
// checks the debug HTTP endpoints built on top of its Runtime respond
// successfully, the way debugserver.go exposes them to a live host.
func TestDebugServerTasksAndStats(t *testing.T) {
	cfg := defaultConfig()
	rt, plat, stop, err := newRuntime(cfg)
	require.NoError(t, err)
	defer stop()

	task, err := rt.CreateTask(buildStopImage(t), cfg.Scheduler.DefaultPriority, cfg.Scheduler.DefaultTimeslice)
	require.NoError(t, err)
	require.NoError(t, rt.StartTask(task))
	rt.Run()
	plat.Flush(1)

	srv := newDebugServer(rt)
	ts := httptest.NewServer(srv.router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/tasks")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}
