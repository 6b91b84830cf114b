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

// Command mrbcvm is the demo embedder host for the mrbcvm library: it
// loads a RITE bytecode image, runs it to completion on top of vm.Runtime,
// and optionally exposes a debug HTTP+WS introspection endpoint. It plays
// the role cmd/gprobe plays for the teacher project — a CLI around the
// library, not part of the library itself.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/urfave/cli.v1"

	"github.com/mrbcvm/mrbcvm/alloc"
	"github.com/mrbcvm/mrbcvm/internal/vmlog"
	"github.com/mrbcvm/mrbcvm/sched"
	"github.com/mrbcvm/mrbcvm/value"
	"github.com/mrbcvm/mrbcvm/vm"
)

var configFileFlag = cli.StringFlag{
	Name:  "config",
	Usage: "TOML configuration file",
}

var bytecodeFlag = cli.StringFlag{
	Name:  "bytecode",
	Usage: "path to a RITE bytecode image to load",
}

func main() {
	app := cli.NewApp()
	app.Name = "mrbcvm"
	app.Usage = "run and introspect mrbcvm bytecode images"
	app.Flags = []cli.Flag{configFileFlag}
	app.Commands = []cli.Command{
		runCommand,
		dumpConfigCommand,
		statsCommand,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "mrbcvm: %v\n", err)
		os.Exit(1)
	}
}

var runCommand = cli.Command{
	Name:      "run",
	Usage:     "load a bytecode image and run it to completion",
	ArgsUsage: "<bytecode-file>",
	Flags:     []cli.Flag{bytecodeFlag},
	Action:    runAction,
}

var dumpConfigCommand = cli.Command{
	Name:      "dumpconfig",
	Usage:     "show the effective configuration",
	ArgsUsage: "[outfile]",
	Action:    dumpConfig,
}

var statsCommand = cli.Command{
	Name:      "stats",
	Usage:     "run a bytecode image and print allocator/task statistics",
	ArgsUsage: "<bytecode-file>",
	Flags:     []cli.Flag{bytecodeFlag},
	Action:    statsAction,
}

// newRuntime builds a Runtime wired per cfg: a plain-buffer TLSF pool, the
// demo hostPlatform, and (if cfg.Debug.Addr is set) a debug HTTP+WS server
// started in its own goroutine.
func newRuntime(cfg mrbcvmConfig) (*vm.Runtime, *hostPlatform, func(), error) {
	buf := make([]byte, cfg.Pool.SizeBytes)
	pool, err := alloc.NewPool(buf)
	if err != nil {
		return nil, nil, nil, err
	}
	tickInterval := time.Duration(cfg.Scheduler.TickIntervalMS) * time.Millisecond
	plat := newHostPlatform(tickInterval / 4)
	log := vmlog.New("cmd", "mrbcvm")
	rt := vm.NewRuntime(pool, plat, log)

	ts := sched.StartTickSource(rt.Sched, tickInterval)
	stop := func() { ts.Stop() }

	if cfg.Debug.Addr != "" {
		srv := newDebugServer(rt)
		go func() {
			if err := http.ListenAndServe(cfg.Debug.Addr, srv.router()); err != nil {
				log.Error("debug server exited", "err", err)
			}
		}()
	}
	return rt, plat, stop, nil
}

func bytecodePath(ctx *cli.Context) (string, error) {
	if p := ctx.String(bytecodeFlag.Name); p != "" {
		return p, nil
	}
	if ctx.NArg() > 0 {
		return ctx.Args().Get(0), nil
	}
	return "", fmt.Errorf("no bytecode file given (pass it as an argument or with --bytecode)")
}

func runAction(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	path, err := bytecodePath(ctx)
	if err != nil {
		return err
	}
	bytecode, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rt, plat, stop, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer stop()

	task, err := rt.CreateTask(bytecode, cfg.Scheduler.DefaultPriority, cfg.Scheduler.DefaultTimeslice)
	if err != nil {
		return err
	}
	if err := rt.StartTask(task); err != nil {
		return err
	}

	rt.Run()
	plat.Flush(1)
	plat.Flush(2)
	return nil
}

func statsAction(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	path, err := bytecodePath(ctx)
	if err != nil {
		return err
	}
	bytecode, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rt, plat, stop, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer stop()

	task, err := rt.CreateTask(bytecode, cfg.Scheduler.DefaultPriority, cfg.Scheduler.DefaultTimeslice)
	if err != nil {
		return err
	}
	if err := rt.StartTask(task); err != nil {
		return err
	}
	rt.Run()
	plat.Flush(1)
	plat.Flush(2)

	fmt.Println("--- allocator ---")
	stats := rt.Heap.Pool.Stats()
	fmt.Printf("total=%d used=%d free=%d fragmented_blocks=%d\n",
		stats.TotalBytes, stats.UsedBytes, stats.FreeBytes, stats.FragmentedBlocks)
	for vmID, used := range stats.UsedBytesByVMID {
		fmt.Printf("  vm %d: %d bytes\n", vmID, used)
	}

	fmt.Println("--- tasks ---")
	for _, t := range rt.Tasks() {
		fmt.Printf("  vm %d: state=%s errno=%s correlation=%s\n", t.VMID, t.State, t.Errno, t.CorrelationID)
	}

	fmt.Println("--- self (register 0) ---")
	for _, t := range rt.Tasks() {
		self := rt.RegisterZero(t.VMID)
		fmt.Println(value.Dump(rt.Heap, self))
	}
	return nil
}
