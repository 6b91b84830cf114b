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
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"
)

// tomlSettings mirrors the teacher's cmd/gprobe/config.go: TOML keys use
// the same names as the Go struct fields, and an unrecognized field is a
// hard error rather than silently ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		id := fmt.Sprintf("%s.%s", rt.String(), field)
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// poolConfig sizes the TLSF pool a Runtime allocates its heap from.
type poolConfig struct {
	SizeBytes int // must fit alloc.NewPool's [minBlock, 1<<16-1] range
}

// schedulerConfig seeds every task this host creates with the same
// priority/timeslice defaults, and drives the host's tick source — the
// embedder-facing knobs spec.md §6 leaves to the host rather than the core.
type schedulerConfig struct {
	DefaultPriority  uint8
	DefaultTimeslice int
	TickIntervalMS   int
}

// debugConfig configures cmd/mrbcvm/debugserver.go's HTTP+WS introspection
// endpoint. Addr == "" disables the server entirely.
type debugConfig struct {
	Addr string
}

type mrbcvmConfig struct {
	Pool      poolConfig
	Scheduler schedulerConfig
	Debug     debugConfig
}

func defaultConfig() mrbcvmConfig {
	return mrbcvmConfig{
		Pool: poolConfig{SizeBytes: 32 * 1024},
		Scheduler: schedulerConfig{
			DefaultPriority:  10,
			DefaultTimeslice: 10,
			TickIntervalMS:   10,
		},
		Debug: debugConfig{Addr: ""},
	}
}

func loadConfig(file string, cfg *mrbcvmConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then overlays a TOML file named by
// --config if one was given, the way makeConfigNode layers gprobe's node
// config over its own defaults.
func makeConfig(ctx *cli.Context) mrbcvmConfig {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "mrbcvm: %v\n", err)
			os.Exit(1)
		}
	}
	return cfg
}

// dumpConfig is the dumpconfig command: print the effective configuration
// (defaults plus any --config overlay) as TOML, so an embedder can capture
// a starting point file.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	dest := os.Stdout
	if ctx.NArg() > 0 {
		dest, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer dest.Close()
	}
	_, err = dest.Write(out)
	return err
}
