// Copyright (C) 2026 The LSL Archive Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command replay re-emits a recorded stream. This binary prints each
// emitted sample as a line of NDJSON on stdout, with or without the
// lsl_native build tag; the lsl package binds only inlets, not
// outlets. replay.Run's Sink interface decouples emission from source,
// so a different Sink can be passed to replay.Run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/replay"
)

var (
	streamName string
	speed      float64
	loop       bool
	noLoop     bool
)

func init() {
	flag.StringVar(&streamName, "stream", "", "stream to replay")
	flag.Float64Var(&speed, "speed", 1.0, "playback speed multiplier (1.0 = real-time)")
	flag.BoolVar(&loop, "loop", false, "loop continuously instead of stopping after one pass")
	flag.BoolVar(&noLoop, "no-loop", false, "stop after one pass (overrides -loop)")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// stdoutSink prints each emitted sample as one line of NDJSON.
type stdoutSink struct{}

type sampleLine struct {
	Timestamp float64 `json:"timestamp"`
	Values    any     `json:"values"`
}

func (stdoutSink) print(values any, ts float64) error {
	return json.NewEncoder(os.Stdout).Encode(sampleLine{Timestamp: ts, Values: values})
}

func (s stdoutSink) PushFloat32(values []float32, ts float64) error { return s.print(values, ts) }
func (s stdoutSink) PushFloat64(values []float64, ts float64) error { return s.print(values, ts) }
func (s stdoutSink) PushInt32(values []int32, ts float64) error     { return s.print(values, ts) }
func (s stdoutSink) PushInt16(values []int16, ts float64) error     { return s.print(values, ts) }
func (s stdoutSink) PushInt8(values []int8, ts float64) error       { return s.print(values, ts) }
func (s stdoutSink) PushString(values []string, ts float64) error   { return s.print(values, ts) }

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 || streamName == "" {
		exitf("usage: replay -stream <name> [-speed <mult>] [-loop | -no-loop] <archive-dir>")
	}

	store, err := archive.OpenOrCreate(args[0])
	if err != nil {
		exitf("open archive: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := replay.Options{Stream: streamName, Speed: speed, Loop: loop && !noLoop}
	onLoop := func(s replay.Stat) {
		fmt.Fprintf(os.Stderr, "loop %d: %d samples in %s\n", s.LoopCount, s.SamplesSent, s.LoopDuration)
	}
	if err := replay.Run(ctx, store, opts, stdoutSink{}, onLoop); err != nil {
		exitf("replay: %s", err)
	}
}
