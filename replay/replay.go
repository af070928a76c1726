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

// Package replay re-emits a recorded stream's samples at wall-clock
// pace, reconstructing the original inter-sample timing (optionally
// scaled by a speed factor) and optionally looping seamlessly.
package replay

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/lslarchive/recorder/archive"
)

// Sink receives emitted samples; cmd/replay binds this to a sink that
// prints NDJSON to stdout, tests bind it to a recording fake.
type Sink interface {
	PushFloat32(values []float32, timestamp float64) error
	PushFloat64(values []float64, timestamp float64) error
	PushInt32(values []int32, timestamp float64) error
	PushInt16(values []int16, timestamp float64) error
	PushInt8(values []int8, timestamp float64) error
	PushString(values []string, timestamp float64) error
}

// Options configures one replay run.
type Options struct {
	Stream string
	Speed  float64 // 1.0 = real-time; must be > 0
	Loop   bool
}

// Stat reports progress after each full pass.
type Stat struct {
	LoopCount    int
	SamplesSent  int
	LoopDuration time.Duration
}

// Run replays a stream from store through sink per opts, calling
// onLoop after every full pass over the data (including the last one
// before returning). It returns when ctx is cancelled or, for a
// non-looping run, once the single pass completes.
func Run(ctx context.Context, store *archive.Store, opts Options, sink Sink, onLoop func(Stat)) error {
	speed := opts.Speed
	if speed <= 0 {
		speed = 1.0
	}

	streamPath := path.Join("streams", opts.Stream)
	if !store.GroupExists(streamPath) {
		return fmt.Errorf("replay: stream %q not found", opts.Stream)
	}
	dataArr, err := store.OpenArray(path.Join(streamPath, "data"))
	if err != nil {
		return fmt.Errorf("replay: open data array: %w", err)
	}
	timeArr, err := store.OpenArray(path.Join(streamPath, "time"))
	if err != nil {
		return fmt.Errorf("replay: open time array: %w", err)
	}
	timestamps, err := timeArr.ReadFloat64All()
	if err != nil {
		return fmt.Errorf("replay: read time array: %w", err)
	}
	if len(timestamps) == 0 {
		return fmt.Errorf("replay: stream %q has no samples", opts.Stream)
	}

	emit, err := emitterFor(dataArr, sink)
	if err != nil {
		return err
	}

	loopCount := 0
	for {
		loopCount++
		loopStart := time.Now()
		sent := 0

		for i := 0; i < len(timestamps); i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err := emit(i, timestamps[i]); err != nil {
				return fmt.Errorf("replay: emit sample %d: %w", i, err)
			}
			sent++

			if i < len(timestamps)-1 {
				interval := (timestamps[i+1] - timestamps[i]) / speed
				if interval > 0 {
					sleepAccurate(time.Duration(interval * float64(time.Second)))
				}
			}
		}

		if onLoop != nil {
			onLoop(Stat{LoopCount: loopCount, SamplesSent: sent, LoopDuration: time.Since(loopStart)})
		}
		if !opts.Loop {
			return nil
		}
	}
}

// sleepAccurate mirrors the reference generator's hybrid strategy:
// thread sleep for intervals long enough that scheduler jitter is
// negligible, a tight spin for very short ones.
func sleepAccurate(d time.Duration) {
	if d > 100*time.Microsecond {
		time.Sleep(d)
		return
	}
	if d > 0 {
		target := time.Now().Add(d)
		for time.Now().Before(target) {
		}
	}
}

// emitterFor returns a closure that reads sample index i from dataArr
// and pushes it through sink, dispatching on the array's element kind.
func emitterFor(dataArr *archive.Array, sink Sink) (func(i int, ts float64) error, error) {
	channels := dataArr.Shape[0]
	switch dataArr.Kind {
	case archive.KindFloat32:
		return func(i int, ts float64) error {
			raw, err := dataArr.ReadNumericSubset(i, 1)
			if err != nil {
				return err
			}
			vals := decodeFloat32Row(raw, channels)
			return sink.PushFloat32(vals, ts)
		}, nil
	case archive.KindFloat64:
		return func(i int, ts float64) error {
			raw, err := dataArr.ReadNumericSubset(i, 1)
			if err != nil {
				return err
			}
			vals := decodeFloat64Row(raw, channels)
			return sink.PushFloat64(vals, ts)
		}, nil
	case archive.KindInt32:
		return func(i int, ts float64) error {
			raw, err := dataArr.ReadNumericSubset(i, 1)
			if err != nil {
				return err
			}
			return sink.PushInt32(decodeInt32Row(raw, channels), ts)
		}, nil
	case archive.KindInt16:
		return func(i int, ts float64) error {
			raw, err := dataArr.ReadNumericSubset(i, 1)
			if err != nil {
				return err
			}
			return sink.PushInt16(decodeInt16Row(raw, channels), ts)
		}, nil
	case archive.KindInt8:
		return func(i int, ts float64) error {
			raw, err := dataArr.ReadNumericSubset(i, 1)
			if err != nil {
				return err
			}
			return sink.PushInt8(decodeInt8Row(raw, channels), ts)
		}, nil
	case archive.KindString:
		return func(i int, ts float64) error {
			vals, err := dataArr.ReadStringSubset(i, 1)
			if err != nil {
				return err
			}
			return sink.PushString(vals, ts)
		}, nil
	default:
		return nil, fmt.Errorf("replay: unsupported element kind %v", dataArr.Kind)
	}
}
