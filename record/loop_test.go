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

package record

import (
	"context"
	"testing"
	"time"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/lsl"
	"github.com/lslarchive/recorder/lsl/lsltest"
)

func scriptedSamples(n int, channels int) []lsl.Sample {
	samples := make([]lsl.Sample, n)
	for i := range samples {
		vals := make([]float32, channels)
		for c := range vals {
			vals[c] = float32(i*channels + c)
		}
		samples[i] = lsl.Sample{Float32: vals, Timestamp: float64(i) + 1}
	}
	return samples
}

func TestAcquisitionLoopRecordsAllSamples(t *testing.T) {
	script := &lsltest.Script{
		Info: lsl.StreamInfo{
			SourceID:      "eeg-01",
			StreamType:    "EEG",
			ChannelCount:  4,
			ChannelFormat: lsl.FormatFloat32,
			NominalSRate:  100,
		},
		Samples: scriptedSamples(20, 4),
	}
	source := lsltest.New(script)
	store, err := archive.OpenOrCreate(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	loop, err := Attach(context.Background(), store, source, "eeg-01", "eeg", Config{ImmediateFlush: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	loop.Recording.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	deadline := time.After(time.Second)
	for loop.SampleCount() < 20 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for all scripted samples to be pulled")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	loop.Quit.Store(true)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	dataArr, err := store.OpenArray("streams/eeg/data")
	if err != nil {
		t.Fatal(err)
	}
	if dataArr.Shape[1] != 20 {
		t.Fatalf("got %d samples persisted, want 20", dataArr.Shape[1])
	}
	raw, err := dataArr.ReadNumericAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 4*20*4 {
		t.Fatalf("got %d bytes, want %d", len(raw), 4*20*4)
	}
}

func TestResolveWithRetrySucceedsAfterFailures(t *testing.T) {
	script := &lsltest.Script{Info: lsl.StreamInfo{SourceID: "eeg-01"}}
	source := lsltest.New(script)
	source.FailFirstN = 2

	info, err := ResolveWithRetry(context.Background(), source, "eeg-01", Config{MaxResolveAttempts: 5, ResolveTimeout: time.Millisecond}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if info.SourceID != "eeg-01" {
		t.Fatalf("got %q, want eeg-01", info.SourceID)
	}
}

func TestResolveWithRetryExhaustsAttempts(t *testing.T) {
	source := lsltest.New()
	_, err := ResolveWithRetry(context.Background(), source, "missing", Config{MaxResolveAttempts: 2, ResolveTimeout: time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected StreamNotFoundError")
	}
	var notFound *StreamNotFoundError
	if !asStreamNotFound(err, &notFound) {
		t.Fatalf("got %v, want *StreamNotFoundError", err)
	}
}

func asStreamNotFound(err error, target **StreamNotFoundError) bool {
	for err != nil {
		if e, ok := err.(*StreamNotFoundError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
