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

package replay

import (
	"context"
	"encoding/binary"
	"math"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/lslarchive/recorder/archive"
)

func encodeFloat32ChannelMajor(channels int, perChannel [][]float32) []byte {
	out := make([]byte, 0, channels*len(perChannel[0])*4)
	for c := 0; c < channels; c++ {
		for _, v := range perChannel[c] {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			out = append(out, b[:]...)
		}
	}
	return out
}

// buildFloat32Stream writes a channels x len(times) float32 stream
// where sample i on every channel equals times[i], so assertions can
// check pushed values against the timestamps they're paired with.
func buildFloat32Stream(t *testing.T, name string, channels int, times []float64) *archive.Store {
	t.Helper()
	store, err := archive.OpenOrCreate(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	groupPath := path.Join("streams", name)
	if err := store.EnsureGroup(groupPath); err != nil {
		t.Fatal(err)
	}
	n := len(times)
	perChannel := make([][]float32, channels)
	for c := range perChannel {
		perChannel[c] = make([]float32, n)
		for i, ts := range times {
			perChannel[c][i] = float32(ts)
		}
	}
	dataArr, err := store.CreateArray(path.Join(groupPath, "data"), archive.KindFloat32, []int{channels, 0}, []int{channels, 100}, []string{"channels", "samples"})
	if err != nil {
		t.Fatal(err)
	}
	if err := dataArr.WriteNumericSubset(0, n, encodeFloat32ChannelMajor(channels, perChannel)); err != nil {
		t.Fatal(err)
	}
	dataArr.SetShape([]int{channels, n})
	if err := dataArr.StoreMetadata(); err != nil {
		t.Fatal(err)
	}

	timeArr, err := store.CreateArray(path.Join(groupPath, "time"), archive.KindFloat64, []int{0}, []int{100}, []string{"samples"})
	if err != nil {
		t.Fatal(err)
	}
	if err := timeArr.WriteFloat64Subset(0, times); err != nil {
		t.Fatal(err)
	}
	timeArr.SetShape([]int{n})
	if err := timeArr.StoreMetadata(); err != nil {
		t.Fatal(err)
	}
	return store
}

// recordingSink is a fake Sink that records every pushed sample.
type recordingSink struct {
	mu         sync.Mutex
	float32Ts  []float64
	float32Val [][]float32
}

func (s *recordingSink) PushFloat32(values []float32, timestamp float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]float32(nil), values...)
	s.float32Val = append(s.float32Val, cp)
	s.float32Ts = append(s.float32Ts, timestamp)
	return nil
}
func (s *recordingSink) PushFloat64(values []float64, timestamp float64) error { return nil }
func (s *recordingSink) PushInt32(values []int32, timestamp float64) error     { return nil }
func (s *recordingSink) PushInt16(values []int16, timestamp float64) error     { return nil }
func (s *recordingSink) PushInt8(values []int8, timestamp float64) error       { return nil }
func (s *recordingSink) PushString(values []string, timestamp float64) error   { return nil }

func (s *recordingSink) snapshot() ([]float64, [][]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.float32Ts...), append([][]float32(nil), s.float32Val...)
}

func TestRunEmitsEverySampleOnce(t *testing.T) {
	store := buildFloat32Stream(t, "eeg", 2, []float64{0, 0.001, 0.002})
	sink := &recordingSink{}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Run(ctx, store, Options{Stream: "eeg", Speed: 1000}, sink, nil); err != nil {
		t.Fatal(err)
	}
	ts, vals := sink.snapshot()
	if len(ts) != 3 {
		t.Fatalf("got %d samples pushed, want 3", len(ts))
	}
	for i, want := range []float64{0, 0.001, 0.002} {
		if ts[i] != want {
			t.Errorf("ts[%d] = %v, want %v", i, ts[i], want)
		}
		if vals[i][0] != float32(want) || vals[i][1] != float32(want) {
			t.Errorf("vals[%d] = %v, want both channels = %v", i, vals[i], want)
		}
	}
}

func TestRunCallsOnLoopAfterEachPass(t *testing.T) {
	store := buildFloat32Stream(t, "eeg", 1, []float64{0, 0.001})
	sink := &recordingSink{}

	var loops []Stat
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err := Run(ctx, store, Options{Stream: "eeg", Speed: 1000, Loop: true}, sink, func(s Stat) {
		loops = append(loops, s)
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("got %v, want context.DeadlineExceeded from a looping run", err)
	}
	if len(loops) == 0 {
		t.Fatal("expected onLoop to be called at least once before the deadline")
	}
	for i, s := range loops {
		if s.SamplesSent != 2 {
			t.Errorf("loop %d: SamplesSent = %d, want 2", i, s.SamplesSent)
		}
		if s.LoopCount != i+1 {
			t.Errorf("loop %d: LoopCount = %d, want %d", i, s.LoopCount, i+1)
		}
	}
}

func TestRunUnknownStreamErrors(t *testing.T) {
	store := buildFloat32Stream(t, "eeg", 1, []float64{0})
	sink := &recordingSink{}
	err := Run(context.Background(), store, Options{Stream: "missing", Speed: 1}, sink, nil)
	if err == nil {
		t.Fatal("expected an error for a nonexistent stream")
	}
}

func TestRunEmptyStreamErrors(t *testing.T) {
	store := buildFloat32Stream(t, "eeg", 1, nil)
	sink := &recordingSink{}
	err := Run(context.Background(), store, Options{Stream: "eeg", Speed: 1}, sink, nil)
	if err == nil {
		t.Fatal("expected an error for a stream with no samples")
	}
}

func TestRunNonPositiveSpeedDefaultsToRealTime(t *testing.T) {
	store := buildFloat32Stream(t, "eeg", 1, []float64{0, 0.001})
	sink := &recordingSink{}
	if err := Run(context.Background(), store, Options{Stream: "eeg", Speed: -1}, sink, nil); err != nil {
		t.Fatal(err)
	}
	ts, _ := sink.snapshot()
	if len(ts) != 2 {
		t.Fatalf("got %d samples, want 2", len(ts))
	}
}

func TestDecodeFloat32RowRoundTrip(t *testing.T) {
	raw := encodeFloat32ChannelMajor(3, [][]float32{{1}, {2}, {3}})
	got := decodeFloat32Row(raw, 3)
	want := []float32{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
