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

// Package dummy is a synthetic lsl.Source for exercising the recording
// engine without real hardware or liblsl: one sine-wave-per-channel
// generator (linearly spaced frequencies across a range, as the
// Rust lsl-dummy-stream tool does), a ramp generator, and a constant
// string-marker generator, each paced to the stream's nominal rate.
package dummy

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lslarchive/recorder/lsl"
)

// Waveform selects the per-channel signal shape a Source generates.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveRamp
	WaveConstMarker
)

// Config describes one synthetic stream.
type Config struct {
	Name          string
	StreamType    string
	SourceID      string
	Channels      uint32
	SampleRate    float64
	ChannelFormat lsl.ChannelFormat
	Waveform      Waveform
	MinFreqHz     float64 // sine: lowest per-channel frequency
	MaxFreqHz     float64 // sine: highest per-channel frequency
	Markers       []string // const-marker: values cycled through in order
}

// frequencies linearly spaces one frequency per channel across
// [MinFreqHz, MaxFreqHz], matching the reference generator.
func (c Config) frequencies() []float64 {
	n := int(c.Channels)
	freqs := make([]float64, n)
	if n == 1 {
		freqs[0] = (c.MinFreqHz + c.MaxFreqHz) / 2
		return freqs
	}
	for i := 0; i < n; i++ {
		freqs[i] = c.MinFreqHz + (c.MaxFreqHz-c.MinFreqHz)*float64(i)/float64(n-1)
	}
	return freqs
}

// Source is a Resolver+Inlet-opener over a fixed set of configured
// synthetic streams, keyed by source_id.
type Source struct {
	mu      sync.Mutex
	streams map[string]Config
}

// New returns a Source exposing the given synthetic stream configs.
func New(configs ...Config) *Source {
	s := &Source{streams: make(map[string]Config)}
	for _, c := range configs {
		s.streams[c.SourceID] = c
	}
	return s
}

func (s *Source) ResolveByProp(ctx context.Context, property, value string, minimum int, timeout time.Duration) ([]lsl.StreamInfo, error) {
	if property != "source_id" {
		return nil, nil
	}
	s.mu.Lock()
	cfg, ok := s.streams[value]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return []lsl.StreamInfo{infoFromConfig(cfg)}, nil
}

// OpenInlet returns a freshly started generator for the stream bound
// to info.SourceID, satisfying lsl.Source.
func (s *Source) OpenInlet(info lsl.StreamInfo) (lsl.Inlet, error) {
	s.mu.Lock()
	cfg, ok := s.streams[info.SourceID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("dummy: no stream configured for source_id %q", info.SourceID)
	}
	return newInlet(cfg), nil
}

func infoFromConfig(c Config) lsl.StreamInfo {
	return lsl.StreamInfo{
		StreamType:    c.StreamType,
		SourceID:      c.SourceID,
		Hostname:      "localhost",
		ChannelCount:  c.Channels,
		NominalSRate:  c.SampleRate,
		ChannelFormat: c.ChannelFormat,
		CreatedAt:     0,
		UID:           c.SourceID,
		SessionID:     "",
		Version:       110,
		XMLDesc:       fmt.Sprintf("<info><name>%s</name><type>%s</type><desc></desc></info>", c.Name, c.StreamType),
	}
}

// inlet paces sample generation to the stream's nominal rate (or a
// fixed cadence for irregular-rate string-marker streams).
type inlet struct {
	cfg       Config
	freqs     []float64
	period    time.Duration
	start     time.Time
	nextIndex uint64
	markerIdx int
	mu        sync.Mutex
	closed    bool
}

func newInlet(cfg Config) *inlet {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 10 // irregular-rate streams still need a generation cadence
	}
	return &inlet{
		cfg:    cfg,
		freqs:  cfg.frequencies(),
		period: time.Duration(float64(time.Second) / rate),
		start:  time.Now(),
	}
}

func (in *inlet) Info(timeout time.Duration) (lsl.StreamInfo, error) {
	return infoFromConfig(in.cfg), nil
}

func (in *inlet) SetPostprocessing(opts ...lsl.ProcessingOption) error { return nil }

func (in *inlet) TimeCorrection(timeout time.Duration) (float64, error) { return 0, nil }

func (in *inlet) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	return nil
}

// PullSample blocks until the next sample is due (paced by the
// stream's nominal rate) or timeout elapses first, in which case it
// reports a timestamp of 0 (no sample within timeout).
func (in *inlet) PullSample(ctx context.Context, timeout time.Duration, into *lsl.Sample) error {
	in.mu.Lock()
	idx := in.nextIndex
	due := in.start.Add(time.Duration(idx) * in.period)
	in.mu.Unlock()

	wait := time.Until(due)
	if wait > timeout {
		time.Sleep(timeout)
		into.Timestamp = 0
		return nil
	}
	if wait > 0 {
		time.Sleep(wait)
	}

	t := float64(idx) / sampleRateOr(in.cfg.SampleRate, in.period)
	in.fill(into, t, idx)
	into.Timestamp = due.Sub(in.start).Seconds() + epochOffset(in.start)

	in.mu.Lock()
	in.nextIndex++
	in.mu.Unlock()
	return nil
}

func sampleRateOr(rate float64, period time.Duration) float64 {
	if rate > 0 {
		return rate
	}
	return float64(time.Second) / float64(period)
}

func epochOffset(start time.Time) float64 {
	return float64(start.UnixNano()) / 1e9
}

func (in *inlet) fill(into *lsl.Sample, t float64, idx uint64) {
	channels := int(in.cfg.Channels)
	switch in.cfg.Waveform {
	case WaveSine:
		switch in.cfg.ChannelFormat {
		case lsl.FormatInt16:
			into.Int16 = into.Int16[:channels]
			for c := 0; c < channels; c++ {
				into.Int16[c] = int16(math.Round(32767 * math.Sin(2*math.Pi*in.freqs[c]*t)))
			}
		default:
			into.Float32 = into.Float32[:channels]
			for c := 0; c < channels; c++ {
				into.Float32[c] = float32(math.Sin(2 * math.Pi * in.freqs[c] * t))
			}
		}
	case WaveRamp:
		into.Float32 = into.Float32[:channels]
		for c := 0; c < channels; c++ {
			into.Float32[c] = float32(t) * float32(c+1)
		}
	case WaveConstMarker:
		into.String = into.String[:channels]
		marker := ""
		if len(in.cfg.Markers) > 0 {
			marker = in.cfg.Markers[in.markerIdx%len(in.cfg.Markers)]
			in.markerIdx++
		}
		for c := 0; c < channels; c++ {
			into.String[c] = marker
		}
	}
}
