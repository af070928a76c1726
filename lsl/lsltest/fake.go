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

// Package lsltest provides a synthetic Resolver/Inlet pair for testing
// the recording engine without a real streaming fabric. It plays back a
// fixed, pre-recorded sequence of samples rather than generating live
// signal data (that is the job of the out-of-scope dummy-signal
// generator).
package lsltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lslarchive/recorder/lsl"
)

// Script is a scripted stream: a descriptor plus the exact sequence of
// samples an Inlet opened against it will deliver.
type Script struct {
	Info    lsl.StreamInfo
	Samples []lsl.Sample // Timestamp==0 samples are treated as pull timeouts
	Offset  float64      // value returned from TimeCorrection
}

// Resolver resolves a fixed set of scripted streams by source_id.
type Resolver struct {
	mu      sync.Mutex
	Scripts map[string]*Script

	// FailFirstN, when > 0, makes the first N ResolveByProp calls for
	// any source_id return zero streams, to exercise retry logic.
	FailFirstN int
	calls      int
}

func New(scripts ...*Script) *Resolver {
	r := &Resolver{Scripts: make(map[string]*Script)}
	for _, s := range scripts {
		r.Scripts[s.Info.SourceID] = s
	}
	return r
}

func (r *Resolver) ResolveByProp(ctx context.Context, property, value string, minimum int, timeout time.Duration) ([]lsl.StreamInfo, error) {
	r.mu.Lock()
	r.calls++
	attempt := r.calls
	r.mu.Unlock()

	if property != "source_id" {
		return nil, nil
	}
	if attempt <= r.FailFirstN {
		return nil, nil
	}
	s, ok := r.Scripts[value]
	if !ok {
		return nil, nil
	}
	return []lsl.StreamInfo{s.Info}, nil
}

// Inlet replays a Script's samples in order, one per PullSample call.
type Inlet struct {
	mu     sync.Mutex
	script *Script
	pos    int
	closed bool
}

// OpenInlet returns an Inlet bound to the script registered under
// info.SourceID, satisfying lsl.Source.
func (r *Resolver) OpenInlet(info lsl.StreamInfo) (lsl.Inlet, error) {
	r.mu.Lock()
	s := r.Scripts[info.SourceID]
	r.mu.Unlock()
	if s == nil {
		return nil, fmt.Errorf("lsltest: no script registered for source_id %q", info.SourceID)
	}
	return &Inlet{script: s}, nil
}

func (in *Inlet) Info(timeout time.Duration) (lsl.StreamInfo, error) {
	return in.script.Info, nil
}

func (in *Inlet) SetPostprocessing(opts ...lsl.ProcessingOption) error { return nil }

func (in *Inlet) PullSample(ctx context.Context, timeout time.Duration, into *lsl.Sample) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed || in.pos >= len(in.script.Samples) {
		into.Timestamp = 0
		return nil
	}
	s := in.script.Samples[in.pos]
	in.pos++
	*into = s
	return nil
}

func (in *Inlet) TimeCorrection(timeout time.Duration) (float64, error) {
	return in.script.Offset, nil
}

func (in *Inlet) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	return nil
}
