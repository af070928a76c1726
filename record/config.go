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

import "time"

// Config carries the writer's configurable knobs. Fields map directly
// onto the "recorder_config" attribute persisted alongside a stream.
type Config struct {
	// UserDefaultBuffer is the target buffer size used when the
	// stream's nominal rate is unknown (0).
	UserDefaultBuffer int
	// FlushInterval is the wall-clock flush period (default 1s).
	FlushInterval time.Duration
	// ImmediateFlush forces a target buffer size of 1 sample.
	ImmediateFlush bool
	// PullTimeout overrides the computed per-pull timeout when non-zero.
	PullTimeout time.Duration
	// MaxResolveAttempts bounds resolve-with-retry (default 3).
	MaxResolveAttempts int
	// ResolveTimeout is the per-attempt resolve_byprop timeout.
	ResolveTimeout time.Duration
}

// DefaultConfig returns the recorder's documented defaults.
func DefaultConfig() Config {
	return Config{
		UserDefaultBuffer:  100,
		FlushInterval:      time.Second,
		MaxResolveAttempts: 3,
		ResolveTimeout:     2 * time.Second,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDuration(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// targetBufferSamples computes B per the adaptive sizing policy: rate
// scaled to ~1 second of samples (clamped to [10,2000]) when the
// stream has a known nominal rate, the user default otherwise, or 1
// when immediate flushing is requested.
func targetBufferSamples(nominalRate float64, cfg Config) int {
	if cfg.ImmediateFlush {
		return 1
	}
	if nominalRate > 0 {
		return clampInt(int(nominalRate*1.0), 10, 2000)
	}
	if cfg.UserDefaultBuffer > 0 {
		return cfg.UserDefaultBuffer
	}
	return 100
}

// maxBufferSamples computes Bmax, the emergency flush bound.
func maxBufferSamples(target int) int {
	if target*10 > 1000 {
		return target * 10
	}
	return 1000
}

// pullTimeout computes the per-pull inlet timeout.
func pullTimeout(nominalRate float64, cfg Config) time.Duration {
	if cfg.PullTimeout > 0 {
		return cfg.PullTimeout
	}
	if nominalRate > 0 {
		return clampDuration(time.Duration(2.5/nominalRate*float64(time.Second)), 5*time.Millisecond, 100*time.Millisecond)
	}
	return 100 * time.Millisecond
}
