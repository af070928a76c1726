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
	"testing"
	"time"
)

func TestTargetBufferSamplesImmediateFlush(t *testing.T) {
	if got := targetBufferSamples(250, Config{ImmediateFlush: true}); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestTargetBufferSamplesClampsToRange(t *testing.T) {
	if got := targetBufferSamples(1, Config{}); got != 10 {
		t.Errorf("low rate: got %d, want 10 (clamp floor)", got)
	}
	if got := targetBufferSamples(5000, Config{}); got != 2000 {
		t.Errorf("high rate: got %d, want 2000 (clamp ceiling)", got)
	}
	if got := targetBufferSamples(250, Config{}); got != 250 {
		t.Errorf("got %d, want 250", got)
	}
}

func TestTargetBufferSamplesIrregularRateFallsBackToUserDefault(t *testing.T) {
	if got := targetBufferSamples(0, Config{UserDefaultBuffer: 64}); got != 64 {
		t.Errorf("got %d, want 64", got)
	}
	if got := targetBufferSamples(0, Config{}); got != 100 {
		t.Errorf("got %d, want 100 (documented default)", got)
	}
}

func TestMaxBufferSamples(t *testing.T) {
	if got := maxBufferSamples(10); got != 1000 {
		t.Errorf("got %d, want 1000 (floor)", got)
	}
	if got := maxBufferSamples(500); got != 5000 {
		t.Errorf("got %d, want 5000 (10x target)", got)
	}
}

func TestPullTimeoutOverride(t *testing.T) {
	if got := pullTimeout(250, Config{PullTimeout: 30 * time.Millisecond}); got != 30*time.Millisecond {
		t.Errorf("got %v, want override", got)
	}
}

func TestPullTimeoutClampsByRate(t *testing.T) {
	if got := pullTimeout(10000, Config{}); got != 5*time.Millisecond {
		t.Errorf("fast stream: got %v, want 5ms floor", got)
	}
	if got := pullTimeout(1, Config{}); got != 100*time.Millisecond {
		t.Errorf("slow stream: got %v, want 100ms ceiling", got)
	}
	if got := pullTimeout(0, Config{}); got != 100*time.Millisecond {
		t.Errorf("irregular stream: got %v, want 100ms", got)
	}
}
