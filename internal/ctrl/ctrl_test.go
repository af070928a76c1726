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

package ctrl

import (
	"bytes"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestHandler() (*Handler, *atomic.Bool, *atomic.Bool, *bytes.Buffer) {
	var recording, quit atomic.Bool
	var out bytes.Buffer
	return NewHandler(&recording, &quit, &out), &recording, &quit, &out
}

func TestHandleStartSetsRecording(t *testing.T) {
	h, recording, _, out := newTestHandler()
	if q := h.Handle("START"); q {
		t.Error("START should not signal quit")
	}
	if !recording.Load() {
		t.Error("expected Recording to be true after START")
	}
	if !strings.Contains(out.String(), "STATUS STARTED") {
		t.Errorf("got %q, want a STATUS STARTED line", out.String())
	}
}

func TestHandleIsCaseInsensitive(t *testing.T) {
	h, recording, _, _ := newTestHandler()
	h.Handle("start")
	if !recording.Load() {
		t.Error("expected lowercase 'start' to be accepted")
	}
}

func TestHandleStopClearsRecording(t *testing.T) {
	h, recording, _, out := newTestHandler()
	recording.Store(true)
	h.Handle("STOP")
	if recording.Load() {
		t.Error("expected Recording to be false after STOP")
	}
	if !strings.Contains(out.String(), "STATUS STOPPED") {
		t.Errorf("got %q, want a STATUS STOPPED line", out.String())
	}
}

func TestHandleQuitReturnsTrueAndSetsFlag(t *testing.T) {
	h, _, quit, _ := newTestHandler()
	if q := h.Handle("QUIT"); !q {
		t.Error("expected Handle to report quit=true for QUIT")
	}
	if !quit.Load() {
		t.Error("expected Quit to be true after QUIT")
	}
}

func TestHandleUnknownCommandWritesError(t *testing.T) {
	h, recording, quit, out := newTestHandler()
	if q := h.Handle("BOGUS"); q {
		t.Error("unknown command should not signal quit")
	}
	if recording.Load() || quit.Load() {
		t.Error("unknown command should not change either flag")
	}
	if !strings.Contains(out.String(), "ERROR unknown command: BOGUS") {
		t.Errorf("got %q, want an ERROR line naming the bad command", out.String())
	}
}

func TestHandleStopAfterSchedulesTimer(t *testing.T) {
	h, recording, _, out := newTestHandler()
	recording.Store(true)
	h.Handle("STOP_AFTER 1")
	if !strings.Contains(out.String(), "WILL STOP AFTER 1s") {
		t.Errorf("got %q, want a WILL STOP AFTER line", out.String())
	}
	if !recording.Load() {
		t.Error("STOP_AFTER should not stop recording immediately")
	}

	deadline := time.After(2 * time.Second)
	for recording.Load() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the deferred STOP to fire")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	if !strings.Contains(out.String(), "STOPPED_BY_TIMER") {
		t.Errorf("got %q, want a STOPPED_BY_TIMER line", out.String())
	}
}

func TestHandleStopAfterInvalidDurationIsError(t *testing.T) {
	h, _, _, out := newTestHandler()
	h.Handle("STOP_AFTER not-a-number")
	if !strings.Contains(out.String(), "ERROR") {
		t.Errorf("got %q, want an ERROR line for a malformed STOP_AFTER", out.String())
	}
}

func TestHandleStopCancelsPendingTimer(t *testing.T) {
	h, recording, _, _ := newTestHandler()
	recording.Store(true)
	h.Handle("STOP_AFTER 1")
	h.Handle("STOP")
	if recording.Load() {
		t.Error("expected STOP to clear Recording immediately")
	}
	// Re-arm recording and wait past the original timer's deadline; if
	// STOP failed to cancel it, the stale timer would flip it back off.
	recording.Store(true)
	time.Sleep(1200 * time.Millisecond)
	if !recording.Load() {
		t.Error("a cancelled STOP_AFTER timer fired anyway")
	}
}

func TestRunStopsOnQuitLine(t *testing.T) {
	h, _, quit, _ := newTestHandler()
	in := strings.NewReader("START\nSTOP\nQUIT\n")
	if err := h.Run(in); err != nil {
		t.Fatal(err)
	}
	if !quit.Load() {
		t.Error("expected Quit to be set after Run processes a QUIT line")
	}
}

func TestRunReturnsNilOnPlainEOF(t *testing.T) {
	h, recording, _, _ := newTestHandler()
	in := strings.NewReader("START\n")
	if err := h.Run(in); err != nil {
		t.Fatal(err)
	}
	if !recording.Load() {
		t.Error("expected START to have been applied before EOF")
	}
}

func TestHandleNilOutDoesNotPanic(t *testing.T) {
	var recording, quit atomic.Bool
	h := NewHandler(&recording, &quit, nil)
	h.Handle("START")
	h.Handle("BOGUS")
}
