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

// Package ctrl implements the line-based interactive control protocol
// that gates a recording process's Recording/Quit flags: START, STOP,
// STOP_AFTER <seconds>, QUIT, with STATUS echoes on a writer.
package ctrl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Handler parses control lines and applies them directly to the
// Recording/Quit atomic flags an acquisition loop polls each
// iteration (e.g. record.AcquisitionLoop's Recording/Quit fields),
// writing STATUS/ERROR lines to Out. Operating on the loop's own
// flags rather than a separate copy avoids a second source of truth.
type Handler struct {
	Recording *atomic.Bool
	Quit      *atomic.Bool
	Out       io.Writer

	mu        sync.Mutex
	timer     *time.Timer
	timerSecs uint64
}

// NewHandler returns a Handler bound to recording/quit, echoing status
// lines to out.
func NewHandler(recording, quit *atomic.Bool, out io.Writer) *Handler {
	return &Handler{Recording: recording, Quit: quit, Out: out}
}

// Run reads newline-terminated commands from in until EOF or a QUIT
// command, applying each to the bound Recording/Quit flags.
func (h *Handler) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if h.Handle(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// Handle applies one command line and reports whether it was QUIT
// (the caller should stop reading further lines after this).
func (h *Handler) Handle(line string) (quit bool) {
	cmd := strings.ToUpper(strings.TrimSpace(line))
	switch {
	case cmd == "START":
		h.Recording.Store(true)
		h.status("STARTED")
	case cmd == "STOP":
		h.cancelTimer()
		h.Recording.Store(false)
		h.status("STOPPED")
	case strings.HasPrefix(cmd, "STOP_AFTER"):
		secsStr := strings.TrimSpace(strings.TrimPrefix(cmd, "STOP_AFTER"))
		secs, err := strconv.ParseUint(secsStr, 10, 64)
		if err != nil {
			h.errorf(line)
			return false
		}
		h.scheduleStop(secs)
		h.status(fmt.Sprintf("WILL STOP AFTER %ds", secs))
	case cmd == "QUIT":
		h.cancelTimer()
		h.Quit.Store(true)
		h.status("QUIT")
		return true
	default:
		h.errorf(line)
	}
	return false
}

// scheduleStop arms a one-shot deferred STOP, replacing any
// previously scheduled timer.
func (h *Handler) scheduleStop(secs uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timerSecs = secs
	h.timer = time.AfterFunc(time.Duration(secs)*time.Second, func() {
		h.Recording.Store(false)
		h.status(fmt.Sprintf("STOPPED_BY_TIMER (%ds)", secs))
	})
}

func (h *Handler) cancelTimer() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

func (h *Handler) status(msg string) {
	if h.Out == nil {
		return
	}
	fmt.Fprintf(h.Out, "STATUS %s\n", msg)
}

func (h *Handler) errorf(cmd string) {
	if h.Out == nil {
		return
	}
	fmt.Fprintf(h.Out, "ERROR unknown command: %s\n", cmd)
}
