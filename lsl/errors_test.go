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

package lsl

import (
	"errors"
	"strings"
	"testing"
)

func TestStreamNotFoundErrorMessage(t *testing.T) {
	err := &StreamNotFoundError{SourceID: "eeg-01", Attempts: 3}
	if !strings.Contains(err.Error(), "eeg-01") || !strings.Contains(err.Error(), "3") {
		t.Errorf("got %q, want it to mention the source_id and attempt count", err.Error())
	}
}

func TestInletOpenErrorUnwraps(t *testing.T) {
	inner := errors.New("device busy")
	err := &InletOpenError{SourceID: "eeg-01", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestInletInfoErrorUnwraps(t *testing.T) {
	inner := errors.New("timed out")
	err := &InletInfoError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestPostProcessingErrorUnwraps(t *testing.T) {
	inner := errors.New("unsupported option")
	err := &PostProcessingError{Err: inner}
	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}
