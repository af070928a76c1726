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

import "fmt"

// StreamNotFoundError is returned when stream resolution exhausts its
// retry budget without discovering a matching stream.
type StreamNotFoundError struct {
	SourceID string
	Attempts int
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("lsl: no stream found with source_id=%q after %d attempts", e.SourceID, e.Attempts)
}

// InletOpenError wraps a failure to open an inlet for a resolved stream.
type InletOpenError struct {
	SourceID string
	Err      error
}

func (e *InletOpenError) Error() string {
	return fmt.Sprintf("lsl: failed to open inlet for %q: %v", e.SourceID, e.Err)
}

func (e *InletOpenError) Unwrap() error { return e.Err }

// InletInfoError wraps a failure to retrieve a StreamInfo from an open inlet.
type InletInfoError struct {
	Err error
}

func (e *InletInfoError) Error() string { return fmt.Sprintf("lsl: failed to read inlet info: %v", e.Err) }

func (e *InletInfoError) Unwrap() error { return e.Err }

// PostProcessingError wraps a failure to enable inlet post-processing options.
type PostProcessingError struct {
	Err error
}

func (e *PostProcessingError) Error() string {
	return fmt.Sprintf("lsl: failed to set inlet post-processing: %v", e.Err)
}

func (e *PostProcessingError) Unwrap() error { return e.Err }
