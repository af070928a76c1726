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

import "fmt"

// FlushError wraps a shape-set or subset-write failure. It is fatal to
// the writer: the acquisition loop surfaces it and terminates.
type FlushError struct {
	Stream string
	Err    error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("record: flush %q: %v", e.Stream, e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// StreamNotFoundError reports that resolve-with-retry exhausted its
// attempts without discovering the named source.
type StreamNotFoundError struct {
	SourceID string
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("record: stream not found: source_id=%q", e.SourceID)
}
