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

package merge

import "fmt"

// StreamNameCollisionError is returned when two input archives both
// contain a stream subgroup of the same name.
type StreamNameCollisionError struct {
	Stream string
}

func (e *StreamNameCollisionError) Error() string {
	return fmt.Sprintf("merge: duplicate stream name %q across input archives", e.Stream)
}

// AttributeConflictError is returned under the "error" conflict policy
// when two input archives disagree on a /meta attribute's value.
type AttributeConflictError struct {
	Key string
}

func (e *AttributeConflictError) Error() string {
	return fmt.Sprintf("merge: conflicting /meta attribute %q across input archives", e.Key)
}

// LoadError wraps a per-input load failure; the offending input is
// reported and skipped rather than aborting the whole merge.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("merge: failed to load input %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
