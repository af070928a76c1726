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

package archive

import (
	"errors"
	"fmt"
)

// ErrInitFailed is returned by OpenOrCreate when the root group cannot
// be materialized under the init lock after retrying.
var ErrInitFailed = errors.New("archive: root group initialization failed")

// ArrayCreateError reports that an array could not be materialized.
type ArrayCreateError struct {
	Path string
	Err  error
}

func (e *ArrayCreateError) Error() string {
	return fmt.Sprintf("archive: create array %q: %v", e.Path, e.Err)
}

func (e *ArrayCreateError) Unwrap() error { return e.Err }

// MetadataWriteError reports a failure inside the metadata-lock
// critical section.
type MetadataWriteError struct {
	Path string
	Err  error
}

func (e *MetadataWriteError) Error() string {
	return fmt.Sprintf("archive: write metadata %q: %v", e.Path, e.Err)
}

func (e *MetadataWriteError) Unwrap() error { return e.Err }

// UnsupportedChannelFormatError reports an element kind outside the
// supported codec policy table.
type UnsupportedChannelFormatError struct {
	Format string
}

func (e *UnsupportedChannelFormatError) Error() string {
	return fmt.Sprintf("archive: unsupported channel format %q", e.Format)
}

// ErrNotFound is returned by OpenArray/ReadAttributes when the node
// does not exist.
var ErrNotFound = errors.New("archive: node not found")

// ErrNotAnArray is returned by OpenArray when the node at path is a
// group, not an array.
var ErrNotAnArray = errors.New("archive: node is a group, not an array")
