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

//go:build !lsl_native

package lsl

import "errors"

// ErrNativeBackendUnavailable is returned by NewDefaultResolver when the
// binary was built without the lsl_native build tag (and therefore
// without a liblsl binding). Build with `-tags lsl_native` on a host
// that has liblsl installed to record from real hardware; commands that
// operate purely on existing archives (align, merge, inspect, validate)
// never need this backend.
var ErrNativeBackendUnavailable = errors.New("lsl: built without the lsl_native tag; no stream source is available")

// NewDefaultResolver reports ErrNativeBackendUnavailable in binaries
// built without cgo/liblsl support.
func NewDefaultResolver() (Source, error) {
	return nil, ErrNativeBackendUnavailable
}
