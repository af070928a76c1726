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

// Package lsl describes the contract that the recording engine expects
// from a Lab Streaming Layer (LSL) implementation: stream discovery,
// stream descriptors, and inlets that yield timestamped samples.
//
// Nothing in this package talks to a real streaming fabric; it only
// defines the boundary. The cgo backend in backend_cgo.go binds these
// interfaces to liblsl when built with cgo enabled and the lsl_native
// build tag set. Callers that only
// need to exercise the recording engine (tests, replay tooling) can
// supply their own Resolver/Inlet implementation instead.
package lsl

import (
	"context"
	"time"
)

// ChannelFormat is the element kind of one channel's samples, as
// reported by a stream's descriptor.
type ChannelFormat int

const (
	FormatUnsupported ChannelFormat = iota
	FormatFloat32
	FormatFloat64 // a.k.a "double64" in the LSL C API
	FormatInt32
	FormatInt16
	FormatInt8
	FormatString
)

func (f ChannelFormat) String() string {
	switch f {
	case FormatFloat32:
		return "float32"
	case FormatFloat64:
		return "float64"
	case FormatInt32:
		return "int32"
	case FormatInt16:
		return "int16"
	case FormatInt8:
		return "int8"
	case FormatString:
		return "string"
	default:
		return "unsupported"
	}
}

// ProcessingOption enables one of the inlet's built-in timestamp
// corrections. These are applied by the source library before a
// sample's timestamp is handed back from PullSample.
type ProcessingOption int

const (
	ClockSync ProcessingOption = iota
	Dejitter
	Monotonize
)

// StreamInfo is the descriptor of a discoverable stream, as resolved
// from the streaming fabric or read back from an open inlet.
type StreamInfo struct {
	StreamType    string
	SourceID      string
	Hostname      string
	ChannelCount  uint32
	NominalSRate  float64 // 0 means irregular rate
	ChannelFormat ChannelFormat
	CreatedAt     float64
	UID           string
	SessionID     string
	Version       uint16

	// XMLDesc is the full stream descriptor document, including the
	// free-form <desc> subtree, exactly as reported by the source.
	XMLDesc string
}

// Resolver discovers streams advertised on the streaming fabric.
type Resolver interface {
	// ResolveByProp returns streams whose descriptor has the named
	// property set to value. It blocks for up to timeout looking for
	// at least minimum matching streams, and may return fewer.
	ResolveByProp(ctx context.Context, property, value string, minimum int, timeout time.Duration) ([]StreamInfo, error)
}

// Source is a Resolver that can also open an inlet bound to a
// previously resolved stream. The acquisition loop depends on this
// combined interface rather than bare Resolver, since resolving a
// stream is useless without a way to then read from it.
type Source interface {
	Resolver
	OpenInlet(info StreamInfo) (Inlet, error)
}

// Sample is one pulled sample: one value per channel plus the source
// clock timestamp it was captured at. Exactly one of the typed slice
// fields is used, selected by the stream's ChannelFormat.
type Sample struct {
	Timestamp float64
	Float32   []float32
	Float64   []float64
	Int32     []int32
	Int16     []int16
	Int8      []int8
	String    []string
}

// Inlet is a receiving endpoint bound to one resolved stream.
type Inlet interface {
	// Info returns the authoritative stream descriptor, blocking up
	// to timeout for it to become available.
	Info(timeout time.Duration) (StreamInfo, error)

	// SetPostprocessing enables the given timestamp corrections. It
	// must be called before the first PullSample.
	SetPostprocessing(opts ...ProcessingOption) error

	// PullSample blocks up to timeout waiting for one sample. A
	// returned Sample with Timestamp == 0 means no sample arrived
	// within the timeout; it is not an error.
	//
	// into is the destination. Implementations may write the values
	// into its preallocated typed slice (resliced to the channel count)
	// to avoid allocating on the hot path, or replace the Sample's
	// fields outright.
	PullSample(ctx context.Context, timeout time.Duration, into *Sample) error

	// TimeCorrection reports the inlet's current estimate of the
	// offset between the source clock and the local clock, in
	// seconds. It is recorded as the stream's lsl_clock_offset.
	TimeCorrection(timeout time.Duration) (float64, error)

	// Close releases the inlet and any resources associated with it.
	Close() error
}

// FOREVER is a timeout value meaning "block indefinitely", matching
// the LSL convention used by Info and similar blocking calls.
const FOREVER = time.Duration(-1)
