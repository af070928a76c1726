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

//go:build cgo && lsl_native

// This file binds Resolver and Inlet to liblsl's C API (lsl_c.h). It is
// only compiled when both cgo and the lsl_native build tag are enabled,
// since liblsl is a system library that most development and CI
// environments do not have installed. Everywhere else, callers supply
// their own Resolver/Inlet (see lsl/lsltest and lsl/dummy).
package lsl

/*
#cgo LDFLAGS: -llsl64 -llsl
#include <stdlib.h>
#include <lsl_c.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unsafe"
)

// NativeResolver discovers streams via liblsl's lsl_resolve_byprop.
type NativeResolver struct{}

// NewNativeResolver returns a Resolver backed by the system liblsl.
func NewNativeResolver() *NativeResolver { return &NativeResolver{} }

// NewDefaultResolver returns the native liblsl-backed Source. It is
// only built when both cgo and the lsl_native tag are enabled.
func NewDefaultResolver() (Source, error) {
	return NewNativeResolver(), nil
}

func (NativeResolver) ResolveByProp(ctx context.Context, property, value string, minimum int, timeout time.Duration) ([]StreamInfo, error) {
	cprop := C.CString(property)
	defer C.free(unsafe.Pointer(cprop))
	cval := C.CString(value)
	defer C.free(unsafe.Pointer(cval))

	const maxStreams = 16
	var buf [maxStreams]C.lsl_streaminfo
	n := C.lsl_resolve_byprop(&buf[0], C.int(maxStreams), cprop, cval, C.int(minimum), C.double(timeout.Seconds()))
	if n < 0 {
		return nil, errors.New("lsl: resolve_byprop failed")
	}
	out := make([]StreamInfo, 0, int(n))
	for i := 0; i < int(n); i++ {
		info := infoFromNative(buf[i])
		out = append(out, info)
		C.lsl_destroy_streaminfo(buf[i])
	}
	return out, nil
}

func infoFromNative(si C.lsl_streaminfo) StreamInfo {
	xml := C.lsl_get_xml(si)
	defer C.lsl_destroy_string(xml)
	return StreamInfo{
		StreamType:    C.GoString(C.lsl_get_type(si)),
		SourceID:      C.GoString(C.lsl_get_source_id(si)),
		Hostname:      C.GoString(C.lsl_get_hostname(si)),
		ChannelCount:  uint32(C.lsl_get_channel_count(si)),
		NominalSRate:  float64(C.lsl_get_nominal_srate(si)),
		ChannelFormat: formatFromNative(C.lsl_get_channel_format(si)),
		CreatedAt:     float64(C.lsl_get_created_at(si)),
		UID:           C.GoString(C.lsl_get_uid(si)),
		SessionID:     C.GoString(C.lsl_get_session_id(si)),
		Version:       uint16(C.lsl_get_version(si)),
		XMLDesc:       C.GoString(xml),
	}
}

func formatFromNative(f C.lsl_channel_format_t) ChannelFormat {
	switch f {
	case C.cft_float32:
		return FormatFloat32
	case C.cft_double64:
		return FormatFloat64
	case C.cft_int32:
		return FormatInt32
	case C.cft_int16:
		return FormatInt16
	case C.cft_int8:
		return FormatInt8
	case C.cft_string:
		return FormatString
	default:
		return FormatUnsupported
	}
}

// NativeInlet is an Inlet backed by a liblsl lsl_inlet handle.
type NativeInlet struct {
	handle C.lsl_inlet
}

// OpenInlet re-resolves info.SourceID to obtain a fresh native stream
// handle and opens an inlet against it with the buffering and
// recovery parameters the recording engine expects (300s buffer,
// push-mode chunking, recovery enabled). It satisfies lsl.Source.
func (NativeResolver) OpenInlet(info StreamInfo) (Inlet, error) {
	cprop := C.CString("source_id")
	defer C.free(unsafe.Pointer(cprop))
	cval := C.CString(info.SourceID)
	defer C.free(unsafe.Pointer(cval))

	var buf [1]C.lsl_streaminfo
	n := C.lsl_resolve_byprop(&buf[0], 1, cprop, cval, C.int(1), C.double(5.0))
	if n <= 0 {
		return nil, fmt.Errorf("lsl: stream %q not found while opening inlet", info.SourceID)
	}
	defer C.lsl_destroy_streaminfo(buf[0])

	handle := C.lsl_create_inlet(buf[0], C.int(300), C.int(0), C.int(1))
	if handle == nil {
		return nil, errors.New("lsl: lsl_create_inlet returned nil")
	}
	return &NativeInlet{handle: handle}, nil
}

func (n *NativeInlet) Info(timeout time.Duration) (StreamInfo, error) {
	var ec C.int
	secs := timeout.Seconds()
	if timeout == FOREVER {
		secs = -1
	}
	si := C.lsl_get_fullinfo(n.handle, C.double(secs), &ec)
	if ec != 0 {
		return StreamInfo{}, &InletInfoError{Err: errFromCode(ec)}
	}
	defer C.lsl_destroy_streaminfo(si)
	return infoFromNative(si), nil
}

func (n *NativeInlet) SetPostprocessing(opts ...ProcessingOption) error {
	var flags C.uint
	for _, o := range opts {
		switch o {
		case ClockSync:
			flags |= C.proc_clocksync
		case Dejitter:
			flags |= C.proc_dejitter
		case Monotonize:
			flags |= C.proc_monotonize
		}
	}
	ec := C.lsl_set_postprocessing(n.handle, flags)
	if ec != 0 {
		return &PostProcessingError{Err: errFromCode(ec)}
	}
	return nil
}

func (n *NativeInlet) PullSample(ctx context.Context, timeout time.Duration, into *Sample) error {
	var ec C.int
	var ts C.double
	switch {
	case cap(into.Float32) > 0:
		into.Float32 = into.Float32[:cap(into.Float32)]
		ts = C.lsl_pull_sample_f(n.handle, (*C.float)(unsafe.Pointer(&into.Float32[0])), C.int(len(into.Float32)), C.double(timeout.Seconds()), &ec)
	case cap(into.Float64) > 0:
		into.Float64 = into.Float64[:cap(into.Float64)]
		ts = C.lsl_pull_sample_d(n.handle, (*C.double)(unsafe.Pointer(&into.Float64[0])), C.int(len(into.Float64)), C.double(timeout.Seconds()), &ec)
	case cap(into.Int32) > 0:
		into.Int32 = into.Int32[:cap(into.Int32)]
		ts = C.lsl_pull_sample_i(n.handle, (*C.int)(unsafe.Pointer(&into.Int32[0])), C.int(len(into.Int32)), C.double(timeout.Seconds()), &ec)
	case cap(into.Int16) > 0:
		into.Int16 = into.Int16[:cap(into.Int16)]
		ts = C.lsl_pull_sample_s(n.handle, (*C.short)(unsafe.Pointer(&into.Int16[0])), C.int(len(into.Int16)), C.double(timeout.Seconds()), &ec)
	case cap(into.Int8) > 0:
		into.Int8 = into.Int8[:cap(into.Int8)]
		ts = C.lsl_pull_sample_c(n.handle, (*C.char)(unsafe.Pointer(&into.Int8[0])), C.int(len(into.Int8)), C.double(timeout.Seconds()), &ec)
	case cap(into.String) > 0:
		return n.pullStringSample(into, timeout)
	default:
		return errors.New("lsl: PullSample called with an empty destination buffer")
	}
	if ec != 0 {
		return errFromCode(ec)
	}
	into.Timestamp = float64(ts)
	return nil
}

// pullStringSample handles the string channel format, whose C API
// shape (char** out-parameters, each entry separately heap-allocated
// by liblsl) differs enough from the fixed-width numeric pulls above
// to warrant its own helper.
func (n *NativeInlet) pullStringSample(into *Sample, timeout time.Duration) error {
	into.String = into.String[:cap(into.String)]
	channels := len(into.String)
	cbuf := make([]*C.char, channels)
	var ec C.int
	ts := C.lsl_pull_sample_str(n.handle, &cbuf[0], C.int(channels), C.double(timeout.Seconds()), &ec)
	if ec != 0 {
		return errFromCode(ec)
	}
	for i, cs := range cbuf {
		into.String[i] = C.GoString(cs)
		C.lsl_destroy_string(cs)
	}
	into.Timestamp = float64(ts)
	return nil
}

func (n *NativeInlet) TimeCorrection(timeout time.Duration) (float64, error) {
	var ec C.int
	v := C.lsl_time_correction(n.handle, C.double(timeout.Seconds()), &ec)
	if ec != 0 {
		return 0, errFromCode(ec)
	}
	return float64(v), nil
}

func (n *NativeInlet) Close() error {
	C.lsl_destroy_inlet(n.handle)
	return nil
}

func errFromCode(ec C.int) error {
	switch ec {
	case C.lsl_timeout_error:
		return context.DeadlineExceeded
	case C.lsl_lost_error:
		return errors.New("lsl: stream lost")
	case C.lsl_argument_error:
		return errors.New("lsl: invalid argument")
	case C.lsl_internal_error:
		return errors.New("lsl: internal error")
	default:
		return errors.New("lsl: unknown error")
	}
}
