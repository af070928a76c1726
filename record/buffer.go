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

import (
	"encoding/binary"
	"math"

	"github.com/lslarchive/recorder/lsl"
)

// numeric is the set of element kinds the sample buffer can hold.
// Modeling this as a generic backing store keeps the six concrete
// buffers (one per supported channel format) from repeating the same
// gather logic five times over; each concrete type still owns its own
// Append/GatherBytes so the hot path dispatches through a single
// interface method, not a type switch per sample.
type numeric interface {
	~float32 | ~float64 | ~int32 | ~int16 | ~int8
}

// numericBuffer holds sample-major values (one sample's channel
// values contiguous, samples appended in arrival order) and gathers
// them into channel-major order on demand, reusing its scratch slice
// across flushes.
type numericBuffer[T numeric] struct {
	data     []T
	channels int
	scratch  []T
}

func newNumericBuffer[T numeric](channels int) numericBuffer[T] {
	return numericBuffer[T]{channels: channels}
}

func (b *numericBuffer[T]) len() int {
	if b.channels == 0 {
		return 0
	}
	return len(b.data) / b.channels
}

func (b *numericBuffer[T]) reset() { b.data = b.data[:0] }

func (b *numericBuffer[T]) appendValues(values []T) { b.data = append(b.data, values...) }

func (b *numericBuffer[T]) gather() []T {
	n, c := b.len(), b.channels
	if cap(b.scratch) < n*c {
		b.scratch = make([]T, n*c)
	}
	b.scratch = b.scratch[:n*c]
	for ch := 0; ch < c; ch++ {
		for i := 0; i < n; i++ {
			b.scratch[ch*n+i] = b.data[i*c+ch]
		}
	}
	return b.scratch
}

// valueBuffer is the common interface the Writer drives regardless of
// which of the five numeric element kinds the stream uses.
type valueBuffer interface {
	AppendSample(s *lsl.Sample)
	Len() int
	Reset()
	// GatherBytes gathers the buffered samples into channel-major
	// order and encodes them as little-endian bytes, reusing dst's
	// backing array when it has enough capacity.
	GatherBytes(dst []byte) []byte
}

type float32Buffer struct{ numericBuffer[float32] }

func newFloat32Buffer(channels int) *float32Buffer {
	return &float32Buffer{newNumericBuffer[float32](channels)}
}
func (b *float32Buffer) AppendSample(s *lsl.Sample) { b.appendValues(s.Float32) }
func (b *float32Buffer) Len() int                   { return b.len() }
func (b *float32Buffer) Reset()                     { b.reset() }
func (b *float32Buffer) GatherBytes(dst []byte) []byte {
	vals := b.gather()
	dst = growBytes(dst, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return dst
}

type float64Buffer struct{ numericBuffer[float64] }

func newFloat64Buffer(channels int) *float64Buffer {
	return &float64Buffer{newNumericBuffer[float64](channels)}
}
func (b *float64Buffer) AppendSample(s *lsl.Sample) { b.appendValues(s.Float64) }
func (b *float64Buffer) Len() int                   { return b.len() }
func (b *float64Buffer) Reset()                     { b.reset() }
func (b *float64Buffer) GatherBytes(dst []byte) []byte {
	vals := b.gather()
	dst = growBytes(dst, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(dst[i*8:], math.Float64bits(v))
	}
	return dst
}

type int32Buffer struct{ numericBuffer[int32] }

func newInt32Buffer(channels int) *int32Buffer {
	return &int32Buffer{newNumericBuffer[int32](channels)}
}
func (b *int32Buffer) AppendSample(s *lsl.Sample) { b.appendValues(s.Int32) }
func (b *int32Buffer) Len() int                   { return b.len() }
func (b *int32Buffer) Reset()                     { b.reset() }
func (b *int32Buffer) GatherBytes(dst []byte) []byte {
	vals := b.gather()
	dst = growBytes(dst, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
	}
	return dst
}

type int16Buffer struct{ numericBuffer[int16] }

func newInt16Buffer(channels int) *int16Buffer {
	return &int16Buffer{newNumericBuffer[int16](channels)}
}
func (b *int16Buffer) AppendSample(s *lsl.Sample) { b.appendValues(s.Int16) }
func (b *int16Buffer) Len() int                   { return b.len() }
func (b *int16Buffer) Reset()                     { b.reset() }
func (b *int16Buffer) GatherBytes(dst []byte) []byte {
	vals := b.gather()
	dst = growBytes(dst, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
	}
	return dst
}

type int8Buffer struct{ numericBuffer[int8] }

func newInt8Buffer(channels int) *int8Buffer {
	return &int8Buffer{newNumericBuffer[int8](channels)}
}
func (b *int8Buffer) AppendSample(s *lsl.Sample) { b.appendValues(s.Int8) }
func (b *int8Buffer) Len() int                   { return b.len() }
func (b *int8Buffer) Reset()                     { b.reset() }
func (b *int8Buffer) GatherBytes(dst []byte) []byte {
	vals := b.gather()
	dst = growBytes(dst, len(vals))
	for i, v := range vals {
		dst[i] = byte(v)
	}
	return dst
}

func growBytes(dst []byte, n int) []byte {
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	return dst[:n]
}

// stringBuffer is the sixth buffer variant: string channels never use
// the shuffle/compress pipeline, so it gathers into []string rather
// than bytes.
type stringBuffer struct {
	data     []string
	channels int
	scratch  []string
}

func newStringBuffer(channels int) *stringBuffer { return &stringBuffer{channels: channels} }

func (b *stringBuffer) AppendSample(s *lsl.Sample) { b.data = append(b.data, s.String...) }

func (b *stringBuffer) Len() int {
	if b.channels == 0 {
		return 0
	}
	return len(b.data) / b.channels
}

func (b *stringBuffer) Reset() { b.data = b.data[:0] }

func (b *stringBuffer) GatherStrings() []string {
	n, c := b.Len(), b.channels
	if cap(b.scratch) < n*c {
		b.scratch = make([]string, n*c)
	}
	b.scratch = b.scratch[:n*c]
	for ch := 0; ch < c; ch++ {
		for i := 0; i < n; i++ {
			b.scratch[ch*n+i] = b.data[i*c+ch]
		}
	}
	return b.scratch
}
