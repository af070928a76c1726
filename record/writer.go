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

// Package record implements the per-stream buffered writer (adaptive
// sizing, flush triggers, channel-major gather-on-flush) and the
// acquisition loop that drives it from a live inlet.
package record

import (
	"fmt"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/lsl"
)

const slowFlushThreshold = 100 * time.Millisecond
const maxSlowFlushWarnings = 5

// Writer owns one stream's in-memory sample buffer and the data/time
// arrays it flushes into.
type Writer struct {
	log    *logrus.Entry
	stream string

	dataArr *archive.Array
	timeArr *archive.Array

	channels int
	kind     archive.ElementKind
	numBuf   valueBuffer   // nil when kind == archive.KindString
	strBuf   *stringBuffer // nil otherwise

	times []float64

	target int // B
	max    int // Bmax
	flushT time.Duration

	currentLength     int
	lastFlushTime     time.Time
	lastFlushDuration time.Duration
	slowFlushWarnings int

	dataScratch []byte
}

// NewWriter creates the data and time arrays for a stream subgroup
// (writing fresh zero-length array nodes, even where arrays already
// exist at those paths) and returns a Writer configured per cfg and the stream's
// nominal rate.
func NewWriter(store *archive.Store, streamName string, channels int, kind archive.ElementKind, nominalRate float64, cfg Config, log *logrus.Entry) (*Writer, error) {
	if log == nil {
		log = logrus.WithField("stream", streamName)
	}
	groupPath := path.Join("streams", streamName)
	if err := store.EnsureGroup(groupPath); err != nil {
		return nil, fmt.Errorf("record: ensure stream group %q: %w", streamName, err)
	}

	dataPath := path.Join(groupPath, "data")
	timePath := path.Join(groupPath, "time")

	dataArr, err := store.CreateArray(dataPath, kind, []int{channels, 0}, []int{channels, 100}, []string{"channels", "samples"})
	if err != nil {
		return nil, err
	}
	timeArr, err := store.CreateArray(timePath, archive.KindFloat64, []int{0}, []int{100}, []string{"samples"})
	if err != nil {
		return nil, err
	}

	w := &Writer{
		log:      log,
		stream:   streamName,
		dataArr:  dataArr,
		timeArr:  timeArr,
		channels: channels,
		kind:     kind,
		target:   targetBufferSamples(nominalRate, cfg),
		flushT:   cfg.FlushInterval,
	}
	if w.flushT <= 0 {
		w.flushT = time.Second
	}
	w.max = maxBufferSamples(w.target)
	w.lastFlushTime = time.Now()

	if kind == archive.KindString {
		w.strBuf = newStringBuffer(channels)
	} else {
		switch kind {
		case archive.KindFloat32:
			w.numBuf = newFloat32Buffer(channels)
		case archive.KindFloat64:
			w.numBuf = newFloat64Buffer(channels)
		case archive.KindInt32:
			w.numBuf = newInt32Buffer(channels)
		case archive.KindInt16:
			w.numBuf = newInt16Buffer(channels)
		case archive.KindInt8:
			w.numBuf = newInt8Buffer(channels)
		default:
			return nil, &archive.UnsupportedChannelFormatError{Format: kind.String()}
		}
	}
	return w, nil
}

// TargetBuffer returns B, the configured target buffer size.
func (w *Writer) TargetBuffer() int { return w.target }

// bufferedLen returns the number of samples currently buffered.
func (w *Writer) bufferedLen() int {
	if w.strBuf != nil {
		return w.strBuf.Len()
	}
	return w.numBuf.Len()
}

// AddSample appends one pulled sample to the buffer. O(1) amortized;
// does not allocate once the buffer has reached steady-state capacity.
func (w *Writer) AddSample(s *lsl.Sample) {
	if w.strBuf != nil {
		w.strBuf.AppendSample(s)
	} else {
		w.numBuf.AppendSample(s)
	}
	w.times = append(w.times, s.Timestamp)
}

// NeedsFlush reports whether any flush trigger currently holds:
// emergency (len>=Bmax), target (len>=B), time (age>=flush interval),
// or backpressure (len>B/2 after a slow previous flush).
func (w *Writer) NeedsFlush() bool {
	n := w.bufferedLen()
	if n >= w.max {
		return true
	}
	if n >= w.target {
		return true
	}
	if n > 0 && time.Since(w.lastFlushTime) >= w.flushT {
		return true
	}
	if n > w.target/2 && w.lastFlushDuration > 50*time.Millisecond {
		return true
	}
	return false
}

// LastFlushDuration reports how long the previous flush took.
func (w *Writer) LastFlushDuration() time.Duration { return w.lastFlushDuration }

// Flush persists the buffered samples: data and time subset bytes are
// written first, then (under the archive's metadata lock) the arrays'
// advertised shapes are committed, data before time. A no-op when the
// buffer is empty.
func (w *Writer) Flush() error {
	numSamples := w.bufferedLen()
	if numSamples == 0 {
		return nil
	}
	start := time.Now()

	newLength := w.currentLength + numSamples
	w.dataArr.SetShape([]int{w.channels, newLength})
	w.timeArr.SetShape([]int{newLength})

	if w.strBuf != nil {
		vals := w.strBuf.GatherStrings()
		if err := w.dataArr.WriteStringSubset(w.currentLength, numSamples, vals); err != nil {
			return &FlushError{Stream: w.stream, Err: err}
		}
	} else {
		w.dataScratch = w.numBuf.GatherBytes(w.dataScratch)
		if err := w.dataArr.WriteNumericSubset(w.currentLength, numSamples, w.dataScratch); err != nil {
			return &FlushError{Stream: w.stream, Err: err}
		}
	}
	if err := w.timeArr.WriteFloat64Subset(w.currentLength, w.times); err != nil {
		return &FlushError{Stream: w.stream, Err: err}
	}

	w.currentLength = newLength
	if w.strBuf != nil {
		w.strBuf.Reset()
	} else {
		w.numBuf.Reset()
	}
	w.times = w.times[:0]

	store := w.dataArr.Store()
	err := store.WithMetadataLock(func() error {
		if err := w.dataArr.StoreMetadata(); err != nil {
			return err
		}
		return w.timeArr.StoreMetadata()
	})
	if err != nil {
		return &FlushError{Stream: w.stream, Err: err}
	}

	w.lastFlushDuration = time.Since(start)
	w.lastFlushTime = time.Now()
	if w.lastFlushDuration > slowFlushThreshold {
		w.slowFlushWarnings++
		if w.slowFlushWarnings <= maxSlowFlushWarnings {
			w.log.WithField("duration", w.lastFlushDuration).Warn("slow flush")
		}
	}
	return nil
}
