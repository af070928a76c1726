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
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/lsl"
)

// ResolveWithRetry attempts up to cfg.MaxResolveAttempts calls to
// resolve_byprop("source_id", sourceID, 1, cfg.ResolveTimeout),
// sleeping base_delay_ms + U[0,20]ms between attempts. It fails with
// StreamNotFoundError once every attempt has been exhausted.
func ResolveWithRetry(ctx context.Context, source lsl.Resolver, sourceID string, cfg Config, log *logrus.Entry) (lsl.StreamInfo, error) {
	attempts := cfg.MaxResolveAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := cfg.ResolveTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	baseDelay := 50 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		infos, err := source.ResolveByProp(ctx, "source_id", sourceID, 1, timeout)
		if err != nil {
			lastErr = err
		} else if len(infos) > 0 {
			return infos[0], nil
		}
		if attempt < attempts {
			jitter := time.Duration(rand.Intn(20)) * time.Millisecond
			if log != nil {
				log.WithField("attempt", attempt).Debug("resolve_byprop found nothing, retrying")
			}
			time.Sleep(baseDelay + jitter)
		}
	}
	if lastErr != nil {
		return lsl.StreamInfo{}, fmt.Errorf("%w (last error: %v)", &StreamNotFoundError{SourceID: sourceID}, lastErr)
	}
	return lsl.StreamInfo{}, &StreamNotFoundError{SourceID: sourceID}
}

// AcquisitionLoop resolves one source, opens an inlet, and repeatedly
// pulls samples into a Writer, gated by the Recording/Quit flags.
type AcquisitionLoop struct {
	log    *logrus.Entry
	source lsl.Source
	writer *Writer
	inlet  lsl.Inlet
	info   lsl.StreamInfo

	Recording atomic.Bool
	Quit      atomic.Bool

	pullTimeout time.Duration
	sampleCount uint64
}

// Attach resolves sourceID, opens and configures an inlet, creates the
// backing Writer, and returns a ready AcquisitionLoop.
func Attach(ctx context.Context, store *archive.Store, source lsl.Source, sourceID, streamName string, cfg Config, log *logrus.Entry) (*AcquisitionLoop, error) {
	if log == nil {
		log = logrus.WithField("source_id", sourceID)
	}
	info, err := ResolveWithRetry(ctx, source, sourceID, cfg, log)
	if err != nil {
		return nil, err
	}
	inlet, err := source.OpenInlet(info)
	if err != nil {
		return nil, &lsl.InletOpenError{SourceID: sourceID, Err: err}
	}
	full, err := inlet.Info(5 * time.Second)
	if err != nil {
		inlet.Close()
		return nil, fmt.Errorf("record: read inlet info for %q: %w", sourceID, err)
	}
	if err := inlet.SetPostprocessing(lsl.ClockSync, lsl.Dejitter, lsl.Monotonize); err != nil {
		inlet.Close()
		return nil, fmt.Errorf("record: set postprocessing for %q: %w", sourceID, err)
	}

	kind, err := kindFromChannelFormat(full.ChannelFormat)
	if err != nil {
		inlet.Close()
		return nil, err
	}
	writer, err := NewWriter(store, streamName, int(full.ChannelCount), kind, full.NominalSRate, cfg, log)
	if err != nil {
		inlet.Close()
		return nil, err
	}

	loop := &AcquisitionLoop{
		log:         log,
		source:      source,
		writer:      writer,
		inlet:       inlet,
		info:        full,
		pullTimeout: pullTimeout(full.NominalSRate, cfg),
	}
	return loop, nil
}

// newSampleBuffer preallocates the typed slice PullSample writes
// into, sized to the stream's channel count, so the hot path never
// allocates inside the pull loop.
func newSampleBuffer(format lsl.ChannelFormat, channels int) lsl.Sample {
	var s lsl.Sample
	switch format {
	case lsl.FormatFloat32:
		s.Float32 = make([]float32, channels)
	case lsl.FormatFloat64:
		s.Float64 = make([]float64, channels)
	case lsl.FormatInt32:
		s.Int32 = make([]int32, channels)
	case lsl.FormatInt16:
		s.Int16 = make([]int16, channels)
	case lsl.FormatInt8:
		s.Int8 = make([]int8, channels)
	case lsl.FormatString:
		s.String = make([]string, channels)
	}
	return s
}

// kindFromChannelFormat maps the LSL-boundary channel format onto the
// archive's element kind; the two enums are deliberately kept
// independent (see DESIGN.md) so this is an explicit switch, not a
// numeric cast.
func kindFromChannelFormat(f lsl.ChannelFormat) (archive.ElementKind, error) {
	switch f {
	case lsl.FormatFloat32:
		return archive.KindFloat32, nil
	case lsl.FormatFloat64:
		return archive.KindFloat64, nil
	case lsl.FormatInt32:
		return archive.KindInt32, nil
	case lsl.FormatInt16:
		return archive.KindInt16, nil
	case lsl.FormatInt8:
		return archive.KindInt8, nil
	case lsl.FormatString:
		return archive.KindString, nil
	default:
		return 0, &archive.UnsupportedChannelFormatError{Format: f.String()}
	}
}

// ClockOffset reports the inlet's time_correction() value, used for
// the stream's lsl_clock_offset attribute.
func (l *AcquisitionLoop) ClockOffset(timeout time.Duration) (float64, error) {
	return l.inlet.TimeCorrection(timeout)
}

// Info returns the inlet's authoritative stream descriptor.
func (l *AcquisitionLoop) Info() lsl.StreamInfo { return l.info }

// Writer returns the loop's backing buffered writer.
func (l *AcquisitionLoop) Writer() *Writer { return l.writer }

// SampleCount returns the number of samples successfully ingested.
func (l *AcquisitionLoop) SampleCount() uint64 { return l.sampleCount }

// Run drives the per-sample hot path until Quit is set, then performs
// one final unconditional flush before returning.
func (l *AcquisitionLoop) Run(ctx context.Context) error {
	defer l.inlet.Close()

	sample := newSampleBuffer(l.info.ChannelFormat, int(l.info.ChannelCount))
	for !l.Quit.Load() {
		if l.Recording.Load() {
			if err := l.inlet.PullSample(ctx, l.pullTimeout, &sample); err != nil {
				return fmt.Errorf("record: pull sample: %w", err)
			}
			if sample.Timestamp != 0 {
				l.writer.AddSample(&sample)
				l.sampleCount++
				if l.writer.NeedsFlush() {
					if err := l.writer.Flush(); err != nil {
						return err
					}
				}
			}
		} else {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return l.writer.Flush()
}
