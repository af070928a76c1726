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

// Package align implements the post-hoc, non-destructive cross-stream
// timestamp-alignment pass: it reads each recorded stream's raw time
// array, computes a reference time and a common window across all
// streams, and writes a new aligned_time array alongside the raw one.
package align

import (
	"fmt"
	"path"

	"github.com/sirupsen/logrus"

	"github.com/lslarchive/recorder/archive"
)

// Mode selects how the reference time is chosen.
type Mode string

const (
	ModeCommonStart Mode = "common-start"
	ModeFirstStream Mode = "first-stream"
	ModeLastStream  Mode = "last-stream"
	ModeAbsoluteZero Mode = "absolute-zero"
)

func (m Mode) valid() bool {
	switch m {
	case ModeCommonStart, ModeFirstStream, ModeLastStream, ModeAbsoluteZero:
		return true
	}
	return false
}

// Options configures a single alignment run.
type Options struct {
	Mode       Mode
	TrimStart  bool
	TrimEnd    bool
}

// StreamResult reports what alignment computed for one stream.
type StreamResult struct {
	Stream               string
	Offset               float64
	TrimStartIndex        int
	TrimEndIndex          int
	OriginalSampleCount   int
	TrimmedSampleCount    int
	Skipped               bool
	SkipReason            error
}

type streamTimes struct {
	name  string
	times []float64 // trimmed to true extent
}

// Run performs one alignment pass over every stream in store, writing
// aligned_time arrays and alignment attributes. It is idempotent:
// re-running with the same Options re-emits identical output.
func Run(store *archive.Store, opts Options) ([]StreamResult, error) {
	if !opts.Mode.valid() {
		return nil, &UnknownModeError{Mode: string(opts.Mode)}
	}
	log := store.Log()
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	names, err := store.ListGroups("streams")
	if err != nil {
		return nil, fmt.Errorf("align: list streams: %w", err)
	}

	var streams []streamTimes
	var results []StreamResult
	for _, name := range names {
		times, err := readTrueExtent(store, name)
		if err != nil {
			log.WithField("stream", name).WithError(err).Warn("skipping stream with inconsistent time array")
			results = append(results, StreamResult{Stream: name, Skipped: true, SkipReason: &InconsistentStreamError{Stream: name, Err: err}})
			continue
		}
		if len(times) == 0 {
			log.WithField("stream", name).Warn("skipping stream with empty time array")
			results = append(results, StreamResult{Stream: name, Skipped: true, SkipReason: &InconsistentStreamError{Stream: name, Err: fmt.Errorf("empty time array")}})
			continue
		}
		streams = append(streams, streamTimes{name: name, times: times})
	}
	if len(streams) == 0 {
		return results, nil
	}

	referenceTime := computeReferenceTime(opts.Mode, streams)

	offsets := make(map[string]float64, len(streams))
	for _, s := range streams {
		offsets[s.name] = referenceTime - s.times[0]
	}

	commonStart := negInf
	commonEnd := posInf
	for _, s := range streams {
		first := s.times[0] + offsets[s.name]
		last := s.times[len(s.times)-1] + offsets[s.name]
		if first > commonStart {
			commonStart = first
		}
		if last < commonEnd {
			commonEnd = last
		}
	}
	if commonEnd < commonStart {
		commonEnd = commonStart
	}

	for _, s := range streams {
		offset := offsets[s.name]
		// commonStart == referenceTime for every mode (first+offset is
		// referenceTime by construction); aligned is shifted by
		// commonStart alone so each stream keeps its true position
		// relative to the others instead of collapsing to its own start.
		aligned := make([]float64, len(s.times))
		for i, t := range s.times {
			aligned[i] = t - commonStart
		}

		trimStartIdx := 0
		if opts.TrimStart {
			trimStartIdx = len(aligned)
			for i, a := range aligned {
				if a >= 0 {
					trimStartIdx = i
					break
				}
			}
		}
		trimEndIdx := len(aligned)
		if opts.TrimEnd {
			windowEnd := commonEnd - commonStart
			trimEndIdx = 0
			for i := len(aligned) - 1; i >= 0; i-- {
				if aligned[i] <= windowEnd {
					trimEndIdx = i + 1
					break
				}
			}
		}

		if err := writeAlignedTime(store, s.name, aligned); err != nil {
			return nil, err
		}

		attrs := map[string]any{
			"alignment_offset":      offset,
			"trim_start_index":      trimStartIdx,
			"trim_end_index":        trimEndIdx,
			"original_sample_count": len(s.times),
			"trimmed_sample_count":  trimEndIdx - trimStartIdx,
		}
		groupPath := path.Join("streams", s.name)
		if err := store.WithMetadataLock(func() error {
			return store.WriteAttributes(groupPath, attrs)
		}); err != nil {
			return nil, fmt.Errorf("align: write attributes for %q: %w", s.name, err)
		}

		results = append(results, StreamResult{
			Stream:              s.name,
			Offset:              offset,
			TrimStartIndex:      trimStartIdx,
			TrimEndIndex:        trimEndIdx,
			OriginalSampleCount: len(s.times),
			TrimmedSampleCount:  trimEndIdx - trimStartIdx,
		})
	}
	return results, nil
}

const negInf = -1 << 62
const posInf = 1 << 62

func computeReferenceTime(mode Mode, streams []streamTimes) float64 {
	switch mode {
	case ModeAbsoluteZero:
		return 0
	case ModeFirstStream:
		min := streams[0].times[0]
		for _, s := range streams[1:] {
			if s.times[0] < min {
				min = s.times[0]
			}
		}
		return min
	default: // ModeLastStream, ModeCommonStart
		max := streams[0].times[0]
		for _, s := range streams[1:] {
			if s.times[0] > max {
				max = s.times[0]
			}
		}
		return max
	}
}

// readTrueExtent reads a stream's full raw time array and trims
// trailing exact-zero fill values to recover the true sample count.
func readTrueExtent(store *archive.Store, streamName string) ([]float64, error) {
	timePath := path.Join("streams", streamName, "time")
	arr, err := store.OpenArray(timePath)
	if err != nil {
		return nil, err
	}
	raw, err := arr.ReadFloat64All()
	if err != nil {
		return nil, err
	}
	n := len(raw)
	for n > 0 && raw[n-1] == 0.0 {
		n--
	}
	return raw[:n], nil
}

// writeAlignedTime (re-)creates the aligned_time array for a stream
// and writes the full aligned series; no data is trimmed on disk.
func writeAlignedTime(store *archive.Store, streamName string, aligned []float64) error {
	alignedPath := path.Join("streams", streamName, "aligned_time")
	arr, err := store.CreateArray(alignedPath, archive.KindFloat64, []int{0}, []int{100}, []string{"samples"})
	if err != nil {
		return fmt.Errorf("align: create aligned_time for %q: %w", streamName, err)
	}
	arr.SetShape([]int{len(aligned)})
	if err := arr.WriteFloat64Subset(0, aligned); err != nil {
		return fmt.Errorf("align: write aligned_time for %q: %w", streamName, err)
	}
	if err := arr.StoreMetadata(); err != nil {
		return fmt.Errorf("align: commit aligned_time shape for %q: %w", streamName, err)
	}
	return nil
}
