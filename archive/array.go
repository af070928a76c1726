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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Array is an open handle to a chunked array node (data, time, or
// aligned_time) inside a stream subgroup.
type Array struct {
	store          *Store
	Path           string
	Shape          []int
	ChunkShape     []int
	Kind           ElementKind
	Policy         CodecPolicy
	DimensionNames []string
}

func fillValueFor(kind ElementKind) any {
	if kind == KindString {
		return ""
	}
	return 0
}

func kindFromDataType(dt string) (ElementKind, error) {
	switch dt {
	case "float32":
		return KindFloat32, nil
	case "float64":
		return KindFloat64, nil
	case "int32":
		return KindInt32, nil
	case "int16":
		return KindInt16, nil
	case "int8":
		return KindInt8, nil
	case "string":
		return KindString, nil
	default:
		return 0, &UnsupportedChannelFormatError{Format: dt}
	}
}

// CreateArray materializes a new array node at relPath with the fixed
// codec policy for kind.
func (s *Store) CreateArray(relPath string, kind ElementKind, shape, chunkShape []int, dimNames []string) (*Array, error) {
	policy, err := PolicyFor(kind)
	if err != nil {
		return nil, &ArrayCreateError{Path: relPath, Err: err}
	}
	node := arrayNode(shape, kind.String(), chunkShape, fillValueFor(kind), codecsFor(policy), dimNames)
	if err := s.writeNode(relPath, node); err != nil {
		return nil, &ArrayCreateError{Path: relPath, Err: err}
	}
	return &Array{store: s, Path: relPath, Shape: shape, ChunkShape: chunkShape, Kind: kind, Policy: policy, DimensionNames: dimNames}, nil
}

// OpenArray opens an existing array node.
func (s *Store) OpenArray(relPath string) (*Array, error) {
	n, err := s.readNode(relPath)
	if err != nil {
		return nil, err
	}
	if n.NodeType != "array" {
		return nil, ErrNotAnArray
	}
	kind, err := kindFromDataType(n.DataType)
	if err != nil {
		return nil, err
	}
	policy, err := PolicyFor(kind)
	if err != nil {
		return nil, err
	}
	var chunkShape []int
	if n.ChunkGrid != nil {
		chunkShape = n.ChunkGrid.Configuration.ChunkShape
	}
	return &Array{store: s, Path: relPath, Shape: n.Shape, ChunkShape: chunkShape, Kind: kind, Policy: policy, DimensionNames: n.DimensionNames}, nil
}

// dims reports the channel count and per-chunk sample count, handling
// both the 2D ([C,N], data) and 1D ([N], time/aligned_time) layouts.
func (a *Array) dims() (channels, chunkSamples int, is2D bool) {
	if len(a.Shape) == 2 {
		return a.Shape[0], a.ChunkShape[1], true
	}
	return 1, a.ChunkShape[0], false
}

func (a *Array) sampleCount() int { return a.Shape[len(a.Shape)-1] }

func (a *Array) dir() string { return a.store.absPath(a.Path) }

// Store returns the archive Store this array belongs to.
func (a *Array) Store() *Store { return a.store }

// SetShape updates the in-memory shape only; call StoreMetadata to
// persist it. This mirrors the flush algorithm's separation between
// extending shape in memory (before subset writes) and committing the
// new shape to disk (after, under the metadata lock).
func (a *Array) SetShape(shape []int) { a.Shape = shape }

// StoreMetadata persists the array's current in-memory shape to its
// zarr.json. Callers extending both data and time arrays in the same
// flush must call this for data then time while holding the archive's
// metadata lock.
func (a *Array) StoreMetadata() error {
	n, err := a.store.readNode(a.Path)
	if err != nil {
		return &MetadataWriteError{Path: a.Path, Err: err}
	}
	n.Shape = a.Shape
	if err := a.store.writeNode(a.Path, n); err != nil {
		return &MetadataWriteError{Path: a.Path, Err: err}
	}
	return nil
}

func chunkPath(dir string, is2D bool, idx int) string {
	if is2D {
		return filepath.Join(dir, "c", "0", strconv.Itoa(idx))
	}
	return filepath.Join(dir, "c", strconv.Itoa(idx))
}

// WriteNumericSubset writes numNew samples starting at startSample,
// given a channel-major contiguous block of channels*numNew*typesize
// bytes (channel 0's samples first, then channel 1's, ...).
func (a *Array) WriteNumericSubset(startSample, numNew int, block []byte) error {
	if a.Kind == KindString {
		return fmt.Errorf("archive: WriteNumericSubset on string array %q", a.Path)
	}
	channels, chunkSamples, is2D := a.dims()
	return writeNumericRange(a.dir(), channels, chunkSamples, a.Policy.TypeSize, a.Policy, is2D, startSample, numNew, block)
}

// ReadNumericSubset reads numSamples starting at startSample, in the
// same channel-major layout WriteNumericSubset expects.
func (a *Array) ReadNumericSubset(startSample, numSamples int) ([]byte, error) {
	channels, chunkSamples, is2D := a.dims()
	return readNumericRange(a.dir(), channels, chunkSamples, a.Policy.TypeSize, a.Policy, is2D, startSample, numSamples)
}

// ReadNumericAll reads the array's full advertised extent.
func (a *Array) ReadNumericAll() ([]byte, error) {
	return a.ReadNumericSubset(0, a.sampleCount())
}

// WriteFloat64Subset is a convenience wrapper for time/aligned_time
// arrays (always float64, channels=1).
func (a *Array) WriteFloat64Subset(startSample int, values []float64) error {
	return a.WriteNumericSubset(startSample, len(values), encodeFloat64s(values))
}

// ReadFloat64All reads a time/aligned_time array's full extent.
func (a *Array) ReadFloat64All() ([]float64, error) {
	raw, err := a.ReadNumericAll()
	if err != nil {
		return nil, err
	}
	return decodeFloat64s(raw), nil
}

// WriteStringSubset writes numNew channel-major string values
// starting at startSample.
func (a *Array) WriteStringSubset(startSample, numNew int, values []string) error {
	if a.Kind != KindString {
		return fmt.Errorf("archive: WriteStringSubset on non-string array %q", a.Path)
	}
	channels, chunkSamples, is2D := a.dims()
	return writeStringRange(a.dir(), channels, chunkSamples, is2D, startSample, numNew, values)
}

// ReadStringAll reads a string array's full advertised extent.
func (a *Array) ReadStringAll() ([]string, error) {
	channels, chunkSamples, is2D := a.dims()
	return readStringRange(a.dir(), channels, chunkSamples, is2D, 0, a.sampleCount())
}

// ReadStringSubset reads numSamples channel-major string values
// starting at startSample.
func (a *Array) ReadStringSubset(startSample, numSamples int) ([]string, error) {
	channels, chunkSamples, is2D := a.dims()
	return readStringRange(a.dir(), channels, chunkSamples, is2D, startSample, numSamples)
}

func encodeFloat64s(values []float64) []byte {
	out := make([]byte, 8*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func decodeFloat64s(raw []byte) []float64 {
	n := len(raw) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return out
}

// writeNumericRange merges numNew samples of channel-major data into
// whichever fixed-width chunks they overlap, read-modify-write.
func writeNumericRange(dir string, channels, chunkSamples, typesize int, policy CodecPolicy, is2D bool, startSample, numNew int, block []byte) error {
	if numNew == 0 {
		return nil
	}
	endSample := startSample + numNew
	firstChunk := startSample / chunkSamples
	lastChunk := (endSample - 1) / chunkSamples
	chunkBufLen := channels * chunkSamples * typesize

	for idx := firstChunk; idx <= lastChunk; idx++ {
		path := chunkPath(dir, is2D, idx)
		chunkBuf := make([]byte, chunkBufLen)
		if _, err := os.Stat(path); err == nil {
			existing, err := readChunkFile(path, chunkBufLen, policy)
			if err != nil {
				return err
			}
			copy(chunkBuf, existing)
		}

		chunkStartSample := idx * chunkSamples
		lo, hi := startSample, endSample
		if chunkStartSample > lo {
			lo = chunkStartSample
		}
		if chunkStartSample+chunkSamples < hi {
			hi = chunkStartSample + chunkSamples
		}
		localLo := lo - chunkStartSample
		n := hi - lo

		for c := 0; c < channels; c++ {
			chunkOff := (c*chunkSamples + localLo) * typesize
			blockOff := (c*numNew + (lo - startSample)) * typesize
			length := n * typesize
			copy(chunkBuf[chunkOff:chunkOff+length], block[blockOff:blockOff+length])
		}

		if err := writeChunkFile(path, chunkBuf, policy); err != nil {
			return err
		}
	}
	return nil
}

func readNumericRange(dir string, channels, chunkSamples, typesize int, policy CodecPolicy, is2D bool, startSample, numSamples int) ([]byte, error) {
	out := make([]byte, channels*numSamples*typesize)
	if numSamples == 0 {
		return out, nil
	}
	endSample := startSample + numSamples
	firstChunk := startSample / chunkSamples
	lastChunk := (endSample - 1) / chunkSamples
	chunkBufLen := channels * chunkSamples * typesize

	for idx := firstChunk; idx <= lastChunk; idx++ {
		path := chunkPath(dir, is2D, idx)
		chunkBuf := make([]byte, chunkBufLen)
		if _, err := os.Stat(path); err == nil {
			cb, err := readChunkFile(path, chunkBufLen, policy)
			if err != nil {
				return nil, err
			}
			chunkBuf = cb
		}

		chunkStartSample := idx * chunkSamples
		lo, hi := startSample, endSample
		if chunkStartSample > lo {
			lo = chunkStartSample
		}
		if chunkStartSample+chunkSamples < hi {
			hi = chunkStartSample + chunkSamples
		}
		localLo := lo - chunkStartSample
		n := hi - lo

		for c := 0; c < channels; c++ {
			chunkOff := (c*chunkSamples + localLo) * typesize
			outOff := (c*numSamples + (lo - startSample)) * typesize
			length := n * typesize
			copy(out[outOff:outOff+length], chunkBuf[chunkOff:chunkOff+length])
		}
	}
	return out, nil
}

// writeStringRange and readStringRange apply the same chunked,
// channel-major layout as the numeric path, but chunks are stored as
// a JSON array of exactly channels*chunkSamples strings rather than
// fixed-width compressed bytes (string arrays use codec "none" and no
// shuffle, so there is nothing for the shuffle/compress pipeline to
// do beyond serialization).
func writeStringRange(dir string, channels, chunkSamples int, is2D bool, startSample, numNew int, values []string) error {
	if numNew == 0 {
		return nil
	}
	endSample := startSample + numNew
	firstChunk := startSample / chunkSamples
	lastChunk := (endSample - 1) / chunkSamples

	for idx := firstChunk; idx <= lastChunk; idx++ {
		path := chunkPath(dir, is2D, idx)
		chunkVals := make([]string, channels*chunkSamples)
		if data, err := os.ReadFile(path); err == nil {
			_ = json.Unmarshal(data, &chunkVals)
		}

		chunkStartSample := idx * chunkSamples
		lo, hi := startSample, endSample
		if chunkStartSample > lo {
			lo = chunkStartSample
		}
		if chunkStartSample+chunkSamples < hi {
			hi = chunkStartSample + chunkSamples
		}
		localLo := lo - chunkStartSample
		n := hi - lo

		for c := 0; c < channels; c++ {
			copy(chunkVals[c*chunkSamples+localLo:c*chunkSamples+localLo+n], values[c*numNew+(lo-startSample):c*numNew+(lo-startSample)+n])
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("archive: mkdir chunk dir: %w", err)
		}
		data, err := json.Marshal(chunkVals)
		if err != nil {
			return fmt.Errorf("archive: encode string chunk: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("archive: write string chunk %q: %w", path, err)
		}
	}
	return nil
}

func readStringRange(dir string, channels, chunkSamples int, is2D bool, startSample, numSamples int) ([]string, error) {
	out := make([]string, channels*numSamples)
	if numSamples == 0 {
		return out, nil
	}
	endSample := startSample + numSamples
	firstChunk := startSample / chunkSamples
	lastChunk := (endSample - 1) / chunkSamples

	for idx := firstChunk; idx <= lastChunk; idx++ {
		path := chunkPath(dir, is2D, idx)
		chunkVals := make([]string, channels*chunkSamples)
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, &chunkVals); err != nil {
				return nil, fmt.Errorf("archive: decode string chunk %q: %w", path, err)
			}
		}

		chunkStartSample := idx * chunkSamples
		lo, hi := startSample, endSample
		if chunkStartSample > lo {
			lo = chunkStartSample
		}
		if chunkStartSample+chunkSamples < hi {
			hi = chunkStartSample + chunkSamples
		}
		localLo := lo - chunkStartSample
		n := hi - lo

		for c := 0; c < channels; c++ {
			copy(out[c*numSamples+(lo-startSample):c*numSamples+(lo-startSample)+n], chunkVals[c*chunkSamples+localLo:c*chunkSamples+localLo+n])
		}
	}
	return out, nil
}
