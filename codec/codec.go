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

// Package codec provides a unified interface wrapping the third-party
// compression library used for archive chunk payloads, plus the
// byte/bit shuffle filters that make numeric chunks compress well.
//
// It plays the same role here that a Blosc binding plays in the Python
// Zarr ecosystem: a pre-compression shuffle filter followed by a fast
// block compressor, named and parameterized per array (see
// archive.CodecPolicy).
package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// Compressor describes the interface a chunk encoder needs a
// compression algorithm to implement.
type Compressor interface {
	// Name is the name of the compression algorithm, persisted in
	// array metadata so a reader can select a matching Decompressor.
	Name() string
	// Compress appends the compressed contents of src to dst and
	// returns the result.
	Compress(src, dst []byte) ([]byte, error)
}

// Decompressor is the interface a chunk decoder uses to reverse a
// Compressor's output.
type Decompressor interface {
	Name() string
	// Decompress decompresses src into a buffer of exactly decodedLen
	// bytes and returns it.
	Decompress(src []byte, decodedLen int) ([]byte, error)
}

type lz4Compressor struct{}

func (lz4Compressor) Name() string { return "lz4" }

func (lz4Compressor) Compress(src, dst []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(src))
	start := len(dst)
	if cap(dst)-start < bound {
		grown := make([]byte, start, start+bound)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+bound]
	var c lz4.Compressor
	n, err := c.CompressBlock(src, dst[start:])
	if err != nil {
		return nil, fmt.Errorf("codec: lz4 compress: %w", err)
	}
	if n == 0 && len(src) > 0 {
		// incompressible input: lz4 declines to emit a block smaller
		// than the source, so fall back to storing it verbatim; the
		// decompressor accepts a payload that fails to decode as LZ4
		// and is exactly decodedLen bytes long as stored verbatim.
		dst = append(dst[:start], src...)
		return dst, nil
	}
	return dst[:start+n], nil
}

type lz4Decompressor struct{}

func (lz4Decompressor) Name() string { return "lz4" }

func (lz4Decompressor) Decompress(src []byte, decodedLen int) ([]byte, error) {
	dst := make([]byte, decodedLen)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		if len(src) == decodedLen {
			// verbatim fallback written by lz4Compressor.Compress
			copy(dst, src)
			return dst, nil
		}
		return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
	}
	if n != decodedLen {
		return nil, fmt.Errorf("codec: lz4 decompress: expected %d bytes, got %d", decodedLen, n)
	}
	return dst, nil
}

type noneCompressor struct{}

func (noneCompressor) Name() string                             { return "none" }
func (noneCompressor) Compress(src, dst []byte) ([]byte, error) { return append(dst, src...), nil }

type noneDecompressor struct{}

func (noneDecompressor) Name() string { return "none" }
func (noneDecompressor) Decompress(src []byte, decodedLen int) ([]byte, error) {
	if len(src) != decodedLen {
		return nil, fmt.Errorf("codec: none: expected %d bytes, got %d", decodedLen, len(src))
	}
	out := make([]byte, decodedLen)
	copy(out, src)
	return out, nil
}

// Compression selects a Compressor by name.
func Compression(name string) (Compressor, error) {
	switch name {
	case "lz4":
		return lz4Compressor{}, nil
	case "none":
		return noneCompressor{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown compressor %q", name)
	}
}

// Decompression selects a Decompressor by name.
func Decompression(name string) (Decompressor, error) {
	switch name {
	case "lz4":
		return lz4Decompressor{}, nil
	case "none":
		return noneDecompressor{}, nil
	default:
		return nil, fmt.Errorf("codec: unknown decompressor %q", name)
	}
}
