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
	"github.com/lslarchive/recorder/codec"
)

// ElementKind is the element type of a stream's data array, derived
// from the source stream's channel format. It is intentionally
// decoupled from the lsl package's ChannelFormat so that archive has
// no dependency on the stream-source contract.
type ElementKind int

const (
	KindFloat32 ElementKind = iota
	KindFloat64
	KindInt32
	KindInt16
	KindInt8
	KindString
)

func (k ElementKind) String() string {
	switch k {
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindInt32:
		return "int32"
	case KindInt16:
		return "int16"
	case KindInt8:
		return "int8"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// ByteSize is the fixed element width in bytes, or 0 for the variable
// width string kind.
func (k ElementKind) ByteSize() int {
	switch k {
	case KindFloat32, KindInt32:
		return 4
	case KindFloat64:
		return 8
	case KindInt16:
		return 2
	case KindInt8:
		return 1
	default:
		return 0
	}
}

// CodecPolicy describes how a kind's chunk bytes are filtered and
// compressed before being written to disk, per the fixed table in the
// data model: floats get bit-shuffle, integers get byte-shuffle,
// strings are stored uncompressed.
type CodecPolicy struct {
	Compressor string // name understood by codec.Compression
	Shuffle    codec.ShuffleMode
	TypeSize   int
}

// PolicyFor returns the fixed codec policy for an element kind.
func PolicyFor(kind ElementKind) (CodecPolicy, error) {
	switch kind {
	case KindFloat32:
		return CodecPolicy{Compressor: "lz4", Shuffle: codec.BitShuffle, TypeSize: 4}, nil
	case KindFloat64:
		return CodecPolicy{Compressor: "lz4", Shuffle: codec.BitShuffle, TypeSize: 8}, nil
	case KindInt32:
		return CodecPolicy{Compressor: "lz4", Shuffle: codec.ByteShuffle, TypeSize: 4}, nil
	case KindInt16:
		return CodecPolicy{Compressor: "lz4", Shuffle: codec.ByteShuffle, TypeSize: 2}, nil
	case KindInt8:
		return CodecPolicy{Compressor: "lz4", Shuffle: codec.ByteShuffle, TypeSize: 1}, nil
	case KindString:
		return CodecPolicy{Compressor: "none", Shuffle: codec.NoShuffle, TypeSize: 0}, nil
	default:
		return CodecPolicy{}, &UnsupportedChannelFormatError{Format: kind.String()}
	}
}
