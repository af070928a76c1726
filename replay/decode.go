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

package replay

import (
	"encoding/binary"
	"math"
)

// decode*Row unpacks a single channel-major sample row (numSamples==1,
// so channel c occupies byte c*typesize) into a per-channel slice.

func decodeFloat32Row(raw []byte, channels int) []float32 {
	out := make([]float32, channels)
	for c := 0; c < channels; c++ {
		out[c] = math.Float32frombits(binary.LittleEndian.Uint32(raw[c*4:]))
	}
	return out
}

func decodeFloat64Row(raw []byte, channels int) []float64 {
	out := make([]float64, channels)
	for c := 0; c < channels; c++ {
		out[c] = math.Float64frombits(binary.LittleEndian.Uint64(raw[c*8:]))
	}
	return out
}

func decodeInt32Row(raw []byte, channels int) []int32 {
	out := make([]int32, channels)
	for c := 0; c < channels; c++ {
		out[c] = int32(binary.LittleEndian.Uint32(raw[c*4:]))
	}
	return out
}

func decodeInt16Row(raw []byte, channels int) []int16 {
	out := make([]int16, channels)
	for c := 0; c < channels; c++ {
		out[c] = int16(binary.LittleEndian.Uint16(raw[c*2:]))
	}
	return out
}

func decodeInt8Row(raw []byte, channels int) []int8 {
	out := make([]int8, channels)
	for c := 0; c < channels; c++ {
		out[c] = int8(raw[c])
	}
	return out
}
