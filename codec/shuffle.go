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

package codec

// ShuffleMode selects the pre-compression byte reordering applied to a
// chunk's raw element bytes. Shuffling groups together bytes that tend
// to vary little between neighboring samples (e.g. the sign/exponent
// byte of a float, or the high byte of a slowly changing integer),
// which is what lets the block compressor find the redundancy.
//
// No third-party library in the retrieval corpus implements these
// filters (they are normally supplied by a native Blosc build); both
// are hand-rolled here.
type ShuffleMode int

const (
	NoShuffle ShuffleMode = iota
	ByteShuffle
	BitShuffle
)

// ByteShuffleEncode reorders n elements of typesize bytes each from
// row-major ([e0b0 e0b1 .. e1b0 e1b1 ..]) to plane-major
// ([e0b0 e1b0 e2b0 .. e0b1 e1b1 ..]). len(data) must be a multiple of
// typesize; the output has the same length.
func ByteShuffleEncode(data []byte, typesize int) []byte {
	if typesize <= 1 || len(data) == 0 {
		return append([]byte(nil), data...)
	}
	n := len(data) / typesize
	out := make([]byte, len(data))
	for j := 0; j < n; j++ {
		elem := data[j*typesize : j*typesize+typesize]
		for k := 0; k < typesize; k++ {
			out[k*n+j] = elem[k]
		}
	}
	return out
}

// ByteShuffleDecode reverses ByteShuffleEncode.
func ByteShuffleDecode(data []byte, typesize int) []byte {
	if typesize <= 1 || len(data) == 0 {
		return append([]byte(nil), data...)
	}
	n := len(data) / typesize
	out := make([]byte, len(data))
	for j := 0; j < n; j++ {
		for k := 0; k < typesize; k++ {
			out[j*typesize+k] = data[k*n+j]
		}
	}
	return out
}

// BitShuffleEncode transposes the bit matrix of n elements of typesize
// bytes each: bit p of every element is packed into its own
// ceil(n/8)-byte plane, and the planes are concatenated in increasing
// bit-position order. The output is never shorter than the input and
// may be longer when n is not a multiple of 8 (the last byte of each
// plane is zero-padded in its high bits). n must be recovered exactly
// by the caller to reverse this with BitShuffleDecode.
func BitShuffleEncode(data []byte, typesize, n int) []byte {
	if n == 0 {
		return nil
	}
	bitsPerElem := typesize * 8
	planeBytes := (n + 7) / 8
	out := make([]byte, bitsPerElem*planeBytes)
	pos := 0
	for p := 0; p < bitsPerElem; p++ {
		byteIdx := p / 8
		bitIdx := uint(p % 8)
		plane := out[pos : pos+planeBytes]
		for j := 0; j < n; j++ {
			b := data[j*typesize+byteIdx]
			bit := (b >> bitIdx) & 1
			plane[j/8] |= bit << uint(j%8)
		}
		pos += planeBytes
	}
	return out
}

// BitShuffleDecode reverses BitShuffleEncode, given the original
// element count n and typesize; it returns exactly n*typesize bytes.
func BitShuffleDecode(shuffled []byte, typesize, n int) []byte {
	if n == 0 {
		return nil
	}
	bitsPerElem := typesize * 8
	planeBytes := (n + 7) / 8
	out := make([]byte, n*typesize)
	pos := 0
	for p := 0; p < bitsPerElem; p++ {
		byteIdx := p / 8
		bitIdx := uint(p % 8)
		plane := shuffled[pos : pos+planeBytes]
		for j := 0; j < n; j++ {
			bit := (plane[j/8] >> uint(j%8)) & 1
			out[j*typesize+byteIdx] |= bit << bitIdx
		}
		pos += planeBytes
	}
	return out
}
