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

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestByteShuffleRoundTrip(t *testing.T) {
	for _, typesize := range []int{2, 4, 8} {
		n := 37
		data := make([]byte, n*typesize)
		for i := range data {
			data[i] = byte(i * 7)
		}
		shuffled := ByteShuffleEncode(data, typesize)
		if len(shuffled) != len(data) {
			t.Fatalf("typesize=%d: shuffled length %d != %d", typesize, len(shuffled), len(data))
		}
		back := ByteShuffleDecode(shuffled, typesize)
		if !bytes.Equal(back, data) {
			t.Errorf("typesize=%d: round trip mismatch", typesize)
		}
	}
}

func TestByteShuffleGroupsPlanes(t *testing.T) {
	// Four uint16 elements; byte-shuffle should place all low bytes
	// first, then all high bytes.
	data := []byte{0x01, 0xAA, 0x02, 0xAA, 0x03, 0xAA, 0x04, 0xAA}
	shuffled := ByteShuffleEncode(data, 2)
	want := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xAA, 0xAA, 0xAA}
	if !bytes.Equal(shuffled, want) {
		t.Errorf("got %v, want %v", shuffled, want)
	}
}

func TestByteShuffleTrivialTypesize(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	if got := ByteShuffleEncode(data, 1); !bytes.Equal(got, data) {
		t.Error("typesize=1 should be a no-op copy")
	}
}

func TestBitShuffleRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 9, 100} {
		data := make([]byte, n*4)
		for i := range data {
			data[i] = byte(i*31 + 5)
		}
		shuffled := BitShuffleEncode(data, 4, n)
		back := BitShuffleDecode(shuffled, 4, n)
		if !bytes.Equal(back, data) {
			t.Errorf("n=%d: round trip mismatch", n)
		}
	}
}

func TestBitShuffleFloat32Values(t *testing.T) {
	values := []float32{1.5, -2.25, 3.75, 0, 100.125}
	n := len(values)
	data := make([]byte, n*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	shuffled := BitShuffleEncode(data, 4, n)
	back := BitShuffleDecode(shuffled, 4, n)
	if !bytes.Equal(back, data) {
		t.Fatal("float32 bit-shuffle round trip mismatch")
	}
	for i, v := range values {
		got := math.Float32frombits(binary.LittleEndian.Uint32(back[i*4:]))
		if got != v {
			t.Errorf("element %d: got %v, want %v", i, got, v)
		}
	}
}
