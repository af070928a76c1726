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
	"fmt"
	"os"
	"path/filepath"

	"github.com/lslarchive/recorder/codec"
)

// shuffledLen returns the byte length of rawLen bytes (of the given
// typesize) after the shuffle filter in mode has been applied. Only
// BitShuffle can grow the buffer, when the element count isn't a
// multiple of 8.
func shuffledLen(rawLen, typesize int, mode codec.ShuffleMode) int {
	if mode != codec.BitShuffle || typesize <= 0 {
		return rawLen
	}
	n := rawLen / typesize
	bitsPerElem := typesize * 8
	planeBytes := (n + 7) / 8
	return bitsPerElem * planeBytes
}

// EncodeChunk applies the shuffle filter and compressor named by
// policy to raw chunk bytes, returning the bytes to store on disk.
func EncodeChunk(raw []byte, policy CodecPolicy) ([]byte, error) {
	var shuffled []byte
	switch policy.Shuffle {
	case codec.ByteShuffle:
		shuffled = codec.ByteShuffleEncode(raw, policy.TypeSize)
	case codec.BitShuffle:
		n := 0
		if policy.TypeSize > 0 {
			n = len(raw) / policy.TypeSize
		}
		shuffled = codec.BitShuffleEncode(raw, policy.TypeSize, n)
	default:
		shuffled = raw
	}
	comp, err := codec.Compression(policy.Compressor)
	if err != nil {
		return nil, err
	}
	return comp.Compress(shuffled, nil)
}

// DecodeChunk reverses EncodeChunk. rawLen is the expected decoded
// (pre-shuffle) byte length, derived by the caller from the chunk's
// logical shape.
func DecodeChunk(data []byte, rawLen int, policy CodecPolicy) ([]byte, error) {
	decomp, err := codec.Decompression(policy.Compressor)
	if err != nil {
		return nil, err
	}
	sLen := shuffledLen(rawLen, policy.TypeSize, policy.Shuffle)
	shuffled, err := decomp.Decompress(data, sLen)
	if err != nil {
		return nil, err
	}
	switch policy.Shuffle {
	case codec.ByteShuffle:
		return codec.ByteShuffleDecode(shuffled, policy.TypeSize), nil
	case codec.BitShuffle:
		n := 0
		if policy.TypeSize > 0 {
			n = rawLen / policy.TypeSize
		}
		return codec.BitShuffleDecode(shuffled, policy.TypeSize, n), nil
	default:
		return shuffled, nil
	}
}

// writeChunkFile encodes raw and writes it to path, creating parent
// directories as needed.
func writeChunkFile(path string, raw []byte, policy CodecPolicy) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("archive: mkdir chunk dir: %w", err)
	}
	encoded, err := EncodeChunk(raw, policy)
	if err != nil {
		return fmt.Errorf("archive: encode chunk: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("archive: write chunk %q: %w", path, err)
	}
	return nil
}

// readChunkFile reads and decodes the chunk at path, given the
// expected decoded byte length.
func readChunkFile(path string, rawLen int, policy CodecPolicy) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("archive: read chunk %q: %w", path, err)
	}
	return DecodeChunk(data, rawLen, policy)
}
