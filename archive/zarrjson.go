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

import "github.com/lslarchive/recorder/codec"

// zarrNode is the JSON shape of a zarr.json metadata file. It covers
// both node types ("group" and "array"); array-only fields are empty
// on a group node and vice versa.
type zarrNode struct {
	ZarrFormat       int               `json:"zarr_format"`
	NodeType         string            `json:"node_type"`
	Attributes       map[string]any    `json:"attributes,omitempty"`
	Shape            []int             `json:"shape,omitempty"`
	DataType         string            `json:"data_type,omitempty"`
	ChunkGrid        *chunkGridSpec    `json:"chunk_grid,omitempty"`
	ChunkKeyEncoding *chunkKeyEncoding `json:"chunk_key_encoding,omitempty"`
	FillValue        any               `json:"fill_value,omitempty"`
	Codecs           []codecSpec       `json:"codecs,omitempty"`
	DimensionNames   []string          `json:"dimension_names,omitempty"`
}

type chunkGridSpec struct {
	Name          string            `json:"name"`
	Configuration chunkGridConfig   `json:"configuration"`
}

type chunkGridConfig struct {
	ChunkShape []int `json:"chunk_shape"`
}

type chunkKeyEncoding struct {
	Name string `json:"name"`
}

// codecSpec records the shuffle+compression pipeline applied to an
// array's chunks, in application order.
type codecSpec struct {
	Name          string         `json:"name"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

const zarrFormatVersion = 3

func groupNode(attrs map[string]any) zarrNode {
	return zarrNode{ZarrFormat: zarrFormatVersion, NodeType: "group", Attributes: attrs}
}

func arrayNode(shape []int, dataType string, chunkShape []int, fill any, codecs []codecSpec, dimNames []string) zarrNode {
	return zarrNode{
		ZarrFormat:       zarrFormatVersion,
		NodeType:         "array",
		Shape:            shape,
		DataType:         dataType,
		ChunkGrid:        &chunkGridSpec{Name: "regular", Configuration: chunkGridConfig{ChunkShape: chunkShape}},
		ChunkKeyEncoding: &chunkKeyEncoding{Name: "default"},
		FillValue:        fill,
		Codecs:           codecs,
		DimensionNames:   dimNames,
	}
}

func codecsFor(policy CodecPolicy) []codecSpec {
	var specs []codecSpec
	switch policy.Shuffle {
	case codec.ByteShuffle:
		specs = append(specs, codecSpec{Name: "byteshuffle", Configuration: map[string]any{"typesize": policy.TypeSize}})
	case codec.BitShuffle:
		specs = append(specs, codecSpec{Name: "bitshuffle", Configuration: map[string]any{"typesize": policy.TypeSize}})
	}
	specs = append(specs, codecSpec{Name: policy.Compressor})
	return specs
}
