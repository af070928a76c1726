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

// Package merge implements the Merge Engine: it copies the streams of
// several input archives byte-for-byte into one output archive,
// reconciling their /meta attributes under a configurable conflict
// policy and recording provenance.
package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/lslarchive/recorder/archive"
)

// ConflictPolicy controls how differing /meta attribute values across
// input archives are reconciled.
type ConflictPolicy string

const (
	PolicyError    ConflictPolicy = "error"
	PolicyUseFirst ConflictPolicy = "use-first"
	PolicyUseLast  ConflictPolicy = "use-last"
	PolicyMerge    ConflictPolicy = "merge"
)

// Result summarizes one merge run.
type Result struct {
	MergedStreams []string
	SkippedInputs []*LoadError
}

// Run merges the archives at inputPaths into a new (or existing,
// empty) archive at outputPath under the given conflict policy, and
// records merged_from/merged_at/merge_id provenance on the output's
// /meta.
func Run(inputPaths []string, outputPath string, policy ConflictPolicy) (*Result, error) {
	out, err := archive.OpenOrCreate(outputPath)
	if err != nil {
		return nil, fmt.Errorf("merge: open output archive: %w", err)
	}

	res := &Result{}
	seenStreams := map[string]string{} // stream name -> source path
	mergedMeta := map[string]any{}
	seenValues := map[string][]any{}
	mergedFrom := []string{}

	for _, in := range inputPaths {
		src, err := archive.OpenOrCreate(in)
		if err != nil {
			res.SkippedInputs = append(res.SkippedInputs, &LoadError{Path: in, Err: err})
			continue
		}

		attrs, err := src.ReadAttributes("meta")
		if err != nil {
			res.SkippedInputs = append(res.SkippedInputs, &LoadError{Path: in, Err: err})
			continue
		}
		if err := reconcile(mergedMeta, seenValues, attrs, policy); err != nil {
			return nil, err
		}

		names, err := src.ListGroups("streams")
		if err != nil {
			res.SkippedInputs = append(res.SkippedInputs, &LoadError{Path: in, Err: err})
			continue
		}
		for _, name := range names {
			if _, ok := seenStreams[name]; ok {
				return nil, &StreamNameCollisionError{Stream: name}
			}
			seenStreams[name] = in
			if err := copyStreamGroup(in, outputPath, name); err != nil {
				return nil, fmt.Errorf("merge: copy stream %q from %q: %w", name, in, err)
			}
			res.MergedStreams = append(res.MergedStreams, name)
		}
		mergedFrom = append(mergedFrom, in)
	}

	mergedMeta["merged_from"] = mergedFrom
	mergedMeta["merged_at"] = time.Now().UTC().Format(time.RFC3339)
	mergedMeta["merge_id"] = uuid.NewString()
	if err := out.WriteAttributes("meta", mergedMeta); err != nil {
		return nil, fmt.Errorf("merge: write output /meta: %w", err)
	}
	return res, nil
}

// reconcile folds one input's /meta attributes into the accumulated
// merged set under policy, tracking every value seen per key in
// source order (duplicates included) so the "merge" policy can
// combine them into an array.
func reconcile(merged map[string]any, seenValues map[string][]any, attrs map[string]any, policy ConflictPolicy) error {
	for k, v := range attrs {
		existing, had := merged[k]
		seenValues[k] = append(seenValues[k], v)

		if !had {
			merged[k] = v
			continue
		}
		if reflect.DeepEqual(existing, v) {
			continue
		}
		switch policy {
		case PolicyError:
			return &AttributeConflictError{Key: k}
		case PolicyUseFirst:
			// keep existing
		case PolicyUseLast:
			merged[k] = v
		case PolicyMerge:
			merged[k] = seenValues[k]
		default:
			return &AttributeConflictError{Key: k}
		}
	}
	return nil
}

// copyStreamGroup copies streams/<name> byte-for-byte from the input
// archive root to the output archive root, preserving the zarr.json
// metadata and chunk files exactly (the output array is thereby
// created with the same builder parameters as the input).
func copyStreamGroup(inputRoot, outputRoot, name string) error {
	src := filepath.Join(inputRoot, "streams", name)
	dst := filepath.Join(outputRoot, "streams", name)
	return copyTree(src, dst)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
