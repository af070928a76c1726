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

// Package archive implements the chunked, compressed, self-describing
// columnar container (the "Zarr v3"-style archive) that recorded
// streams are persisted into: groups and arrays backed by a
// filesystem directory tree, with cross-process advisory locking
// around root-group creation and metadata updates.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
)

const metadataFileName = "zarr.json"

// Store is an open archive: a root directory containing the /meta and
// /streams group tree.
type Store struct {
	Root string
	log  *logrus.Entry
}

// OpenOrCreate idempotently materializes the archive root directory
// and its /meta and /streams groups, then returns a Store bound to it.
// Root-group creation is guarded by the exclusive .zarr_init.lock.
func OpenOrCreate(root string) (*Store, error) {
	log := logrus.WithField("archive", root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir root: %v", ErrInitFailed, err)
	}
	s := &Store{Root: root, log: log}

	err := withInitLock(root, func() error {
		if !s.nodeExists("") {
			if err := s.writeNode("", groupNode(nil)); err != nil {
				return err
			}
		}
		if !s.nodeExists("meta") {
			if err := s.writeNode("meta", groupNode(map[string]any{})); err != nil {
				return err
			}
		}
		if !s.nodeExists("streams") {
			if err := s.writeNode("streams", groupNode(nil)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("archive opened")
	return s, nil
}

func (s *Store) absPath(relPath string) string {
	if relPath == "" {
		return s.Root
	}
	return filepath.Join(s.Root, filepath.FromSlash(relPath))
}

func (s *Store) metaFilePath(relPath string) string {
	return filepath.Join(s.absPath(relPath), metadataFileName)
}

func (s *Store) nodeExists(relPath string) bool {
	_, err := os.Stat(s.metaFilePath(relPath))
	return err == nil
}

func (s *Store) readNode(relPath string) (zarrNode, error) {
	data, err := os.ReadFile(s.metaFilePath(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return zarrNode{}, ErrNotFound
		}
		return zarrNode{}, fmt.Errorf("archive: read %q: %w", relPath, err)
	}
	var n zarrNode
	if err := json.Unmarshal(data, &n); err != nil {
		return zarrNode{}, fmt.Errorf("archive: decode %q: %w", relPath, err)
	}
	return n, nil
}

func (s *Store) writeNode(relPath string, n zarrNode) error {
	dir := s.absPath(relPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("archive: mkdir %q: %w", relPath, err)
	}
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode %q: %w", relPath, err)
	}
	if err := os.WriteFile(s.metaFilePath(relPath), data, 0o644); err != nil {
		return fmt.Errorf("archive: write %q: %w", relPath, err)
	}
	return nil
}

// GroupExists reports whether relPath names an existing group.
func (s *Store) GroupExists(relPath string) bool {
	n, err := s.readNode(relPath)
	return err == nil && n.NodeType == "group"
}

// ArrayExists reports whether relPath names an existing array.
func (s *Store) ArrayExists(relPath string) bool {
	n, err := s.readNode(relPath)
	return err == nil && n.NodeType == "array"
}

// EnsureGroup idempotently creates a group at relPath, including any
// missing parent groups.
func (s *Store) EnsureGroup(relPath string) error {
	if s.GroupExists(relPath) {
		return nil
	}
	parent := filepath.ToSlash(filepath.Dir(filepath.FromSlash(relPath)))
	if parent != "." && parent != "" && !s.GroupExists(parent) {
		if err := s.EnsureGroup(parent); err != nil {
			return err
		}
	}
	return s.writeNode(relPath, groupNode(map[string]any{}))
}

// ListGroups returns the sorted names of relPath's immediate
// subdirectories that are themselves group nodes (e.g. the recorded
// stream names under "streams").
func (s *Store) ListGroups(relPath string) ([]string, error) {
	entries, err := os.ReadDir(s.absPath(relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("archive: list %q: %w", relPath, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		child := relPath + "/" + e.Name()
		if s.GroupExists(child) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadAttributes returns the attributes object of the group or array
// at relPath.
func (s *Store) ReadAttributes(relPath string) (map[string]any, error) {
	n, err := s.readNode(relPath)
	if err != nil {
		return nil, err
	}
	if n.Attributes == nil {
		return map[string]any{}, nil
	}
	return n.Attributes, nil
}

// WriteAttributes merges attrs into the node's existing attributes and
// rewrites its zarr.json. Array structural fields (shape, codecs, ...)
// are preserved.
func (s *Store) WriteAttributes(relPath string, attrs map[string]any) error {
	n, err := s.readNode(relPath)
	if err != nil {
		return err
	}
	if n.Attributes == nil {
		n.Attributes = map[string]any{}
	}
	for k, v := range attrs {
		n.Attributes[k] = v
	}
	return s.writeNode(relPath, n)
}

// WithMetadataLock runs fn while holding the archive's exclusive
// .zarr_metadata.lock. Callers use this around the paired
// store_metadata(data)+store_metadata(time) sequence of a flush.
func (s *Store) WithMetadataLock(fn func() error) error {
	return withMetadataLock(s.Root, fn)
}

// Log returns the archive-scoped logger, for components that want to
// add their own fields (e.g. per-stream).
func (s *Store) Log() *logrus.Entry { return s.log }
