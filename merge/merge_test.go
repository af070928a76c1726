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

package merge

import (
	"errors"
	"path"
	"path/filepath"
	"testing"

	"github.com/lslarchive/recorder/archive"
)

// buildInput creates a one-stream archive at dir/name with a small
// float64 time array and the given /meta attributes.
func buildInput(t *testing.T, dir, streamName string, meta map[string]any) string {
	t.Helper()
	root := filepath.Join(dir, streamName+"-input")
	store, err := archive.OpenOrCreate(root)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.WriteAttributes("meta", meta); err != nil {
		t.Fatal(err)
	}
	groupPath := path.Join("streams", streamName)
	if err := store.EnsureGroup(groupPath); err != nil {
		t.Fatal(err)
	}
	arr, err := store.CreateArray(path.Join(groupPath, "time"), archive.KindFloat64, []int{0}, []int{100}, []string{"samples"})
	if err != nil {
		t.Fatal(err)
	}
	if err := arr.WriteFloat64Subset(0, []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	arr.SetShape([]int{3})
	if err := arr.StoreMetadata(); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestRunCopiesDistinctStreamsAndProvenance(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "abc"})
	out := filepath.Join(dir, "merged")

	res, err := Run([]string{in1, in2}, out, PolicyError)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.SkippedInputs) != 0 {
		t.Fatalf("unexpected skipped inputs: %v", res.SkippedInputs)
	}
	if len(res.MergedStreams) != 2 {
		t.Fatalf("got %d merged streams, want 2", len(res.MergedStreams))
	}

	outStore, err := archive.OpenOrCreate(out)
	if err != nil {
		t.Fatal(err)
	}
	names, err := outStore.ListGroups("streams")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Fatalf("got %d stream groups in output, want 2", len(names))
	}
	arr, err := outStore.OpenArray("streams/eeg/time")
	if err != nil {
		t.Fatal(err)
	}
	vals, err := arr.ReadFloat64All()
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 3 || vals[0] != 1 {
		t.Errorf("got %v, want the copied time values [1 2 3]", vals)
	}

	attrs, err := outStore.ReadAttributes("meta")
	if err != nil {
		t.Fatal(err)
	}
	mergedFrom, ok := attrs["merged_from"].([]any)
	if !ok || len(mergedFrom) != 2 {
		t.Errorf("got merged_from = %v, want a 2-element list", attrs["merged_from"])
	}
	if _, ok := attrs["merged_at"]; !ok {
		t.Error("missing merged_at provenance")
	}
	if id, ok := attrs["merge_id"].(string); !ok || id == "" {
		t.Errorf("got merge_id = %v, want a non-empty uuid string", attrs["merge_id"])
	}
}

func TestRunStreamNameCollision(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	out := filepath.Join(dir, "merged")

	_, err := Run([]string{in1, in2}, out, PolicyError)
	if err == nil {
		t.Fatal("expected a stream name collision error")
	}
	var collision *StreamNameCollisionError
	if !errors.As(err, &collision) {
		t.Fatalf("got %v (%T), want *StreamNameCollisionError", err, err)
	}
}

func TestReconcileErrorPolicyOnConflict(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "xyz"})
	out := filepath.Join(dir, "merged")

	_, err := Run([]string{in1, in2}, out, PolicyError)
	if err == nil {
		t.Fatal("expected an attribute conflict error")
	}
	var conflict *AttributeConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v (%T), want *AttributeConflictError", err, err)
	}
}

func TestReconcileUseFirstPolicyKeepsFirstValue(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "xyz"})
	out := filepath.Join(dir, "merged")

	if _, err := Run([]string{in1, in2}, out, PolicyUseFirst); err != nil {
		t.Fatal(err)
	}
	outStore, err := archive.OpenOrCreate(out)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := outStore.ReadAttributes("meta")
	if err != nil {
		t.Fatal(err)
	}
	if attrs["recording_id"] != "abc" {
		t.Errorf("got %v, want the first input's value abc", attrs["recording_id"])
	}
}

func TestReconcileUseLastPolicyKeepsLastValue(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "xyz"})
	out := filepath.Join(dir, "merged")

	if _, err := Run([]string{in1, in2}, out, PolicyUseLast); err != nil {
		t.Fatal(err)
	}
	outStore, err := archive.OpenOrCreate(out)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := outStore.ReadAttributes("meta")
	if err != nil {
		t.Fatal(err)
	}
	if attrs["recording_id"] != "xyz" {
		t.Errorf("got %v, want the last input's value xyz", attrs["recording_id"])
	}
}

func TestReconcileMergePolicyCombinesDistinctValuesIntoArray(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "xyz"})
	out := filepath.Join(dir, "merged")

	if _, err := Run([]string{in1, in2}, out, PolicyMerge); err != nil {
		t.Fatal(err)
	}
	outStore, err := archive.OpenOrCreate(out)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := outStore.ReadAttributes("meta")
	if err != nil {
		t.Fatal(err)
	}
	combined, ok := attrs["recording_id"].([]any)
	if !ok || len(combined) != 2 {
		t.Fatalf("got %v (%T), want a 2-element array of both values", attrs["recording_id"], attrs["recording_id"])
	}
}

func TestReconcileMergePolicyKeepsDuplicateValuesUnDeduplicated(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	in2 := buildInput(t, dir, "gaze", map[string]any{"recording_id": "xyz"})
	in3 := buildInput(t, dir, "ecg", map[string]any{"recording_id": "abc"})
	out := filepath.Join(dir, "merged")

	if _, err := Run([]string{in1, in2, in3}, out, PolicyMerge); err != nil {
		t.Fatal(err)
	}
	outStore, err := archive.OpenOrCreate(out)
	if err != nil {
		t.Fatal(err)
	}
	attrs, err := outStore.ReadAttributes("meta")
	if err != nil {
		t.Fatal(err)
	}
	combined, ok := attrs["recording_id"].([]any)
	if !ok || len(combined) != 3 {
		t.Fatalf("got %v (%T), want a 3-element array with abc repeated in source order, not deduplicated", attrs["recording_id"], attrs["recording_id"])
	}
	want := []any{"abc", "xyz", "abc"}
	for i := range want {
		if combined[i] != want[i] {
			t.Errorf("combined[%d] = %v, want %v", i, combined[i], want[i])
		}
	}
}

func TestRunMissingInputDirMergesAsEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	in1 := buildInput(t, dir, "eeg", map[string]any{"recording_id": "abc"})
	out := filepath.Join(dir, "merged")

	res, err := Run([]string{in1, filepath.Join(dir, "does-not-exist-but-openorcreate-will-make-it")}, out, PolicyError)
	// OpenOrCreate never fails on a missing directory (it creates one),
	// so a genuinely bad input is one whose /meta is unreadable; a
	// freshly created empty archive has no streams and merges cleanly.
	if err != nil {
		t.Fatal(err)
	}
	if len(res.MergedStreams) != 1 {
		t.Errorf("got %d merged streams, want 1", len(res.MergedStreams))
	}
}
