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

package main

import (
	"reflect"
	"testing"
)

func TestTrueExtentTrimsTrailingZeroFill(t *testing.T) {
	got := trueExtent([]float64{1, 2, 3, 0, 0, 0})
	want := []float64{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTrueExtentKeepsGenuineZeroFirstSample(t *testing.T) {
	got := trueExtent([]float64{0, 1, 2})
	want := []float64{0, 1, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v (a leading zero timestamp is real data, not fill)", got, want)
	}
}

func TestTrueExtentAllZerosIsEmpty(t *testing.T) {
	got := trueExtent([]float64{0, 0, 0})
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestTrueExtentEmptyInput(t *testing.T) {
	got := trueExtent(nil)
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
