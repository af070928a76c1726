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

// Command validate computes and prints per-stream and cross-stream
// timing diagnostics for a recorded archive: monotonicity, effective
// sample rate, and (when alignment has run) the common window.
package main

import (
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/lslarchive/recorder/archive"
)

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func trueExtent(times []float64) []float64 {
	n := len(times)
	for n > 0 && times[n-1] == 0.0 {
		n--
	}
	return times[:n]
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		exitf("usage: validate <archive-dir>")
	}

	store, err := archive.OpenOrCreate(args[0])
	if err != nil {
		exitf("open archive: %s", err)
	}

	names, err := store.ListGroups("streams")
	if err != nil {
		exitf("list streams: %s", err)
	}

	var anyAligned bool
	commonStart, commonEnd := negInf, posInf

	for _, name := range names {
		groupPath := path.Join("streams", name)
		timeArr, err := store.OpenArray(path.Join(groupPath, "time"))
		if err != nil {
			fmt.Printf("%s: could not open time array: %s\n", name, err)
			continue
		}
		raw, err := timeArr.ReadFloat64All()
		if err != nil {
			fmt.Printf("%s: could not read time array: %s\n", name, err)
			continue
		}
		times := trueExtent(raw)
		if len(times) == 0 {
			fmt.Printf("%s: no samples\n", name)
			continue
		}

		monotonic := true
		var sumInterval float64
		for i := 1; i < len(times); i++ {
			if times[i] < times[i-1] {
				monotonic = false
			}
			sumInterval += times[i] - times[i-1]
		}
		rate := 0.0
		if len(times) > 1 {
			rate = float64(len(times)-1) / sumInterval
		}
		fmt.Printf("%s: samples=%d span=[%.6f, %.6f] monotonic=%v effective_rate=%.3fHz\n",
			name, len(times), times[0], times[len(times)-1], monotonic, rate)

		if store.ArrayExists(path.Join(groupPath, "aligned_time")) {
			alignedArr, err := store.OpenArray(path.Join(groupPath, "aligned_time"))
			if err == nil {
				alignedRaw, err := alignedArr.ReadFloat64All()
				if err == nil {
					aligned := trueExtent(alignedRaw)
					if len(aligned) > 0 {
						anyAligned = true
						if aligned[0] > commonStart {
							commonStart = aligned[0]
						}
						last := aligned[len(aligned)-1]
						if last < commonEnd {
							commonEnd = last
						}
						fmt.Printf("  aligned_time: span=[%.6f, %.6f]\n", aligned[0], last)
					}
				}
			}
		}
	}

	if anyAligned {
		fmt.Printf("cross-stream common window: [%.6f, %.6f]\n", commonStart, commonEnd)
	}
}

const negInf = -1 << 62
const posInf = 1 << 62
