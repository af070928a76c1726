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

// Command align runs the post-hoc cross-stream timestamp-alignment
// pass over an existing archive in place.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lslarchive/recorder/align"
	"github.com/lslarchive/recorder/archive"
)

var (
	mode      string
	trimStart bool
	trimEnd   bool
)

func init() {
	flag.StringVar(&mode, "mode", "common-start", "alignment mode: common-start, first-stream, last-stream, absolute-zero")
	flag.BoolVar(&trimStart, "trim-start", false, "compute trim_start_index against the common window")
	flag.BoolVar(&trimEnd, "trim-end", false, "compute trim_end_index against the common window")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		exitf("usage: align [-mode <mode>] [-trim-start] [-trim-end] <archive-dir>")
	}

	store, err := archive.OpenOrCreate(args[0])
	if err != nil {
		exitf("open archive: %s", err)
	}

	results, err := align.Run(store, align.Options{
		Mode:      align.Mode(mode),
		TrimStart: trimStart,
		TrimEnd:   trimEnd,
	})
	if err != nil {
		exitf("align: %s", err)
	}

	for _, r := range results {
		if r.Skipped {
			fmt.Printf("%s: skipped (%v)\n", r.Stream, r.SkipReason)
			continue
		}
		fmt.Printf("%s: offset=%.6f trim=[%d,%d) of %d samples\n", r.Stream, r.Offset, r.TrimStartIndex, r.TrimEndIndex, r.OriginalSampleCount)
	}
}
