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

// Command merge copies the streams of several input archives into one
// output archive, reconciling /meta attribute conflicts.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lslarchive/recorder/merge"
)

var (
	output       string
	policyString string
)

func init() {
	flag.StringVar(&output, "o", "", "output archive directory")
	flag.StringVar(&policyString, "conflict", "error", "meta attribute conflict policy: error, use-first, use-last, merge")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	inputs := flag.Args()
	if output == "" || len(inputs) == 0 {
		exitf("usage: merge -o <output-dir> [-conflict <policy>] <input-dir>...")
	}

	result, err := merge.Run(inputs, output, merge.ConflictPolicy(policyString))
	if err != nil {
		exitf("merge: %s", err)
	}

	for _, s := range result.SkippedInputs {
		fmt.Fprintf(os.Stderr, "skipped: %s\n", s)
	}
	fmt.Printf("merged %d stream(s) from %d input(s) into %s\n", len(result.MergedStreams), len(inputs)-len(result.SkippedInputs), output)
}
