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

// Command inspect prints an archive's streams and their metadata.
package main

import (
	"encoding/json"
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

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		exitf("usage: inspect <archive-dir>")
	}

	store, err := archive.OpenOrCreate(args[0])
	if err != nil {
		exitf("open archive: %s", err)
	}

	metaAttrs, err := store.ReadAttributes("meta")
	if err != nil {
		exitf("read /meta: %s", err)
	}
	printJSON("meta", metaAttrs)

	names, err := store.ListGroups("streams")
	if err != nil {
		exitf("list streams: %s", err)
	}
	for _, name := range names {
		groupPath := path.Join("streams", name)
		attrs, err := store.ReadAttributes(groupPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: could not read attributes: %s\n", name, err)
			continue
		}

		dataArr, err := store.OpenArray(path.Join(groupPath, "data"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: could not open data array: %s\n", name, err)
			continue
		}
		timeArr, err := store.OpenArray(path.Join(groupPath, "time"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: could not open time array: %s\n", name, err)
			continue
		}

		fmt.Printf("=== %s ===\n", name)
		fmt.Printf("data: shape=%v dtype=%s\n", dataArr.Shape, dataArr.Kind)
		fmt.Printf("time: shape=%v dtype=%s\n", timeArr.Shape, timeArr.Kind)
		if store.ArrayExists(path.Join(groupPath, "aligned_time")) {
			alignedArr, err := store.OpenArray(path.Join(groupPath, "aligned_time"))
			if err == nil {
				fmt.Printf("aligned_time: shape=%v dtype=%s\n", alignedArr.Shape, alignedArr.Kind)
			}
		}
		printJSON("attributes", attrs)
		fmt.Println()
	}
}

func printJSON(label string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", label, err)
		return
	}
	fmt.Printf("%s: %s\n", label, data)
}
