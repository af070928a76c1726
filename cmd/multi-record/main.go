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

// Command multi-record supervises several `record` child processes
// recording into the same archive under disjoint stream subgroups,
// broadcasting interactive control lines (START/STOP/STOP_AFTER
// n/QUIT) read from its own stdin onto every child's stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	sourceIDs  string
	streamNms  string
	output     string
	configPath string
	recordBin  string
)

func init() {
	flag.StringVar(&sourceIDs, "source-ids", "", "comma-separated list of source_id values to record")
	flag.StringVar(&streamNms, "stream-names", "", "comma-separated list of stream names (default: same as source-ids)")
	flag.StringVar(&output, "output", "", "shared archive directory every child records into")
	flag.StringVar(&configPath, "config", "", "shared YAML metadata file passed to every child")
	flag.StringVar(&recordBin, "record-bin", "record", "path to the record binary")
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func main() {
	flag.Parse()
	ids := splitList(sourceIDs)
	if output == "" || len(ids) == 0 {
		exitf("usage: multi-record -output <dir> -source-ids <id1,id2,...> [-stream-names <n1,n2,...>] [-config <file>]")
	}
	names := splitList(streamNms)
	if len(names) == 0 {
		names = ids
	}
	if len(names) != len(ids) {
		exitf("-stream-names must have the same number of entries as -source-ids")
	}

	children := make([]*exec.Cmd, len(ids))
	stdins := make([]io.WriteCloser, len(ids))

	for i, id := range ids {
		args := []string{"-source-id", id, "-output", output, "-stream-name", names[i], "-interactive"}
		if configPath != "" {
			args = append(args, "-config", configPath)
		}
		cmd := exec.Command(recordBin, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		stdin, err := cmd.StdinPipe()
		if err != nil {
			exitf("pipe stdin for %q: %s", id, err)
		}
		if err := cmd.Start(); err != nil {
			exitf("start recorder for %q: %s", id, err)
		}
		children[i] = cmd
		stdins[i] = stdin
	}

	// Broadcasting does not cancel siblings on a per-child error: a
	// StreamNotFound in one child must not tear down the others.
	var g errgroup.Group
	for i, cmd := range children {
		cmd := cmd
		id := ids[i]
		g.Go(func() error {
			if err := cmd.Wait(); err != nil {
				fmt.Fprintf(os.Stderr, "recorder %q exited: %s\n", id, err)
			}
			return nil
		})
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		for _, stdin := range stdins {
			fmt.Fprintln(stdin, line)
		}
	}
	for _, stdin := range stdins {
		stdin.Close()
	}

	g.Wait()
}
