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

// Command record runs a single acquisition loop: resolve one LSL
// source by source_id, open an inlet, and buffer/flush its samples
// into an archive stream until stopped interactively or by a fixed
// duration.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/internal/ctrl"
	"github.com/lslarchive/recorder/lsl"
	"github.com/lslarchive/recorder/lsl/dummy"
	"github.com/lslarchive/recorder/meta"
	"github.com/lslarchive/recorder/record"
)

var (
	sourceID       string
	output         string
	streamName     string
	interactive    bool
	duration       time.Duration
	bufferDefault  int
	flushInterval  time.Duration
	immediateFlush bool
	maxAttempts    int
	resolveTimeout time.Duration
	configPath     string
	verbose        bool
	useDummy       bool
	dummyChannels  int
	dummyRate      float64
	dummyType      string
)

func init() {
	flag.StringVar(&sourceID, "source-id", "", "LSL source_id to resolve and record")
	flag.StringVar(&output, "output", "", "archive directory to record into")
	flag.StringVar(&streamName, "stream-name", "", "stream subgroup name (default: source-id)")
	flag.BoolVar(&interactive, "interactive", false, "drive start/stop via stdin control lines instead of --duration")
	flag.DurationVar(&duration, "duration", 0, "record for a fixed duration, then quit")
	flag.IntVar(&bufferDefault, "buffer", 0, "user-default buffer size in samples (0: derive from nominal rate)")
	flag.DurationVar(&flushInterval, "flush-interval", time.Second, "maximum age of buffered samples before a time-triggered flush")
	flag.BoolVar(&immediateFlush, "immediate-flush", false, "flush after every sample (buffer size 1)")
	flag.IntVar(&maxAttempts, "max-resolve-attempts", 3, "resolve_byprop retry attempts")
	flag.DurationVar(&resolveTimeout, "resolve-timeout", 2*time.Second, "resolve_byprop timeout per attempt")
	flag.StringVar(&configPath, "config", "", "optional YAML file with subject/session_id/notes/global_reference/user metadata")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.BoolVar(&useDummy, "dummy", false, "use a synthetic sine-wave stream instead of resolving a real LSL source (no liblsl required)")
	flag.IntVar(&dummyChannels, "dummy-channels", 4, "channel count for -dummy")
	flag.Float64Var(&dummyRate, "dummy-rate", 100, "nominal sample rate in Hz for -dummy")
	flag.StringVar(&dummyType, "dummy-type", "EEG", "stream type for -dummy")
}

// newDummySource builds a one-stream synthetic lsl.Source bound to
// sourceID, for recording without a real liblsl resolver.
func newDummySource(sourceID, streamType string, channels int, rate float64) lsl.Source {
	return dummy.New(dummy.Config{
		Name:          sourceID,
		StreamType:    streamType,
		SourceID:      sourceID,
		Channels:      uint32(channels),
		SampleRate:    rate,
		ChannelFormat: lsl.FormatFloat32,
		Waveform:      dummy.WaveSine,
		MinFreqHz:     1,
		MaxFreqHz:     10,
	})
}

// runMetadata is the optional YAML document --config points at.
type runMetadata struct {
	Subject         string         `json:"subject"`
	SessionID       string         `json:"session_id"`
	Notes           string         `json:"notes"`
	GlobalReference string         `json:"global_reference"`
	UserMetadata    map[string]any `json:"user_metadata"`
}

func loadRunMetadata(path string) (runMetadata, error) {
	var rm runMetadata
	if path == "" {
		return rm, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rm, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &rm); err != nil {
		return rm, fmt.Errorf("parse config: %w", err)
	}
	return rm, nil
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	if sourceID == "" || output == "" {
		exitf("usage: record -source-id <id> -output <archive-dir> [-stream-name <name>] [-interactive | -duration <d>]")
	}
	if streamName == "" {
		streamName = sourceID
	}
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	log := logrus.WithField("source_id", sourceID)

	rm, err := loadRunMetadata(configPath)
	if err != nil {
		exitf("%s", err)
	}
	if rm.SessionID == "" {
		rm.SessionID = uuid.NewString()
	}

	store, err := archive.OpenOrCreate(output)
	if err != nil {
		exitf("open archive: %s", err)
	}
	if err := store.WriteAttributes("meta", map[string]any{
		"subject":          rm.Subject,
		"session_id":       rm.SessionID,
		"notes":            rm.Notes,
		"start_time":       float64(time.Now().Unix()),
		"global_reference": rm.GlobalReference,
	}); err != nil {
		exitf("write /meta: %s", err)
	}

	var source lsl.Source
	if useDummy {
		source = newDummySource(sourceID, dummyType, dummyChannels, dummyRate)
	} else {
		source, err = lsl.NewDefaultResolver()
		if err != nil {
			exitf("no stream source available: %s", err)
		}
	}

	cfg := record.Config{
		UserDefaultBuffer:  bufferDefault,
		FlushInterval:      flushInterval,
		ImmediateFlush:     immediateFlush,
		MaxResolveAttempts: maxAttempts,
		ResolveTimeout:     resolveTimeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	loop, err := record.Attach(ctx, store, source, sourceID, streamName, cfg, log)
	if err != nil {
		exitf("attach to %q: %s", sourceID, err)
	}

	clockOffset, err := loop.ClockOffset(2 * time.Second)
	if err != nil {
		log.WithError(err).Warn("time_correction failed; recording lsl_clock_offset=0")
		clockOffset = 0
	}
	recorderCfg := meta.RecorderConfigInput{
		FlushInterval:   flushInterval,
		BufferTarget:    loop.Writer().TargetBuffer(),
		ImmediateFlush:  immediateFlush,
		RetryPolicy:     fmt.Sprintf("max_attempts=%d", maxAttempts),
		ResolveTimeout:  resolveTimeout,
		UserMetadata:    rm.UserMetadata,
		RecordedAt:      time.Now(),
		RecorderVersion: "1",
	}
	if err := meta.WriteStreamAttributes(store, streamName, loop.Info(), recorderCfg, clockOffset, nil); err != nil {
		exitf("write stream attributes: %s", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	switch {
	case interactive:
		handler := ctrl.NewHandler(&loop.Recording, &loop.Quit, os.Stdout)
		if err := handler.Run(os.Stdin); err != nil {
			log.WithError(err).Warn("control input closed with an error")
		}
		loop.Quit.Store(true)
	case duration > 0:
		loop.Recording.Store(true)
		time.Sleep(duration)
		loop.Quit.Store(true)
	default:
		loop.Recording.Store(true)
		<-ctx.Done()
		loop.Quit.Store(true)
	}

	if err := <-errCh; err != nil {
		exitf("recording loop: %s", err)
	}
	log.WithField("samples", loop.SampleCount()).Info("recording finished")
}
