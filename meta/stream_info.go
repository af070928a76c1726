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

package meta

import (
	"time"

	"github.com/lslarchive/recorder/archive"
	"github.com/lslarchive/recorder/lsl"
)

// BuildStreamInfo assembles the stream_info attribute object from a
// resolved stream descriptor, decoding its XML <desc> subtree into a
// single-level "description" object of leaf elements.
func BuildStreamInfo(info lsl.StreamInfo) (map[string]any, error) {
	desc, err := DecodeDescriptor(info.XMLDesc)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":           info.StreamType,
		"source_id":      info.SourceID,
		"hostname":       info.Hostname,
		"channel_count":  info.ChannelCount,
		"nominal_srate":  info.NominalSRate,
		"channel_format": info.ChannelFormat.String(),
		"created_at":     info.CreatedAt,
		"uid":            info.UID,
		"session_id":     info.SessionID,
		"version":        info.Version,
		"description":    desc,
	}, nil
}

// RecorderConfigInput carries the buffering/retry/resolve knobs a
// recording run was configured with, for provenance purposes.
type RecorderConfigInput struct {
	FlushInterval   time.Duration
	BufferTarget    int
	ImmediateFlush  bool
	RetryPolicy     string
	ResolveTimeout  time.Duration
	UserMetadata    map[string]any
	RecordedAt      time.Time
	RecorderVersion string
}

// BuildRecorderConfig assembles the recorder_config attribute object.
func BuildRecorderConfig(in RecorderConfigInput) map[string]any {
	return map[string]any{
		"flush_interval_ms":  in.FlushInterval.Milliseconds(),
		"buffer_target":      in.BufferTarget,
		"immediate_flush":    in.ImmediateFlush,
		"retry_policy":       in.RetryPolicy,
		"resolve_timeout_ms": in.ResolveTimeout.Milliseconds(),
		"user_metadata":      in.UserMetadata,
		"recorded_at":        in.RecordedAt.UTC().Format(time.RFC3339),
		"recorder_version":   in.RecorderVersion,
	}
}

// SyncAttributes assembles the lsl_clock_offset / first_timestamp sync
// attributes recorded once an inlet's time correction and first
// successfully ingested sample are known. firstTimestamp is omitted
// when nil (no sample was ingested yet).
func SyncAttributes(clockOffset float64, firstTimestamp *float64) map[string]any {
	attrs := map[string]any{
		"lsl_clock_offset": clockOffset,
	}
	if firstTimestamp != nil {
		attrs["first_timestamp"] = *firstTimestamp
	}
	return attrs
}

// WriteStreamAttributes merges stream_info, recorder_config, and sync
// attributes onto the stream group at streams/<name> in a single
// metadata-locked write.
func WriteStreamAttributes(store *archive.Store, streamName string, info lsl.StreamInfo, cfg RecorderConfigInput, clockOffset float64, firstTimestamp *float64) error {
	streamInfo, err := BuildStreamInfo(info)
	if err != nil {
		return err
	}
	attrs := map[string]any{
		"stream_info":     streamInfo,
		"recorder_config": BuildRecorderConfig(cfg),
	}
	for k, v := range SyncAttributes(clockOffset, firstTimestamp) {
		attrs[k] = v
	}
	path := "streams/" + streamName
	return store.WithMetadataLock(func() error {
		return store.WriteAttributes(path, attrs)
	})
}
