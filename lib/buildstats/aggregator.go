// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildstats

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
)

// ErrUnknownStream is returned by Update for an id that was never
// registered or has already been unregistered.
var ErrUnknownStream = errors.New("unknown stats stream")

// Snapshot is one absolute progress report.
type Snapshot struct {
	Done     uint64
	Expected uint64
	Running  uint64
	Failed   uint64
}

// SnapshotFromEvent extracts the four progress counters from a stats
// update. The event must carry exactly four unsigned integer fields in
// the order done, expected, running, failed.
func SnapshotFromEvent(event buildevent.Event) (Snapshot, error) {
	if len(event.Fields) != 4 {
		return Snapshot{}, fmt.Errorf("%w: progress update has %d fields, want 4",
			buildevent.ErrMalformedEvent, len(event.Fields))
	}
	var values [4]uint64
	for index := range values {
		value, ok := event.FieldUint(index)
		if !ok {
			return Snapshot{}, fmt.Errorf("%w: progress field %d is %v, want an unsigned integer",
				buildevent.ErrMalformedEvent, index, event.Field(index))
		}
		values[index] = value
	}
	return Snapshot{
		Done:     values[0],
		Expected: values[1],
		Running:  values[2],
		Failed:   values[3],
	}, nil
}

// Aggregator owns the progress snapshot and the set of stream ids
// allowed to update it. Not safe for concurrent use.
type Aggregator struct {
	snapshot Snapshot
	active   map[uint64]struct{}

	// reported is set by the first accepted update; no frame is drawn
	// before it.
	reported  bool
	lastFrame [32]byte
	drawn     bool
}

// NewAggregator returns an aggregator with a zero snapshot and no
// active streams.
func NewAggregator() *Aggregator {
	return &Aggregator{active: make(map[uint64]struct{})}
}

// Register authorizes id to update the snapshot.
func (aggregator *Aggregator) Register(id uint64) {
	aggregator.active[id] = struct{}{}
}

// Unregister revokes id. The snapshot keeps the last values reported.
// Returns false when id was not active.
func (aggregator *Aggregator) Unregister(id uint64) bool {
	if _, ok := aggregator.active[id]; !ok {
		return false
	}
	delete(aggregator.active, id)
	return true
}

// IsActive reports whether id is currently registered.
func (aggregator *Aggregator) IsActive(id uint64) bool {
	_, ok := aggregator.active[id]
	return ok
}

// Update replaces the snapshot with values reported by stream id.
func (aggregator *Aggregator) Update(id uint64, snapshot Snapshot) error {
	if !aggregator.IsActive(id) {
		return fmt.Errorf("%w: id %d", ErrUnknownStream, id)
	}
	aggregator.snapshot = snapshot
	aggregator.reported = true
	return nil
}

// Snapshot returns the current counters.
func (aggregator *Aggregator) Snapshot() Snapshot {
	return aggregator.snapshot
}

// ShouldRender reports whether the frame made of the current snapshot
// and targets differs from the last frame it approved. A true result
// records the frame as drawn, so callers must render when it returns
// true. Nothing is approved until a stream has reported; after that
// the first frame always is.
func (aggregator *Aggregator) ShouldRender(targets []Target) bool {
	if !aggregator.reported {
		return false
	}
	frame := frameDigest(aggregator.snapshot, targets)
	if aggregator.drawn && frame == aggregator.lastFrame {
		return false
	}
	aggregator.lastFrame = frame
	aggregator.drawn = true
	return true
}

// frameDigest hashes everything the progress line shows. Target names
// are length-prefixed so that no two distinct lists encode the same.
func frameDigest(snapshot Snapshot, targets []Target) [32]byte {
	buffer := make([]byte, 0, 64+len(targets)*24)
	buffer = binary.BigEndian.AppendUint64(buffer, snapshot.Done)
	buffer = binary.BigEndian.AppendUint64(buffer, snapshot.Expected)
	buffer = binary.BigEndian.AppendUint64(buffer, snapshot.Running)
	buffer = binary.BigEndian.AppendUint64(buffer, snapshot.Failed)
	for _, target := range targets {
		buffer = binary.BigEndian.AppendUint64(buffer, uint64(len(target.Name)))
		buffer = append(buffer, target.Name...)
		buffer = binary.BigEndian.AppendUint64(buffer, uint64(target.Count))
	}
	return blake3.Sum256(buffer)
}
