// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildstats tracks aggregate build progress: the absolute
// (done, expected, running, failed) counters reported by the builder's
// progress streams, and the multiset of compiler targets currently in
// flight.
//
// The builder reports cumulative totals itself, so an update replaces
// the snapshot rather than adding to it. Only streams that were seen to
// start may update it; anything else is rejected with ErrUnknownStream.
// When a stream ends its last values stay on screen.
//
// The Aggregator also gates redraws: a frame is only worth drawing when
// the snapshot or the target list differs from the last drawn frame.
// Frames are compared by a BLAKE3 digest of their content.
package buildstats
