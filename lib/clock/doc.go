// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Code that makes decisions based on the current time accepts a Clock
// instead of calling time.Now directly. In production, Real() reads the
// system clock. In tests, Fake() returns a clock that stands still
// until Advance is called, so time-dependent behavior (the read loop's
// log throttle) is deterministic:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	stream.Run(ctx, stream.Config{..., Clock: fake})
//	fake.Advance(time.Second)
package clock
