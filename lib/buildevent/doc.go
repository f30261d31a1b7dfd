// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildevent decodes the line-oriented event stream produced by
// a build pipeline into typed [Event] values.
//
// Two producer families share the stream. Each participating line
// starts with a fixed marker followed by one JSON object:
//
//	@nix {"action":"start","id":17,"type":105,"text":"building '/nix/store/...drv'"}
//	@cargo {"action":"exit","type":2,"id":3,"crate_name":"serde","exit_code":0}
//
// The builder family (marker "@nix ") is the Nix internal-json log:
// per-derivation log activities, aggregate build statistics, and free
// text messages. The compiler family (marker "@cargo ") is emitted by
// a per-crate rustc wrapper. Lines without a marker are inert: [Decode]
// reports them as not participating and returns no error.
//
// The wire format reuses action names across families ("start" is a
// statistics stream for type 104 and a derivation log for type 105),
// so classification is a table lookup on (family, action, type). The
// "stop" action cannot be classified from the line alone; it decodes
// as [KindUnitLogStop] and the router resolves it against live state.
//
// A builder log line whose text is itself a compiler-family line is
// unwrapped into the nested compiler event. This is how rustc output
// looks when the wrapper runs inside a Nix build sandbox: Nix captures
// the wrapper's stdout one line at a time.
//
// Decoding is a pure function of the input line.
package buildevent
