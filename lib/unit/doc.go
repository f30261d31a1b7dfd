// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unit tracks build units across their start/stop lifecycle.
//
// A [Registry] holds the units of one producer family. Each unit has a
// name, an append-only buffer of [Line] values, a [State], and a failed
// flag that is set independently of the state (failure is often learned
// from a later, unrelated message). The buffer is moved out exactly once
// by [Registry.Flush]; afterwards the id is unknown to the registry.
//
// Producers recycle ids, so [Registry.Start] on a known id replaces the
// previous unit outright.
//
// Registries are not safe for concurrent use. The router owns them and
// processes one event at a time.
package unit
