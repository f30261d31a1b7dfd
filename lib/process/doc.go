// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers for the buildwatch
// binary: reporting a fatal error to stderr before or after the
// structured logger exists, and choosing the exit status.
//
// Errors that carry their own status implement [ExitCoder]; everything
// else exits 1.
package process
