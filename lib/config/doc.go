// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads buildwatch settings.
//
// Settings come from four layers, later layers winning:
//
//  1. [Default] values.
//  2. One optional YAML file, named by --config or BUILDWATCH_CONFIG.
//     There is no automatic discovery: without either, no file is read.
//  3. Environment variables ([Environment]): BUILDWATCH_LEVEL,
//     BUILDWATCH_DEBUG, BUILDWATCH_TRACE_FILE, and the NO_COLOR
//     convention (any non-empty value disables color).
//  4. Command-line flags, applied by cmd/buildwatch.
//
// Unknown keys in the file are an error, so a misspelled setting fails
// loudly instead of being ignored.
//
// The trace_file setting expands ${VAR} and ${VAR:-default} after
// loading, so a shared file can write traces under ${XDG_STATE_HOME}.
//
// Key exports:
//
//   - [Config] -- the merged settings
//   - [Load] -- file plus environment, the usual entry point
//   - [LoadFile] and [LookupEnvironment] -- the individual layers
//   - [Config.Attributor] and [Config.Theme] -- build the configured
//     attribution rules and color theme
package config
