// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package present renders router output to a terminal.
//
// Two presenters exist. Terminal writes plain lines and keeps a single
// progress line at the bottom of the output, erasing it before anything
// else is printed and drawing it again afterwards. Program hands the
// same output to an inline bubbletea program, which owns the bottom
// line (progress plus a spinner) and prints transcripts and messages
// above it.
//
// Both share one formatting table, Styles, built from a Theme and a
// lipgloss renderer. A renderer with the Ascii color profile produces
// plain text, which is how color is turned off.
package present
