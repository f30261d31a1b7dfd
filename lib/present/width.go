// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import "golang.org/x/term"

// WidthFunc reports the current output width in columns.
type WidthFunc func() int

// TerminalWidth returns a WidthFunc that queries the terminal on fd,
// falling back to DefaultWidth when fd is not a terminal. The size is
// queried on every call so a resized terminal takes effect on the next
// redraw.
func TerminalWidth(fd int) WidthFunc {
	return func() int {
		width, _, err := term.GetSize(fd)
		if err != nil || width <= 0 {
			return DefaultWidth
		}
		return width
	}
}

// FixedWidth returns a WidthFunc that always reports width.
func FixedWidth(width int) WidthFunc {
	return func() int { return width }
}
