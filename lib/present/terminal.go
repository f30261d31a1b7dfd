// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"io"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/buildstats"
	"github.com/bureau-foundation/buildwatch/lib/unit"
)

// eraseStatusLine moves to the start of the previous line (the status
// line, which always ends in a newline) and clears it.
var eraseStatusLine = ansi.CursorPreviousLine(1) + ansi.EraseEntireLine

// Terminal writes output line by line and keeps the progress line at
// the bottom. Every call holds one lock for its whole write, so the
// progress line and transcripts never interleave mid-line.
//
// Write errors are ignored: output is best-effort and a closed stdout
// must not stop the build from being observed.
type Terminal struct {
	mu sync.Mutex

	out         io.Writer
	styles      *Styles
	width       WidthFunc
	interactive bool

	// statusDrawn is true while the last line written is the status
	// line, so the next write must erase it first.
	statusDrawn bool
	hasProgress bool
	snapshot    buildstats.Snapshot
	targets     []buildstats.Target
}

// TerminalConfig configures a Terminal.
type TerminalConfig struct {
	Output io.Writer
	Styles *Styles

	// Width reports the line width for cropping the target list. Nil
	// uses DefaultWidth.
	Width WidthFunc

	// Interactive enables the progress line. Output that is not a
	// terminal gets transcripts and messages only, with no cursor
	// movement.
	Interactive bool
}

// NewTerminal creates a Terminal presenter.
func NewTerminal(config TerminalConfig) *Terminal {
	width := config.Width
	if width == nil {
		width = FixedWidth(DefaultWidth)
	}
	return &Terminal{
		out:         config.Output,
		styles:      config.Styles,
		width:       width,
		interactive: config.Interactive,
	}
}

// ShowProgress replaces the progress line.
func (terminal *Terminal) ShowProgress(snapshot buildstats.Snapshot, targets []buildstats.Target) {
	terminal.mu.Lock()
	defer terminal.mu.Unlock()

	terminal.hasProgress = true
	terminal.snapshot = snapshot
	terminal.targets = targets
	if !terminal.interactive {
		return
	}
	terminal.eraseStatus()
	terminal.drawStatus()
}

// ShowTranscript prints a unit's transcript above the progress line.
func (terminal *Terminal) ShowTranscript(name string, lines []unit.Line) {
	terminal.printAbove(terminal.styles.Transcript(name, lines))
}

// ShowMessage prints a message above the progress line.
func (terminal *Terminal) ShowMessage(severity buildevent.Severity, text, file string) {
	terminal.printAbove(terminal.styles.Message(severity, text, file) + "\n")
}

// Close leaves the last progress line on screen. It never fails.
func (terminal *Terminal) Close() error {
	return nil
}

func (terminal *Terminal) printAbove(text string) {
	terminal.mu.Lock()
	defer terminal.mu.Unlock()

	terminal.eraseStatus()
	io.WriteString(terminal.out, text)
	if terminal.interactive {
		terminal.drawStatus()
	}
}

func (terminal *Terminal) eraseStatus() {
	if !terminal.statusDrawn {
		return
	}
	io.WriteString(terminal.out, eraseStatusLine)
	terminal.statusDrawn = false
}

func (terminal *Terminal) drawStatus() {
	if !terminal.hasProgress {
		return
	}
	line := terminal.styles.Progress(terminal.snapshot, terminal.targets, terminal.width())
	io.WriteString(terminal.out, line+"\n")
	terminal.statusDrawn = true
}
