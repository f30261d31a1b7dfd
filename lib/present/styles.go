// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/buildstats"
	"github.com/bureau-foundation/buildwatch/lib/unit"
)

// DefaultWidth is the line width assumed when the terminal size is
// unknown.
const DefaultWidth = 80

// transcriptIndent prefixes every transcript line.
const transcriptIndent = "  "

// NewRenderer returns a lipgloss renderer for out. With color off the
// renderer uses the Ascii profile and emits no escape sequences; with
// color on the profile is detected from out.
func NewRenderer(out io.Writer, color bool) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(out)
	if !color {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return renderer
}

// Styles is the formatting table shared by every presenter: one style
// per progress counter, per transcript line kind, and per message
// severity.
type Styles struct {
	color bool

	done     lipgloss.Style
	expected lipgloss.Style
	running  lipgloss.Style
	failed   lipgloss.Style

	lines      map[unit.LineKind]lipgloss.Style
	severities map[buildevent.Severity]lipgloss.Style
	faint      lipgloss.Style
	spinner    lipgloss.Style
}

// NewStyles builds the formatting table for theme on renderer.
func NewStyles(renderer *lipgloss.Renderer, theme Theme) *Styles {
	// Transcript text is printed as the builder wrote it, tabs included.
	base := renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)

	styles := &Styles{
		color: renderer.ColorProfile() != termenv.Ascii,

		done:     base.Foreground(theme.Done),
		expected: base.Foreground(theme.Expected),
		running:  base.Foreground(theme.Running),
		failed:   base.Foreground(theme.Failed),

		lines: map[unit.LineKind]lipgloss.Style{
			unit.LineOutput: base.Faint(true),
			unit.LinePhase:  base.Foreground(theme.Phase),
			unit.LineOther:  base,
		},
		severities: make(map[buildevent.Severity]lipgloss.Style, len(theme.SeverityColors)),
		faint:      base.Faint(true),
		spinner:    base.Foreground(theme.Spinner),
	}
	for index, color := range theme.SeverityColors {
		styles.severities[buildevent.Severity(index)] = base.Foreground(color)
	}
	return styles
}

// Color reports whether the table emits escape sequences.
func (styles *Styles) Color() bool {
	return styles.color
}

// Progress formats the progress line:
//
//	[ 5 Done | 10 Expected | 2 Running | 0 Failed ] anyhow, syn (×2)
//
// Targets that do not fit in width are left off; a target is never
// cut in the middle.
func (styles *Styles) Progress(snapshot buildstats.Snapshot, targets []buildstats.Target, width int) string {
	plainCounters := styles.counters(snapshot, func(_ lipgloss.Style, value string) string { return value })
	line := styles.counters(snapshot, func(style lipgloss.Style, value string) string { return style.Render(value) })

	targetList := fitTargets(targets, width-ansi.StringWidth(plainCounters)-1)
	if targetList == "" {
		return line
	}
	return line + " " + targetList
}

// counters builds the bracketed counter block, passing each number
// through paint with its style.
func (styles *Styles) counters(snapshot buildstats.Snapshot, paint func(lipgloss.Style, string) string) string {
	return "[ " + paint(styles.done, strconv.FormatUint(snapshot.Done, 10)) + " Done | " +
		paint(styles.expected, strconv.FormatUint(snapshot.Expected, 10)) + " Expected | " +
		paint(styles.running, strconv.FormatUint(snapshot.Running, 10)) + " Running | " +
		paint(styles.failed, strconv.FormatUint(snapshot.Failed, 10)) + " Failed ]"
}

// fitTargets joins as many whole targets as fit in space columns.
func fitTargets(targets []buildstats.Target, space int) string {
	if space <= 0 {
		return ""
	}
	var builder strings.Builder
	used := 0
	for index, target := range targets {
		entry := target.Name
		if target.Count > 1 {
			entry += " (×" + strconv.Itoa(target.Count) + ")"
		}
		if index > 0 {
			entry = ", " + entry
		}
		entryWidth := ansi.StringWidth(entry)
		if used+entryWidth > space {
			break
		}
		builder.WriteString(entry)
		used += entryWidth
	}
	return builder.String()
}

// Transcript formats a unit's buffered log: a header, each line
// indented, and a trailing blank line.
func (styles *Styles) Transcript(name string, lines []unit.Line) string {
	var builder strings.Builder
	builder.WriteString("Build log for '" + name + "':\n")
	for _, line := range lines {
		style, ok := styles.lines[line.Kind]
		if !ok {
			style = styles.lines[unit.LineOther]
		}
		builder.WriteString(transcriptIndent)
		builder.WriteString(renderLines(style, styles.plain(line.Text)))
		builder.WriteByte('\n')
	}
	builder.WriteByte('\n')
	return builder.String()
}

// Message formats a free-standing message, prefixed with its file when
// one is given. Text that already carries escape sequences (rendered
// compiler diagnostics) keeps its own colors.
func (styles *Styles) Message(severity buildevent.Severity, text, file string) string {
	if file != "" {
		text = file + ": " + text
	}
	if hasEscapes(text) {
		return styles.plain(text)
	}
	style, ok := styles.severities[severity]
	if !ok {
		style = styles.faint
	}
	return renderLines(style, text)
}

// LogRecord formats a log record shown inline: errors and warnings in
// their message colors, anything quieter faint.
func (styles *Styles) LogRecord(level slog.Level, summary string) string {
	style := styles.faint
	switch {
	case level >= slog.LevelError:
		style = styles.severities[buildevent.SeverityError]
	case level >= slog.LevelWarn:
		style = styles.severities[buildevent.SeverityWarn]
	}
	return renderLines(style, level.String()+" "+summary)
}

// Spinner styles the spinner frame of the inline program.
func (styles *Styles) Spinner() lipgloss.Style {
	return styles.spinner
}

// plain strips escape sequences from text when color is off.
func (styles *Styles) plain(text string) string {
	if styles.color {
		return text
	}
	return ansi.Strip(text)
}

// renderLines styles each line of text on its own so that lipgloss
// does not pad shorter lines to the width of the longest.
func renderLines(style lipgloss.Style, text string) string {
	if !strings.Contains(text, "\n") {
		return style.Render(text)
	}
	lines := strings.Split(text, "\n")
	for index, line := range lines {
		lines[index] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

func hasEscapes(text string) bool {
	return strings.IndexByte(text, ansi.ESC) >= 0
}
