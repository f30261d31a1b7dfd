// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
)

// Theme defines the color palette for buildwatch output. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Progress counters.
	Done     lipgloss.Color
	Expected lipgloss.Color
	Running  lipgloss.Color
	Failed   lipgloss.Color

	// Transcript phase markers.
	Phase lipgloss.Color

	// Message colors by severity (indexed 0-3: error, warn, notice,
	// info). Less severe messages are rendered faint.
	SeverityColors [4]lipgloss.Color

	// Spinner next to the progress line in the inline program.
	Spinner lipgloss.Color
}

// SeverityColor returns the color for a message severity, and false for
// severities that have no color of their own.
func (theme Theme) SeverityColor(severity buildevent.Severity) (lipgloss.Color, bool) {
	if severity < 0 || int(severity) >= len(theme.SeverityColors) {
		return "", false
	}
	return theme.SeverityColors[severity], true
}

// DefaultTheme is the built-in color scheme.
var DefaultTheme = Theme{
	Done:     lipgloss.Color("114"), // green
	Expected: lipgloss.Color("114"),
	Running:  lipgloss.Color("220"), // yellow/amber
	Failed:   lipgloss.Color("196"), // red

	Phase: lipgloss.Color("80"), // cyan

	SeverityColors: [4]lipgloss.Color{
		lipgloss.Color("196"), // error: red
		lipgloss.Color("220"), // warn: yellow/amber
		lipgloss.Color("75"),  // notice: blue
		lipgloss.Color("114"), // info: green
	},

	Spinner: lipgloss.Color("245"),
}

// themeFields maps override keys to theme fields.
var themeFields = map[string]func(*Theme) *lipgloss.Color{
	"done":     func(theme *Theme) *lipgloss.Color { return &theme.Done },
	"expected": func(theme *Theme) *lipgloss.Color { return &theme.Expected },
	"running":  func(theme *Theme) *lipgloss.Color { return &theme.Running },
	"failed":   func(theme *Theme) *lipgloss.Color { return &theme.Failed },
	"phase":    func(theme *Theme) *lipgloss.Color { return &theme.Phase },
	"error":    func(theme *Theme) *lipgloss.Color { return &theme.SeverityColors[buildevent.SeverityError] },
	"warn":     func(theme *Theme) *lipgloss.Color { return &theme.SeverityColors[buildevent.SeverityWarn] },
	"notice":   func(theme *Theme) *lipgloss.Color { return &theme.SeverityColors[buildevent.SeverityNotice] },
	"info":     func(theme *Theme) *lipgloss.Color { return &theme.SeverityColors[buildevent.SeverityInfo] },
	"spinner":  func(theme *Theme) *lipgloss.Color { return &theme.Spinner },
}

// WithOverrides returns a copy of theme with the named colors replaced.
// Values are anything lipgloss.Color accepts: an ANSI code ("196") or a
// hex color ("#ff5f5f").
func (theme Theme) WithOverrides(overrides map[string]string) (Theme, error) {
	for key, value := range overrides {
		field, ok := themeFields[strings.ToLower(key)]
		if !ok {
			return Theme{}, fmt.Errorf("unknown theme color %q (valid: %s)", key, strings.Join(ThemeKeys(), ", "))
		}
		if value == "" {
			return Theme{}, fmt.Errorf("theme color %q is empty", key)
		}
		*field(&theme) = lipgloss.Color(value)
	}
	return theme, nil
}

// ThemeKeys returns the override keys WithOverrides accepts, sorted.
func ThemeKeys() []string {
	keys := make([]string, 0, len(themeFields))
	for key := range themeFields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
