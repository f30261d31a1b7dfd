// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package verbosity decides what the user sees. Every decision is a
// pure function of the mode and the facts the caller passes in; the
// package holds no state.
//
// Three modes exist:
//
//   - compiler: only compiler-family output. Builder logs are never
//     buffered and builder messages are never shown.
//   - errors: builder logs are buffered and a transcript is shown only
//     for a unit known to have failed. Failure messages are shown and
//     attributed to units.
//   - verbose: every builder transcript is shown when its unit stops,
//     and every unit still open at end of input is shown at shutdown.
package verbosity

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
)

// Mode is a verbosity mode. Mode implements pflag.Value and
// encoding.TextUnmarshaler so it can be set from flags, config files,
// and the environment.
type Mode int

const (
	ModeCompiler Mode = iota + 1
	ModeErrors
	ModeVerbose
)

// DefaultMode is used when nothing selects a mode.
const DefaultMode = ModeErrors

var modeNames = map[Mode]string{
	ModeCompiler: "compiler",
	ModeErrors:   "errors",
	ModeVerbose:  "verbose",
}

// modeAliases accepts older spellings.
var modeAliases = map[string]Mode{
	"cargo": ModeCompiler,
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(name string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range modeNames {
		if modeName == normalized {
			return mode, nil
		}
	}
	if mode, ok := modeAliases[normalized]; ok {
		return mode, nil
	}
	return 0, fmt.Errorf("unknown verbosity %q (valid: compiler, errors, verbose)", name)
}

func (mode Mode) String() string {
	if name, ok := modeNames[mode]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(mode))
}

// Set implements pflag.Value.
func (mode *Mode) Set(value string) error {
	parsed, err := ParseMode(value)
	if err != nil {
		return err
	}
	*mode = parsed
	return nil
}

// Type implements pflag.Value.
func (mode *Mode) Type() string {
	return "level"
}

// MarshalText implements encoding.TextMarshaler.
func (mode Mode) MarshalText() ([]byte, error) {
	name, ok := modeNames[mode]
	if !ok {
		return nil, fmt.Errorf("invalid verbosity mode %d", int(mode))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (mode *Mode) UnmarshalText(text []byte) error {
	return mode.Set(string(text))
}

// Valid reports whether mode is one of the defined modes.
func (mode Mode) Valid() bool {
	_, ok := modeNames[mode]
	return ok
}

// Decision is what happens to a unit's transcript.
type Decision int

const (
	// Discard drops the buffer unread.
	Discard Decision = iota

	// Retain keeps the buffer in case a failure is reported later.
	Retain

	// Flush shows the transcript and drops the buffer.
	Flush
)

func (decision Decision) String() string {
	switch decision {
	case Discard:
		return "discard"
	case Retain:
		return "retain"
	case Flush:
		return "flush"
	default:
		return fmt.Sprintf("decision(%d)", int(decision))
	}
}

// BuffersBuilder reports whether builder units are tracked at all.
func (mode Mode) BuffersBuilder() bool {
	return mode == ModeErrors || mode == ModeVerbose
}

// Attributes reports whether failure messages are attributed to units.
func (mode Mode) Attributes() bool {
	return mode == ModeErrors
}

// OnStop decides the fate of a builder unit that just stopped.
func (mode Mode) OnStop(failed bool) Decision {
	switch mode {
	case ModeVerbose:
		return Flush
	case ModeErrors:
		if failed {
			return Flush
		}
		return Retain
	default:
		return Discard
	}
}

// OnFailure decides the fate of a retained unit that a late message
// attributed a failure to.
func (mode Mode) OnFailure() Decision {
	if mode == ModeErrors {
		return Flush
	}
	return Discard
}

// OnShutdown decides the fate of a unit still held at end of input.
func (mode Mode) OnShutdown() Decision {
	if mode == ModeVerbose {
		return Flush
	}
	return Discard
}

// ShowsMessage decides whether a builder message is shown. failure is
// whether the message reads as a failure report; only errors mode looks
// at it. Verbose shows warn, notice and info whatever their text.
func (mode Mode) ShowsMessage(severity buildevent.Severity, failure bool) bool {
	switch mode {
	case ModeErrors:
		return failure
	case ModeVerbose:
		return severity >= buildevent.SeverityWarn && severity <= buildevent.SeverityInfo
	default:
		return false
	}
}
