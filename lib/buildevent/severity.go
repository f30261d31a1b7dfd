// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import "strconv"

// Severity is the "level" of a builder message, using Nix's Verbosity
// numbering: lower values are more severe.
type Severity int

const (
	SeverityError     Severity = 0
	SeverityWarn      Severity = 1
	SeverityNotice    Severity = 2
	SeverityInfo      Severity = 3
	SeverityTalkative Severity = 4
	SeverityChatty    Severity = 5
	SeverityDebug     Severity = 6
	SeverityVomit     Severity = 7
)

func (severity Severity) String() string {
	switch severity {
	case SeverityError:
		return "error"
	case SeverityWarn:
		return "warn"
	case SeverityNotice:
		return "notice"
	case SeverityInfo:
		return "info"
	case SeverityTalkative:
		return "talkative"
	case SeverityChatty:
		return "chatty"
	case SeverityDebug:
		return "debug"
	case SeverityVomit:
		return "vomit"
	default:
		return "level(" + strconv.Itoa(int(severity)) + ")"
	}
}

// Severity returns the message level of the event. A missing or
// non-numeric level reads as SeverityError.
func (event Event) Severity() Severity {
	level, ok := event.Int("level")
	if !ok {
		return SeverityError
	}
	return Severity(level)
}
