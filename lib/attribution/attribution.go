// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package attribution connects free-text failure reports to the build
// unit they concern.
//
// The builder reports a failed derivation in a generic message, not on
// the unit's own log stream:
//
//	builder for '/nix/store/aaa-hello.drv' failed with exit code 1
//
// An Attributor finds the unit token in such text with a regular
// expression (one capture group), expands the capture into the names a
// unit may be registered under, and resolves the first name that is
// registered. A message only attributes a failure when it also looks
// like one: error severity, or one of a fixed set of failure keywords.
// At most one unit is ever attributed per message.
package attribution

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/nix"
)

// failureKeywords are matched case-sensitively as substrings.
var failureKeywords = []string{
	"error",
	"failed",
	"Error",
	"Failed",
	"FAILED",
	"cannot",
	"Could not",
}

// DefaultNameTemplates expand a derivation capture into the activity
// text the builder registers units under, then the bare store path.
var DefaultNameTemplates = []string{
	nix.BuildActivityText(nix.DerivationPath("${1}")),
	nix.DerivationPath("${1}"),
}

// Resolver looks up a unit id by registered name. *unit.Registry
// satisfies it.
type Resolver interface {
	LookupID(name string) (uint64, bool)
}

// Attributor extracts unit tokens from text. Safe for concurrent use.
type Attributor struct {
	pattern   *regexp.Regexp
	templates []string
}

// New compiles pattern, which must contain exactly one capture group.
// Each template is expanded with regexp.Expand syntax ("${1}") against
// a match to produce a candidate unit name; candidates are tried in
// order. Empty templates defaults to DefaultNameTemplates.
func New(pattern string, templates []string) (*Attributor, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling attribution pattern: %w", err)
	}
	if compiled.NumSubexp() != 1 {
		return nil, fmt.Errorf("attribution pattern %q has %d capture groups, want exactly 1",
			pattern, compiled.NumSubexp())
	}
	if len(templates) == 0 {
		templates = DefaultNameTemplates
	}
	for _, template := range templates {
		if template == "" {
			return nil, fmt.Errorf("attribution name template is empty")
		}
	}
	return &Attributor{
		pattern:   compiled,
		templates: append([]string(nil), templates...),
	}, nil
}

// Default returns the attributor for Nix derivation paths.
func Default() *Attributor {
	attributor, err := New(nix.DerivationPattern, nil)
	if err != nil {
		panic("attribution: default pattern: " + err.Error())
	}
	return attributor
}

// Candidates returns the unit names text may refer to, in resolution
// order. Every match of the pattern contributes one candidate per
// template.
func (attributor *Attributor) Candidates(text string) []string {
	var candidates []string
	for _, match := range attributor.pattern.FindAllStringSubmatchIndex(text, -1) {
		for _, template := range attributor.templates {
			expanded := attributor.pattern.ExpandString(nil, template, text, match)
			candidates = append(candidates, string(expanded))
		}
	}
	return candidates
}

// Resolve returns the id of the first candidate name in text that
// resolver knows. It does not look at whether text reports a failure.
func (attributor *Attributor) Resolve(text string, resolver Resolver) (uint64, bool) {
	for _, candidate := range attributor.Candidates(text) {
		if id, ok := resolver.LookupID(candidate); ok {
			return id, true
		}
	}
	return 0, false
}

// Attribute returns the unit a failure message concerns. The message
// must both look like a failure and name a registered unit; otherwise
// nothing is attributed, which is not an error.
func (attributor *Attributor) Attribute(severity buildevent.Severity, text string, resolver Resolver) (uint64, bool) {
	if !IsFailure(severity, text) {
		return 0, false
	}
	return attributor.Resolve(text, resolver)
}

// IsFailure reports whether a message reads as a failure: error
// severity, or text containing a failure keyword.
func IsFailure(severity buildevent.Severity, text string) bool {
	if severity == buildevent.SeverityError {
		return true
	}
	return containsFailureKeyword(text)
}

func containsFailureKeyword(text string) bool {
	for _, keyword := range failureKeywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// StopIndicatesFailure inspects a unit's own stop event. A non-zero
// exit_code, status, or result, or a text or msg attribute containing
// a failure keyword, marks the unit failed. A bare stop carrying only
// its id does not.
func StopIndicatesFailure(event buildevent.Event) bool {
	for _, key := range []string{"exit_code", "status", "result"} {
		if value, ok := event.Int(key); ok && value != 0 {
			return true
		}
	}
	if status := event.String("status"); status != "" && containsFailureKeyword(status) {
		return true
	}
	for _, key := range []string{"text", "msg"} {
		if containsFailureKeyword(event.String(key)) {
			return true
		}
	}
	return false
}
