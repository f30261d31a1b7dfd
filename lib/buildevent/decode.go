// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/tidwall/jsonc"
)

// Producer markers. The trailing space is part of the marker.
const (
	BuilderPrefix  = "@nix "
	CompilerPrefix = "@cargo "
)

// ErrMalformedEvent is returned for a marked line whose payload is not
// a JSON object with a string "action" field.
var ErrMalformedEvent = errors.New("malformed event")

type classifyKey struct {
	family  Family
	action  string
	subType int64
}

// classification maps (family, action, type) to a Kind. Actions that
// classify independently of type are in anyTypeClassification.
var classification = map[classifyKey]Kind{
	{FamilyBuilder, "start", ActivityBuilds}:      KindStatsStart,
	{FamilyBuilder, "start", ActivityBuild}:       KindUnitLogStart,
	{FamilyBuilder, "result", ResultBuildLogLine}: KindUnitLogLine,
	{FamilyBuilder, "result", ResultSetPhase}:     KindUnitLogPhase,
	{FamilyBuilder, "result", ResultProgress}:     KindStatsUpdate,
	{FamilyCompiler, "start", CompileTypeStart}:   KindCompileStart,
	{FamilyCompiler, "exit", CompileTypeExit}:     KindCompileExit,
}

type anyTypeKey struct {
	family Family
	action string
}

var anyTypeClassification = map[anyTypeKey]Kind{
	{FamilyBuilder, "stop"}: KindUnitLogStop,
	{FamilyBuilder, "msg"}:  KindMessage,
}

// Decode turns one input line into an Event. The boolean result is
// false for lines that carry no producer marker; such lines are not an
// error. A marked line that cannot be parsed returns an error wrapping
// ErrMalformedEvent.
func Decode(line string) (Event, bool, error) {
	line = strings.TrimRight(line, "\r\n")

	var family Family
	var payload string
	switch {
	case strings.HasPrefix(line, BuilderPrefix):
		family, payload = FamilyBuilder, line[len(BuilderPrefix):]
	case strings.HasPrefix(line, CompilerPrefix):
		family, payload = FamilyCompiler, line[len(CompilerPrefix):]
	default:
		return Event{}, false, nil
	}

	event, err := decodePayload(family, payload)
	if err != nil {
		return Event{}, true, err
	}

	if nested, ok := unwrapCompilerLine(event); ok {
		return nested, true, nil
	}
	return event, true, nil
}

// decodePayload parses the JSON object following a producer marker.
func decodePayload(family Family, payload string) (Event, error) {
	// Terminal color codes leak into the stream when a producer
	// writes through a colorizing wrapper; they are never valid JSON.
	cleaned := jsonc.ToJSON([]byte(ansi.Strip(payload)))

	decoder := json.NewDecoder(bytes.NewReader(cleaned))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return Event{}, fmt.Errorf("%w: %s payload: %v", ErrMalformedEvent, family, err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s payload is not a JSON object", ErrMalformedEvent, family)
	}
	action, ok := object["action"].(string)
	if !ok {
		return Event{}, fmt.Errorf("%w: %s payload has no string \"action\" field", ErrMalformedEvent, family)
	}

	event := Event{
		Family:     family,
		Action:     action,
		Attributes: object,
	}
	event.SubType, event.HasSubType = asInt(object["type"])
	event.ID, event.HasID = asUint(object["id"])
	if fields, ok := object["fields"].([]any); ok {
		event.Fields = fields
	}
	event.Kind = classify(family, action, event.SubType, event.HasSubType)
	return event, nil
}

func classify(family Family, action string, subType int64, hasSubType bool) Kind {
	if kind, ok := anyTypeClassification[anyTypeKey{family, action}]; ok {
		return kind
	}
	if !hasSubType {
		return KindUnrecognized
	}
	if kind, ok := classification[classifyKey{family, action, subType}]; ok {
		return kind
	}
	return KindUnrecognized
}

// unwrapCompilerLine returns the nested compiler event carried by a
// builder log line, if any. The nested event takes the outer event's
// id. A nested payload that fails to decode leaves the outer log line
// as it is, so the text still lands in the derivation's transcript.
func unwrapCompilerLine(outer Event) (Event, bool) {
	if outer.Kind != KindUnitLogLine {
		return Event{}, false
	}
	text, ok := outer.FieldString(0)
	if !ok || !strings.HasPrefix(text, CompilerPrefix) {
		return Event{}, false
	}
	nested, err := decodePayload(FamilyCompiler, text[len(CompilerPrefix):])
	if err != nil {
		return Event{}, false
	}
	nested.ID, nested.HasID = outer.ID, outer.HasID
	return nested, true
}
