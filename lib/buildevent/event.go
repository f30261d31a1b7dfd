// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import (
	"encoding/json"
	"strconv"
)

// Family identifies which producer emitted an event. Unit ids are only
// unique within one family.
type Family int

const (
	// FamilyBuilder is the Nix internal-json log.
	FamilyBuilder Family = iota + 1

	// FamilyCompiler is the per-crate rustc wrapper.
	FamilyCompiler
)

func (family Family) String() string {
	switch family {
	case FamilyBuilder:
		return "builder"
	case FamilyCompiler:
		return "compiler"
	default:
		return "unknown"
	}
}

// ParseFamily is the inverse of Family.String.
func ParseFamily(name string) (Family, bool) {
	switch name {
	case "builder":
		return FamilyBuilder, true
	case "compiler":
		return FamilyCompiler, true
	default:
		return 0, false
	}
}

// Kind is the classified meaning of an event.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindUnitLogStart
	KindUnitLogLine
	KindUnitLogPhase
	KindUnitLogStop
	KindMessage
	KindStatsStart
	KindStatsUpdate
	KindStatsStop
	KindCompileStart
	KindCompileExit
)

var kindNames = [...]string{
	KindUnrecognized: "unrecognized",
	KindUnitLogStart: "unit-log-start",
	KindUnitLogLine:  "unit-log-line",
	KindUnitLogPhase: "unit-log-phase",
	KindUnitLogStop:  "unit-log-stop",
	KindMessage:      "message",
	KindStatsStart:   "stats-start",
	KindStatsUpdate:  "stats-update",
	KindStatsStop:    "stats-stop",
	KindCompileStart: "compile-start",
	KindCompileExit:  "compile-exit",
}

func (kind Kind) String() string {
	if kind < 0 || int(kind) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(kind)) + ")"
	}
	return kindNames[kind]
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for kind, kindName := range kindNames {
		if kindName == name {
			return Kind(kind), true
		}
	}
	return 0, false
}

// Builder activity and result type codes, as defined by Nix's
// ActivityType and ResultType enums.
const (
	ActivityBuilds     = 104
	ActivityBuild      = 105
	ResultBuildLogLine = 101
	ResultSetPhase     = 104
	ResultProgress     = 105
)

// Compiler event type codes emitted by the rustc wrapper.
const (
	CompileTypeStart = 0
	CompileTypeExit  = 2
)

// Event is one decoded input line. Events are values: the router reads
// them and never modifies them.
type Event struct {
	Family Family
	Kind   Kind

	// Action is the raw "action" string from the wire.
	Action string

	// SubType is the raw "type" discriminant. Only meaningful when
	// HasSubType is true.
	SubType    int64
	HasSubType bool

	// ID is the producer-assigned unit or stream id. Ids are recycled
	// by the producer; only meaningful when HasID is true.
	ID    uint64
	HasID bool

	// Fields is the positional payload ("fields" on the wire).
	Fields []any

	// Attributes holds every top-level key of the object, including
	// the ones extracted above. Numbers are json.Number.
	Attributes map[string]any
}

// String returns the string attribute for key, or "" when the key is
// missing or not a string.
func (event Event) String(key string) string {
	value, _ := event.Attributes[key].(string)
	return value
}

// Has reports whether the attribute key is present.
func (event Event) Has(key string) bool {
	_, ok := event.Attributes[key]
	return ok
}

// Uint returns the attribute for key as an unsigned integer.
func (event Event) Uint(key string) (uint64, bool) {
	return asUint(event.Attributes[key])
}

// Int returns the attribute for key as a signed integer.
func (event Event) Int(key string) (int64, bool) {
	return asInt(event.Attributes[key])
}

// Field returns the positional field at index, or nil when out of range.
func (event Event) Field(index int) any {
	if index < 0 || index >= len(event.Fields) {
		return nil
	}
	return event.Fields[index]
}

// FieldString returns the positional field at index as a string.
func (event Event) FieldString(index int) (string, bool) {
	value, ok := event.Field(index).(string)
	return value, ok
}

// FieldUint returns the positional field at index as an unsigned integer.
func (event Event) FieldUint(index int) (uint64, bool) {
	return asUint(event.Field(index))
}

// Array returns the attribute for key as a JSON array.
func (event Event) Array(key string) ([]any, bool) {
	value, ok := event.Attributes[key].([]any)
	return value, ok
}

func asUint(value any) (uint64, bool) {
	switch typed := value.(type) {
	case json.Number:
		parsed, err := strconv.ParseUint(typed.String(), 10, 64)
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseUint(typed, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func asInt(value any) (int64, bool) {
	switch typed := value.(type) {
	case json.Number:
		parsed, err := typed.Int64()
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseInt(typed, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
