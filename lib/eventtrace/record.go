// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtrace

import (
	"encoding/json"
	"strconv"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
)

// Record is one traced event.
type Record struct {
	// Sequence numbers records from 1 in the order they were written.
	Sequence uint64 `cbor:"seq"`

	Family string `cbor:"family"`
	Kind   string `cbor:"kind"`
	Action string `cbor:"action"`

	SubType *int64  `cbor:"type,omitempty"`
	ID      *uint64 `cbor:"id,omitempty"`

	// Attributes is the event's full JSON object with numbers
	// converted to integers or floats.
	Attributes map[string]any `cbor:"attributes,omitempty"`
}

// NewRecord converts a decoded event into a trace record.
func NewRecord(sequence uint64, event buildevent.Event) Record {
	record := Record{
		Sequence: sequence,
		Family:   event.Family.String(),
		Kind:     event.Kind.String(),
		Action:   event.Action,
	}
	if event.HasSubType {
		subType := event.SubType
		record.SubType = &subType
	}
	if event.HasID {
		id := event.ID
		record.ID = &id
	}
	if len(event.Attributes) > 0 {
		record.Attributes = normalizeObject(event.Attributes)
	}
	return record
}

// normalizeObject copies a decoded JSON object, replacing json.Number
// values (strings to the CBOR encoder) with numeric types.
func normalizeObject(object map[string]any) map[string]any {
	normalized := make(map[string]any, len(object))
	for key, value := range object {
		normalized[key] = normalize(value)
	}
	return normalized
}

func normalize(value any) any {
	switch typed := value.(type) {
	case json.Number:
		return normalizeNumber(typed)
	case map[string]any:
		return normalizeObject(typed)
	case []any:
		normalized := make([]any, len(typed))
		for index, element := range typed {
			normalized[index] = normalize(element)
		}
		return normalized
	default:
		return value
	}
}

func normalizeNumber(number json.Number) any {
	if value, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
		return value
	}
	if value, err := strconv.ParseUint(number.String(), 10, 64); err == nil {
		return value
	}
	if value, err := number.Float64(); err == nil {
		return value
	}
	return number.String()
}
