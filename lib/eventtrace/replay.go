// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventtrace

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/codec"
)

// Event rebuilds the decoded event a record was made from. Numbers in
// the attributes become json.Number again, so the event reads exactly
// as it did when it was decoded from the wire.
func (record Record) Event() (buildevent.Event, error) {
	family, ok := buildevent.ParseFamily(record.Family)
	if !ok {
		return buildevent.Event{}, fmt.Errorf("record %d: unknown family %q", record.Sequence, record.Family)
	}
	kind, ok := buildevent.ParseKind(record.Kind)
	if !ok {
		return buildevent.Event{}, fmt.Errorf("record %d: unknown kind %q", record.Sequence, record.Kind)
	}

	event := buildevent.Event{
		Family: family,
		Kind:   kind,
		Action: record.Action,
	}
	if record.SubType != nil {
		event.SubType, event.HasSubType = *record.SubType, true
	}
	if record.ID != nil {
		event.ID, event.HasID = *record.ID, true
	}
	if record.Attributes != nil {
		event.Attributes = restoreObject(record.Attributes)
		if fields, ok := event.Attributes["fields"].([]any); ok {
			event.Fields = fields
		}
	}
	return event, nil
}

// NextEvent reads the next record and rebuilds its event. It returns
// io.EOF after the last record.
func (reader *Reader) NextEvent() (buildevent.Event, error) {
	record, err := reader.Next()
	if err != nil {
		return buildevent.Event{}, err
	}
	return record.Event()
}

// Diagnostic renders the record in CBOR diagnostic notation
// (RFC 8949 §8), for inspecting a trace by eye.
func (record Record) Diagnostic() (string, error) {
	data, err := codec.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding record %d: %w", record.Sequence, err)
	}
	return codec.Diagnose(data)
}

func restoreObject(object map[string]any) map[string]any {
	restored := make(map[string]any, len(object))
	for key, value := range object {
		restored[key] = restore(value)
	}
	return restored
}

func restore(value any) any {
	switch typed := value.(type) {
	case int64:
		return json.Number(strconv.FormatInt(typed, 10))
	case uint64:
		return json.Number(strconv.FormatUint(typed, 10))
	case float64:
		return json.Number(strconv.FormatFloat(typed, 'g', -1, 64))
	case map[string]any:
		return restoreObject(typed)
	case []any:
		restored := make([]any, len(typed))
		for index, element := range typed {
			restored[index] = restore(element)
		}
		return restored
	default:
		return value
	}
}
