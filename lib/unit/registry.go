// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unit

import (
	"fmt"
	"slices"
)

// State is the lifecycle position of a unit.
type State int

const (
	Started State = iota
	Stopped
	FinishedWithSuccess
	FinishedWithError
)

func (state State) String() string {
	switch state {
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case FinishedWithSuccess:
		return "finished-success"
	case FinishedWithError:
		return "finished-error"
	default:
		return fmt.Sprintf("state(%d)", int(state))
	}
}

// LineKind distinguishes buffered lines for styling.
type LineKind int

const (
	LineOutput LineKind = iota
	LinePhase
	LineOther
)

// Line is one buffered transcript entry.
type Line struct {
	Kind LineKind
	Text string
}

// Transcript is a flushed unit buffer.
type Transcript struct {
	ID     uint64
	Name   string
	Lines  []Line
	State  State
	Failed bool
}

type record struct {
	name   string
	lines  []Line
	state  State
	failed bool
}

// Registry owns the units of one producer family.
type Registry struct {
	units map[uint64]*record
	names map[string]uint64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[uint64]*record),
		names: make(map[string]uint64),
	}
}

// Start creates a unit with an empty buffer in the Started state and
// indexes it by name. A unit already registered under id is replaced,
// and its name no longer resolves to id.
func (registry *Registry) Start(id uint64, name string) {
	if previous, ok := registry.units[id]; ok {
		registry.unindex(id, previous.name)
	}
	registry.units[id] = &record{name: name, state: Started}
	registry.names[name] = id
}

// Append adds a line to the unit's buffer. Returns false, doing
// nothing, when no unit is registered under id.
func (registry *Registry) Append(id uint64, line Line) bool {
	unit, ok := registry.units[id]
	if !ok {
		return false
	}
	unit.lines = append(unit.lines, line)
	return true
}

// Stop moves the unit to the Stopped state. The buffer is kept: whether
// it is ever shown is decided separately.
func (registry *Registry) Stop(id uint64) bool {
	unit, ok := registry.units[id]
	if !ok {
		return false
	}
	unit.state = Stopped
	return true
}

// Finish records a compiler exit code: 0 is success, 1 is a compile
// error, anything else (signals, internal compiler errors) is Stopped.
func (registry *Registry) Finish(id uint64, exitCode int64) bool {
	unit, ok := registry.units[id]
	if !ok {
		return false
	}
	switch exitCode {
	case 0:
		unit.state = FinishedWithSuccess
	case 1:
		unit.state = FinishedWithError
	default:
		unit.state = Stopped
	}
	return true
}

// MarkFailed sets the failed flag without touching the state.
func (registry *Registry) MarkFailed(id uint64) bool {
	unit, ok := registry.units[id]
	if !ok {
		return false
	}
	unit.failed = true
	return true
}

// Has reports whether a unit is registered under id.
func (registry *Registry) Has(id uint64) bool {
	_, ok := registry.units[id]
	return ok
}

// State returns the unit's state.
func (registry *Registry) State(id uint64) (State, bool) {
	unit, ok := registry.units[id]
	if !ok {
		return 0, false
	}
	return unit.state, true
}

// Failed reports whether the unit has been marked failed. Unknown ids
// are not failed.
func (registry *Registry) Failed(id uint64) bool {
	unit, ok := registry.units[id]
	return ok && unit.failed
}

// Flush removes the unit and returns its buffer. A second Flush of the
// same id returns false.
func (registry *Registry) Flush(id uint64) (Transcript, bool) {
	unit, ok := registry.units[id]
	if !ok {
		return Transcript{}, false
	}
	registry.remove(id, unit)
	return Transcript{
		ID:     id,
		Name:   unit.name,
		Lines:  unit.lines,
		State:  unit.state,
		Failed: unit.failed,
	}, true
}

// Discard removes the unit without returning its buffer.
func (registry *Registry) Discard(id uint64) bool {
	unit, ok := registry.units[id]
	if !ok {
		return false
	}
	registry.remove(id, unit)
	return true
}

// LookupID returns the id currently registered under name.
func (registry *Registry) LookupID(name string) (uint64, bool) {
	id, ok := registry.names[name]
	return id, ok
}

// LookupName returns the name of the unit registered under id.
func (registry *Registry) LookupName(id uint64) (string, bool) {
	unit, ok := registry.units[id]
	if !ok {
		return "", false
	}
	return unit.name, true
}

// Outstanding returns the ids of all registered units in ascending
// order.
func (registry *Registry) Outstanding() []uint64 {
	ids := make([]uint64, 0, len(registry.units))
	for id := range registry.units {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of registered units.
func (registry *Registry) Len() int {
	return len(registry.units)
}

func (registry *Registry) remove(id uint64, unit *record) {
	delete(registry.units, id)
	registry.unindex(id, unit.name)
}

// unindex drops the name entry only while it still points at id: a
// later unit may have taken the name over.
func (registry *Registry) unindex(id uint64, name string) {
	if current, ok := registry.names[name]; ok && current == id {
		delete(registry.names, name)
	}
}
