// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unit

import "slices"

// Retention is a bounded first-in first-out set of stopped unit ids
// whose transcripts are kept in case a failure is reported after the
// unit stopped. When the set is full, holding another id evicts the
// oldest one; the caller discards the evicted unit.
type Retention struct {
	limit int
	order []uint64
}

// NewRetention returns a window holding at most limit ids. A limit of
// zero or less holds nothing: every id is evicted as soon as it is held.
func NewRetention(limit int) *Retention {
	if limit < 0 {
		limit = 0
	}
	return &Retention{limit: limit}
}

// Hold adds id to the window. If that pushes the window past its limit
// the oldest id is removed and returned with ok set.
func (retention *Retention) Hold(id uint64) (evicted uint64, ok bool) {
	retention.Release(id)
	retention.order = append(retention.order, id)
	if len(retention.order) <= retention.limit {
		return 0, false
	}
	evicted = retention.order[0]
	retention.order = retention.order[1:]
	return evicted, true
}

// Release removes id from the window. Returns false when id was not
// held.
func (retention *Retention) Release(id uint64) bool {
	index := slices.Index(retention.order, id)
	if index < 0 {
		return false
	}
	retention.order = slices.Delete(retention.order, index, index+1)
	return true
}

// Holds reports whether id is in the window.
func (retention *Retention) Holds(id uint64) bool {
	return slices.Contains(retention.order, id)
}

// Len returns the number of held ids.
func (retention *Retention) Len() int {
	return len(retention.order)
}
