// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildstats

import (
	"cmp"
	"slices"
)

// Target is one entry of the in-flight target list. Count is how many
// concurrently running compilations share the name.
type Target struct {
	Name  string
	Count int
}

// Targets is a multiset of in-flight compiler target names. Used for
// display only.
type Targets struct {
	counts map[string]int
}

// NewTargets returns an empty multiset.
func NewTargets() *Targets {
	return &Targets{counts: make(map[string]int)}
}

// Add records one more running compilation of name.
func (targets *Targets) Add(name string) {
	targets.counts[name]++
}

// Remove records that one compilation of name ended. The entry
// disappears when its count reaches zero. Returns false when name was
// not present.
func (targets *Targets) Remove(name string) bool {
	count, ok := targets.counts[name]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(targets.counts, name)
	} else {
		targets.counts[name] = count - 1
	}
	return true
}

// Len returns the number of distinct names.
func (targets *Targets) Len() int {
	return len(targets.counts)
}

// List returns the entries sorted by name.
func (targets *Targets) List() []Target {
	list := make([]Target, 0, len(targets.counts))
	for name, count := range targets.counts {
		list = append(list, Target{Name: name, Count: count})
	}
	slices.SortFunc(list, func(a, b Target) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return list
}
