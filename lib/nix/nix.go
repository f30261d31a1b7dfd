// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nix knows the shape of Nix store paths as they appear in the
// builder's log: the store root, derivation paths, and the activity
// text the builder attaches to each derivation build.
//
// A derivation path looks like
//
//	/nix/store/<32-char hash>-<name>.drv
//
// and the builder announces each build with the activity text
//
//	building '/nix/store/<hash>-<name>.drv'
//
// which is also the unit name buildwatch indexes transcripts under.
package nix

import "strings"

// StorePrefix is the standard Nix store root directory.
const StorePrefix = "/nix/store/"

// DerivationSuffix terminates every derivation path.
const DerivationSuffix = ".drv"

// DerivationPattern matches a derivation path in free text. The single
// capture group is the store entry name without the ".drv" suffix.
const DerivationPattern = `/nix/store/([a-zA-Z0-9_.+-]+)\.drv`

// DerivationPath returns the store path for a derivation entry name as
// captured by DerivationPattern.
func DerivationPath(entry string) string {
	return StorePrefix + entry + DerivationSuffix
}

// BuildActivityText returns the activity text the builder uses when it
// starts building path.
func BuildActivityText(path string) string {
	return "building '" + path + "'"
}

// DerivationName returns the human part of a derivation path: the store
// entry with its hash prefix and ".drv" suffix removed.
//
//	"/nix/store/0c4l...-hello-2.12.drv" → "hello-2.12"
//
// Also accepts the builder's activity text for the derivation. Returns
// false when text does not contain a derivation path.
func DerivationName(text string) (string, bool) {
	start := strings.Index(text, StorePrefix)
	if start < 0 {
		return "", false
	}
	entry := text[start+len(StorePrefix):]
	end := strings.Index(entry, DerivationSuffix)
	if end <= 0 {
		return "", false
	}
	entry = entry[:end]

	_, name, found := strings.Cut(entry, "-")
	if !found || name == "" {
		return "", false
	}
	return name, true
}
