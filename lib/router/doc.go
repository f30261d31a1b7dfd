// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package router owns all per-run state and applies decoded events to
// it: one unit registry per producer family, the progress aggregator,
// the in-flight target list, and the late-failure retention window.
//
// Each event is handled to completion before the next one. The router
// is driven by a single goroutine and holds no locks. Everything the
// user sees leaves through the Presenter interface; presenters never
// feed anything back into routing.
//
// A builder "stop" is ambiguous: the builder uses it both for progress
// streams and for unit logs. The router resolves it against the active
// progress streams first, then the builder registry, and drops ids that
// match neither.
package router
