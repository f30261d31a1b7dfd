// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// exitUsage is the status for invalid invocations, matching the
// convention of flag-parsing tools.
const exitUsage = 2

// ExitError carries an exit status. A nil Err exits silently: the
// command already wrote what it needed to.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status. process.Fatal checks for this
// method to choose the status.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// usageError reports an invalid invocation.
func usageError(format string, args ...any) error {
	return &ExitError{Code: exitUsage, Err: fmt.Errorf(format, args...)}
}
