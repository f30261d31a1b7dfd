// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ExitCoder is implemented by errors that choose the process exit
// status.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode returns the status for err: 0 for nil, the ExitCoder's code
// when one is in the chain, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w and returns the exit status for err.
// An ExitCoder with an empty message prints nothing; the command has
// already said what it needed to.
func Report(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	if message := err.Error(); message != "" {
		fmt.Fprintf(w, "error: %s\n", message)
	}
	return ExitCode(err)
}

// Fatal reports err on stderr and exits. Use it in main() for errors
// from run() where the structured logger may not be initialized.
func Fatal(err error) {
	os.Exit(Report(os.Stderr, err))
}
