// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/buildwatch/lib/config"
	"github.com/bureau-foundation/buildwatch/lib/verbosity"
)

// options holds the parsed command line.
type options struct {
	json       bool
	noColor    bool
	level      verbosity.Mode
	debug      bool
	configPath string
	tui        bool
	traceFile  string
	replay     string
	dumpTrace  string
	version    bool
	help       bool

	flagSet *pflag.FlagSet
}

func newFlagSet(opts *options) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("buildwatch", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.SortFlags = false

	opts.level = verbosity.DefaultMode
	flagSet.BoolVarP(&opts.json, "json", "j", false, "read the builder's structured log from stdin (required)")
	flagSet.VarP(&opts.level, "level", "l", "what to show: compiler, errors, or verbose")
	flagSet.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flagSet.BoolVar(&opts.tui, "tui", false, "render through the inline interactive view")
	flagSet.StringVar(&opts.traceFile, "trace-file", "", "record decoded events to `path` (.zst or .lz4 compresses)")
	flagSet.StringVar(&opts.replay, "replay", "", "read events from a recorded trace `file` instead of stdin")
	flagSet.StringVar(&opts.dumpTrace, "dump-trace", "", "print a recorded trace `file` in CBOR diagnostic notation and exit")
	flagSet.StringVar(&opts.configPath, "config", "", "load settings from this YAML `file` (default: $BUILDWATCH_CONFIG)")
	flagSet.BoolVar(&opts.debug, "debug", false, "log dropped and unrecognized events to stderr")
	flagSet.BoolVar(&opts.version, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	opts.flagSet = flagSet
	return flagSet
}

// parseOptions parses args (without the program name). Unknown flags
// and stray arguments are usage errors.
func parseOptions(args []string) (*options, error) {
	opts := &options{}
	flagSet := newFlagSet(opts)
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			opts.help = true
			return opts, nil
		}
		return nil, usageError("%w", err)
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, usageError("unexpected argument: %s", rest[0])
	}
	if opts.replay != "" && flagSet.Changed("trace-file") {
		return nil, usageError("--replay cannot record a new trace")
	}
	return opts, nil
}

// apply overlays the flags the user set on cfg. Flags left at their
// defaults do not override the file or environment.
func (opts *options) apply(cfg *config.Config) {
	changed := opts.flagSet.Changed
	if changed("level") {
		cfg.Level = opts.level
	}
	if opts.noColor {
		cfg.Color = false
	}
	if opts.debug {
		cfg.Debug = true
	}
	if opts.tui {
		cfg.TUI = true
	}
	if changed("trace-file") {
		cfg.TraceFile = opts.traceFile
	}
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `buildwatch shows a compact, failure-aware view of a Nix build.

It reads the builder's internal-json log on stdin, keeps one progress
line at the bottom of the terminal, and prints a derivation's build log
only when the selected level asks for it: in errors mode, only the logs
of derivations that failed.

Usage:
  nix build --log-format internal-json -v ... 2>&1 | buildwatch --json [flags]

Examples:
  # Show only the logs of failed derivations (the default)
  nix build .#app --log-format internal-json -v 2>&1 | buildwatch -j

  # Show every build log as each derivation finishes
  nix build .#app --log-format internal-json -v 2>&1 | buildwatch -j --level verbose

  # Record the event stream for a bug report, then play it back
  nix build .#app --log-format internal-json -v 2>&1 | buildwatch -j --trace-file build.cbor.zst
  buildwatch --replay build.cbor.zst --level verbose

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
