// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// buildwatch reads a Nix build's internal-json log on stdin and shows
// a compact view of it: one progress line, plus the build logs the
// selected level calls for.
//
// Three levels decide what reaches the user:
//
//   - compiler: only compiler diagnostics from per-crate builds
//   - errors (default): compiler diagnostics, failure messages, and the
//     build logs of derivations that failed
//   - verbose: every build log once its derivation stops, plus
//     informational messages
//
// Rendered output goes to stdout. buildwatch's own diagnostics go to
// stderr through slog, or above the progress line with --tui.
//
// --trace-file records the decoded events; --replay plays such a trace
// back through the same view and --dump-trace prints it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/buildwatch/lib/config"
	"github.com/bureau-foundation/buildwatch/lib/eventtrace"
	"github.com/bureau-foundation/buildwatch/lib/present"
	"github.com/bureau-foundation/buildwatch/lib/process"
	"github.com/bureau-foundation/buildwatch/lib/router"
	"github.com/bureau-foundation/buildwatch/lib/stream"
	"github.com/bureau-foundation/buildwatch/lib/version"
)

func main() {
	if err := run(context.Background(), os.Args[1:], standardIO()); err != nil {
		process.Fatal(err)
	}
}

// ioStreams is the process's outside world, swapped in tests.
type ioStreams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// environ nil reads the process environment.
	environ map[string]string
}

func standardIO() ioStreams {
	return ioStreams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func run(ctx context.Context, args []string, streams ioStreams) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(streams.stderr, opts.flagSet)
		return nil
	}
	if opts.version {
		fmt.Fprintf(streams.stdout, "buildwatch %s\n", version.Full())
		return nil
	}
	if opts.dumpTrace != "" {
		return dumpTrace(streams.stdout, opts.dumpTrace)
	}
	if !opts.json && opts.replay == "" {
		return usageError("--json is required: pipe the builder's log with --log-format internal-json and pass --json")
	}

	cfg, err := config.Load(opts.configPath, streams.environ)
	if err != nil {
		return err
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.replay != "" {
		// The trace being replayed is never also the trace being written.
		cfg.TraceFile = ""
	}
	session, err := newSession(cfg, streams)
	if err != nil {
		return err
	}
	if opts.replay != "" {
		return session.replay(ctx, opts.replay)
	}
	return session.run(ctx, stream.Config{Input: streams.stdin})
}

// session wires the read loop to the router and presenter.
type session struct {
	logger    *slog.Logger
	presenter interface {
		router.Presenter
		Close() error
	}
	router   *router.Router
	recorder *eventtrace.Recorder
}

func newSession(cfg *config.Config, streams ioStreams) (*session, error) {
	theme, err := cfg.Theme()
	if err != nil {
		return nil, err
	}
	attributor, err := cfg.Attributor()
	if err != nil {
		return nil, err
	}

	styles := present.NewStyles(present.NewRenderer(streams.stdout, cfg.Color), theme)
	interactive := isTerminal(streams.stdout)
	width := present.FixedWidth(present.DefaultWidth)
	if file, ok := streams.stdout.(*os.File); ok && interactive {
		width = present.TerminalWidth(int(file.Fd()))
	}

	current := &session{}
	level := logLevel(cfg.Debug)
	if cfg.TUI && interactive {
		handler := present.NewLogHandler(level)
		program := present.NewProgram(present.ProgramConfig{
			Output: streams.stdout,
			Styles: styles,
			Width:  width,
		})
		handler.SetProgram(program)
		program.Start()
		current.presenter = program
		current.logger = slog.New(handler)
	} else {
		current.logger = newLogger(streams.stderr, level)
		if cfg.TUI {
			current.logger.Warn("--tui needs a terminal on stdout, using line output")
		}
		current.presenter = present.NewTerminal(present.TerminalConfig{
			Output:      streams.stdout,
			Styles:      styles,
			Width:       width,
			Interactive: interactive,
		})
	}

	if cfg.TraceFile != "" {
		current.recorder, err = eventtrace.Create(cfg.TraceFile)
		if err != nil {
			current.presenter.Close()
			return nil, err
		}
	}

	current.router, err = router.New(router.Config{
		Mode:           cfg.Level,
		Attributor:     attributor,
		RetentionLimit: cfg.RetentionLimit,
		Presenter:      current.presenter,
		Logger:         current.logger,
	})
	if err != nil {
		current.close()
		return nil, err
	}
	return current, nil
}

// replay runs the recorded trace at path through the session.
func (current *session) replay(ctx context.Context, path string) error {
	reader, err := eventtrace.Open(path)
	if err != nil {
		return errors.Join(err, current.close())
	}
	defer reader.Close()
	return current.run(ctx, stream.Config{Events: reader})
}

// run reads input to completion. The presenter and trace are closed
// whether or not reading succeeds.
func (current *session) run(ctx context.Context, loop stream.Config) error {
	loop.Handler = current.router
	loop.Logger = current.logger
	if current.recorder != nil {
		loop.Recorder = current.recorder
	}

	stats, err := stream.Run(ctx, loop)
	current.logger.Debug("input finished",
		"lines", stats.Lines,
		"events", stats.Events,
		"malformed", stats.Malformed,
		"rejected", stats.Rejected,
	)
	return errors.Join(err, current.close())
}

func (current *session) close() error {
	var errs []error
	if err := current.presenter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing output: %w", err))
	}
	if current.recorder != nil {
		if err := current.recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing event trace: %w", err))
		}
	}
	return errors.Join(errs...)
}

// dumpTrace prints every record of the trace at path, one per line.
func dumpTrace(w io.Writer, path string) error {
	reader, err := eventtrace.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		diagnostic, err := record.Diagnostic()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, diagnostic)
	}
}
