// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/buildwatch/lib/attribution"
	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/buildstats"
	"github.com/bureau-foundation/buildwatch/lib/nix"
	"github.com/bureau-foundation/buildwatch/lib/unit"
	"github.com/bureau-foundation/buildwatch/lib/verbosity"
)

// DefaultRetentionLimit is how many stopped units errors mode holds
// for late failure reports.
const DefaultRetentionLimit = 32

// Presenter renders router output. Calls are fire-and-forget: a
// presenter must not call back into the router, and any write failure
// is its own concern.
type Presenter interface {
	// ShowProgress draws the aggregate progress line.
	ShowProgress(snapshot buildstats.Snapshot, targets []buildstats.Target)

	// ShowTranscript prints a unit's buffered log.
	ShowTranscript(name string, lines []unit.Line)

	// ShowMessage prints a free-standing message. file may be empty.
	ShowMessage(severity buildevent.Severity, text, file string)
}

// Config holds the router's fixed inputs.
type Config struct {
	Mode verbosity.Mode

	// Attributor extracts unit tokens from failure messages. Nil uses
	// attribution.Default.
	Attributor *attribution.Attributor

	// RetentionLimit bounds the number of stopped units held for late
	// failure reports in errors mode. Zero holds none.
	RetentionLimit int

	Presenter Presenter
	Logger    *slog.Logger
}

// Router applies events to build state. Not safe for concurrent use.
type Router struct {
	mode       verbosity.Mode
	attributor *attribution.Attributor
	presenter  Presenter
	logger     *slog.Logger

	builder   *unit.Registry
	compiler  *unit.Registry
	stats     *buildstats.Aggregator
	targets   *buildstats.Targets
	retention *unit.Retention
}

// New creates a router. Mode and Presenter are required.
func New(config Config) (*Router, error) {
	if !config.Mode.Valid() {
		return nil, fmt.Errorf("router: invalid verbosity mode %v", config.Mode)
	}
	if config.Presenter == nil {
		return nil, fmt.Errorf("router: presenter is required")
	}
	if config.RetentionLimit < 0 {
		return nil, fmt.Errorf("router: retention limit must not be negative, got %d", config.RetentionLimit)
	}
	attributor := config.Attributor
	if attributor == nil {
		attributor = attribution.Default()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		mode:       config.Mode,
		attributor: attributor,
		presenter:  config.Presenter,
		logger:     logger,
		builder:    unit.NewRegistry(),
		compiler:   unit.NewRegistry(),
		stats:      buildstats.NewAggregator(),
		targets:    buildstats.NewTargets(),
		retention:  unit.NewRetention(config.RetentionLimit),
	}, nil
}

// Handle applies one event. Errors describe events that could not be
// applied (malformed payloads, updates from unknown progress streams);
// none of them leave the router in a bad state, so callers log them
// and continue.
func (router *Router) Handle(event buildevent.Event) error {
	switch event.Kind {
	case buildevent.KindStatsStart:
		return router.handleStatsStart(event)
	case buildevent.KindStatsUpdate:
		return router.handleStatsUpdate(event)
	case buildevent.KindUnitLogStart:
		return router.handleUnitStart(event)
	case buildevent.KindUnitLogLine:
		return router.handleUnitLine(event)
	case buildevent.KindUnitLogPhase:
		return router.handleUnitPhase(event)
	case buildevent.KindUnitLogStop, buildevent.KindStatsStop:
		return router.handleStop(event)
	case buildevent.KindMessage:
		router.handleMessage(event)
		return nil
	case buildevent.KindCompileStart:
		router.handleCompileStart(event)
		return nil
	case buildevent.KindCompileExit:
		router.handleCompileExit(event)
		return nil
	default:
		router.logger.Debug("ignoring unrecognized event",
			"family", event.Family.String(),
			"action", event.Action,
			"type", event.Attributes["type"],
		)
		return nil
	}
}

// Shutdown ends the run at end of input. Open builder units are
// flushed or discarded per the verbosity mode; retained units are
// discarded unread.
func (router *Router) Shutdown() {
	for _, id := range router.builder.Outstanding() {
		if router.retention.Release(id) {
			router.builder.Discard(id)
			continue
		}
		switch router.mode.OnShutdown() {
		case verbosity.Flush:
			router.flushBuilder(id)
		default:
			router.builder.Discard(id)
		}
	}
	for _, id := range router.compiler.Outstanding() {
		router.compiler.Discard(id)
	}
}

func (router *Router) handleStatsStart(event buildevent.Event) error {
	if !event.HasID {
		return missingID(event)
	}
	router.stats.Register(event.ID)
	return nil
}

func (router *Router) handleStatsUpdate(event buildevent.Event) error {
	if !event.HasID {
		return missingID(event)
	}
	snapshot, err := buildstats.SnapshotFromEvent(event)
	if err != nil {
		return err
	}
	if err := router.stats.Update(event.ID, snapshot); err != nil {
		return err
	}
	router.render()
	return nil
}

func (router *Router) handleStop(event buildevent.Event) error {
	if !event.HasID {
		return missingID(event)
	}
	if router.stats.Unregister(event.ID) {
		router.render()
		return nil
	}
	if !router.builder.Has(event.ID) {
		router.logger.Debug("dropping stop for unknown id", "id", event.ID)
		return nil
	}
	router.stopBuilder(event)
	return nil
}

func (router *Router) handleUnitStart(event buildevent.Event) error {
	if !router.mode.BuffersBuilder() {
		return nil
	}
	if !event.HasID {
		return missingID(event)
	}
	// A recycled id replaces whatever the window still held for it.
	router.retention.Release(event.ID)
	router.builder.Start(event.ID, event.String("text"))
	return nil
}

func (router *Router) handleUnitLine(event buildevent.Event) error {
	if !router.mode.BuffersBuilder() {
		return nil
	}
	if !event.HasID {
		return missingID(event)
	}
	text, _ := event.FieldString(0)
	router.builder.Append(event.ID, unit.Line{Kind: unit.LineOutput, Text: text})
	return nil
}

func (router *Router) handleUnitPhase(event buildevent.Event) error {
	if !router.mode.BuffersBuilder() {
		return nil
	}
	if !event.HasID {
		return missingID(event)
	}
	phase, ok := event.FieldString(0)
	if !ok {
		phase = "unknown"
	}
	router.builder.Append(event.ID, unit.Line{Kind: unit.LinePhase, Text: "Phase: " + phase})
	return nil
}

// stopBuilder applies a unit's own stop event.
func (router *Router) stopBuilder(event buildevent.Event) {
	id := event.ID
	router.builder.Stop(id)
	if router.mode.Attributes() && attribution.StopIndicatesFailure(event) {
		router.builder.MarkFailed(id)
	}

	switch router.mode.OnStop(router.builder.Failed(id)) {
	case verbosity.Flush:
		router.flushBuilder(id)
	case verbosity.Retain:
		if evicted, ok := router.retention.Hold(id); ok {
			router.builder.Discard(evicted)
		}
	default:
		router.builder.Discard(id)
	}
}

func (router *Router) handleMessage(event buildevent.Event) {
	severity := event.Severity()
	text := event.String("msg")
	failure := attribution.IsFailure(severity, text)

	if router.mode.Attributes() {
		router.attribute(severity, text)
	}
	if router.mode.ShowsMessage(severity, failure) {
		router.presenter.ShowMessage(severity, text, event.String("file"))
	}
}

// attribute marks the unit a failure message names. A unit that has
// already stopped and is waiting in the retention window is shown at
// once.
func (router *Router) attribute(severity buildevent.Severity, text string) {
	id, ok := router.attributor.Attribute(severity, text, router.builder)
	if !ok {
		return
	}
	router.builder.MarkFailed(id)

	name, _ := router.builder.LookupName(id)
	derivation, _ := nix.DerivationName(name)
	router.logger.Debug("attributed failure", "id", id, "derivation", derivation)

	if router.retention.Holds(id) && router.mode.OnFailure() == verbosity.Flush {
		router.flushBuilder(id)
	}
}

func (router *Router) handleCompileStart(event buildevent.Event) {
	name := event.String("crate_name")
	if name != "" {
		router.targets.Add(name)
	}
	if event.HasID {
		router.compiler.Start(event.ID, name)
	}
	router.render()
}

func (router *Router) handleCompileExit(event buildevent.Event) {
	name := event.String("crate_name")
	if name == "" && event.HasID {
		name, _ = router.compiler.LookupName(event.ID)
	}
	if name != "" {
		router.targets.Remove(name)
	}

	for _, rendered := range compilerDiagnostics(event) {
		router.presenter.ShowMessage(diagnosticSeverity(rendered), rendered, "")
	}

	if event.HasID {
		exitCode, ok := compilerExitCode(event)
		if !ok {
			exitCode = -1
		}
		router.compiler.Finish(event.ID, exitCode)
		state, _ := router.compiler.State(event.ID)
		router.logger.Debug("compilation finished",
			"crate", name,
			"exit_code", exitCode,
			"state", state.String(),
		)
		router.compiler.Discard(event.ID)
	}
	router.render()
}

// flushBuilder removes a builder unit and shows its transcript.
func (router *Router) flushBuilder(id uint64) {
	router.retention.Release(id)
	transcript, ok := router.builder.Flush(id)
	if !ok {
		return
	}
	router.presenter.ShowTranscript(transcript.Name, transcript.Lines)
}

// render draws the progress line when its content changed.
func (router *Router) render() {
	targets := router.targets.List()
	if !router.stats.ShouldRender(targets) {
		return
	}
	router.presenter.ShowProgress(router.stats.Snapshot(), targets)
}

// compilerExitCode reads the exit code of a compile-exit event. Newer
// wrappers send exit_code; older ones send rustc_exit_code.
func compilerExitCode(event buildevent.Event) (int64, bool) {
	if code, ok := event.Int("exit_code"); ok {
		return code, true
	}
	return event.Int("rustc_exit_code")
}

// compilerDiagnostics returns the rendered compiler diagnostics carried
// by a compile-exit event, from either rendered_messages (strings) or
// rustc_messages (objects with a "rendered" string).
func compilerDiagnostics(event buildevent.Event) []string {
	var rendered []string
	if messages, ok := event.Array("rendered_messages"); ok {
		for _, message := range messages {
			if text, ok := message.(string); ok && text != "" {
				rendered = append(rendered, text)
			}
		}
		return rendered
	}
	if messages, ok := event.Array("rustc_messages"); ok {
		for _, message := range messages {
			object, ok := message.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := object["rendered"].(string); ok && text != "" {
				rendered = append(rendered, text)
			}
		}
	}
	return rendered
}

// diagnosticSeverity classifies a rendered compiler diagnostic by its
// leading word; rustc renders "error[E0308]: ..." and "warning: ...".
func diagnosticSeverity(rendered string) buildevent.Severity {
	if strings.HasPrefix(strings.TrimLeft(ansi.Strip(rendered), " \t"), "error") {
		return buildevent.SeverityError
	}
	return buildevent.SeverityWarn
}

func missingID(event buildevent.Event) error {
	return fmt.Errorf("%w: %s event has no id", buildevent.ErrMalformedEvent, event.Kind)
}
