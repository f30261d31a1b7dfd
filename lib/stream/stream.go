// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream drives the read loop: it reads the build tool's output
// line by line, decodes each line, and hands events to a handler one at
// a time. Lines without a producer marker are skipped. Malformed lines
// are logged at debug level (throttled) and dropped.
//
// End of input is a clean shutdown: the handler's Shutdown runs and Run
// returns nil. A read error aborts at once without Shutdown.
//
// The same loop replays a recorded event trace: the events skip
// decoding and go straight to the handler.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/clock"
)

// Handler consumes decoded events. *router.Router satisfies it.
type Handler interface {
	Handle(event buildevent.Event) error
	Shutdown()
}

// Recorder receives a copy of every decoded event. *eventtrace.Recorder
// satisfies it.
type Recorder interface {
	Record(event buildevent.Event) error
}

// EventSource yields already-decoded events, returning io.EOF after
// the last. *eventtrace.Reader satisfies it through NextEvent.
type EventSource interface {
	NextEvent() (buildevent.Event, error)
}

// Config holds the inputs of Run. Exactly one of Input and Events is
// set.
type Config struct {
	Input io.Reader

	// Events replays a recorded run instead of reading lines.
	Events EventSource

	Handler Handler

	// Recorder is optional. A recorder that fails once is not used
	// again for the rest of the run.
	Recorder Recorder

	Logger *slog.Logger

	// Clock drives the debug log throttle. Nil uses the system clock.
	Clock clock.Clock
}

// Stats counts what Run saw.
type Stats struct {
	// Lines is every line read, marked or not.
	Lines uint64

	// Events is events handed to the handler.
	Events uint64

	// Malformed is marked lines that failed to decode, plus events the
	// handler rejected as malformed.
	Malformed uint64

	// Rejected is events the handler refused for another reason, such
	// as progress from an unknown stream.
	Rejected uint64
}

// Run reads Input (or Events) until its end, a read error, or
// cancellation. Cancellation is checked between lines; a read blocked
// on input is not interrupted.
func Run(ctx context.Context, config Config) (Stats, error) {
	if config.Handler == nil {
		return Stats{}, errors.New("stream: handler is required")
	}
	if (config.Input == nil) == (config.Events == nil) {
		return Stats{}, errors.New("stream: exactly one of input and events is required")
	}
	loop := newLoop(config)
	if config.Events != nil {
		return loop.replay(ctx, config.Events)
	}

	reader := bufio.NewReader(config.Input)
	for {
		if err := ctx.Err(); err != nil {
			return loop.stats, err
		}

		// ReadString has no line-length limit; the builder's log lines
		// embed whole compiler diagnostics.
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			loop.process(line)
		}
		if errors.Is(err, io.EOF) {
			loop.handler.Shutdown()
			return loop.stats, nil
		}
		if err != nil {
			return loop.stats, fmt.Errorf("reading input: %w", err)
		}
	}
}

func newLoop(config Config) *loop {
	loop := &loop{
		handler:  config.Handler,
		recorder: config.Recorder,
		logger:   config.Logger,
		clock:    config.Clock,
		// A stream of garbage must not bury stderr.
		throttle: rate.NewLimiter(rate.Every(time.Second), 10),
	}
	if loop.logger == nil {
		loop.logger = slog.New(slog.DiscardHandler)
	}
	if loop.clock == nil {
		loop.clock = clock.Real()
	}
	return loop
}

// replay feeds recorded events. They were decoded once already, so
// only the handler's verdicts are counted.
func (loop *loop) replay(ctx context.Context, source EventSource) (Stats, error) {
	for {
		if err := ctx.Err(); err != nil {
			return loop.stats, err
		}
		event, err := source.NextEvent()
		if errors.Is(err, io.EOF) {
			loop.handler.Shutdown()
			return loop.stats, nil
		}
		if err != nil {
			return loop.stats, fmt.Errorf("reading events: %w", err)
		}
		loop.stats.Events++
		loop.apply(event)
	}
}

type loop struct {
	handler  Handler
	recorder Recorder
	logger   *slog.Logger
	clock    clock.Clock
	throttle *rate.Limiter
	stats    Stats

	// suppressed counts debug records dropped by throttle since the
	// last one that got through.
	suppressed int
}

func (loop *loop) process(line string) {
	loop.stats.Lines++

	event, marked, err := buildevent.Decode(line)
	if !marked {
		return
	}
	if err != nil {
		loop.stats.Malformed++
		loop.debug("dropping malformed line", "line", loop.stats.Lines, "error", err)
		return
	}
	loop.stats.Events++
	loop.apply(event)
}

// apply records and handles one event.
func (loop *loop) apply(event buildevent.Event) {
	if loop.recorder != nil {
		if err := loop.recorder.Record(event); err != nil {
			loop.logger.Warn("event trace disabled after write failure", "error", err)
			loop.recorder = nil
		}
	}

	if err := loop.handler.Handle(event); err != nil {
		if errors.Is(err, buildevent.ErrMalformedEvent) {
			loop.stats.Malformed++
		} else {
			loop.stats.Rejected++
		}
		loop.debug("event not applied",
			"event", loop.stats.Events,
			"kind", event.Kind.String(),
			"error", err,
		)
	}
}

// debug logs at debug level, throttled.
func (loop *loop) debug(message string, args ...any) {
	if !loop.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if !loop.throttle.AllowN(loop.clock.Now(), 1) {
		loop.suppressed++
		return
	}
	if loop.suppressed > 0 {
		args = append(args, "suppressed", loop.suppressed)
		loop.suppressed = 0
	}
	loop.logger.Debug(message, args...)
}
