// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"errors"
	"slices"
	"testing"

	"github.com/bureau-foundation/buildwatch/lib/attribution"
	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/buildstats"
	"github.com/bureau-foundation/buildwatch/lib/unit"
	"github.com/bureau-foundation/buildwatch/lib/verbosity"
)

type progressCall struct {
	snapshot buildstats.Snapshot
	targets  []buildstats.Target
}

type transcriptCall struct {
	name  string
	lines []unit.Line
}

type messageCall struct {
	severity buildevent.Severity
	text     string
	file     string
}

// recordingPresenter captures every presentation call in order.
type recordingPresenter struct {
	progress    []progressCall
	transcripts []transcriptCall
	messages    []messageCall
	order       []string
}

func (presenter *recordingPresenter) ShowProgress(snapshot buildstats.Snapshot, targets []buildstats.Target) {
	presenter.progress = append(presenter.progress, progressCall{snapshot: snapshot, targets: targets})
	presenter.order = append(presenter.order, "progress")
}

func (presenter *recordingPresenter) ShowTranscript(name string, lines []unit.Line) {
	presenter.transcripts = append(presenter.transcripts, transcriptCall{name: name, lines: lines})
	presenter.order = append(presenter.order, "transcript:"+name)
}

func (presenter *recordingPresenter) ShowMessage(severity buildevent.Severity, text, file string) {
	presenter.messages = append(presenter.messages, messageCall{severity: severity, text: text, file: file})
	presenter.order = append(presenter.order, "message")
}

func (presenter *recordingPresenter) transcriptNames() []string {
	names := make([]string, 0, len(presenter.transcripts))
	for _, transcript := range presenter.transcripts {
		names = append(names, transcript.name)
	}
	return names
}

const (
	unitA = "building '/nix/store/aaa-unit-A.drv'"
	unitB = "building '/nix/store/bbb-unit-B.drv'"

	startUnitA    = `@nix {"action":"start","id":2,"level":0,"type":105,"text":"building '/nix/store/aaa-unit-A.drv'","fields":["/nix/store/aaa-unit-A.drv","",1,1],"parent":0}`
	startUnitB    = `@nix {"action":"start","id":3,"level":0,"type":105,"text":"building '/nix/store/bbb-unit-B.drv'","fields":["/nix/store/bbb-unit-B.drv","",1,1],"parent":0}`
	phaseUnitA    = `@nix {"action":"result","id":2,"type":104,"fields":["buildPhase"]}`
	lineUnitA1    = `@nix {"action":"result","id":2,"type":101,"fields":["gcc -c main.c"]}`
	lineUnitA2    = `@nix {"action":"result","id":2,"type":101,"fields":["main.c:3: undefined reference to 'foo'"]}`
	lineUnitB     = `@nix {"action":"result","id":3,"type":101,"fields":["compiling unit B"]}`
	stopUnitA     = `@nix {"action":"stop","id":2}`
	stopUnitB     = `@nix {"action":"stop","id":3}`
	failUnitA     = `@nix {"action":"msg","level":0,"msg":"builder for '/nix/store/aaa-unit-A.drv' failed with exit code 1"}`
	startStats    = `@nix {"action":"start","id":1,"level":0,"type":104,"text":"","fields":[],"parent":0}`
	updateStats   = `@nix {"action":"result","id":1,"type":105,"fields":[5,10,2,0]}`
	stopStats     = `@nix {"action":"stop","id":1}`
	startCrateFoo = `@cargo {"action":"start","type":0,"crate_name":"foo","id":1}`
	exitCrateFoo  = `@cargo {"action":"exit","type":2,"crate_name":"foo","id":1,"exit_code":0}`
)

func newTestRouter(t *testing.T, mode verbosity.Mode, retentionLimit int) (*Router, *recordingPresenter) {
	t.Helper()
	presenter := &recordingPresenter{}
	router, err := New(Config{
		Mode:           mode,
		RetentionLimit: retentionLimit,
		Presenter:      presenter,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return router, presenter
}

// feed decodes and routes each line, failing the test on any error.
func feed(t *testing.T, router *Router, lines ...string) {
	t.Helper()
	for _, line := range lines {
		event, ok, err := buildevent.Decode(line)
		if err != nil {
			t.Fatalf("Decode(%q): %v", line, err)
		}
		if !ok {
			t.Fatalf("Decode(%q): line is inert", line)
		}
		if err := router.Handle(event); err != nil {
			t.Fatalf("Handle(%q): %v", line, err)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Mode: 0, Presenter: &recordingPresenter{}}); err == nil {
		t.Error("New accepted an invalid mode")
	}
	if _, err := New(Config{Mode: verbosity.ModeErrors}); err == nil {
		t.Error("New accepted a nil presenter")
	}
	if _, err := New(Config{Mode: verbosity.ModeErrors, Presenter: &recordingPresenter{}, RetentionLimit: -1}); err == nil {
		t.Error("New accepted a negative retention limit")
	}
}

func TestVerbose_TranscriptIsBufferedLinesFlushedOnce(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	feed(t, router, startUnitA, phaseUnitA, lineUnitA1, lineUnitA2, stopUnitA, stopUnitA)

	if len(presenter.transcripts) != 1 {
		t.Fatalf("got %d transcripts, want 1", len(presenter.transcripts))
	}
	transcript := presenter.transcripts[0]
	if transcript.name != unitA {
		t.Errorf("transcript name = %q, want %q", transcript.name, unitA)
	}
	want := []unit.Line{
		{Kind: unit.LinePhase, Text: "Phase: buildPhase"},
		{Kind: unit.LineOutput, Text: "gcc -c main.c"},
		{Kind: unit.LineOutput, Text: "main.c:3: undefined reference to 'foo'"},
	}
	if !slices.Equal(transcript.lines, want) {
		t.Errorf("transcript lines = %v, want %v", transcript.lines, want)
	}
}

func TestVerbose_PhaseWithoutName(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, 0)
	feed(t, router, startUnitA, `@nix {"action":"result","id":2,"type":104,"fields":[]}`, stopUnitA)

	if len(presenter.transcripts) != 1 {
		t.Fatalf("got %d transcripts, want 1", len(presenter.transcripts))
	}
	want := []unit.Line{{Kind: unit.LinePhase, Text: "Phase: unknown"}}
	if !slices.Equal(presenter.transcripts[0].lines, want) {
		t.Errorf("lines = %v, want %v", presenter.transcripts[0].lines, want)
	}
}

func TestVerbose_ShutdownFlushesOpenUnits(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	feed(t, router, startUnitB, lineUnitB, startUnitA, lineUnitA1)
	router.Shutdown()

	if got := presenter.transcriptNames(); !slices.Equal(got, []string{unitA, unitB}) {
		t.Errorf("transcripts at shutdown = %q, want unit A then unit B (by id)", got)
	}
}

func TestErrors_UnfailedUnitProducesNoTranscript(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, stopUnitA)
	router.Shutdown()

	if len(presenter.transcripts) != 0 {
		t.Errorf("got transcripts %q, want none", presenter.transcriptNames())
	}
}

func TestErrors_StopPayloadMarksFailed(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, `@nix {"action":"stop","id":2,"exit_code":2}`)

	if got := presenter.transcriptNames(); !slices.Equal(got, []string{unitA}) {
		t.Errorf("transcripts = %q, want [%q]", got, unitA)
	}
	if len(presenter.transcripts[0].lines) != 1 {
		t.Errorf("lines = %v, want the one buffered line", presenter.transcripts[0].lines)
	}
}

func TestErrors_MessageBeforeStopFlushesAtStop(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, lineUnitA2, failUnitA)

	if len(presenter.transcripts) != 0 {
		t.Fatal("transcript shown before the unit stopped")
	}
	if len(presenter.messages) != 1 || presenter.messages[0].severity != buildevent.SeverityError {
		t.Fatalf("messages = %+v, want the failure message", presenter.messages)
	}

	feed(t, router, stopUnitA)
	if got := presenter.transcriptNames(); !slices.Equal(got, []string{unitA}) {
		t.Fatalf("transcripts = %q, want [%q]", got, unitA)
	}
	if len(presenter.transcripts[0].lines) != 2 {
		t.Errorf("lines = %v, want the full buffer", presenter.transcripts[0].lines)
	}
}

func TestErrors_LateFailureFlushesRetainedUnit(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, stopUnitA)
	if len(presenter.transcripts) != 0 {
		t.Fatal("transcript shown for a unit not yet known to fail")
	}

	feed(t, router, failUnitA)
	want := []string{"transcript:" + unitA, "message"}
	if !slices.Equal(presenter.order, want) {
		t.Errorf("presentation order = %q, want %q", presenter.order, want)
	}

	router.Shutdown()
	if len(presenter.transcripts) != 1 {
		t.Errorf("got %d transcripts after shutdown, want 1", len(presenter.transcripts))
	}
}

func TestErrors_EvictedUnitIsNotShown(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, 1)
	feed(t, router, startUnitA, lineUnitA1, stopUnitA, startUnitB, lineUnitB, stopUnitB, failUnitA)

	if len(presenter.transcripts) != 0 {
		t.Errorf("evicted unit shown: %q", presenter.transcriptNames())
	}
	if len(presenter.messages) != 1 {
		t.Errorf("failure message not shown: %+v", presenter.messages)
	}
}

func TestErrors_AttributionMarksOnlyNamedUnit(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, startUnitB, lineUnitA1, lineUnitB, failUnitA, stopUnitB, stopUnitA)

	if got := presenter.transcriptNames(); !slices.Equal(got, []string{unitA}) {
		t.Errorf("transcripts = %q, want only %q", got, unitA)
	}
}

func TestErrors_UnresolvedFailureIsNotAttributed(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1,
		`@nix {"action":"msg","level":0,"msg":"builder for '/nix/store/zzz-other.drv' failed with exit code 1"}`,
		stopUnitA)

	if len(presenter.transcripts) != 0 {
		t.Errorf("transcripts = %q, want none", presenter.transcriptNames())
	}
	if len(presenter.messages) != 1 {
		t.Errorf("messages = %+v, want the failure shown", presenter.messages)
	}
}

func TestErrors_RecycledIDStartsFresh(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, stopUnitA,
		`@nix {"action":"start","id":2,"level":0,"type":105,"text":"building '/nix/store/ccc-unit-C.drv'"}`,
		`@nix {"action":"result","id":2,"type":101,"fields":["unit C output"]}`,
		`@nix {"action":"stop","id":2,"exit_code":1}`,
		failUnitA,
	)

	if len(presenter.transcripts) != 1 {
		t.Fatalf("transcripts = %q, want only unit C", presenter.transcriptNames())
	}
	transcript := presenter.transcripts[0]
	if transcript.name != "building '/nix/store/ccc-unit-C.drv'" {
		t.Errorf("transcript name = %q", transcript.name)
	}
	if want := []unit.Line{{Kind: unit.LineOutput, Text: "unit C output"}}; !slices.Equal(transcript.lines, want) {
		t.Errorf("lines = %v, want %v", transcript.lines, want)
	}
}

func TestMessages_PerMode(t *testing.T) {
	t.Parallel()

	messages := []string{
		`@nix {"action":"msg","level":0,"msg":"error: cannot connect to daemon"}`,
		`@nix {"action":"msg","level":1,"msg":"warning: Git tree is dirty"}`,
		`@nix {"action":"msg","level":3,"msg":"these 2 derivations will be built:","file":"flake.nix"}`,
		`@nix {"action":"msg","level":5,"msg":"evaluating file"}`,
		`@nix {"action":"msg","level":5,"msg":"chatty: no error here, just failed lookups"}`,
	}

	tests := []struct {
		mode verbosity.Mode
		want []string
	}{
		{mode: verbosity.ModeCompiler, want: nil},
		{mode: verbosity.ModeErrors, want: []string{
			"error: cannot connect to daemon",
			"chatty: no error here, just failed lookups",
		}},
		{mode: verbosity.ModeVerbose, want: []string{
			"warning: Git tree is dirty",
			"these 2 derivations will be built:",
		}},
	}

	for _, testCase := range tests {
		t.Run(testCase.mode.String(), func(t *testing.T) {
			t.Parallel()
			router, presenter := newTestRouter(t, testCase.mode, DefaultRetentionLimit)
			feed(t, router, messages...)

			var got []string
			for _, message := range presenter.messages {
				got = append(got, message.text)
			}
			if !slices.Equal(got, testCase.want) {
				t.Errorf("shown messages = %q, want %q", got, testCase.want)
			}
		})
	}
}

func TestMessages_FileIsPassedThrough(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, 0)
	feed(t, router, `@nix {"action":"msg","level":1,"msg":"unused variable","file":"/src/flake.nix"}`)

	want := []messageCall{{severity: buildevent.SeverityWarn, text: "unused variable", file: "/src/flake.nix"}}
	if !slices.Equal(presenter.messages, want) {
		t.Errorf("messages = %+v, want %+v", presenter.messages, want)
	}
}

func TestCompilerMode_IgnoresBuilderUnits(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeCompiler, DefaultRetentionLimit)
	feed(t, router, startUnitA, lineUnitA1, failUnitA, `@nix {"action":"stop","id":2,"exit_code":1}`)
	router.Shutdown()

	if len(presenter.transcripts) != 0 || len(presenter.messages) != 0 {
		t.Errorf("compiler mode showed builder output: transcripts %q, messages %+v",
			presenter.transcriptNames(), presenter.messages)
	}
}

func TestStats_UnknownStreamRejected(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	event, _, err := buildevent.Decode(updateStats)
	if err != nil {
		t.Fatal(err)
	}
	if err := router.Handle(event); !errors.Is(err, buildstats.ErrUnknownStream) {
		t.Errorf("Handle() error = %v, want ErrUnknownStream", err)
	}
	if len(presenter.progress) != 0 {
		t.Errorf("rejected update rendered %d frames", len(presenter.progress))
	}
}

func TestStats_IdenticalUpdateRendersOnce(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startStats, updateStats, updateStats)

	if len(presenter.progress) != 1 {
		t.Fatalf("got %d progress frames, want 1", len(presenter.progress))
	}
	want := buildstats.Snapshot{Done: 5, Expected: 10, Running: 2}
	if presenter.progress[0].snapshot != want {
		t.Errorf("snapshot = %+v, want %+v", presenter.progress[0].snapshot, want)
	}
}

func TestStats_StopResolvesStreamBeforeUnit(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	feed(t, router, startStats, updateStats, stopStats, stopStats)

	if len(presenter.transcripts) != 0 {
		t.Errorf("stats stop produced transcripts %q", presenter.transcriptNames())
	}
	event, _, err := buildevent.Decode(`@nix {"action":"result","id":1,"type":105,"fields":[6,10,1,0]}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := router.Handle(event); !errors.Is(err, buildstats.ErrUnknownStream) {
		t.Errorf("update after stop error = %v, want ErrUnknownStream", err)
	}
	last := presenter.progress[len(presenter.progress)-1]
	if last.snapshot != (buildstats.Snapshot{Done: 5, Expected: 10, Running: 2}) {
		t.Errorf("last snapshot = %+v, want values kept after stop", last.snapshot)
	}
}

func TestStats_MalformedUpdate(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startStats)
	event, _, err := buildevent.Decode(`@nix {"action":"result","id":1,"type":105,"fields":[5,10,2]}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := router.Handle(event); !errors.Is(err, buildevent.ErrMalformedEvent) {
		t.Errorf("Handle() error = %v, want ErrMalformedEvent", err)
	}
}

func TestCompile_DiagnosticsAndTargets(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeCompiler, DefaultRetentionLimit)
	feed(t, router,
		startStats, updateStats,
		`@cargo {"action":"start","type":0,"crate_name":"syn","id":10}`,
		`@cargo {"action":"start","type":0,"crate_name":"syn","id":11}`,
		`@cargo {"action":"start","type":0,"crate_name":"anyhow","id":12}`,
	)
	last := presenter.progress[len(presenter.progress)-1]
	want := []buildstats.Target{{Name: "anyhow", Count: 1}, {Name: "syn", Count: 2}}
	if !slices.Equal(last.targets, want) {
		t.Fatalf("targets = %v, want %v", last.targets, want)
	}

	feed(t, router,
		`@cargo {"action":"exit","type":2,"crate_name":"syn","id":10,"rustc_exit_code":1,"rustc_messages":[{"rendered":"error[E0308]: mismatched types"},{"message":"no rendering"}]}`,
		`@cargo {"action":"exit","type":2,"crate_name":"anyhow","id":12,"exit_code":0,"rendered_messages":["warning: unused import"]}`,
	)

	wantMessages := []messageCall{
		{severity: buildevent.SeverityError, text: "error[E0308]: mismatched types"},
		{severity: buildevent.SeverityWarn, text: "warning: unused import"},
	}
	if !slices.Equal(presenter.messages, wantMessages) {
		t.Errorf("messages = %+v, want %+v", presenter.messages, wantMessages)
	}
	last = presenter.progress[len(presenter.progress)-1]
	if want := []buildstats.Target{{Name: "syn", Count: 1}}; !slices.Equal(last.targets, want) {
		t.Errorf("targets = %v, want %v", last.targets, want)
	}
	if len(presenter.transcripts) != 0 {
		t.Errorf("compile exit produced transcripts %q", presenter.transcriptNames())
	}
	if got := router.compiler.Outstanding(); !slices.Equal(got, []uint64{11}) {
		t.Errorf("outstanding compiler units = %v, want [11]", got)
	}
}

func TestCompile_NoProgressBeforeStats(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeErrors, DefaultRetentionLimit)
	feed(t, router, startCrateFoo, startStats)
	if len(presenter.progress) != 0 {
		t.Fatalf("progress drawn before any stats update: %+v", presenter.progress)
	}

	feed(t, router, updateStats)
	if len(presenter.progress) != 1 {
		t.Fatalf("got %d progress frames, want 1", len(presenter.progress))
	}
	frame := presenter.progress[0]
	if frame.snapshot != (buildstats.Snapshot{Done: 5, Expected: 10, Running: 2}) {
		t.Errorf("snapshot = %+v", frame.snapshot)
	}
	if want := []buildstats.Target{{Name: "foo", Count: 1}}; !slices.Equal(frame.targets, want) {
		t.Errorf("targets = %v, want %v", frame.targets, want)
	}
}

func TestCompile_NestedInBuilderLog(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	feed(t, router,
		startStats, updateStats,
		startUnitA,
		`@nix {"action":"result","id":2,"type":101,"fields":["@cargo {\"action\":\"start\",\"type\":0,\"crate_name\":\"serde\"}"]}`,
	)

	last := presenter.progress[len(presenter.progress)-1]
	if want := []buildstats.Target{{Name: "serde", Count: 1}}; !slices.Equal(last.targets, want) {
		t.Errorf("targets = %v, want %v", last.targets, want)
	}

	feed(t, router, stopUnitA)
	if len(presenter.transcripts) != 1 || len(presenter.transcripts[0].lines) != 0 {
		t.Errorf("nested compiler line leaked into the builder transcript: %+v", presenter.transcripts)
	}
}

func TestUnrecognizedIsIgnored(t *testing.T) {
	t.Parallel()

	router, presenter := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	feed(t, router,
		`@nix {"action":"start","id":9,"type":108,"text":"querying info"}`,
		`@nix {"action":"result","id":9,"type":106,"fields":["x"]}`,
		`@cargo {"action":"progress","type":1,"id":9}`,
	)
	if len(presenter.order) != 0 {
		t.Errorf("unrecognized events produced output %q", presenter.order)
	}
}

func TestMissingIDIsMalformed(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, verbosity.ModeVerbose, DefaultRetentionLimit)
	event, _, err := buildevent.Decode(`@nix {"action":"stop"}`)
	if err != nil {
		t.Fatal(err)
	}
	if err := router.Handle(event); !errors.Is(err, buildevent.ErrMalformedEvent) {
		t.Errorf("Handle() error = %v, want ErrMalformedEvent", err)
	}
}

// TestEndToEnd walks one compiler unit and one failing builder unit
// through errors mode. The builder unit is registered under its bare
// name, so the attributor captures that name from the store path.
func TestEndToEnd(t *testing.T) {
	t.Parallel()

	attributor, err := attribution.New(`/nix/store/[a-z0-9]+-([A-Za-z0-9-]+)\.drv`, []string{"${1}"})
	if err != nil {
		t.Fatal(err)
	}
	presenter := &recordingPresenter{}
	router, err := New(Config{
		Mode:           verbosity.ModeErrors,
		Attributor:     attributor,
		RetentionLimit: DefaultRetentionLimit,
		Presenter:      presenter,
	})
	if err != nil {
		t.Fatal(err)
	}

	feed(t, router,
		startStats, updateStats,
		startCrateFoo,
		`@nix {"action":"start","id":2,"type":105,"text":"unit-A"}`,
		`@nix {"action":"start","id":3,"type":105,"text":"unit-B"}`,
		`@nix {"action":"result","id":2,"type":101,"fields":["configure: error: missing libfoo"]}`,
		`@nix {"action":"msg","level":0,"msg":"builder for '/nix/store/aaa-unit-A.drv' failed"}`,
	)
	if len(presenter.transcripts) != 0 {
		t.Fatal("transcript printed before stop")
	}

	feed(t, router, `@nix {"action":"stop","id":2}`)
	if got := presenter.transcriptNames(); !slices.Equal(got, []string{"unit-A"}) {
		t.Fatalf("transcripts = %q, want [unit-A]", got)
	}
	want := []unit.Line{{Kind: unit.LineOutput, Text: "configure: error: missing libfoo"}}
	if !slices.Equal(presenter.transcripts[0].lines, want) {
		t.Errorf("lines = %v, want %v", presenter.transcripts[0].lines, want)
	}

	feed(t, router, exitCrateFoo)
	if len(presenter.transcripts) != 1 {
		t.Error("compile exit changed the transcripts")
	}
	last := presenter.progress[len(presenter.progress)-1]
	if len(last.targets) != 0 {
		t.Errorf("targets after exit = %v, want foo removed", last.targets)
	}

	feed(t, router, `@nix {"action":"stop","id":3}`)
	router.Shutdown()
	if len(presenter.transcripts) != 1 {
		t.Errorf("unit-B was shown: %q", presenter.transcriptNames())
	}
}
