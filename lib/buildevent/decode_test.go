// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import (
	"errors"
	"testing"
)

func TestDecode_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		wantKind Kind
		wantID   uint64
		family   Family
	}{
		{
			name:     "stats stream start",
			line:     `@nix {"action":"start","id":1,"type":104,"level":3,"text":""}`,
			wantKind: KindStatsStart,
			wantID:   1,
			family:   FamilyBuilder,
		},
		{
			name:     "derivation log start",
			line:     `@nix {"action":"start","id":7,"type":105,"text":"building '/nix/store/abc-hello.drv'"}`,
			wantKind: KindUnitLogStart,
			wantID:   7,
			family:   FamilyBuilder,
		},
		{
			name:     "build log line",
			line:     `@nix {"action":"result","id":7,"type":101,"fields":["compiling"]}`,
			wantKind: KindUnitLogLine,
			wantID:   7,
			family:   FamilyBuilder,
		},
		{
			name:     "phase change",
			line:     `@nix {"action":"result","id":7,"type":104,"fields":["buildPhase"]}`,
			wantKind: KindUnitLogPhase,
			wantID:   7,
			family:   FamilyBuilder,
		},
		{
			name:     "progress update",
			line:     `@nix {"action":"result","id":1,"type":105,"fields":[1,4,2,0]}`,
			wantKind: KindStatsUpdate,
			wantID:   1,
			family:   FamilyBuilder,
		},
		{
			name:     "stop without type",
			line:     `@nix {"action":"stop","id":7}`,
			wantKind: KindUnitLogStop,
			wantID:   7,
			family:   FamilyBuilder,
		},
		{
			name:     "message",
			line:     `@nix {"action":"msg","level":1,"msg":"warning: dirty tree"}`,
			wantKind: KindMessage,
			family:   FamilyBuilder,
		},
		{
			name:     "compile start",
			line:     `@cargo {"action":"start","type":0,"id":3,"crate_name":"serde"}`,
			wantKind: KindCompileStart,
			wantID:   3,
			family:   FamilyCompiler,
		},
		{
			name:     "compile exit",
			line:     `@cargo {"action":"exit","type":2,"id":3,"crate_name":"serde","exit_code":0}`,
			wantKind: KindCompileExit,
			wantID:   3,
			family:   FamilyCompiler,
		},
		{
			name:     "unknown activity type",
			line:     `@nix {"action":"start","id":9,"type":108}`,
			wantKind: KindUnrecognized,
			wantID:   9,
			family:   FamilyBuilder,
		},
		{
			name:     "builder action reused by compiler family",
			line:     `@cargo {"action":"msg","type":0}`,
			wantKind: KindUnrecognized,
			family:   FamilyCompiler,
		},
		{
			name:     "start without type",
			line:     `@nix {"action":"start","id":2}`,
			wantKind: KindUnrecognized,
			wantID:   2,
			family:   FamilyBuilder,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			event, ok, err := Decode(testCase.line)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", testCase.line, err)
			}
			if !ok {
				t.Fatalf("Decode(%q) reported inert line", testCase.line)
			}
			if event.Kind != testCase.wantKind {
				t.Errorf("Kind = %v, want %v", event.Kind, testCase.wantKind)
			}
			if event.Family != testCase.family {
				t.Errorf("Family = %v, want %v", event.Family, testCase.family)
			}
			if event.ID != testCase.wantID {
				t.Errorf("ID = %d, want %d", event.ID, testCase.wantID)
			}
		})
	}
}

func TestDecode_InertLines(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"",
		"these 3 derivations will be built:",
		"@nixx {\"action\":\"msg\"}",
		"  @nix {\"action\":\"msg\"}",
		"@cargo{\"action\":\"start\"}",
	} {
		event, ok, err := Decode(line)
		if err != nil {
			t.Errorf("Decode(%q) error = %v, want nil", line, err)
		}
		if ok {
			t.Errorf("Decode(%q) = %+v, want inert", line, event)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	for _, line := range []string{
		"@nix not json",
		"@nix [1,2,3]",
		`@nix {"id":1,"type":105}`,
		`@nix {"action":5}`,
		`@cargo "start"`,
	} {
		_, ok, err := Decode(line)
		if !ok {
			t.Errorf("Decode(%q) reported inert line, want participating", line)
		}
		if !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformedEvent", line, err)
		}
	}
}

func TestDecode_StripsColorCodes(t *testing.T) {
	t.Parallel()

	line := "@nix \x1b[1m{\"action\":\"msg\",\"level\":0,\x1b[31m\"msg\":\"boom\"\x1b[0m}"
	event, ok, err := Decode(line)
	if err != nil || !ok {
		t.Fatalf("Decode() = ok %v, err %v", ok, err)
	}
	if got := event.String("msg"); got != "boom" {
		t.Errorf("msg = %q, want %q", got, "boom")
	}
}

func TestDecode_TrailingCommaTolerated(t *testing.T) {
	t.Parallel()

	event, ok, err := Decode(`@cargo {"action":"start","type":0,"id":4,"crate_name":"libc",}`)
	if err != nil || !ok {
		t.Fatalf("Decode() = ok %v, err %v", ok, err)
	}
	if event.Kind != KindCompileStart || event.String("crate_name") != "libc" {
		t.Errorf("event = %+v, want compile start for libc", event)
	}
}

func TestDecode_CarriageReturnTrimmed(t *testing.T) {
	t.Parallel()

	event, _, err := Decode("@nix {\"action\":\"stop\",\"id\":12}\r\n")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if event.ID != 12 {
		t.Errorf("ID = %d, want 12", event.ID)
	}
}

func TestDecode_LargeIDsAreExact(t *testing.T) {
	t.Parallel()

	event, _, err := Decode(`@nix {"action":"stop","id":18446744073709551615}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if !event.HasID || event.ID != 18446744073709551615 {
		t.Errorf("ID = %d (has %v), want max uint64", event.ID, event.HasID)
	}
}

func TestDecode_NestedCompilerLine(t *testing.T) {
	t.Parallel()

	line := `@nix {"action":"result","id":42,"type":101,"fields":["@cargo {\"action\":\"start\",\"type\":0,\"id\":9,\"crate_name\":\"anyhow\"}"]}`
	event, ok, err := Decode(line)
	if err != nil || !ok {
		t.Fatalf("Decode() = ok %v, err %v", ok, err)
	}
	if event.Family != FamilyCompiler {
		t.Errorf("Family = %v, want compiler", event.Family)
	}
	if event.Kind != KindCompileStart {
		t.Errorf("Kind = %v, want compile start", event.Kind)
	}
	if event.ID != 42 {
		t.Errorf("ID = %d, want the outer id 42", event.ID)
	}
	if got := event.String("crate_name"); got != "anyhow" {
		t.Errorf("crate_name = %q, want anyhow", got)
	}
}

func TestDecode_NestedMalformedStaysLogLine(t *testing.T) {
	t.Parallel()

	line := `@nix {"action":"result","id":42,"type":101,"fields":["@cargo garbage"]}`
	event, ok, err := Decode(line)
	if err != nil || !ok {
		t.Fatalf("Decode() = ok %v, err %v", ok, err)
	}
	if event.Kind != KindUnitLogLine || event.Family != FamilyBuilder {
		t.Errorf("event = %v/%v, want builder log line", event.Family, event.Kind)
	}
	if text, _ := event.FieldString(0); text != "@cargo garbage" {
		t.Errorf("field 0 = %q", text)
	}
}

func TestEvent_Accessors(t *testing.T) {
	t.Parallel()

	event, _, err := Decode(`@nix {"action":"result","id":1,"type":105,"fields":[5,"10",-1],"level":2}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if value, ok := event.FieldUint(0); !ok || value != 5 {
		t.Errorf("FieldUint(0) = %d, %v", value, ok)
	}
	if value, ok := event.FieldUint(1); !ok || value != 10 {
		t.Errorf("FieldUint(1) = %d, %v", value, ok)
	}
	if _, ok := event.FieldUint(2); ok {
		t.Error("FieldUint(2) accepted a negative number")
	}
	if event.Field(7) != nil {
		t.Error("Field(7) out of range should be nil")
	}
	if event.Severity() != SeverityNotice {
		t.Errorf("Severity() = %v, want notice", event.Severity())
	}
	if !event.Has("fields") || event.Has("msg") {
		t.Error("Has() reported wrong presence")
	}
}

func TestEvent_SeverityDefaultsToError(t *testing.T) {
	t.Parallel()

	event, _, err := Decode(`@nix {"action":"msg","msg":"x"}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if event.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", event.Severity())
	}
}

func TestDecode_SlashesInsideStringsSurvive(t *testing.T) {
	t.Parallel()

	event, _, err := Decode(`@nix {"action":"msg","level":1,"msg":"fetching https://cache.nixos.org/nar // retry"}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got, want := event.String("msg"), "fetching https://cache.nixos.org/nar // retry"; got != want {
		t.Errorf("msg = %q, want %q", got, want)
	}
}
