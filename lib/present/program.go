// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/buildwatch/lib/buildevent"
	"github.com/bureau-foundation/buildwatch/lib/buildstats"
	"github.com/bureau-foundation/buildwatch/lib/unit"
)

// progressMsg delivers a new progress frame to the model.
type progressMsg struct {
	snapshot buildstats.Snapshot
	targets  []buildstats.Target
}

// progressModel is the inline view: a spinner and the progress line.
// Everything else is printed above it with tea.Println.
type progressModel struct {
	styles  *Styles
	spinner spinner.Model
	width   int

	hasProgress bool
	snapshot    buildstats.Snapshot
	targets     []buildstats.Target
}

func newProgressModel(styles *Styles, width int) progressModel {
	return progressModel{
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(styles.Spinner()),
		),
		width: width,
	}
}

func (model progressModel) Init() tea.Cmd {
	return model.spinner.Tick
}

func (model progressModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case progressMsg:
		model.hasProgress = true
		model.snapshot = message.snapshot
		model.targets = message.targets
		return model, nil

	case tea.WindowSizeMsg:
		model.width = message.Width
		return model, nil

	case spinner.TickMsg:
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command
	}
	return model, nil
}

func (model progressModel) View() string {
	if !model.hasProgress {
		return ""
	}
	frame := model.spinner.View()
	return frame + " " + model.styles.Progress(model.snapshot, model.targets, model.width-ansi.StringWidth(frame)-1)
}

// Program presents output through an inline bubbletea program. The
// program does not read input and installs no signal handler, so
// interrupting buildwatch behaves as it does without the inline view.
//
// All methods are safe to call from any goroutine, and safe to call
// after Close (they become no-ops).
type Program struct {
	program  *tea.Program
	styles   *Styles
	finished chan struct{}
	err      error
}

// ProgramConfig configures a Program.
type ProgramConfig struct {
	Output io.Writer
	Styles *Styles

	// Width is the initial line width, until the terminal reports its
	// size. Nil uses DefaultWidth.
	Width WidthFunc
}

// NewProgram creates the inline program. Call Start before showing
// anything.
func NewProgram(config ProgramConfig) *Program {
	width := DefaultWidth
	if config.Width != nil {
		width = config.Width()
	}
	program := tea.NewProgram(
		newProgressModel(config.Styles, width),
		tea.WithInput(nil),
		tea.WithOutput(config.Output),
		tea.WithoutSignalHandler(),
	)
	return &Program{
		program:  program,
		styles:   config.Styles,
		finished: make(chan struct{}),
	}
}

// Start runs the program in a background goroutine.
func (presenter *Program) Start() {
	go func() {
		defer close(presenter.finished)
		_, presenter.err = presenter.program.Run()
	}()
}

// ShowProgress replaces the progress frame.
func (presenter *Program) ShowProgress(snapshot buildstats.Snapshot, targets []buildstats.Target) {
	presenter.program.Send(progressMsg{snapshot: snapshot, targets: targets})
}

// ShowTranscript prints a unit's transcript above the progress line.
func (presenter *Program) ShowTranscript(name string, lines []unit.Line) {
	presenter.print(strings.TrimSuffix(presenter.styles.Transcript(name, lines), "\n"))
}

// ShowMessage prints a message above the progress line.
func (presenter *Program) ShowMessage(severity buildevent.Severity, text, file string) {
	presenter.print(presenter.styles.Message(severity, text, file))
}

// showLog prints a log record above the progress line.
func (presenter *Program) showLog(level slog.Level, summary string) {
	presenter.print(presenter.styles.LogRecord(level, summary))
}

// Done is closed once the program has exited.
func (presenter *Program) Done() <-chan struct{} {
	return presenter.finished
}

// Close stops the program after it has drawn its final frame and
// returns the program's error, if any.
func (presenter *Program) Close() error {
	presenter.program.Quit()
	<-presenter.finished
	return presenter.err
}

// print sends a line through Send rather than Program.Println, which
// would block forever once the program has exited.
func (presenter *Program) print(text string) {
	presenter.program.Send(tea.Println(text)())
}
