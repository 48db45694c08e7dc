package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/proxyops/internal/domain"
	"github.com/trebuchet-org/proxyops/internal/domain/config"
	"github.com/trebuchet-org/proxyops/internal/usecase"
)

// SpinnerProgressReporter shows the submission states with a spinner
type SpinnerProgressReporter struct {
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     domain.TxState
	StartTime time.Time
	EndTime   time.Time
	Status    string
}

// NewProgressSink picks the spinner on an interactive terminal and the log sink otherwise
func NewProgressSink(cfg *config.RuntimeConfig, log *slog.Logger) usecase.ProgressSink {
	if cfg.NonInteractive || color.NoColor {
		return NewLogSink(log)
	}
	return NewSpinnerProgressReporter(os.Stderr)
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{spinner: s, out: out}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	state := domain.TxState(event.Stage)
	r.completeCurrentStage(state)
	r.stages = append(r.stages, stageInfo{Stage: state, StartTime: time.Now(), Status: "running"})

	if state.IsTerminal() {
		r.stages[len(r.stages)-1].EndTime = time.Now()
		r.stages[len(r.stages)-1].Status = string(state)
	}

	r.updateSpinnerDisplay()
	if event.Spinner {
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}
	if r.spinner.Active() {
		r.spinner.Stop()
	}
	fmt.Fprintln(r.out, r.spinner.Suffix[1:])
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.pause(func() { color.New(color.FgCyan).Fprintln(r.out, message) })
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.pause(func() { color.New(color.FgRed).Fprintln(r.out, message) })
}

func (r *SpinnerProgressReporter) pause(print func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	print()
	if wasActive {
		r.spinner.Start()
	}
}

// completeCurrentStage marks the running stage as completed
func (r *SpinnerProgressReporter) completeCurrentStage(next domain.TxState) {
	if len(r.stages) == 0 {
		return
	}
	idx := len(r.stages) - 1
	if r.stages[idx].Status != "running" {
		return
	}
	r.stages[idx].EndTime = time.Now()
	r.stages[idx].Status = "completed"
	if next == domain.TxRejected {
		r.stages[idx].Status = "failed"
	}
}

// updateSpinnerDisplay renders "✓ Submitted → ● Pending (3s)"
func (r *SpinnerProgressReporter) updateSpinnerDisplay() {
	var display string

	for _, stage := range r.stages {
		var icon string
		var stageColor *color.Color

		switch stage.Status {
		case "completed", string(domain.TxConfirmed):
			icon = "✓"
			stageColor = color.New(color.FgGreen)
		case "running":
			icon = "●"
			stageColor = color.New(color.FgYellow)
		case "failed", string(domain.TxRejected):
			icon = "✗"
			stageColor = color.New(color.FgRed)
		default:
			icon = "○"
			stageColor = color.New(color.FgWhite)
		}

		duration := ""
		if !stage.EndTime.IsZero() && stage.EndTime.Sub(stage.StartTime) >= time.Millisecond {
			duration = fmt.Sprintf(" (%s)", stage.EndTime.Sub(stage.StartTime).Round(time.Millisecond))
		}

		if display != "" {
			display += " → "
		}
		display += fmt.Sprintf("%s %s%s", icon, stageColor.Sprint(stageTitle(stage.Stage)), duration)
	}

	r.spinner.Suffix = " " + display
}

func stageTitle(state domain.TxState) string {
	switch state {
	case domain.TxSubmitted:
		return "Submitted"
	case domain.TxPending:
		return "Pending"
	case domain.TxConfirmed:
		return "Confirmed"
	case domain.TxRejected:
		return "Rejected"
	default:
		return string(state)
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
