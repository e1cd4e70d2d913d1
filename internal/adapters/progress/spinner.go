package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// SpinnerProgressReporter shows the vote pipeline as a line of stages
type SpinnerProgressReporter struct {
	mu      sync.Mutex
	spinner *spinner.Spinner
	out     io.Writer
	stages  []stageInfo
}

type stageInfo struct {
	Stage     usecase.VoteStage
	StartTime time.Time
	EndTime   time.Time
	Message   string
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter() *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		spinner: s,
		out:     os.Stderr,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n := len(r.stages); n == 0 || r.stages[n-1].Stage != event.Stage {
		if n > 0 {
			r.stages[n-1].EndTime = time.Now()
		}
		r.stages = append(r.stages, stageInfo{Stage: event.Stage, StartTime: time.Now()})
	}
	r.stages[len(r.stages)-1].Message = event.Message

	if event.Stage == usecase.StageCompleted {
		r.stages[len(r.stages)-1].EndTime = time.Now()
		r.spinner.Stop()
		fmt.Fprintln(r.out, r.display())
		return
	}

	r.spinner.Suffix = " " + r.display()
	if event.Spinner && !r.spinner.Active() {
		r.spinner.Start()
	} else if !event.Spinner && r.spinner.Active() {
		r.spinner.Stop()
	}
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.interrupt(func() { color.New(color.FgCyan).Fprintln(r.out, message) })
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.interrupt(func() { color.New(color.FgRed).Fprintln(r.out, message) })
}

// interrupt pauses the spinner while print runs
func (r *SpinnerProgressReporter) interrupt(print func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	print()
	if wasActive {
		r.spinner.Start()
	}
}

func (r *SpinnerProgressReporter) display() string {
	parts := make([]string, 0, len(r.stages))
	for _, stage := range r.stages {
		icon, c := "●", color.New(color.FgYellow)
		duration := time.Since(stage.StartTime)
		if !stage.EndTime.IsZero() {
			icon, c = "✓", color.New(color.FgGreen)
			duration = stage.EndTime.Sub(stage.StartTime)
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s)", icon, c.Sprint(string(stage.Stage)), duration.Round(time.Millisecond)))
	}
	line := strings.Join(parts, " → ")
	if n := len(r.stages); n > 0 && r.stages[n-1].Message != "" {
		line += color.New(color.Faint).Sprintf("  %s", r.stages[n-1].Message)
	}
	return line
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
