package progress

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// SpinnerProgressReporter renders progress events as a spinner, printing a
// line for each completed stage
type SpinnerProgressReporter struct {
	mu           sync.Mutex
	out          io.Writer
	spinner      *spinner.Spinner
	currentStage string
	stageStart   time.Time
}

// NewSpinnerProgressReporter creates a new spinner-based progress reporter
func NewSpinnerProgressReporter(out io.Writer) *SpinnerProgressReporter {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.HideCursor = false

	return &SpinnerProgressReporter{
		out:     out,
		spinner: s,
	}
}

// OnProgress handles progress events
func (r *SpinnerProgressReporter) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.currentStage {
		r.currentStage = event.Stage
		r.stageStart = time.Now()
	}

	if event.Spinner {
		r.spinner.Suffix = " " + event.Message
		if !r.spinner.Active() {
			r.spinner.Start()
		}
		return
	}

	r.spinner.Stop()
	if event.Message == "" {
		return
	}
	elapsed := time.Since(r.stageStart).Round(time.Millisecond)
	fmt.Fprintf(r.out, "%s %s %s\n",
		color.GreenString("✓"),
		event.Message,
		color.New(color.Faint).Sprintf("(%s)", elapsed))
}

// Info prints an info message
func (r *SpinnerProgressReporter) Info(message string) {
	r.println(color.New(color.FgCyan), message)
}

// Error prints an error message
func (r *SpinnerProgressReporter) Error(message string) {
	r.println(color.New(color.FgRed), message)
}

// Stop clears the spinner
func (r *SpinnerProgressReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spinner.Stop()
}

func (r *SpinnerProgressReporter) println(c *color.Color, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	c.Fprintln(r.out, message)
	if wasActive {
		r.spinner.Start()
	}
}

// Ensure SpinnerProgressReporter implements ProgressSink
var _ usecase.ProgressSink = (*SpinnerProgressReporter)(nil)
