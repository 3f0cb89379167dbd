package progress

import (
	"context"

	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// NopSink discards progress events. Used in non-interactive mode, where the
// structured log carries the same information.
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

func (n *NopSink) Info(message string) {}

func (n *NopSink) Error(message string) {}

// Ensure NopSink implements ProgressSink
var _ usecase.ProgressSink = (*NopSink)(nil)
