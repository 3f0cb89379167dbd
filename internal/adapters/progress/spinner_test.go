package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

func TestSpinnerProgressReporter_CompletedStages(t *testing.T) {
	var out bytes.Buffer
	r := NewSpinnerProgressReporter(&out)
	ctx := context.Background()

	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "connect", Message: "Connecting", Spinner: true})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "connect", Message: "Connected to chain 1"})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "inject code", Message: "Injecting", Spinner: true})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: "inject code"})
	r.Stop()

	assert.Contains(t, out.String(), "Connected to chain 1")
	assert.NotContains(t, out.String(), "Injecting")
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\n")))
}

func TestSpinnerProgressReporter_Messages(t *testing.T) {
	var out bytes.Buffer
	r := NewSpinnerProgressReporter(&out)

	r.Info("constructor arguments not found")
	r.Error("replay failed")

	assert.Contains(t, out.String(), "constructor arguments not found\n")
	assert.Contains(t, out.String(), "replay failed\n")
}
