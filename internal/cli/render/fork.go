package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/shadow-fork/shadow-cli/internal/domain"
)

// ForkRenderer renders a running fork session
type ForkRenderer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewForkRenderer creates a new ForkRenderer
func NewForkRenderer(out io.Writer) *ForkRenderer {
	return &ForkRenderer{out: out}
}

// RenderInfo prints the session summary once the fork is ready
func (r *ForkRenderer) RenderInfo(info *domain.ForkInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Fork ready at %s", info.ForkURL)))
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "  Mode:          %s\n", info.Mode)
	fmt.Fprintf(r.out, "  Chain ID:      %d\n", info.ChainID)
	fmt.Fprintf(r.out, "  Origin block:  %d\n", info.OriginBlock)
	fmt.Fprintf(r.out, "  Upstream head: %d\n", info.UpstreamHead)
	fmt.Fprintf(r.out, "  Shadows:       %d\n", len(info.Shadows))
	for _, addr := range info.Shadows {
		fmt.Fprintf(r.out, "    - %s\n", addressStyle.Sprint(addr.Hex()))
	}
	fmt.Fprintf(r.out, "  Node log:      %s\n", info.LogFile)
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, labelStyle.Sprint("Following upstream, press Ctrl+C to stop"))
}

// RenderBlock prints one processed upstream block and its shadow events
func (r *ForkRenderer) RenderBlock(report *domain.BlockReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("%s %s  %d tx",
		color.New(color.FgCyan, color.Bold).Sprintf("Block #%d", report.Number),
		labelStyle.Sprint(shortHash(report.Hash)),
		report.Transactions)
	if n := len(report.Skipped); n > 0 {
		line += color.YellowString("  (%d skipped)", n)
	}
	if n := len(report.Events); n > 0 {
		line += eventStyle.Sprintf("  %d shadow event(s)", n)
	}
	fmt.Fprintln(r.out, line)

	for _, h := range report.Skipped {
		fmt.Fprintln(r.out, FormatWarning("  skipped "+h.Hex()))
	}
	for i := range report.Events {
		writeEvent(r.out, &report.Events[i], "  ")
	}
}
