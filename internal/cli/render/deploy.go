package render

import (
	"fmt"
	"io"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// DeployRenderer renders the result of a shadow deployment
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// Render prints the deployed shadow and any warnings collected on the way
func (r *DeployRenderer) Render(result *usecase.DeployShadowResult) error {
	for _, w := range result.Warnings {
		fmt.Fprintln(r.out, FormatWarning(w))
	}

	s := result.Shadow
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Shadow %s deployed at %s", s.Identifier(), addressStyle.Sprint(s.Address.Hex()))))
	fmt.Fprintln(r.out)
	r.field("Chain ID", s.Metadata[domain.MetaChainID])
	r.field("Runtime code", fmt.Sprintf("%d bytes (from %s)", len(s.RuntimeBytecode), sourceLabel(s.Metadata[domain.MetaBytecodeSource])))
	r.field("Compiler", s.Metadata[domain.MetaShadowCompiler])
	if size := s.Metadata[domain.MetaReplacedCodeSize]; size != "" {
		r.field("Replaced code", size+" bytes")
	}
	if v := result.Verified; v != nil {
		r.field("Replaces", fmt.Sprintf("%s (%s)", v.ContractName, v.CompilerVersion))
	}
	r.field("Record ID", s.ID)
	return nil
}

func (r *DeployRenderer) field(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(r.out, "  %s %s\n", labelStyle.Sprintf("%-14s", label+":"), value)
}

var _ Renderer[*usecase.DeployShadowResult] = (*DeployRenderer)(nil)
