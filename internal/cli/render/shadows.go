package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// ShadowsRenderer renders the recorded shadow contracts
type ShadowsRenderer struct {
	out  io.Writer
	json bool
}

// NewShadowsRenderer creates a new shadows renderer
func NewShadowsRenderer(out io.Writer, json bool) *ShadowsRenderer {
	return &ShadowsRenderer{out: out, json: json}
}

type shadowJSON struct {
	*domain.ShadowContract
	Contract string `json:"contract"`
}

// Render renders the shadow list as a table, or JSON
func (r *ShadowsRenderer) Render(result *usecase.ListShadowsResult) error {
	if r.json {
		out := make([]shadowJSON, len(result.Shadows))
		for i, s := range result.Shadows {
			out[i] = shadowJSON{ShadowContract: s, Contract: s.Identifier().String()}
		}
		return writeJSON(r.out, out)
	}

	if len(result.Shadows) == 0 {
		fmt.Fprintln(r.out, "No shadow contracts found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{PaddingRight: "   "}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})

	t.AppendHeader(table.Row{
		headerStyle.Sprint("ADDRESS"),
		headerStyle.Sprint("CONTRACT"),
		headerStyle.Sprint("CODE"),
		headerStyle.Sprint("SOURCE"),
		headerStyle.Sprint("DEPLOYED"),
	})
	for _, s := range result.Shadows {
		source := sourceLabel(s.Metadata[domain.MetaBytecodeSource])
		if name := s.Metadata[domain.MetaVerifiedName]; name != "" {
			source += " (replaces " + name + ")"
		}
		t.AppendRow(table.Row{
			addressStyle.Sprint(s.Address.Hex()),
			s.Identifier().String(),
			fmt.Sprintf("%d bytes", len(s.RuntimeBytecode)),
			source,
			timestampStyle.Sprint(s.DeployedAt.Format("2006-01-02 15:04:05")),
		})
	}
	t.Render()
	return nil
}

var _ Renderer[*usecase.ListShadowsResult] = (*ShadowsRenderer)(nil)
