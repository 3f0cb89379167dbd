package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// EventsRenderer renders decoded transaction events
type EventsRenderer struct {
	out  io.Writer
	json bool
}

// NewEventsRenderer creates a new events renderer
func NewEventsRenderer(out io.Writer, json bool) *EventsRenderer {
	return &EventsRenderer{out: out, json: json}
}

type eventJSON struct {
	*domain.DecodedEvent
	Params []paramJSON `json:"params"`
}

type paramJSON struct {
	domain.DecodedParam
	Value any `json:"value"`
}

// Render prints the decoded events of one transaction
func (r *EventsRenderer) Render(result *usecase.DecodeEventsResult) error {
	if r.json {
		return writeJSON(r.out, map[string]any{
			"txHash":      result.TxHash,
			"blockNumber": result.BlockNumber,
			"status":      result.Status,
			"events":      lo.Map(result.Events, func(e *domain.DecodedEvent, _ int) eventJSON { return toEventJSON(e) }),
			"undecoded":   len(result.Raw),
		})
	}

	status := FormatSuccess("success")
	if result.Status == 0 {
		status = FormatError("reverted")
	}
	fmt.Fprintf(r.out, "Transaction %s in block %d: %s\n\n", result.TxHash.Hex(), result.BlockNumber, status)

	if len(result.Events) == 0 {
		fmt.Fprintln(r.out, "No shadow events decoded")
	}
	for _, e := range result.Events {
		writeEvent(r.out, e, "")
	}
	if n := len(result.Raw); n > 0 {
		fmt.Fprintln(r.out, labelStyle.Sprintf("%d log(s) from contracts without a shadow ABI", n))
	}
	return nil
}

func toEventJSON(e *domain.DecodedEvent) eventJSON {
	return eventJSON{
		DecodedEvent: e,
		Params: lo.Map(e.Params, func(p domain.DecodedParam, _ int) paramJSON {
			return paramJSON{DecodedParam: p, Value: Normalize(p.Value)}
		}),
	}
}

// writeEvent prints an event header followed by a parameter table
func writeEvent(out io.Writer, e *domain.DecodedEvent, indent string) {
	contract := e.Contract
	if contract == "" {
		contract = e.Address.Hex()
	}
	fmt.Fprintf(out, "%s%s %s %s\n", indent, labelStyle.Sprintf("[%d]", e.LogIndex), eventStyle.Sprint(e.Name), labelStyle.Sprint(contract))

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{PaddingLeft: indent + "    ", PaddingRight: "  "}
	for _, p := range e.Params {
		typ := p.Type
		if p.Indexed {
			typ += " indexed"
		}
		t.AppendRow(table.Row{p.Name, labelStyle.Sprint(typ), formatValue(p.Value)})
	}
	if len(e.Params) > 0 {
		fmt.Fprintln(out, strings.TrimRight(t.Render(), " "))
	}
}

var _ Renderer[*usecase.DecodeEventsResult] = (*EventsRenderer)(nil)
