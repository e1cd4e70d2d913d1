package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/treb-vote/internal/adapters/preview"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	sectionHeaderStyle = color.New(color.Bold, color.FgHiWhite)
	addressStyle       = color.New(color.FgWhite)
	labelStyle         = color.New(color.FgCyan)
	methodStyle        = color.New(color.FgGreen, color.Bold)
	unknownStyle       = color.New(color.FgYellow)
	faintStyle         = color.New(color.Faint)
)

// VoteRenderer renders the outcome of a vote run
type VoteRenderer struct {
	out  io.Writer
	json bool
}

var _ Renderer[*domain.VoteResult] = (*VoteRenderer)(nil)

// NewVoteRenderer creates a new vote renderer
func NewVoteRenderer(out io.Writer, asJSON bool) *VoteRenderer {
	return &VoteRenderer{out: out, json: asJSON}
}

// Render prints the action preview followed by the vote summary
func (r *VoteRenderer) Render(result *domain.VoteResult) error {
	if r.json {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	title := cases.Title(language.English).String(result.DAO.Name)
	sectionHeaderStyle.Fprintf(r.out, "%s vote: %d action(s)\n", title, len(result.Actions))
	faintStyle.Fprintf(r.out, "run %s\n\n", result.RunID)

	if len(result.Preview) == 0 {
		fmt.Fprintln(r.out, FormatWarning("Vote contains no actions"))
	} else {
		r.renderActions(result.Preview)
	}

	fmt.Fprintln(r.out)
	r.renderSummary(result)
	return nil
}

func (r *VoteRenderer) renderActions(actions []domain.ActionPreview) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = true
	t.AppendHeader(table.Row{"#", "Agent", "Target", "Call"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, WidthMax: 80},
	})

	for _, a := range actions {
		t.AppendRow(table.Row{a.Index, r.address(a.Agent.Hex(), ""), r.address(a.Target.Hex(), a.TargetLabel), r.call(a)})
	}
	t.Render()
}

func (r *VoteRenderer) address(hex, label string) string {
	if label == "" {
		return addressStyle.Sprint(hex)
	}
	return fmt.Sprintf("%s\n%s", labelStyle.Sprint(label), addressStyle.Sprint(hex))
}

func (r *VoteRenderer) call(a domain.ActionPreview) string {
	if !a.Resolved {
		return fmt.Sprintf("%s\n%s", unknownStyle.Sprint(a.Method), faintStyle.Sprint(preview.FormatValue([]byte(a.Calldata))))
	}

	var b strings.Builder
	b.WriteString(methodStyle.Sprint(a.Method))
	for _, arg := range a.Args {
		fmt.Fprintf(&b, "\n  %s %s = %s", faintStyle.Sprint(arg.Type), arg.Name, preview.FormatValue(arg.Value))
	}
	return b.String()
}

func (r *VoteRenderer) renderSummary(result *domain.VoteResult) {
	fmt.Fprintf(r.out, "Execution script: %d bytes\n", len(result.Script))
	if result.SimulatedVoteID != nil {
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Simulation passed (vote %s)", result.SimulatedVoteID)))
	}
	if !result.Live {
		faintStyle.Fprintln(r.out, "Dry run: nothing was submitted. Use --live to create the vote on mainnet.")
		return
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Vote %s created", result.LiveVoteID)))
	fmt.Fprintf(r.out, "  Metadata:    %s\n", result.Locator)
	fmt.Fprintf(r.out, "  Transaction: %s\n", result.LiveTxHash.Hex())
}
