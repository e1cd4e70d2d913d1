package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

var (
	readyStyle    = color.New(color.FgGreen)
	notReadyStyle = color.New(color.FgRed)
)

// ChainsRenderer renders the destination chain registry
type ChainsRenderer struct {
	out  io.Writer
	json bool
}

var _ Renderer[*usecase.ListChainsResult] = (*ChainsRenderer)(nil)

// NewChainsRenderer creates a new chains renderer
func NewChainsRenderer(out io.Writer, asJSON bool) *ChainsRenderer {
	return &ChainsRenderer{out: out, json: asJSON}
}

// Render prints one row per chain
func (r *ChainsRenderer) Render(result *usecase.ListChainsResult) error {
	if r.json {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Chains)
	}

	if len(result.Chains) == 0 {
		fmt.Fprintln(r.out, "No chains match")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.AppendHeader(table.Row{"Chain", "ID", "Broadcaster", "Relayer", "RPC", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	for _, c := range result.Chains {
		t.AppendRow(table.Row{
			c.Name,
			c.ID,
			fmt.Sprintf("%s (%s)", c.Broadcaster.Name, c.Broadcaster.Kind),
			relayerCell(c.Chain),
			rpcCell(c.Chain),
			statusCell(c.Ready),
		})
	}
	t.Render()

	ready := lo.CountBy(result.Chains, func(c usecase.ChainStatus) bool { return c.Ready })
	fmt.Fprintf(r.out, "\n%d of %d chains ready to relay\n", ready, len(result.Chains))
	return nil
}

func relayerCell(c domain.Chain) string {
	if !c.HasRelayer() {
		return notReadyStyle.Sprint("not set")
	}
	return c.Relayer.Hex()
}

func rpcCell(c domain.Chain) string {
	if !c.HasRPC() {
		return notReadyStyle.Sprint("not set")
	}
	return c.RPC
}

func statusCell(ready bool) string {
	if ready {
		return readyStyle.Sprint("✓")
	}
	return notReadyStyle.Sprint("✗")
}
