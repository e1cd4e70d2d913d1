package render

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

func init() {
	color.NoColor = true
}

func sampleResult() *domain.VoteResult {
	return &domain.VoteResult{
		RunID:       "run-1",
		DAO:         domain.Ownership,
		Description: "kill gauge",
		Actions: []domain.Action{
			domain.NewAction(common.HexToAddress("0x10"), []byte{0xde, 0xad, 0xbe, 0xef}),
			domain.NewAction(common.HexToAddress("0x20"), []byte{0x01, 0x02, 0x03, 0x04}),
		},
		Preview: []domain.ActionPreview{
			{
				Index:       0,
				Agent:       domain.Ownership.Agent,
				Target:      common.HexToAddress("0x10"),
				TargetLabel: "gauge",
				Method:      "set_killed",
				Signature:   "set_killed(bool)",
				Resolved:    true,
				Args:        []domain.DecodedArg{{Name: "is_killed", Type: "bool", Value: true}},
			},
			{
				Index:    1,
				Agent:    domain.Ownership.Agent,
				Target:   common.HexToAddress("0x20"),
				Method:   "unknown",
				Calldata: []byte{0x01, 0x02, 0x03, 0x04},
			},
		},
		Script:          domain.ExecutionScript{0, 0, 0, 1},
		SimulatedVoteID: big.NewInt(1234),
	}
}

func TestVoteRenderer_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVoteRenderer(&buf, false).Render(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Ownership vote: 2 action(s)")
	assert.Contains(t, out, "gauge")
	assert.Contains(t, out, "set_killed")
	assert.Contains(t, out, "bool is_killed = true")
	assert.Contains(t, out, "unknown")
	assert.Contains(t, out, "0x01020304")
	assert.Contains(t, out, "Simulation passed (vote 1234)")
	assert.Contains(t, out, "Dry run")
}

func TestVoteRenderer_Live(t *testing.T) {
	result := sampleResult()
	result.Live = true
	result.LiveVoteID = big.NewInt(1300)
	result.Locator = "ipfs:bafyexample"
	result.LiveTxHash = common.HexToHash("0xabc")

	var buf bytes.Buffer
	require.NoError(t, NewVoteRenderer(&buf, false).Render(result))

	out := buf.String()
	assert.Contains(t, out, "Vote 1300 created")
	assert.Contains(t, out, "ipfs:bafyexample")
	assert.Contains(t, out, result.LiveTxHash.Hex())
	assert.NotContains(t, out, "Dry run")
}

func TestVoteRenderer_Empty(t *testing.T) {
	result := sampleResult()
	result.Actions = nil
	result.Preview = nil

	var buf bytes.Buffer
	require.NoError(t, NewVoteRenderer(&buf, false).Render(result))
	assert.Contains(t, buf.String(), "Vote contains no actions")
}

func TestVoteRenderer_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewVoteRenderer(&buf, true).Render(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Len(t, decoded["actions"], 2)
}

func TestChainsRenderer(t *testing.T) {
	result := &usecase.ListChainsResult{
		Chains: []usecase.ChainStatus{
			{Chain: domain.Chain{ID: 10, Name: "optimism", RPC: "https://mainnet.optimism.io", Broadcaster: domain.OptimismMainnet, Relayer: common.HexToAddress("0x8e")}, Ready: true},
			{Chain: domain.Chain{ID: 8453, Name: "base", RPC: domain.RPCNotSet, Broadcaster: domain.BaseBroadcaster, Relayer: common.HexToAddress("0xcb")}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewChainsRenderer(&buf, false).Render(result))

	out := buf.String()
	assert.Contains(t, out, "optimism_mainnet (optimism)")
	assert.Contains(t, out, "https://mainnet.optimism.io")
	assert.Contains(t, out, "not set")
	assert.Contains(t, out, "1 of 2 chains ready to relay")
}

func TestChainsRenderer_NoMatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewChainsRenderer(&buf, false).Render(&usecase.ListChainsResult{}))
	assert.Contains(t, buf.String(), "No chains match")
}

func TestFormatError(t *testing.T) {
	assert.Equal(t, "❌ Unknown chain \"basse\"", FormatError(`unknown chain "basse"`))
	assert.Equal(t, "✅ done", FormatSuccess("done"))
}
