package adapters

import (
	"log/slog"

	"github.com/google/wire"
	"github.com/trebuchet-org/treb-vote/internal/adapters/anvil"
	"github.com/trebuchet-org/treb-vote/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-vote/internal/adapters/pinata"
	"github.com/trebuchet-org/treb-vote/internal/adapters/pincache"
	"github.com/trebuchet-org/treb-vote/internal/adapters/preview"
	"github.com/trebuchet-org/treb-vote/internal/adapters/progress"
	"github.com/trebuchet-org/treb-vote/internal/adapters/proposal"
	"github.com/trebuchet-org/treb-vote/internal/adapters/signer"
	"github.com/trebuchet-org/treb-vote/internal/broadcast"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// ProvideDispatcher provides the broadcaster dispatcher with the configured chunk size
func ProvideDispatcher(forker capture.Forker, cfg *config.RuntimeConfig, log *slog.Logger) *broadcast.Dispatcher {
	return broadcast.NewDispatcher(forker, cfg.ChunkSize, log)
}

// ForkSet provides anvil-backed fork environments
var ForkSet = wire.NewSet(
	anvil.NewManager,
	anvil.NewForker,
	wire.Bind(new(usecase.ForkManager), new(*anvil.Forker)),
	wire.Bind(new(capture.Forker), new(*anvil.Forker)),
)

// BroadcastSet provides the relay implementation used by capture sessions
var BroadcastSet = wire.NewSet(
	ProvideDispatcher,
	wire.Bind(new(capture.Relayer), new(*broadcast.Dispatcher)),
)

// PinSet provides description pinning and its cache
var PinSet = wire.NewSet(
	pinata.NewClient,
	wire.Bind(new(usecase.Pinner), new(*pinata.Client)),
	pincache.NewPinCache,
)

// LiveSet provides live network submission
var LiveSet = wire.NewSet(
	signer.NewKeySigner,
	wire.Bind(new(usecase.LiveSigner), new(*signer.KeySigner)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewPromptConfirmer,
	wire.Bind(new(usecase.Confirmer), new(*interactive.PromptConfirmer)),
	progress.NewProgressSink,
)

// ProposalSet provides proposal loading and action preview
var ProposalSet = wire.NewSet(
	proposal.NewFileLoader,
	wire.Bind(new(usecase.ProposalLoader), new(*proposal.FileLoader)),
	preview.NewActionDecoder,
	wire.Bind(new(usecase.ActionDecoder), new(*preview.ActionDecoder)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ForkSet,
	BroadcastSet,
	PinSet,
	LiveSet,
	InteractiveSet,
	ProposalSet,
)
