package anvil

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"
	"github.com/trebuchet-org/treb-vote/internal/capture"
	"github.com/trebuchet-org/treb-vote/internal/domain"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Forker starts one anvil process per fork
type Forker struct {
	manager *Manager
	log     *slog.Logger
}

// NewForker creates a forker backed by manager
func NewForker(manager *Manager, log *slog.Logger) *Forker {
	return &Forker{manager: manager, log: log.With("component", "forker")}
}

// Fork starts a local anvil forking rpcURL and connects to it
func (f *Forker) Fork(ctx context.Context, name, rpcURL string) (capture.Environment, error) {
	port, err := getAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("failed to find available port: %w", err)
	}

	instance := &domain.AnvilInstance{
		Name:    instanceName(name),
		Port:    strconv.Itoa(port),
		ForkURL: rpcURL,
	}
	if err := f.manager.Start(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to fork %s: %w", name, err)
	}

	stop := func() error { return f.manager.Stop(context.Background(), instance) }
	client, err := rpc.DialContext(ctx, instance.RPCURL())
	if err != nil {
		_ = stop()
		return nil, fmt.Errorf("failed to connect to fork %s: %w", name, err)
	}

	f.log.Info("fork ready", "name", name, "rpc", instance.RPCURL())
	return newEnvironment(name, client, stop, f.log.With("fork", name)), nil
}

// instanceName keeps concurrent runs from sharing pid and log files
func instanceName(name string) string {
	return fmt.Sprintf("%s-%s", unsafeName.ReplaceAllString(name, "_"), uuid.NewString()[:8])
}
