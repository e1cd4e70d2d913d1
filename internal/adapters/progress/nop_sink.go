package progress

import (
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// NewProgressSink picks the spinner for terminals and a no-op sink for
// non-interactive or JSON runs.
func NewProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || cfg.JSON {
		return usecase.NopProgress{}
	}
	return NewSpinnerProgressReporter()
}
