package interactive

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
	"github.com/trebuchet-org/treb-vote/internal/usecase"
)

// PromptConfirmer asks yes/no questions on the terminal
type PromptConfirmer struct {
	config *config.RuntimeConfig
}

// NewPromptConfirmer creates a new confirmer
func NewPromptConfirmer(cfg *config.RuntimeConfig) *PromptConfirmer {
	return &PromptConfirmer{config: cfg}
}

// Confirm returns true only when the operator answers yes
func (c *PromptConfirmer) Confirm(_ context.Context, label string) (bool, error) {
	if c.config.NonInteractive {
		return false, fmt.Errorf("confirmation not available in non-interactive mode")
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
			return false, nil
		}
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return true, nil
}

// Ensure PromptConfirmer implements Confirmer
var _ usecase.Confirmer = (*PromptConfirmer)(nil)
