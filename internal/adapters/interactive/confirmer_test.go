package interactive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

func TestConfirm_NonInteractive(t *testing.T) {
	ok, err := NewPromptConfirmer(&config.RuntimeConfig{NonInteractive: true}).Confirm(context.Background(), "Submit vote?")
	require.Error(t, err)
	assert.False(t, ok)
}
