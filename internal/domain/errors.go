package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrUnknownDAO is returned for a DAO name that is neither ownership nor parameter
	ErrUnknownDAO = errors.New("unknown DAO")

	// ErrUnknownChain is returned when a chain is not in the registry
	ErrUnknownChain = errors.New("unknown chain")

	// ErrRelayerNotSet is returned when a chain's relayer address is the zero address
	ErrRelayerNotSet = errors.New("relayer not known for chain")

	// ErrRPCNotSet is returned when relaying to a chain without an RPC endpoint
	ErrRPCNotSet = errors.New("rpc not set for chain")

	// ErrMissingDestinationData is returned when a generic broadcaster has no
	// routing data registered for the destination and none was supplied
	ErrMissingDestinationData = errors.New("no destination_data set")

	// ErrDAOAlreadyActive is returned when opening a vote while another is open
	ErrDAOAlreadyActive = errors.New("DAO already active")

	// ErrNoDAOActive is returned when relaying outside of a vote
	ErrNoDAOActive = errors.New("no DAO active")

	// ErrScopeClosed is returned when a scope handle is used after it exited
	ErrScopeClosed = errors.New("scope already closed")

	// ErrCreationNotPermitted is returned when the caster may not open a proposal
	ErrCreationNotPermitted = errors.New("proposal creation not permitted")

	// ErrVotingIneligible is returned when the caster may not vote on the proposal
	ErrVotingIneligible = errors.New("caster not eligible to vote")

	// ErrNotExecutable is returned when the proposal cannot be executed after the voting period
	ErrNotExecutable = errors.New("proposal not executable")

	// ErrSignerUnavailable is returned when the live signer cannot be connected
	ErrSignerUnavailable = errors.New("live signer unavailable")

	// ErrSubmissionAborted is returned when the user declines live submission
	ErrSubmissionAborted = errors.New("live submission aborted")
)

// ConfigError reports an invalid or incomplete configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// UnknownChainErr carries close matches for a mistyped chain name.
type UnknownChainErr struct {
	Name        string
	Suggestions []string
}

func (e UnknownChainErr) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown chain %q", e.Name)
	}
	return fmt.Sprintf("unknown chain %q, did you mean: %s", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e UnknownChainErr) Unwrap() error {
	return ErrUnknownChain
}

// SimulationStep names one stage of the proposal lifecycle simulation.
type SimulationStep string

const (
	StepCreate        SimulationStep = "create"
	StepCanVote       SimulationStep = "can_vote"
	StepVote          SimulationStep = "vote"
	StepAdvanceTime   SimulationStep = "advance_time"
	StepCanExecute    SimulationStep = "can_execute"
	StepExecute       SimulationStep = "execute"
	StepLiveCanCreate SimulationStep = "live_can_create"
	StepLiveCreate    SimulationStep = "live_create"
)

// SimulationStepError identifies the lifecycle step that failed.
type SimulationStepError struct {
	Step   SimulationStep
	VoteID string
	Err    error
}

func (e *SimulationStepError) Error() string {
	if e.VoteID != "" {
		return fmt.Sprintf("vote simulation failed at %s (vote %s): %v", e.Step, e.VoteID, e.Err)
	}
	return fmt.Sprintf("vote simulation failed at %s: %v", e.Step, e.Err)
}

func (e *SimulationStepError) Unwrap() error {
	return e.Err
}
