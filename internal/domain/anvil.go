package domain

import "fmt"

// AnvilInstance is a local anvil node forking a remote chain.
type AnvilInstance struct {
	Name    string `json:"name"`
	Port    string `json:"port"`
	ChainID string `json:"chainId,omitempty"`
	ForkURL string `json:"forkUrl,omitempty"`
	PidFile string `json:"pidFile"`
	LogFile string `json:"logFile"`
}

// RPCURL is the local endpoint of the instance.
func (a *AnvilInstance) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%s", a.Port)
}
