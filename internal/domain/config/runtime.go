package config

import (
	"fmt"
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot  string
	DataDir      string
	ArtifactsDir string

	// Endpoints and credentials
	RPCURL          string // one-shot HTTP endpoint (ETH_RPC_URL)
	WSRPCURL        string // streaming endpoint (WS_RPC_URL)
	EtherscanAPIKey string
	EtherscanAPIURL string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Timeout        time.Duration

	Fork ForkConfig

	// Resolved configurations
	FoundryConfig *FoundryConfig // nil when the project has no foundry.toml
}

// ForkConfig holds settings for the local fork node
type ForkConfig struct {
	Port        int
	OriginBlock uint64 // 0 means the upstream head
	AnvilPath   string
	ChainID     uint64 // 0 keeps the forked chain's ID
}

// RPCURL returns the local endpoint of the fork node
func (f ForkConfig) RPCURL() string {
	port := f.Port
	if port == 0 {
		port = 8545
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port)
}
