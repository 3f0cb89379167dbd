package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ForkMode describes how a fork session follows the upstream chain
type ForkMode string

const (
	// ForkModeHead keeps the fork at the head it started from; new upstream
	// heads are only reported
	ForkModeHead ForkMode = "head"
	// ForkModeFollow resets the fork to every new upstream head, discarding
	// local state
	ForkModeFollow ForkMode = "follow"
	// ForkModeReplay re-submits every upstream transaction onto the fork
	ForkModeReplay ForkMode = "replay"
)

// ForkInfo summarizes a started fork session
type ForkInfo struct {
	Mode         ForkMode         `json:"mode"`
	ChainID      uint64           `json:"chainId"`
	UpstreamHead uint64           `json:"upstreamHead"`
	OriginBlock  uint64           `json:"originBlock"`
	ForkURL      string           `json:"forkUrl"`
	LogFile      string           `json:"logFile"`
	Shadows      []common.Address `json:"shadows"`
	StartedAt    time.Time        `json:"startedAt"`
}

// BlockReport describes one upstream block processed by a fork session
type BlockReport struct {
	Number       uint64         `json:"number"`
	Hash         common.Hash    `json:"hash"`
	Transactions int            `json:"transactions"`
	Skipped      []common.Hash  `json:"skipped,omitempty"` // transactions that could not be re-sent
	Events       []DecodedEvent `json:"events,omitempty"`
}
