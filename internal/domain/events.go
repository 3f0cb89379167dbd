package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// DecodedParam is a single decoded event parameter
type DecodedParam struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed"`
	Value   any    `json:"value"`
}

// DecodedEvent is a log decoded against a shadow contract's ABI
type DecodedEvent struct {
	Address     common.Address `json:"address"`
	Contract    string         `json:"contract,omitempty"`
	Name        string         `json:"name"`
	Signature   string         `json:"signature"`
	BlockNumber uint64         `json:"blockNumber"`
	TxHash      common.Hash    `json:"txHash"`
	LogIndex    uint           `json:"logIndex"`
	Params      []DecodedParam `json:"params"`
}
