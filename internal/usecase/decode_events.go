package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
)

// DecodeEvents decodes the logs of a transaction emitted by shadow contracts
type DecodeEvents struct {
	cfg       *config.RuntimeConfig
	shadows   ShadowStore
	artifacts ArtifactStore
	dialer    NodeDialer
	decoder   EventDecoder
	progress  ProgressSink
	log       *slog.Logger
}

// NewDecodeEvents creates a new DecodeEvents use case
func NewDecodeEvents(
	cfg *config.RuntimeConfig,
	shadows ShadowStore,
	artifacts ArtifactStore,
	dialer NodeDialer,
	decoder EventDecoder,
	progress ProgressSink,
	log *slog.Logger,
) *DecodeEvents {
	return &DecodeEvents{
		cfg:       cfg,
		shadows:   shadows,
		artifacts: artifacts,
		dialer:    dialer,
		decoder:   decoder,
		progress:  progress,
		log:       log.With("component", "DecodeEvents"),
	}
}

// DecodeEventsParams contains parameters for decoding a transaction's events
type DecodeEventsParams struct {
	TxHash common.Hash
	RPCURL string // overrides the configured RPC URL
}

// DecodeEventsResult contains decoded shadow events and the logs left raw
type DecodeEventsResult struct {
	TxHash      common.Hash
	BlockNumber uint64
	Status      uint64
	Events      []*domain.DecodedEvent
	Raw         []*types.Log
}

// Execute fetches the receipt of params.TxHash and decodes every log emitted
// by a recorded shadow contract with that contract's artifact ABI
func (uc *DecodeEvents) Execute(ctx context.Context, params DecodeEventsParams) (*DecodeEventsResult, error) {
	rpcURL := params.RPCURL
	if rpcURL == "" {
		rpcURL = uc.cfg.RPCURL
	}
	if rpcURL == "" {
		return nil, &domain.MissingConfigError{Key: "rpc_url", EnvVar: "ETH_RPC_URL"}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "receipt", Message: "Fetching receipt", Spinner: true})
	node, err := uc.dialer.Dial(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	defer node.Close()

	receipt, err := node.TransactionReceipt(ctx, params.TxHash)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get receipt for %s: %w", domain.ErrProvider, params.TxHash.Hex(), err)
	}

	result := &DecodeEventsResult{
		TxHash:      params.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		Status:      receipt.Status,
	}

	abis := make(map[common.Address]*shadowABI)
	for _, l := range receipt.Logs {
		contract, err := uc.abiFor(ctx, abis, l.Address)
		if err != nil {
			return nil, err
		}
		if contract == nil {
			result.Raw = append(result.Raw, l)
			continue
		}

		event, err := uc.decoder.Decode(*l, contract.abi)
		if err != nil {
			uc.log.Warn("Could not decode shadow log", "address", l.Address.Hex(), "index", l.Index, "error", err)
			result.Raw = append(result.Raw, l)
			continue
		}
		event.Contract = contract.name
		result.Events = append(result.Events, event)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "complete", Message: "Events decoded"})
	return result, nil
}

// abiFor returns the artifact ABI of the shadow contract at address, or nil
// when address is not a shadow contract
func (uc *DecodeEvents) abiFor(ctx context.Context, cache map[common.Address]*shadowABI, address common.Address) (*shadowABI, error) {
	if contract, ok := cache[address]; ok {
		return contract, nil
	}

	shadow, err := uc.shadows.Get(ctx, address)
	if errors.Is(err, domain.ErrNotFound) {
		cache[address] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrShadowStore, err)
	}

	artifact, err := uc.artifacts.Get(ctx, shadow.Identifier())
	if err != nil {
		uc.log.Warn("No artifact for shadow contract", "contract", shadow.Identifier().String(), "error", err)
		cache[address] = nil
		return nil, nil
	}

	contract := &shadowABI{name: shadow.ContractName, abi: artifact.ABI}
	cache[address] = contract
	return contract, nil
}
