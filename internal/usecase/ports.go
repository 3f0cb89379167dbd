package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/models"
)

// ArtifactStore provides compiled contract artifacts
type ArtifactStore interface {
	// Get returns the artifact for id. A missing artifact is an error wrapping
	// domain.ErrArtifactNotFound; read and parse errors are returned unchanged.
	Get(ctx context.Context, id domain.ContractIdentifier) (*models.Artifact, error)
}

// VerificationService looks up verified source metadata for on-chain contracts
type VerificationService interface {
	Fetch(ctx context.Context, chainID uint64, address common.Address) (*domain.VerifiedContract, error)
}

// ShadowStore persists which shadow contracts are active
type ShadowStore interface {
	// Record stores s, replacing any record at the same address
	Record(ctx context.Context, s *domain.ShadowContract) error
	List(ctx context.Context) ([]*domain.ShadowContract, error)
	// Get returns the record at address or domain.ErrNotFound
	Get(ctx context.Context, address common.Address) (*domain.ShadowContract, error)
}

// NodeProvider is a one-shot request/response connection to a node.
// SetCode and Reset mutate fork state directly and are only valid against a
// fork node.
type NodeProvider interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// SetCode places code at account without a transaction
	SetCode(ctx context.Context, account common.Address, code []byte) error
	// Reset re-forks the node from forkURL at blockNumber
	Reset(ctx context.Context, forkURL string, blockNumber uint64) error

	Close()
}

// NodeDialer opens NodeProvider connections
type NodeDialer interface {
	Dial(ctx context.Context, rpcURL string) (NodeProvider, error)
}

// ChainSource is a streaming connection to the upstream chain
type ChainSource interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
	Close()
}

// StreamDialer opens ChainSource connections; the URL must support subscriptions
type StreamDialer interface {
	DialStream(ctx context.Context, wsURL string) (ChainSource, error)
}

// ForkNodeLauncher manages the local fork node process
type ForkNodeLauncher interface {
	Start(ctx context.Context, instance *domain.AnvilInstance) error
	Stop(ctx context.Context, instance *domain.AnvilInstance) error
}

// EventDecoder decodes a log against a JSON ABI
type EventDecoder interface {
	Decode(log types.Log, abiJSON []byte) (*domain.DecodedEvent, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage   string
	Message string
	Spinner bool
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
