package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/samber/lo"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
)

// Fork steps reported in ForkError
const (
	StepConnectUpstream = "connect upstream"
	StepSelectOrigin    = "select origin"
	StepStartNode       = "start fork node"
	StepLoadShadows     = "load shadows"
	StepInjectShadows   = "inject shadows"
	StepSubscribe       = "subscribe"
	StepReplay          = "replay"
	StepReset           = "reset"
	StepDecodeLogs      = "decode logs"
)

// StartFork launches a local fork node with the recorded shadow contracts in place
type StartFork struct {
	cfg       *config.RuntimeConfig
	streams   StreamDialer
	dialer    NodeDialer
	launcher  ForkNodeLauncher
	shadows   ShadowStore
	artifacts ArtifactStore
	decoder   EventDecoder
	progress  ProgressSink
	log       *slog.Logger
}

// NewStartFork creates a new StartFork use case
func NewStartFork(
	cfg *config.RuntimeConfig,
	streams StreamDialer,
	dialer NodeDialer,
	launcher ForkNodeLauncher,
	shadows ShadowStore,
	artifacts ArtifactStore,
	decoder EventDecoder,
	progress ProgressSink,
	log *slog.Logger,
) *StartFork {
	return &StartFork{
		cfg:       cfg,
		streams:   streams,
		dialer:    dialer,
		launcher:  launcher,
		shadows:   shadows,
		artifacts: artifacts,
		decoder:   decoder,
		progress:  progress,
		log:       log.With("component", "StartFork"),
	}
}

// StartForkParams contains parameters for starting a fork session
type StartForkParams struct {
	HTTPRPCURL            string // upstream endpoint the fork node forks from
	WSRPCURL              string // upstream endpoint for new-head notifications
	ReplayAllTransactions bool
	FollowHead            bool   // reset the fork to every new head; ignored when replaying
	OriginBlock           uint64 // replay start; 0 means the upstream head
	Port                  int

	// OnBlock is called after every processed upstream block
	OnBlock func(*domain.BlockReport)
}

// Execute connects to the upstream chain, starts the fork node and injects
// every recorded shadow contract. The returned session must be closed.
func (uc *StartFork) Execute(ctx context.Context, params StartForkParams) (*ForkSession, error) {
	if params.HTTPRPCURL == "" {
		params.HTTPRPCURL = uc.cfg.RPCURL
	}
	if params.WSRPCURL == "" {
		params.WSRPCURL = uc.cfg.WSRPCURL
	}
	if params.Port == 0 {
		params.Port = uc.cfg.Fork.Port
	}
	if params.OriginBlock == 0 {
		params.OriginBlock = uc.cfg.Fork.OriginBlock
	}
	if params.HTTPRPCURL == "" {
		return nil, uc.fail(ctx, StepConnectUpstream, domain.ErrProvider, &domain.MissingConfigError{Key: "rpc_url", EnvVar: "ETH_RPC_URL"})
	}
	if params.WSRPCURL == "" {
		return nil, uc.fail(ctx, StepConnectUpstream, domain.ErrProvider, &domain.MissingConfigError{Key: "ws_rpc_url", EnvVar: "WS_RPC_URL"})
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepConnectUpstream, Message: "Connecting to upstream node", Spinner: true})
	upstream, err := uc.streams.DialStream(ctx, params.WSRPCURL)
	if err != nil {
		return nil, uc.fail(ctx, StepConnectUpstream, domain.ErrProvider, err)
	}

	session, err := uc.start(ctx, upstream, params)
	if err != nil {
		upstream.Close()
		return nil, err
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepInjectShadows, Message: "Fork ready"})
	return session, nil
}

func (uc *StartFork) start(ctx context.Context, upstream ChainSource, params StartForkParams) (*ForkSession, error) {
	chainID, err := upstream.ChainID(ctx)
	if err != nil {
		return nil, uc.fail(ctx, StepConnectUpstream, domain.ErrProvider, fmt.Errorf("failed to get chain ID: %w", err))
	}
	head, err := upstream.BlockNumber(ctx)
	if err != nil {
		return nil, uc.fail(ctx, StepConnectUpstream, domain.ErrProvider, fmt.Errorf("failed to get head block: %w", err))
	}

	mode := domain.ForkModeHead
	if params.FollowHead {
		mode = domain.ForkModeFollow
	}
	origin := head
	if params.ReplayAllTransactions {
		mode = domain.ForkModeReplay
		if params.OriginBlock != 0 {
			if params.OriginBlock > head {
				return nil, uc.fail(ctx, StepSelectOrigin, domain.ErrReplay,
					fmt.Errorf("origin block %d is ahead of upstream head %d", params.OriginBlock, head))
			}
			origin = params.OriginBlock
		}
	}

	shadows, err := uc.shadows.List(ctx)
	if err != nil {
		return nil, uc.fail(ctx, StepLoadShadows, domain.ErrShadowStore, err)
	}

	if err := os.MkdirAll(uc.cfg.DataDir, 0755); err != nil {
		return nil, uc.fail(ctx, StepStartNode, domain.ErrProvider, fmt.Errorf("failed to create data directory: %w", err))
	}
	instance := &domain.AnvilInstance{
		Name:            "shadow-fork",
		Port:            strconv.Itoa(params.Port),
		ForkURL:         params.HTTPRPCURL,
		ForkBlockNumber: origin,
		PidFile:         filepath.Join(uc.cfg.DataDir, "fork.pid"),
		LogFile:         filepath.Join(uc.cfg.DataDir, "fork.log"),
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepStartNode, Message: fmt.Sprintf("Starting fork node at block %d", origin), Spinner: true})
	if err := uc.launcher.Start(ctx, instance); err != nil {
		return nil, uc.fail(ctx, StepStartNode, domain.ErrProvider, err)
	}

	fork, err := uc.dialer.Dial(ctx, instance.RPCURL())
	if err != nil {
		_ = uc.launcher.Stop(context.WithoutCancel(ctx), instance)
		return nil, uc.fail(ctx, StepStartNode, domain.ErrProvider, err)
	}

	session := &ForkSession{
		upstream:   upstream,
		fork:       fork,
		launcher:   uc.launcher,
		instance:   instance,
		store:      uc.shadows,
		artifacts:  uc.artifacts,
		injected:   make(map[common.Address][]byte, len(shadows)),
		abis:       make(map[common.Address]shadowABI, len(shadows)),
		decoder:    uc.decoder,
		mode:       mode,
		httpRPCURL: params.HTTPRPCURL,
		next:       origin + 1,
		onBlock:    params.OnBlock,
		log:        uc.log,
		info: &domain.ForkInfo{
			Mode:         mode,
			ChainID:      chainID.Uint64(),
			UpstreamHead: head,
			OriginBlock:  origin,
			ForkURL:      instance.RPCURL(),
			LogFile:      instance.LogFile,
			Shadows:      lo.Map(shadows, func(s *domain.ShadowContract, _ int) common.Address { return s.Address }),
			StartedAt:    time.Now().UTC(),
		},
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepInjectShadows, Message: fmt.Sprintf("Injecting %d shadow contract(s)", len(shadows)), Spinner: true})
	if err := session.injectShadows(ctx, shadows); err != nil {
		_ = session.closeFork(context.WithoutCancel(ctx))
		uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepInjectShadows, Message: "failed"})
		return nil, err
	}

	return session, nil
}

func (uc *StartFork) fail(ctx context.Context, step string, kind, err error) error {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: step, Message: "failed"})
	return &domain.ForkError{Step: step, Kind: kind, Err: err}
}

type shadowABI struct {
	name string
	abi  []byte
}

// ForkSession follows the upstream chain on a local fork node
type ForkSession struct {
	upstream   ChainSource
	fork       NodeProvider
	launcher   ForkNodeLauncher
	instance   *domain.AnvilInstance
	store      ShadowStore
	artifacts  ArtifactStore
	injected   map[common.Address][]byte // code currently placed on the fork per shadow
	abis       map[common.Address]shadowABI
	decoder    EventDecoder
	mode       domain.ForkMode
	httpRPCURL string
	next       uint64 // next upstream block to replay
	onBlock    func(*domain.BlockReport)
	info       *domain.ForkInfo
	log        *slog.Logger
}

// Info describes the started session
func (s *ForkSession) Info() *domain.ForkInfo {
	return s.info
}

// Run processes upstream blocks until ctx is cancelled (returns nil) or the
// upstream connection fails (returns an error matching domain.ErrProvider).
//
// When replaying, every transaction from the block after the origin up to
// the head is re-submitted in order, then every new block as it arrives.
// When following, the fork is reset to each new head. Otherwise the fork
// keeps its state and new heads are only reported. In every mode, shadows
// recorded while the session runs are injected on the next head.
func (s *ForkSession) Run(ctx context.Context) error {
	heads := make(chan *types.Header, 16)
	sub, err := s.upstream.SubscribeNewHead(ctx, heads)
	if err != nil {
		return &domain.ForkError{Step: StepSubscribe, Kind: domain.ErrProvider, Err: err}
	}
	defer sub.Unsubscribe()

	if s.mode == domain.ForkModeReplay {
		head, err := s.upstream.BlockNumber(ctx)
		if err != nil {
			return s.stopped(ctx, &domain.ForkError{Step: StepReplay, Kind: domain.ErrProvider, Err: err})
		}
		if err := s.replayThrough(ctx, head); err != nil {
			return s.stopped(ctx, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = fmt.Errorf("subscription closed")
			}
			return &domain.ForkError{Step: StepSubscribe, Kind: domain.ErrProvider, Err: err}
		case header := <-heads:
			if err := s.handleHead(ctx, header); err != nil {
				return s.stopped(ctx, err)
			}
		}
	}
}

// stopped maps errors caused by cancellation to a clean stop
func (s *ForkSession) stopped(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *ForkSession) handleHead(ctx context.Context, header *types.Header) error {
	number := header.Number.Uint64()
	switch s.mode {
	case domain.ForkModeReplay:
		if err := s.syncShadows(ctx); err != nil {
			return err
		}
		return s.replayThrough(ctx, number)
	case domain.ForkModeFollow:
		s.log.Debug("Resetting fork to new head", "block", number)
		if err := s.fork.Reset(ctx, s.httpRPCURL, number); err != nil {
			return &domain.ForkError{Step: StepReset, Kind: domain.ErrProvider, Err: err}
		}
		clear(s.injected)
	}

	if err := s.syncShadows(ctx); err != nil {
		return err
	}
	s.report(&domain.BlockReport{Number: number, Hash: header.Hash()})
	return nil
}

// syncShadows injects shadows that are not yet on the fork, or whose code
// changed since they were injected
func (s *ForkSession) syncShadows(ctx context.Context) error {
	shadows, err := s.store.List(ctx)
	if err != nil {
		return &domain.ForkError{Step: StepLoadShadows, Kind: domain.ErrShadowStore, Err: err}
	}
	pending := lo.Filter(shadows, func(shadow *domain.ShadowContract, _ int) bool {
		code, ok := s.injected[shadow.Address]
		return !ok || !bytes.Equal(code, shadow.RuntimeBytecode)
	})
	if len(pending) > 0 {
		s.log.Info("Injecting new shadow contracts", "count", len(pending))
	}
	return s.injectShadows(ctx, pending)
}

// replayThrough replays every block from s.next up to and including target.
// Notifications for blocks already replayed are ignored.
func (s *ForkSession) replayThrough(ctx context.Context, target uint64) error {
	if target < s.next {
		s.log.Debug("Ignoring already replayed head", "block", target, "next", s.next)
		return nil
	}
	for ; s.next <= target; s.next++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		report, err := s.replayBlock(ctx, s.next)
		if err != nil {
			return err
		}
		s.report(report)
	}
	return nil
}

func (s *ForkSession) replayBlock(ctx context.Context, number uint64) (*domain.BlockReport, error) {
	block, err := s.upstream.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, &domain.ForkError{Step: StepReplay, Kind: domain.ErrProvider, Err: fmt.Errorf("failed to fetch block %d: %w", number, err)}
	}

	forkStart, err := s.fork.BlockNumber(ctx)
	if err != nil {
		return nil, &domain.ForkError{Step: StepReplay, Kind: domain.ErrProvider, Err: err}
	}

	report := &domain.BlockReport{Number: number, Hash: block.Hash()}
	for i, tx := range block.Transactions() {
		// blob sidecars are not part of the block body, so these cannot be re-sent
		if tx.Type() == types.BlobTxType {
			s.log.Warn("Skipping blob transaction", "block", number, "index", i, "tx", tx.Hash().Hex())
			report.Skipped = append(report.Skipped, tx.Hash())
			continue
		}
		if err := s.fork.SendTransaction(ctx, tx); err != nil {
			return nil, &domain.ForkError{
				Step: StepReplay,
				Kind: domain.ErrReplay,
				Err:  fmt.Errorf("block %d tx %d (%s): %w", number, i, tx.Hash().Hex(), err),
			}
		}
		report.Transactions++
	}

	if len(s.abis) > 0 && report.Transactions > 0 {
		events, err := s.decodeShadowLogs(ctx, forkStart+1)
		if err != nil {
			return nil, err
		}
		report.Events = events
	}
	return report, nil
}

// decodeShadowLogs decodes logs emitted by shadow contracts on the fork since fromBlock
func (s *ForkSession) decodeShadowLogs(ctx context.Context, fromBlock uint64) ([]domain.DecodedEvent, error) {
	logs, err := s.fork.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: lo.Keys(s.abis),
	})
	if err != nil {
		return nil, &domain.ForkError{Step: StepDecodeLogs, Kind: domain.ErrProvider, Err: err}
	}

	var events []domain.DecodedEvent
	for _, l := range logs {
		contract, ok := s.abis[l.Address]
		if !ok {
			continue
		}
		event, err := s.decoder.Decode(l, contract.abi)
		if err != nil {
			s.log.Debug("Could not decode shadow log", "address", l.Address.Hex(), "error", err)
			continue
		}
		event.Contract = contract.name
		events = append(events, *event)
	}
	return events, nil
}

func (s *ForkSession) injectShadows(ctx context.Context, shadows []*domain.ShadowContract) error {
	for _, shadow := range shadows {
		if err := s.fork.SetCode(ctx, shadow.Address, shadow.RuntimeBytecode); err != nil {
			return &domain.ForkError{
				Step: StepInjectShadows,
				Kind: domain.ErrCodeInjection,
				Err:  fmt.Errorf("%s at %s: %w", shadow.Identifier(), shadow.Address.Hex(), err),
			}
		}
		s.injected[shadow.Address] = shadow.RuntimeBytecode
		s.loadABI(ctx, shadow)
	}
	return nil
}

// loadABI keeps the artifact ABI of shadow for decoding its logs.
// Shadows without a readable artifact are injected but not decoded.
func (s *ForkSession) loadABI(ctx context.Context, shadow *domain.ShadowContract) {
	if known, ok := s.abis[shadow.Address]; ok && known.name == shadow.ContractName {
		return
	}
	artifact, err := s.artifacts.Get(ctx, shadow.Identifier())
	if err != nil {
		s.log.Warn("No artifact for shadow contract, its events will not be decoded", "contract", shadow.Identifier().String(), "error", err)
		return
	}
	s.abis[shadow.Address] = shadowABI{name: shadow.ContractName, abi: artifact.ABI}
}

func (s *ForkSession) report(r *domain.BlockReport) {
	if s.onBlock != nil {
		s.onBlock(r)
	}
}

// Close disconnects from both nodes and stops the fork node
func (s *ForkSession) Close(ctx context.Context) error {
	s.upstream.Close()
	return s.closeFork(ctx)
}

func (s *ForkSession) closeFork(ctx context.Context) error {
	s.fork.Close()
	if err := s.launcher.Stop(ctx, s.instance); err != nil {
		return fmt.Errorf("failed to stop fork node: %w", err)
	}
	return nil
}
