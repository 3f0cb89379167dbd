package usecase

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/abitype"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/domain/models"
)

// Deploy steps reported in DeployError
const (
	StepParseIdentifier = "parse identifier"
	StepLoadArtifact    = "load artifact"
	StepConnect         = "connect"
	StepInjectCode      = "inject code"
	StepRecordShadow    = "record shadow"
)

// DeployShadow places a locally compiled contract at an address on the fork
type DeployShadow struct {
	cfg       *config.RuntimeConfig
	artifacts ArtifactStore
	verifier  VerificationService
	shadows   ShadowStore
	dialer    NodeDialer
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployShadow creates a new DeployShadow use case
func NewDeployShadow(
	cfg *config.RuntimeConfig,
	artifacts ArtifactStore,
	verifier VerificationService,
	shadows ShadowStore,
	dialer NodeDialer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployShadow {
	return &DeployShadow{
		cfg:       cfg,
		artifacts: artifacts,
		verifier:  verifier,
		shadows:   shadows,
		dialer:    dialer,
		progress:  progress,
		log:       log.With("component", "DeployShadow"),
	}
}

// DeployShadowParams contains parameters for deploying a shadow contract
type DeployShadowParams struct {
	Contract string         // "File.sol" or "File.sol:Name"
	Address  common.Address // where the shadow code is placed
	ForkURL  string         // node receiving the code; defaults to the local fork node
	RPCURL   string         // upstream for chain ID and constructor simulation; defaults to the configured RPC URL
}

// DeployShadowResult contains the result of a shadow deployment
type DeployShadowResult struct {
	Shadow   *domain.ShadowContract
	Verified *domain.VerifiedContract // nil when the lookup failed
	Warnings []string
}

// Execute injects the shadow contract's runtime code and records it.
// Nothing is recorded unless the code injection succeeded.
func (uc *DeployShadow) Execute(ctx context.Context, params DeployShadowParams) (*DeployShadowResult, error) {
	result := &DeployShadowResult{}

	id := domain.ParseContractIdentifier(params.Contract)
	if err := id.Validate(); err != nil {
		return nil, &domain.DeployError{Step: StepParseIdentifier, Kind: domain.ErrInvalidContractIdentifier, Err: err}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepLoadArtifact, Message: fmt.Sprintf("Loading artifact for %s", id), Spinner: true})
	artifact, err := uc.artifacts.Get(ctx, id)
	if err != nil {
		kind := domain.ErrInvalidArtifact
		if errors.Is(err, domain.ErrArtifactNotFound) {
			kind = domain.ErrArtifactNotFound
		}
		return nil, uc.fail(ctx, StepLoadArtifact, kind, err)
	}
	runtimeCode, err := artifact.DeployedBytecode.Bytes()
	if err == nil && len(runtimeCode) == 0 {
		err = errors.New("no deployed bytecode, is it abstract or an interface?")
	}
	if err != nil {
		return nil, uc.fail(ctx, StepLoadArtifact, domain.ErrInvalidArtifact, fmt.Errorf("%s: %w", id, err))
	}

	forkURL := params.ForkURL
	if forkURL == "" {
		forkURL = uc.cfg.Fork.RPCURL()
	}
	rpcURL := params.RPCURL
	if rpcURL == "" {
		rpcURL = uc.cfg.RPCURL
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepConnect, Message: fmt.Sprintf("Connecting to fork node at %s", forkURL), Spinner: true})
	node, err := uc.dialer.Dial(ctx, forkURL)
	if err != nil {
		return nil, uc.fail(ctx, StepConnect, domain.ErrProvider,
			fmt.Errorf("fork node at %s is unreachable (is `shadow fork` running?): %w", forkURL, err))
	}
	defer node.Close()

	// chain ID and constructor simulation use the upstream when one is configured
	upstream := NodeProvider(node)
	if rpcURL != "" && rpcURL != forkURL {
		upstream, err = uc.dialer.Dial(ctx, rpcURL)
		if err != nil {
			return nil, uc.fail(ctx, StepConnect, domain.ErrProvider, err)
		}
		defer upstream.Close()
	}

	chainID, err := upstream.ChainID(ctx)
	if err != nil {
		return nil, uc.fail(ctx, StepConnect, domain.ErrProvider, fmt.Errorf("failed to get chain ID: %w", err))
	}

	result.Verified = uc.lookupVerified(ctx, result, chainID.Uint64(), params.Address)

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepInjectCode, Message: "Building runtime bytecode", Spinner: true})
	source := domain.BytecodeFromArtifact
	if code, ok := uc.runConstructor(ctx, result, upstream, artifact, result.Verified); ok {
		runtimeCode = code
		source = domain.BytecodeFromConstructor
	}

	previous, err := node.CodeAt(ctx, params.Address, nil)
	if err != nil {
		return nil, uc.fail(ctx, StepInjectCode, domain.ErrProvider, fmt.Errorf("failed to read code at %s: %w", params.Address.Hex(), err))
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepInjectCode, Message: fmt.Sprintf("Injecting code at %s", params.Address.Hex()), Spinner: true})
	if err := node.SetCode(ctx, params.Address, runtimeCode); err != nil {
		return nil, uc.fail(ctx, StepInjectCode, domain.ErrCodeInjection, err)
	}
	injected, err := node.CodeAt(ctx, params.Address, nil)
	if err != nil {
		return nil, uc.fail(ctx, StepInjectCode, domain.ErrCodeInjection, fmt.Errorf("failed to read back code: %w", err))
	}
	if !bytes.Equal(injected, runtimeCode) {
		return nil, uc.fail(ctx, StepInjectCode, domain.ErrCodeInjection,
			fmt.Errorf("code at %s does not match after injection (%d bytes, want %d)", params.Address.Hex(), len(injected), len(runtimeCode)))
	}

	shadow := &domain.ShadowContract{
		ID:              uuid.NewString(),
		Address:         params.Address,
		FileName:        id.FileName,
		ContractName:    id.ContractName,
		RuntimeBytecode: runtimeCode,
		DeployedAt:      time.Now().UTC(),
		Metadata: map[string]string{
			domain.MetaBytecodeSource:   source,
			domain.MetaChainID:          chainID.String(),
			domain.MetaReplacedCodeSize: strconv.Itoa(len(previous)),
		},
	}
	if version := artifact.Metadata.Compiler.Version; version != "" {
		shadow.Metadata[domain.MetaShadowCompiler] = version
	}
	if v := result.Verified; v != nil {
		shadow.Metadata[domain.MetaVerifiedName] = v.ContractName
		shadow.Metadata[domain.MetaCompilerVersion] = v.CompilerVersion
	}

	if err := uc.shadows.Record(ctx, shadow); err != nil {
		return nil, uc.fail(ctx, StepRecordShadow, domain.ErrShadowStore, err)
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: StepRecordShadow, Message: "Shadow contract deployed"})
	result.Shadow = shadow
	return result, nil
}

func (uc *DeployShadow) fail(ctx context.Context, step string, kind, err error) error {
	uc.progress.OnProgress(ctx, ProgressEvent{Stage: step, Message: "failed"})
	return &domain.DeployError{Step: step, Kind: kind, Err: err}
}

func (uc *DeployShadow) warn(result *DeployShadowResult, msg string, args ...any) {
	result.Warnings = append(result.Warnings, msg)
	uc.log.Warn(msg, args...)
}

// lookupVerified fetches verified metadata for the target address. Failures
// are recorded as warnings and never abort the deploy.
func (uc *DeployShadow) lookupVerified(ctx context.Context, result *DeployShadowResult, chainID uint64, address common.Address) *domain.VerifiedContract {
	if uc.verifier == nil {
		uc.warn(result, "verification lookup skipped: no verification service configured")
		return nil
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "verify", Message: "Looking up verified source", Spinner: true})
	verified, err := uc.verifier.Fetch(ctx, chainID, address)
	if err != nil {
		uc.warn(result, fmt.Sprintf("verification lookup failed: %v", err), "address", address.Hex())
		return nil
	}
	return verified
}

// runConstructor simulates the contract creation with eth_call to obtain
// runtime code with immutables set. It reports false when the constructor
// arguments are unknown or the simulation fails.
func (uc *DeployShadow) runConstructor(
	ctx context.Context,
	result *DeployShadowResult,
	node NodeProvider,
	artifact *models.Artifact,
	verified *domain.VerifiedContract,
) ([]byte, bool) {
	creation, err := artifact.Bytecode.Bytes()
	if err != nil || len(creation) == 0 {
		uc.warn(result, "creation bytecode unavailable, using deployed bytecode")
		return nil, false
	}

	entries, err := abitype.ParseABI(artifact.ABI)
	if err != nil {
		uc.warn(result, fmt.Sprintf("artifact ABI unreadable, using deployed bytecode: %v", err))
		return nil, false
	}

	if ctor, ok := abitype.Constructor(entries); ok && len(ctor.Inputs) > 0 {
		if verified == nil || verified.ConstructorArguments == "" {
			uc.warn(result, "constructor arguments unknown, using deployed bytecode (immutables are unset)")
			return nil, false
		}
		args, err := decodeHex(verified.ConstructorArguments)
		if err != nil {
			uc.warn(result, fmt.Sprintf("invalid verified constructor arguments, using deployed bytecode: %v", err))
			return nil, false
		}
		creation = append(creation, args...)
	}

	code, err := node.CallContract(ctx, ethereum.CallMsg{Data: creation}, nil)
	if err == nil && len(code) == 0 {
		err = errors.New("constructor returned no code")
	}
	if err != nil {
		uc.warn(result, fmt.Sprintf("constructor simulation failed, using deployed bytecode: %v", err))
		return nil, false
	}
	return code, true
}

// decodeHex decodes hex data with or without 0x prefix
func decodeHex(data string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(data), "0x"))
}
