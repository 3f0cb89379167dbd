package adapters

import (
	"github.com/google/wire"

	"github.com/shadow-fork/shadow-cli/internal/adapters/abi"
	"github.com/shadow-fork/shadow-cli/internal/adapters/anvil"
	"github.com/shadow-fork/shadow-cli/internal/adapters/blockchain"
	"github.com/shadow-fork/shadow-cli/internal/adapters/fs"
	"github.com/shadow-fork/shadow-cli/internal/adapters/repository/contracts"
	"github.com/shadow-fork/shadow-cli/internal/adapters/verification"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewShadowStoreAdapter,
	wire.Bind(new(usecase.ShadowStore), new(*fs.ShadowStoreAdapter)),

	contracts.NewRepository,
	wire.Bind(new(usecase.ArtifactStore), new(*contracts.Repository)),
)

// BlockchainSet provides node connections and the local fork node
var BlockchainSet = wire.NewSet(
	blockchain.NewDialer,
	wire.Bind(new(usecase.NodeDialer), new(*blockchain.Dialer)),
	wire.Bind(new(usecase.StreamDialer), new(*blockchain.Dialer)),

	anvil.NewManager,
	wire.Bind(new(usecase.ForkNodeLauncher), new(*anvil.Manager)),
)

// ABISet provides ABI decoding
var ABISet = wire.NewSet(
	abi.NewEventDecoder,
	wire.Bind(new(usecase.EventDecoder), new(*abi.EventDecoder)),
)

// VerificationSet provides the block explorer client
var VerificationSet = wire.NewSet(
	verification.NewEtherscanClient,
	wire.Bind(new(usecase.VerificationService), new(*verification.EtherscanClient)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	BlockchainSet,
	ABISet,
	VerificationSet,
)
