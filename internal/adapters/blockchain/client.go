package blockchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// Client is a node connection backed by ethclient. The anvil_* cheat
// methods go through the raw RPC client.
type Client struct {
	*ethclient.Client
	rpc *rpc.Client
}

func newClient(rc *rpc.Client) *Client {
	return &Client{Client: ethclient.NewClient(rc), rpc: rc}
}

// SetCode replaces the runtime code at account
func (c *Client) SetCode(ctx context.Context, account common.Address, code []byte) error {
	if err := c.rpc.CallContext(ctx, nil, "anvil_setCode", account, hexutil.Bytes(code)); err != nil {
		return fmt.Errorf("anvil_setCode %s: %w", account.Hex(), err)
	}
	return nil
}

type forkingParams struct {
	JSONRPCURL  string `json:"jsonRpcUrl"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
}

type resetParams struct {
	Forking forkingParams `json:"forking"`
}

// Reset re-forks the node from forkURL at blockNumber
func (c *Client) Reset(ctx context.Context, forkURL string, blockNumber uint64) error {
	params := resetParams{Forking: forkingParams{JSONRPCURL: forkURL, BlockNumber: blockNumber}}
	if err := c.rpc.CallContext(ctx, nil, "anvil_reset", params); err != nil {
		return fmt.Errorf("anvil_reset to block %d: %w", blockNumber, err)
	}
	return nil
}

var (
	_ usecase.NodeProvider = (*Client)(nil)
	_ usecase.ChainSource  = (*Client)(nil)
)
