package usecase_test

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/models"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

// MockArtifactStore is a mock implementation of ArtifactStore
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Get(ctx context.Context, id domain.ContractIdentifier) (*models.Artifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Artifact), args.Error(1)
}

// MockVerificationService is a mock implementation of VerificationService
type MockVerificationService struct {
	mock.Mock
}

func (m *MockVerificationService) Fetch(ctx context.Context, chainID uint64, address common.Address) (*domain.VerifiedContract, error) {
	args := m.Called(ctx, chainID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifiedContract), args.Error(1)
}

// MockShadowStore is a mock implementation of ShadowStore
type MockShadowStore struct {
	mock.Mock
}

func (m *MockShadowStore) Record(ctx context.Context, s *domain.ShadowContract) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShadowStore) List(ctx context.Context) ([]*domain.ShadowContract, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ShadowContract), args.Error(1)
}

func (m *MockShadowStore) Get(ctx context.Context, address common.Address) (*domain.ShadowContract, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShadowContract), args.Error(1)
}

// MockProgressSink records progress events
type MockProgressSink struct {
	mu     sync.Mutex
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(string)  {}
func (m *MockProgressSink) Error(string) {}

// fakeNode is an in-memory fork node. Every accepted transaction mines a block.
type fakeNode struct {
	mu sync.Mutex

	chainID     int64
	chainErr    error
	blockNumber uint64

	code       map[common.Address][]byte
	codeAtErr  error
	setCodeErr error
	readBack   []byte // returned by CodeAt after SetCode when set
	setCodes   []common.Address

	callResult []byte
	callErr    error
	calls      []ethereum.CallMsg

	sent    []*types.Transaction
	sendErr func(tx *types.Transaction) error

	resets   []uint64
	resetURL string

	logs     []types.Log
	receipts map[common.Hash]*types.Receipt

	closed bool
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		chainID:  1,
		code:     make(map[common.Address][]byte),
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (n *fakeNode) ChainID(ctx context.Context) (*big.Int, error) {
	if n.chainErr != nil {
		return nil, n.chainErr
	}
	return big.NewInt(n.chainID), nil
}

func (n *fakeNode) BlockNumber(ctx context.Context) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.blockNumber, nil
}

func (n *fakeNode) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.codeAtErr != nil {
		return nil, n.codeAtErr
	}
	if n.readBack != nil && len(n.setCodes) > 0 {
		return n.readBack, nil
	}
	return n.code[account], nil
}

func (n *fakeNode) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, msg)
	return n.callResult, n.callErr
}

func (n *fakeNode) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	r, ok := n.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (n *fakeNode) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []types.Log
	for _, l := range n.logs {
		if q.FromBlock != nil && l.BlockNumber < q.FromBlock.Uint64() {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (n *fakeNode) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sendErr != nil {
		if err := n.sendErr(tx); err != nil {
			return err
		}
	}
	n.sent = append(n.sent, tx)
	n.blockNumber++
	return nil
}

func (n *fakeNode) SetCode(ctx context.Context, account common.Address, code []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.setCodeErr != nil {
		return n.setCodeErr
	}
	n.code[account] = code
	n.setCodes = append(n.setCodes, account)
	return nil
}

func (n *fakeNode) Reset(ctx context.Context, forkURL string, blockNumber uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resetURL = forkURL
	n.resets = append(n.resets, blockNumber)
	n.code = make(map[common.Address][]byte)
	n.blockNumber = blockNumber
	return nil
}

func (n *fakeNode) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
}

func (n *fakeNode) sentHashes() []common.Hash {
	n.mu.Lock()
	defer n.mu.Unlock()
	hashes := make([]common.Hash, len(n.sent))
	for i, tx := range n.sent {
		hashes[i] = tx.Hash()
	}
	return hashes
}

// fakeDialer hands out node, or the byURL entry for a known URL
type fakeDialer struct {
	node  *fakeNode
	byURL map[string]*fakeNode
	err   error
	urls  []string
}

func (d *fakeDialer) Dial(ctx context.Context, rpcURL string) (usecase.NodeProvider, error) {
	d.urls = append(d.urls, rpcURL)
	if d.err != nil {
		return nil, d.err
	}
	if n, ok := d.byURL[rpcURL]; ok {
		return n, nil
	}
	return d.node, nil
}

// fakeSubscription is an ethereum.Subscription driven by the test
type fakeSubscription struct {
	errCh        chan error
	unsubscribed bool
}

func (s *fakeSubscription) Unsubscribe() { s.unsubscribed = true }
func (s *fakeSubscription) Err() <-chan error {
	return s.errCh
}

// fakeChainSource is an upstream chain with a fixed set of blocks
type fakeChainSource struct {
	mu sync.Mutex

	head       uint64
	headErr    error
	blocks     map[uint64]*types.Block
	fetched    []uint64
	heads      chan<- *types.Header
	sub        *fakeSubscription
	subErr     error
	subscribed chan struct{}
	closed     bool
}

func newFakeChainSource(head uint64) *fakeChainSource {
	return &fakeChainSource{
		head:       head,
		blocks:     make(map[uint64]*types.Block),
		sub:        &fakeSubscription{errCh: make(chan error, 1)},
		subscribed: make(chan struct{}),
	}
}

func (c *fakeChainSource) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (c *fakeChainSource) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, c.headErr
}

func (c *fakeChainSource) BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetched = append(c.fetched, number.Uint64())
	block, ok := c.blocks[number.Uint64()]
	if !ok {
		return nil, ethereum.NotFound
	}
	return block, nil
}

func (c *fakeChainSource) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if c.subErr != nil {
		return nil, c.subErr
	}
	c.mu.Lock()
	c.heads = ch
	c.mu.Unlock()
	close(c.subscribed)
	return c.sub, nil
}

func (c *fakeChainSource) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeChainSource) fetchedBlocks() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint64(nil), c.fetched...)
}

// addBlock registers an upstream block holding txs
func (c *fakeChainSource) addBlock(number uint64, txs ...*types.Transaction) *types.Block {
	block := types.NewBlockWithHeader(&types.Header{Number: new(big.Int).SetUint64(number)}).
		WithBody(types.Body{Transactions: txs})
	c.mu.Lock()
	c.blocks[number] = block
	c.mu.Unlock()
	return block
}

type fakeStreamDialer struct {
	source *fakeChainSource
	err    error
	urls   []string
}

func (d *fakeStreamDialer) DialStream(ctx context.Context, wsURL string) (usecase.ChainSource, error) {
	d.urls = append(d.urls, wsURL)
	if d.err != nil {
		return nil, d.err
	}
	return d.source, nil
}

// fakeLauncher records fork node lifecycle calls
type fakeLauncher struct {
	started  []*domain.AnvilInstance
	stopped  int
	startErr error
}

func (l *fakeLauncher) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	if l.startErr != nil {
		return l.startErr
	}
	l.started = append(l.started, instance)
	return nil
}

func (l *fakeLauncher) Stop(ctx context.Context, instance *domain.AnvilInstance) error {
	l.stopped++
	return nil
}

// fakeDecoder names every log after its first topic byte
type fakeDecoder struct {
	err error
}

func (d *fakeDecoder) Decode(log types.Log, abiJSON []byte) (*domain.DecodedEvent, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(abiJSON) == 0 {
		return nil, errors.New("empty abi")
	}
	return &domain.DecodedEvent{
		Address:     log.Address,
		Name:        "Event",
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}, nil
}

func legacyTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		Gas:      21000,
		GasPrice: big.NewInt(1),
		To:       &to,
		Value:    big.NewInt(int64(nonce)),
	})
}
