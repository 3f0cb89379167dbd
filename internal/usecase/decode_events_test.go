package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shadow-fork/shadow-cli/internal/domain"
	"github.com/shadow-fork/shadow-cli/internal/domain/config"
	"github.com/shadow-fork/shadow-cli/internal/usecase"
)

func TestDecodeEvents(t *testing.T) {
	ctx := context.Background()
	txHash := common.HexToHash("0xfeed")
	other := common.HexToAddress("0x00000000000000000000000000000000000000ff")

	newUseCase := func(node *fakeNode, shadows *MockShadowStore, artifacts *MockArtifactStore, decoder *fakeDecoder) *usecase.DecodeEvents {
		cfg := &config.RuntimeConfig{RPCURL: "http://127.0.0.1:8545"}
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		return usecase.NewDecodeEvents(cfg, shadows, artifacts, &fakeDialer{node: node}, decoder, &MockProgressSink{}, log)
	}

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(77),
		Logs: []*types.Log{
			{Address: testShadow.Address, Topics: []common.Hash{{0x01}}, Index: 0, BlockNumber: 77},
			{Address: other, Topics: []common.Hash{{0x02}}, Index: 1, BlockNumber: 77},
			{Address: testShadow.Address, Topics: []common.Hash{{0x03}}, Index: 2, BlockNumber: 77},
		},
	}

	t.Run("decodes shadow logs and keeps others raw", func(t *testing.T) {
		node := newFakeNode()
		node.receipts[txHash] = receipt

		shadows := new(MockShadowStore)
		shadows.On("Get", ctx, testShadow.Address).Return(testShadow, nil).Once()
		shadows.On("Get", ctx, other).Return(nil, domain.ErrNotFound).Once()
		artifacts := new(MockArtifactStore)
		artifacts.On("Get", ctx, testShadow.Identifier()).Return(artifact(`[]`), nil).Once()

		result, err := newUseCase(node, shadows, artifacts, &fakeDecoder{}).Execute(ctx, usecase.DecodeEventsParams{TxHash: txHash})
		require.NoError(t, err)

		assert.Equal(t, uint64(77), result.BlockNumber)
		assert.Equal(t, types.ReceiptStatusSuccessful, result.Status)
		require.Len(t, result.Events, 2)
		assert.Equal(t, "Vault", result.Events[0].Contract)
		assert.Equal(t, uint(2), result.Events[1].LogIndex)
		require.Len(t, result.Raw, 1)
		assert.Equal(t, other, result.Raw[0].Address)

		shadows.AssertExpectations(t)
		artifacts.AssertExpectations(t)
	})

	t.Run("undecodable shadow logs are kept raw", func(t *testing.T) {
		node := newFakeNode()
		node.receipts[txHash] = receipt

		shadows := new(MockShadowStore)
		shadows.On("Get", ctx, mock.Anything).Return(testShadow, nil)
		artifacts := new(MockArtifactStore)
		artifacts.On("Get", ctx, testShadow.Identifier()).Return(artifact(`[]`), nil)

		result, err := newUseCase(node, shadows, artifacts, &fakeDecoder{err: domain.ErrUnknownEvent}).
			Execute(ctx, usecase.DecodeEventsParams{TxHash: txHash})
		require.NoError(t, err)
		assert.Empty(t, result.Events)
		assert.Len(t, result.Raw, 3)
	})

	t.Run("missing receipt", func(t *testing.T) {
		_, err := newUseCase(newFakeNode(), new(MockShadowStore), new(MockArtifactStore), &fakeDecoder{}).
			Execute(ctx, usecase.DecodeEventsParams{TxHash: txHash})
		assert.ErrorIs(t, err, domain.ErrProvider)
	})

	t.Run("store failure", func(t *testing.T) {
		node := newFakeNode()
		node.receipts[txHash] = receipt
		shadows := new(MockShadowStore)
		shadows.On("Get", ctx, mock.Anything).Return(nil, errors.New("permission denied"))

		_, err := newUseCase(node, shadows, new(MockArtifactStore), &fakeDecoder{}).
			Execute(ctx, usecase.DecodeEventsParams{TxHash: txHash})
		assert.ErrorIs(t, err, domain.ErrShadowStore)
	})
}
