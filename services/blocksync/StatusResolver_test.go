package blocksync

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/stores/ledger/memory"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/blocksync/util/test"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatusResolver_CurrentStatus(t *testing.T) {
	t.Run("best block and total difficulty", func(t *testing.T) {
		node := newTestNode(t, testSettings())

		chain := test.GenerateChain(node.genesis, 4, test.WithDifficulty(3))
		node.connectChain(t, chain)

		status, err := node.statusResolver.CurrentStatus(context.Background())
		require.NoError(t, err)

		assert.Equal(t, uint64(4), status.BestBlockNumber)
		assert.Equal(t, *chain[3].Hash(), status.BestBlockHash)
		assert.Equal(t, *chain[2].Hash(), status.BestBlockParentHash)
		assert.Equal(t, uint256.NewInt(13), status.TotalDifficulty)
	})

	t.Run("genesis while bootstrapping from a height floor", func(t *testing.T) {
		node := newTestNode(t, testSettings(), memory.WithMinNumber(1000))

		node.connectChain(t, test.GenerateChain(node.genesis, 2))

		status, err := node.statusResolver.CurrentStatus(context.Background())
		require.NoError(t, err)

		assert.Equal(t, uint64(0), status.BestBlockNumber)
		assert.Equal(t, *node.genesis.Hash(), status.BestBlockHash)
		assert.Equal(t, *node.genesis.ParentHash(), status.BestBlockParentHash)
		assert.Equal(t, node.genesis.Difficulty(), status.TotalDifficulty)
	})

	t.Run("genesis when the best block is unreadable", func(t *testing.T) {
		genesis := test.Genesis()

		ledger := &mockLedger{}
		ledger.On("GetMinNumber", mock.Anything).Return(uint64(0), nil)
		ledger.On("GetBestBlock", mock.Anything).Return(nil, errors.NewBlockNotFoundError("no best block"))

		resolver := NewStatusResolver(ulogger.TestLogger{}, ledger, genesis)

		status, err := resolver.CurrentStatus(context.Background())
		require.NoError(t, err)

		assert.Equal(t, uint64(0), status.BestBlockNumber)
		assert.Equal(t, *genesis.Hash(), status.BestBlockHash)
		ledger.AssertExpectations(t)
	})

	t.Run("missing total difficulty is an error", func(t *testing.T) {
		genesis := test.Genesis()

		ledger := &mockLedger{}
		ledger.On("GetMinNumber", mock.Anything).Return(uint64(0), nil)
		ledger.On("GetBestBlock", mock.Anything).Return(genesis, nil)
		ledger.On("GetTotalDifficultyForHash", mock.Anything, genesis.Hash()).Return(nil, errors.NewBlockNotFoundError("no td"))

		resolver := NewStatusResolver(ulogger.TestLogger{}, ledger, genesis)

		_, err := resolver.CurrentStatus(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrProcessing))
	})
}
