package memory

import (
	"context"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

func (l *Ledger) GetBestBlock(_ context.Context) (*model.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.best.block, nil
}

// GetBlockByNumber only returns blocks on the canonical chain.
func (l *Ledger) GetBlockByNumber(_ context.Context, number uint64) (*model.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	hash, ok := l.canonical[number]
	if !ok {
		return nil, errors.NewBlockNotFoundError("no canonical block at number %d", number)
	}

	return l.blocks[hash].block, nil
}

// GetBlockByHash returns blocks from any branch.
func (l *Ledger) GetBlockByHash(_ context.Context, hash *chainhash.Hash) (*model.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.blocks[*hash]
	if !ok {
		return nil, errors.NewBlockNotFoundError("block %s not found", hash)
	}

	return e.block, nil
}

func (l *Ledger) GetTotalDifficultyForHash(_ context.Context, hash *chainhash.Hash) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	e, ok := l.blocks[*hash]
	if !ok {
		return nil, errors.NewBlockNotFoundError("block %s not found", hash)
	}

	return new(uint256.Int).Set(e.totalDifficulty), nil
}

func (l *Ledger) GetMinNumber(_ context.Context) (uint64, error) {
	return l.minNumber, nil
}
