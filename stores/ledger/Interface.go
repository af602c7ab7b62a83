// Package ledger describes the chain the block sync core connects blocks to.
//
// The ledger verifies and appends blocks and owns fork choice. Lookups for unknown blocks
// return an error matching errors.ErrBlockNotFound.
package ledger

import (
	"context"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

type Ledger interface {
	// TryToConnect returns an error only when the ledger itself failed, a rejected block is
	// reported through the ImportResult.
	TryToConnect(ctx context.Context, block *model.Block) (model.ImportResult, error)
	GetBestBlock(ctx context.Context) (*model.Block, error)
	GetBlockByNumber(ctx context.Context, number uint64) (*model.Block, error)
	GetBlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.Block, error)
	GetTotalDifficultyForHash(ctx context.Context, hash *chainhash.Hash) (*uint256.Int, error)
	// GetMinNumber is the lowest block number the ledger has, non zero while bootstrapping
	// from a height floor.
	GetMinNumber(ctx context.Context) (uint64, error)
}
