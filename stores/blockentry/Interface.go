// Package blockentry holds blocks and headers that arrived before their parent.
//
// The store is in memory. Blocks are indexed three ways: by hash, by height and by parent hash.
// Headers are indexed by hash and height so ReleaseRange can drop them too. All
// indexes are updated together under one lock so a reader never observes a block in one index
// and not in another.
package blockentry

import (
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type Store interface {
	SaveBlock(block *model.Block)
	SaveHeader(header *model.BlockHeader)
	RemoveBlock(hash *chainhash.Hash)
	RemoveHeader(hash *chainhash.Hash)
	GetBlockByHash(hash *chainhash.Hash) (*model.Block, bool)
	GetHeaderByHash(hash *chainhash.Hash) (*model.BlockHeader, bool)
	GetBlocksByNumber(number uint64) []*model.Block
	GetBlocksByParentHash(parentHash *chainhash.Hash) []*model.Block
	HasBlock(hash *chainhash.Hash) bool
	HasHeader(hash *chainhash.Hash) bool
	MinimalHeight() uint64
	MaximumHeight() uint64
	MinimalHeaderHeight() uint64
	Size() int
	HeadersSize() int
	ReleaseRange(low, high uint64) int
}
