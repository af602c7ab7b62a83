// Package blockcache is a fixed size recency cache of blocks by hash.
package blockcache

import (
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/jellydator/ttlcache/v3"
)

// BlockCache evicts the least recently used block once full. Reads count as use.
type BlockCache struct {
	cache *ttlcache.Cache[chainhash.Hash, *model.Block]
}

func New(capacity int) *BlockCache {
	if capacity <= 0 {
		capacity = 1
	}

	return &BlockCache{
		cache: ttlcache.New[chainhash.Hash, *model.Block](
			ttlcache.WithCapacity[chainhash.Hash, *model.Block](uint64(capacity)),
		),
	}
}

func (c *BlockCache) AddBlock(block *model.Block) {
	c.cache.Set(*block.Hash(), block, ttlcache.NoTTL)
}

func (c *BlockCache) GetBlockByHash(hash *chainhash.Hash) (*model.Block, bool) {
	item := c.cache.Get(*hash)
	if item == nil {
		return nil, false
	}

	return item.Value(), true
}

func (c *BlockCache) RemoveBlock(hash *chainhash.Hash) {
	c.cache.Delete(*hash)
}

func (c *BlockCache) Size() int {
	return c.cache.Len()
}
