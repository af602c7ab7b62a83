package blockcache

import (
	"testing"

	"github.com/bsv-blockchain/blocksync/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockCache_AddGetRemove(t *testing.T) {
	cache := New(10)
	block := test.NewChildBlock(test.Genesis())

	_, found := cache.GetBlockByHash(block.Hash())
	assert.False(t, found)

	cache.AddBlock(block)
	assert.Equal(t, 1, cache.Size())

	cached, found := cache.GetBlockByHash(block.Hash())
	require.True(t, found)
	assert.Equal(t, block, cached)

	cache.RemoveBlock(block.Hash())
	assert.Equal(t, 0, cache.Size())

	_, found = cache.GetBlockByHash(block.Hash())
	assert.False(t, found)
}

func TestBlockCache_EvictsOldestUnaccessed(t *testing.T) {
	cache := New(3)
	blocks := test.GenerateChain(test.Genesis(), 4)

	cache.AddBlock(blocks[0])
	cache.AddBlock(blocks[1])
	cache.AddBlock(blocks[2])

	_, found := cache.GetBlockByHash(blocks[0].Hash())
	require.True(t, found)

	cache.AddBlock(blocks[3])

	assert.Equal(t, 3, cache.Size())

	_, found = cache.GetBlockByHash(blocks[0].Hash())
	assert.True(t, found)

	_, found = cache.GetBlockByHash(blocks[1].Hash())
	assert.False(t, found)
}

func TestBlockCache_MinimumCapacity(t *testing.T) {
	cache := New(0)
	blocks := test.GenerateChain(test.Genesis(), 2)

	cache.AddBlock(blocks[0])
	cache.AddBlock(blocks[1])

	assert.Equal(t, 1, cache.Size())
}
