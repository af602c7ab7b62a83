package blockentry

import (
	"testing"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Empty(t *testing.T) {
	store := New(0)

	assert.Equal(t, 0, store.Size())
	assert.Equal(t, uint64(0), store.MinimalHeight())
	assert.Equal(t, uint64(0), store.MaximumHeight())
	assert.Empty(t, store.GetBlocksByNumber(1))
	assert.NotNil(t, store.GetBlocksByNumber(1))
	assert.Empty(t, store.GetBlocksByParentHash(test.Genesis().Hash()))

	_, found := store.GetBlockByHash(test.Genesis().Hash())
	assert.False(t, found)
}

func TestMemoryStore_SaveAndGetBlock(t *testing.T) {
	store := New(8)
	genesis := test.Genesis()
	block := test.NewChildBlock(genesis)

	store.SaveBlock(block)

	assert.True(t, store.HasBlock(block.Hash()))
	assert.Equal(t, 1, store.Size())

	stored, found := store.GetBlockByHash(block.Hash())
	require.True(t, found)
	assert.Equal(t, block, stored)

	assert.Equal(t, []*model.Block{block}, store.GetBlocksByNumber(1))
	assert.Equal(t, []*model.Block{block}, store.GetBlocksByParentHash(genesis.Hash()))
	assert.Equal(t, uint64(1), store.MinimalHeight())
	assert.Equal(t, uint64(1), store.MaximumHeight())
}

func TestMemoryStore_SaveBlockTwiceKeepsIndexesConsistent(t *testing.T) {
	store := New(8)
	block := test.NewChildBlock(test.Genesis())

	store.SaveBlock(block)
	store.SaveBlock(block)

	assert.Equal(t, 1, store.Size())
	assert.Len(t, store.GetBlocksByNumber(1), 1)
	assert.Len(t, store.GetBlocksByParentHash(block.ParentHash()), 1)
}

func TestMemoryStore_RemoveBlock(t *testing.T) {
	store := New(8)
	genesis := test.Genesis()
	chain := test.GenerateChain(genesis, 3)

	for _, b := range chain {
		store.SaveBlock(b)
	}

	store.RemoveBlock(chain[1].Hash())

	assert.Equal(t, 2, store.Size())
	assert.False(t, store.HasBlock(chain[1].Hash()))
	assert.Empty(t, store.GetBlocksByNumber(2))
	assert.Empty(t, store.GetBlocksByParentHash(chain[0].Hash()))
	assert.Len(t, store.GetBlocksByParentHash(chain[1].Hash()), 1)
	assert.Equal(t, uint64(1), store.MinimalHeight())
	assert.Equal(t, uint64(3), store.MaximumHeight())

	// removing an absent block is a no-op
	store.RemoveBlock(chain[1].Hash())
	assert.Equal(t, 2, store.Size())
}

func TestMemoryStore_ForkSiblings(t *testing.T) {
	store := New(8)
	genesis := test.Genesis()
	a := test.NewChildBlock(genesis)
	b := test.NewChildBlock(genesis)

	store.SaveBlock(a)
	store.SaveBlock(b)

	assert.Len(t, store.GetBlocksByNumber(1), 2)
	assert.ElementsMatch(t, []*model.Block{a, b}, store.GetBlocksByParentHash(genesis.Hash()))

	store.RemoveBlock(a.Hash())
	assert.Equal(t, []*model.Block{b}, store.GetBlocksByParentHash(genesis.Hash()))
}

func TestMemoryStore_HeadersDoNotCountAsBlocks(t *testing.T) {
	store := New(8)
	block := test.NewChildBlock(test.Genesis())

	store.SaveHeader(block.Header)

	assert.True(t, store.HasHeader(block.Hash()))
	assert.False(t, store.HasBlock(block.Hash()))
	assert.Equal(t, 0, store.Size())
	assert.Equal(t, 1, store.HeadersSize())
	assert.Empty(t, store.GetBlocksByNumber(1))

	header, found := store.GetHeaderByHash(block.Hash())
	require.True(t, found)
	assert.Equal(t, block.Header, header)

	store.SaveBlock(block)
	assert.Equal(t, 1, store.Size())
	assert.True(t, store.HasHeader(block.Hash()))

	store.RemoveHeader(block.Hash())
	assert.False(t, store.HasHeader(block.Hash()))
	assert.True(t, store.HasBlock(block.Hash()))
}

func TestMemoryStore_ReleaseRange(t *testing.T) {
	store := New(16)
	genesis := test.Genesis()
	chain := test.GenerateChain(genesis, 10)
	fork := test.NewChildBlock(chain[3]) // height 5, sibling of chain[4]

	for _, b := range chain {
		store.SaveBlock(b)
	}

	store.SaveBlock(fork)

	removed := store.ReleaseRange(3, 6)

	assert.Equal(t, 5, removed)
	assert.Equal(t, 6, store.Size())
	assert.Empty(t, store.GetBlocksByNumber(5))
	assert.Len(t, store.GetBlocksByNumber(7), 1)
	assert.Empty(t, store.GetBlocksByParentHash(chain[3].Hash()))
	assert.Equal(t, uint64(1), store.MinimalHeight())
	assert.Equal(t, uint64(10), store.MaximumHeight())

	assert.Equal(t, 0, store.ReleaseRange(3, 6))
	assert.Equal(t, 2, store.ReleaseRange(0, 2))
	assert.Equal(t, uint64(7), store.MinimalHeight())
}

func TestMemoryStore_ReleaseRangeDropsHeaders(t *testing.T) {
	store := New(16)
	chain := test.GenerateChain(test.Genesis(), 10)

	for _, b := range chain {
		store.SaveHeader(b.Header)
	}

	store.SaveBlock(chain[4])

	assert.Equal(t, uint64(1), store.MinimalHeaderHeight())

	// block 5 and headers 3 to 6
	assert.Equal(t, 5, store.ReleaseRange(3, 6))
	assert.Equal(t, 6, store.HeadersSize())
	assert.Equal(t, 0, store.Size())
	assert.False(t, store.HasHeader(chain[2].Hash()))
	assert.True(t, store.HasHeader(chain[6].Hash()))

	assert.Equal(t, 2, store.ReleaseRange(0, 2))
	assert.Equal(t, uint64(7), store.MinimalHeaderHeight())

	store.RemoveHeader(chain[6].Hash())
	assert.Equal(t, uint64(8), store.MinimalHeaderHeight())

	assert.Equal(t, 3, store.ReleaseRange(0, 100))
	assert.Equal(t, 0, store.HeadersSize())
	assert.Equal(t, uint64(0), store.MinimalHeaderHeight())
}

func TestMemoryStore_HeightBoundsFollowRemovals(t *testing.T) {
	store := New(16)
	chain := test.GenerateChain(test.Genesis(), 6)

	for _, b := range chain {
		store.SaveBlock(b)
	}

	require.Equal(t, uint64(1), store.MinimalHeight())
	require.Equal(t, uint64(6), store.MaximumHeight())

	store.RemoveBlock(chain[0].Hash())
	store.RemoveBlock(chain[5].Hash())

	assert.Equal(t, uint64(2), store.MinimalHeight())
	assert.Equal(t, uint64(5), store.MaximumHeight())

	// removing an inner height keeps the bounds
	store.RemoveBlock(chain[2].Hash())
	assert.Equal(t, uint64(2), store.MinimalHeight())
	assert.Equal(t, uint64(5), store.MaximumHeight())

	store.SaveBlock(chain[0])
	assert.Equal(t, uint64(1), store.MinimalHeight())

	for _, b := range chain {
		store.RemoveBlock(b.Hash())
	}

	assert.Equal(t, uint64(0), store.MinimalHeight())
	assert.Equal(t, uint64(0), store.MaximumHeight())

	store.SaveBlock(chain[3])
	assert.Equal(t, uint64(4), store.MinimalHeight())
	assert.Equal(t, uint64(4), store.MaximumHeight())
}

func TestMemoryStore_ConcurrentReaders(t *testing.T) {
	store := New(16)
	chain := test.GenerateChain(test.Genesis(), 50)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 1000; i++ {
			_ = store.Size()
			_ = store.MaximumHeight()
			_ = store.GetBlocksByNumber(uint64(i % 50))
		}
	}()

	for _, b := range chain {
		store.SaveBlock(b)
	}

	<-done

	assert.Equal(t, 50, store.Size())
}
