package blocksync

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponder_ProcessGetBlock(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t, testSettings())

	chain := test.GenerateChain(node.genesis, 3)
	node.connectChain(t, chain)

	orphan := test.NewOrphanBlock(10)
	node.store.SaveBlock(orphan)

	t.Run("block in the ledger", func(t *testing.T) {
		peer := test.NewSimplePeer()

		node.responder.ProcessGetBlock(ctx, peer, chain[1].Hash())

		messages := peer.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, chain[1].Hash(), messages[0].(*model.BlockMessage).Block.Hash())
		assert.Contains(t, node.tracker.GetNodesByBlock(chain[1].Hash()), peer.PeerNodeID())
	})

	t.Run("block in the store", func(t *testing.T) {
		peer := test.NewSimplePeer()

		node.responder.ProcessGetBlock(ctx, peer, orphan.Hash())

		messages := peer.Messages()
		require.Len(t, messages, 1)
		assert.Equal(t, orphan.Hash(), messages[0].(*model.BlockMessage).Block.Hash())
	})

	t.Run("unknown block", func(t *testing.T) {
		peer := test.NewSimplePeer()
		unknown := test.NewOrphanBlock(2)

		node.responder.ProcessGetBlock(ctx, peer, unknown.Hash())

		assert.Empty(t, peer.Messages())
		assert.Empty(t, node.tracker.GetNodesByBlock(unknown.Hash()))
	})
}

func TestResponder_ProcessBlockRequest(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t, testSettings())
	peer := test.NewSimplePeer()

	chain := test.GenerateChain(node.genesis, 2)
	node.connectChain(t, chain)

	node.responder.ProcessBlockRequest(ctx, peer, 42, chain[0].Hash())

	messages := peer.MessagesOfType(model.MessageTypeBlockResponse)
	require.Len(t, messages, 1)

	response := messages[0].(*model.BlockResponseMessage)
	assert.Equal(t, uint64(42), response.ID)
	assert.Equal(t, chain[0].Hash(), response.Block.Hash())
}

func TestResponder_ProcessBodyRequest(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t, testSettings())
	peer := test.NewSimplePeer()

	uncle := test.NewChildBlock(node.genesis)
	block := test.NewChildBlock(node.genesis, test.WithUncles(uncle.Header), test.WithTransactions([]byte{0x01}, []byte{0x02}))
	node.connectChain(t, []*model.Block{block})

	node.responder.ProcessBodyRequest(ctx, peer, 7, block.Hash())

	messages := peer.MessagesOfType(model.MessageTypeBodyResponse)
	require.Len(t, messages, 1)

	response := messages[0].(*model.BodyResponseMessage)
	assert.Equal(t, uint64(7), response.ID)
	assert.Equal(t, [][]byte{{0x01}, {0x02}}, response.Transactions)
	require.Len(t, response.Uncles, 1)
	assert.Equal(t, uncle.Hash(), response.Uncles[0].Hash())

	peer.Reset()
	node.responder.ProcessBodyRequest(ctx, peer, 8, test.NewOrphanBlock(1).Hash())
	assert.Empty(t, peer.Messages())
}

func TestResponder_ProcessBlockHeadersRequest(t *testing.T) {
	ctx := context.Background()
	node := newTestNode(t, testSettings())

	chain := test.GenerateChain(node.genesis, 10)
	node.connectChain(t, chain)

	tests := []struct {
		name    string
		from    *model.Block
		count   int
		numbers []uint64
	}{
		{name: "partial walk", from: chain[9], count: 5, numbers: []uint64{10, 9, 8, 7, 6}},
		{name: "single header", from: chain[4], count: 1, numbers: []uint64{5}},
		{name: "stops at genesis", from: chain[2], count: 20, numbers: []uint64{3, 2, 1, 0}},
		{name: "exactly chunk size", from: chain[9], count: 192, numbers: []uint64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peer := test.NewSimplePeer()

			node.responder.ProcessBlockHeadersRequest(ctx, peer, 99, tt.from.Hash(), tt.count)

			messages := peer.Messages()
			require.Len(t, messages, 1)

			response := messages[0].(*model.BlockHeadersResponseMessage)
			assert.Equal(t, uint64(99), response.ID)

			numbers := make([]uint64, 0, len(response.Headers))
			for _, header := range response.Headers {
				numbers = append(numbers, header.Number)
			}

			assert.Equal(t, tt.numbers, numbers)
			assert.Equal(t, tt.from.Hash(), response.Headers[0].Hash())
		})
	}

	t.Run("count above chunk size is dropped", func(t *testing.T) {
		peer := test.NewSimplePeer()

		node.responder.ProcessBlockHeadersRequest(ctx, peer, 1, chain[9].Hash(), testSettings().ChunkSize+1)

		assert.Empty(t, peer.Messages())
	})

	t.Run("unknown hash", func(t *testing.T) {
		peer := test.NewSimplePeer()

		node.responder.ProcessBlockHeadersRequest(ctx, peer, 1, test.NewOrphanBlock(3).Hash(), 5)

		assert.Empty(t, peer.Messages())
	})
}

func TestResponder_ProcessSkeletonRequest(t *testing.T) {
	tests := []struct {
		name        string
		chainLength int
		start       uint64
		numbers     []uint64
	}{
		{name: "300 blocks from 5", chainLength: 300, start: 5, numbers: []uint64{0, 192, 300}},
		{name: "96 blocks from 0", chainLength: 96, start: 0, numbers: []uint64{0, 96}},
		{name: "400 blocks from 197", chainLength: 400, start: 197, numbers: []uint64{192, 384, 400}},
		{name: "best on a step", chainLength: 384, start: 0, numbers: []uint64{0, 192, 384}},
		{name: "genesis only", chainLength: 0, start: 0, numbers: []uint64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			node := newTestNode(t, testSettings())
			peer := test.NewSimplePeer()

			chain := test.GenerateChain(node.genesis, tt.chainLength)
			node.connectChain(t, chain)

			node.responder.ProcessSkeletonRequest(ctx, peer, 5, tt.start)

			messages := peer.Messages()
			require.Len(t, messages, 1)

			response := messages[0].(*model.SkeletonResponseMessage)
			assert.Equal(t, uint64(5), response.ID)

			numbers := make([]uint64, 0, len(response.BlockIdentifiers))
			for _, identifier := range response.BlockIdentifiers {
				numbers = append(numbers, identifier.Number)

				block, err := node.ledger.GetBlockByNumber(ctx, identifier.Number)
				require.NoError(t, err)
				assert.Equal(t, *block.Hash(), identifier.Hash)
			}

			assert.Equal(t, tt.numbers, numbers)
		})
	}

	t.Run("bounded by max skeleton chunks", func(t *testing.T) {
		ctx := context.Background()

		tSettings := testSettings()
		tSettings.SkeletonStep = 10
		tSettings.MaxSkeletonChunks = 2

		node := newTestNode(t, tSettings)
		peer := test.NewSimplePeer()

		node.connectChain(t, test.GenerateChain(node.genesis, 100))

		node.responder.ProcessSkeletonRequest(ctx, peer, 1, 15)

		messages := peer.Messages()
		require.Len(t, messages, 1)

		numbers := make([]uint64, 0)
		for _, identifier := range messages[0].(*model.SkeletonResponseMessage).BlockIdentifiers {
			numbers = append(numbers, identifier.Number)
		}

		assert.Equal(t, []uint64{10, 20, 30}, numbers)
	})

	t.Run("start beyond best", func(t *testing.T) {
		ctx := context.Background()
		node := newTestNode(t, testSettings())
		peer := test.NewSimplePeer()

		node.connectChain(t, test.GenerateChain(node.genesis, 10))

		node.responder.ProcessSkeletonRequest(ctx, peer, 1, 11)

		assert.Empty(t, peer.Messages())
	})
}
