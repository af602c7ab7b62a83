package blocksync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/services/blocksync/availability"
	"github.com/bsv-blockchain/blocksync/services/blocksync/blockcache"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/stores/blockentry"
	"github.com/bsv-blockchain/blocksync/stores/ledger/memory"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/blocksync/util/test"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testSettings() settings.BlockSyncSettings {
	return settings.BlockSyncSettings{
		ChunkSize:               192,
		MaxSkeletonChunks:       20,
		SkeletonStep:            192,
		UncleGenerationLimit:    7,
		BlocksForPeers:          100,
		TrackerMaxPeers:         100,
		TrackerMaxBlocks:        1000,
		BlockCacheSize:          1000,
		ReleaseInterval:         200,
		ReleaseRange:            1000,
		PendingRequestTTL:       30 * time.Second,
		MessageQueueMaxSize:     100,
		StatusBroadcastInterval: 10 * time.Second,
		QueueWarnThreshold:      2 * time.Second,
		ReceivedBlocksCacheSize: 5000,
		ReceivedBlocksCacheTTL:  2 * time.Minute,
		PeerStatusCacheSize:     100,
	}
}

type testNode struct {
	genesis        *model.Block
	ledger         *memory.Ledger
	store          *blockentry.MemoryStore
	tracker        *availability.Tracker
	blockCache     *blockcache.BlockCache
	blockSync      *BlockSync
	responder      *Responder
	statusResolver *StatusResolver
}

func newTestNode(t *testing.T, tSettings settings.BlockSyncSettings, options ...memory.Option) *testNode {
	t.Helper()

	genesis := test.Genesis()
	logger := ulogger.TestLogger{}

	tracker, err := availability.NewTracker(tSettings.TrackerMaxPeers, tSettings.TrackerMaxBlocks)
	require.NoError(t, err)

	node := &testNode{
		genesis:    genesis,
		ledger:     memory.New(logger, genesis, options...),
		store:      blockentry.New(16),
		tracker:    tracker,
		blockCache: blockcache.New(tSettings.BlockCacheSize),
	}

	node.blockSync, err = New(logger, tSettings, node.ledger, node.store, node.tracker, node.blockCache)
	require.NoError(t, err)

	node.responder = NewResponder(logger, tSettings, node.ledger, node.store, node.tracker, node.blockCache)
	node.statusResolver = NewStatusResolver(logger, node.ledger, genesis)

	return node
}

// connectChain connects blocks straight to the ledger, bypassing the decision engine.
func (n *testNode) connectChain(t *testing.T, blocks []*model.Block) {
	t.Helper()

	for _, block := range blocks {
		result, err := n.ledger.TryToConnect(context.Background(), block)
		require.NoError(t, err)
		require.True(t, result.IsSuccessful(), "block %d: %s", block.Number(), result)
	}
}

func (n *testNode) bestBlock(t *testing.T) *model.Block {
	t.Helper()

	best, err := n.ledger.GetBestBlock(context.Background())
	require.NoError(t, err)

	return best
}

func (n *testNode) newProcessor(options ...ProcessorOption) *MessageProcessor {
	return NewMessageProcessor(ulogger.TestLogger{}, testSettings(), n.blockSync, n.responder, n.statusResolver, options...)
}

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) TryToConnect(ctx context.Context, block *model.Block) (model.ImportResult, error) {
	args := m.Called(ctx, block)
	return args.Get(0).(model.ImportResult), args.Error(1)
}

func (m *mockLedger) GetBestBlock(ctx context.Context) (*model.Block, error) {
	args := m.Called(ctx)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.Block), args.Error(1)
}

func (m *mockLedger) GetBlockByNumber(ctx context.Context, number uint64) (*model.Block, error) {
	args := m.Called(ctx, number)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.Block), args.Error(1)
}

func (m *mockLedger) GetBlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.Block, error) {
	args := m.Called(ctx, hash)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*model.Block), args.Error(1)
}

func (m *mockLedger) GetTotalDifficultyForHash(ctx context.Context, hash *chainhash.Hash) (*uint256.Int, error) {
	args := m.Called(ctx, hash)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*uint256.Int), args.Error(1)
}

func (m *mockLedger) GetMinNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

type mockSyncResponseHandler struct {
	mock.Mock
}

func (m *mockSyncResponseHandler) ProcessBlockHeadersResponse(ctx context.Context, sender Peer, msg *model.BlockHeadersResponseMessage) {
	m.Called(ctx, sender, msg)
}

func (m *mockSyncResponseHandler) ProcessBodyResponse(ctx context.Context, sender Peer, msg *model.BodyResponseMessage) {
	m.Called(ctx, sender, msg)
}

func (m *mockSyncResponseHandler) ProcessSkeletonResponse(ctx context.Context, sender Peer, msg *model.SkeletonResponseMessage) {
	m.Called(ctx, sender, msg)
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	statuses []*model.Status
}

func (b *recordingBroadcaster) BroadcastStatus(_ context.Context, status *model.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.statuses = append(b.statuses, status)
}

func (b *recordingBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.statuses)
}
