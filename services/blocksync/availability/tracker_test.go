package availability

import (
	"testing"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(i int) *chainhash.Hash {
	h := chainhash.DoubleHashH([]byte{byte(i), byte(i >> 8), byte(i >> 16)})
	return &h
}

func nodeOf(i int) model.NodeID {
	var id model.NodeID
	id[0] = byte(i)
	id[1] = byte(i >> 8)

	return id
}

func newTestTracker(t *testing.T, maxPeers, maxBlocks int) *Tracker {
	t.Helper()

	tracker, err := NewTracker(maxPeers, maxBlocks)
	require.NoError(t, err)

	return tracker
}

func TestTracker_Empty(t *testing.T) {
	tracker := newTestTracker(t, DefaultMaxPeers, DefaultMaxBlocks)

	assert.Empty(t, tracker.GetNodesByBlock(hashOf(1)))
	assert.Empty(t, tracker.GetBlocksByNode(nodeOf(1)))
	assert.Equal(t, 0, tracker.BlocksCount())
	assert.Equal(t, 0, tracker.PeersCount())
}

func TestTracker_AddBlockToNode(t *testing.T) {
	tracker := newTestTracker(t, DefaultMaxPeers, DefaultMaxBlocks)

	tracker.AddBlockToNode(hashOf(1), nodeOf(1))
	tracker.AddBlockToNode(hashOf(1), nodeOf(2))
	tracker.AddBlockToNode(hashOf(2), nodeOf(1))
	tracker.AddBlockToNode(hashOf(2), nodeOf(1))

	assert.ElementsMatch(t, []model.NodeID{nodeOf(1), nodeOf(2)}, tracker.GetNodesByBlock(hashOf(1)))
	assert.ElementsMatch(t, []model.NodeID{nodeOf(1)}, tracker.GetNodesByBlock(hashOf(2)))
	assert.ElementsMatch(t, []chainhash.Hash{*hashOf(1), *hashOf(2)}, tracker.GetBlocksByNode(nodeOf(1)))
	assert.ElementsMatch(t, []chainhash.Hash{*hashOf(1)}, tracker.GetBlocksByNode(nodeOf(2)))
	assert.Equal(t, 2, tracker.BlocksCount())
	assert.Equal(t, 2, tracker.PeersCount())
}

func TestTracker_BytesEntryPoints(t *testing.T) {
	tracker := newTestTracker(t, DefaultMaxPeers, DefaultMaxBlocks)

	require.NoError(t, tracker.AddBlockBytesToNode(hashOf(7).CloneBytes(), nodeOf(3)))

	nodes, err := tracker.GetNodesByBlockBytes(hashOf(7).CloneBytes())
	require.NoError(t, err)
	assert.Equal(t, []model.NodeID{nodeOf(3)}, nodes)

	// both entry points share the same keys
	assert.Equal(t, []model.NodeID{nodeOf(3)}, tracker.GetNodesByBlock(hashOf(7)))

	err = tracker.AddBlockBytesToNode([]byte{1, 2, 3}, nodeOf(3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = tracker.GetNodesByBlockBytes([]byte{1})
	require.Error(t, err)
}

func TestTracker_BlockEvictionBound(t *testing.T) {
	tracker := newTestTracker(t, DefaultMaxPeers, DefaultMaxBlocks)

	for i := 0; i < DefaultMaxBlocks+10; i++ {
		tracker.AddBlockToNode(hashOf(i), nodeOf(1))
	}

	assert.Equal(t, DefaultMaxBlocks, tracker.BlocksCount())
	assert.Empty(t, tracker.GetNodesByBlock(hashOf(0)))
	assert.NotEmpty(t, tracker.GetNodesByBlock(hashOf(DefaultMaxBlocks+9)))
}

func TestTracker_PeerEvictionBound(t *testing.T) {
	tracker := newTestTracker(t, DefaultMaxPeers, DefaultMaxBlocks)

	for i := 0; i < DefaultMaxPeers+10; i++ {
		tracker.AddBlockToNode(hashOf(1), nodeOf(i))
	}

	assert.Equal(t, DefaultMaxPeers, tracker.PeersCount())
	assert.Empty(t, tracker.GetBlocksByNode(nodeOf(0)))

	// eviction from the peer cache does not touch the block cache values
	assert.Len(t, tracker.GetNodesByBlock(hashOf(1)), DefaultMaxPeers+10)
}

func TestTracker_ReadCountsAsTouch(t *testing.T) {
	tracker := newTestTracker(t, 3, 3)

	tracker.AddBlockToNode(hashOf(1), nodeOf(1))
	tracker.AddBlockToNode(hashOf(2), nodeOf(2))
	tracker.AddBlockToNode(hashOf(3), nodeOf(3))

	// touch the oldest entries by reading them
	assert.NotEmpty(t, tracker.GetNodesByBlock(hashOf(1)))
	assert.NotEmpty(t, tracker.GetBlocksByNode(nodeOf(1)))

	tracker.AddBlockToNode(hashOf(4), nodeOf(4))

	assert.NotEmpty(t, tracker.GetNodesByBlock(hashOf(1)))
	assert.Empty(t, tracker.GetNodesByBlock(hashOf(2)))
	assert.NotEmpty(t, tracker.GetBlocksByNode(nodeOf(1)))
	assert.Empty(t, tracker.GetBlocksByNode(nodeOf(2)))
}

func TestNewTracker_InvalidCapacity(t *testing.T) {
	_, err := NewTracker(0, 10)
	require.Error(t, err)

	_, err = NewTracker(10, 0)
	require.Error(t, err)
}
