// Package availability remembers which peers announced or asked for which blocks.
//
// Two bounded LRU caches are kept, one keyed by block and one keyed by peer. Each evicts on its
// own, so a peer evicted from the peer cache may still be listed against a block.
package availability

import (
	"sync"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultMaxPeers  = 100
	DefaultMaxBlocks = 1000
)

type nodeSet map[model.NodeID]struct{}

type blockSet map[chainhash.Hash]struct{}

type Tracker struct {
	mu           sync.Mutex
	nodesByBlock *simplelru.LRU[chainhash.Hash, nodeSet]
	blocksByNode *simplelru.LRU[model.NodeID, blockSet]
}

func NewTracker(maxPeers, maxBlocks int) (*Tracker, error) {
	nodesByBlock, err := simplelru.NewLRU[chainhash.Hash, nodeSet](maxBlocks, nil)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid tracker block capacity %d", maxBlocks, err)
	}

	blocksByNode, err := simplelru.NewLRU[model.NodeID, blockSet](maxPeers, nil)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid tracker peer capacity %d", maxPeers, err)
	}

	return &Tracker{
		nodesByBlock: nodesByBlock,
		blocksByNode: blocksByNode,
	}, nil
}

// AddBlockToNode records that nodeID has, or wants, the block. Both keys count as accessed.
func (t *Tracker) AddBlockToNode(hash *chainhash.Hash, nodeID model.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes, ok := t.nodesByBlock.Get(*hash)
	if !ok {
		nodes = make(nodeSet)
		t.nodesByBlock.Add(*hash, nodes)
	}

	nodes[nodeID] = struct{}{}

	blocks, ok := t.blocksByNode.Get(nodeID)
	if !ok {
		blocks = make(blockSet)
		t.blocksByNode.Add(nodeID, blocks)
	}

	blocks[*hash] = struct{}{}
}

// AddBlockBytesToNode is AddBlockToNode for a raw 32 byte hash.
func (t *Tracker) AddBlockBytesToNode(hashBytes []byte, nodeID model.NodeID) error {
	hash, err := chainhash.NewHash(hashBytes)
	if err != nil {
		return errors.NewInvalidArgumentError("invalid block hash", err)
	}

	t.AddBlockToNode(hash, nodeID)

	return nil
}

// GetNodesByBlock returns an empty slice for unknown or evicted blocks.
func (t *Tracker) GetNodesByBlock(hash *chainhash.Hash) []model.NodeID {
	t.mu.Lock()
	defer t.mu.Unlock()

	nodes, _ := t.nodesByBlock.Get(*hash)

	result := make([]model.NodeID, 0, len(nodes))
	for nodeID := range nodes {
		result = append(result, nodeID)
	}

	return result
}

func (t *Tracker) GetNodesByBlockBytes(hashBytes []byte) ([]model.NodeID, error) {
	hash, err := chainhash.NewHash(hashBytes)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid block hash", err)
	}

	return t.GetNodesByBlock(hash), nil
}

// GetBlocksByNode returns an empty slice for unknown or evicted peers.
func (t *Tracker) GetBlocksByNode(nodeID model.NodeID) []chainhash.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()

	blocks, _ := t.blocksByNode.Get(nodeID)

	result := make([]chainhash.Hash, 0, len(blocks))
	for hash := range blocks {
		result = append(result, hash)
	}

	return result
}

func (t *Tracker) BlocksCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.nodesByBlock.Len()
}

func (t *Tracker) PeersCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.blocksByNode.Len()
}
