// Package test contains helpers shared by the block sync tests.
package test

import (
	"sync/atomic"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// nonce keeps every generated block unique, also across forks built from the same parent.
var nonce atomic.Uint32

type blockOptions struct {
	difficulty   uint64
	uncles       []*model.BlockHeader
	transactions [][]byte
}

type BlockOption func(*blockOptions)

func WithDifficulty(difficulty uint64) BlockOption {
	return func(o *blockOptions) {
		o.difficulty = difficulty
	}
}

func WithUncles(uncles ...*model.BlockHeader) BlockOption {
	return func(o *blockOptions) {
		o.uncles = uncles
	}
}

func WithTransactions(transactions ...[]byte) BlockOption {
	return func(o *blockOptions) {
		o.transactions = transactions
	}
}

// Genesis returns a deterministic genesis block.
func Genesis() *model.Block {
	merkle := chainhash.DoubleHashH([]byte("genesis"))

	return model.NewBlock(&model.BlockHeader{
		Version:        1,
		HashPrevBlock:  &chainhash.Hash{},
		HashMerkleRoot: &merkle,
		Number:         0,
		Difficulty:     uint256.NewInt(1),
		Timestamp:      1231006505,
	}, nil, nil)
}

// NewChildBlock builds a block on top of parent.
func NewChildBlock(parent *model.Block, options ...BlockOption) *model.Block {
	opts := &blockOptions{difficulty: 1}
	for _, o := range options {
		o(opts)
	}

	n := nonce.Add(1)
	merkle := chainhash.DoubleHashH(append(parent.Hash().CloneBytes(), byte(n), byte(n>>8), byte(n>>16), byte(n>>24)))

	return model.NewBlock(&model.BlockHeader{
		Version:        1,
		HashPrevBlock:  parent.Hash(),
		HashMerkleRoot: &merkle,
		Number:         parent.Number() + 1,
		Difficulty:     uint256.NewInt(opts.difficulty),
		Timestamp:      parent.Header.Timestamp + 600,
		Nonce:          n,
	}, opts.uncles, opts.transactions)
}

// GenerateChain returns n blocks extending parent, in ascending height order.
func GenerateChain(parent *model.Block, n int, options ...BlockOption) []*model.Block {
	blocks := make([]*model.Block, 0, n)

	for i := 0; i < n; i++ {
		parent = NewChildBlock(parent, options...)
		blocks = append(blocks, parent)
	}

	return blocks
}

// NewOrphanBlock returns a block at number whose parent nobody knows.
func NewOrphanBlock(number uint64) *model.Block {
	n := nonce.Add(1)
	parent := chainhash.DoubleHashH([]byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24), 0xff})

	return model.NewBlock(&model.BlockHeader{
		Version:        1,
		HashPrevBlock:  &parent,
		HashMerkleRoot: &chainhash.Hash{},
		Number:         number,
		Difficulty:     uint256.NewInt(1),
		Nonce:          n,
	}, nil, nil)
}
