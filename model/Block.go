package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

type Block struct {
	Header       *BlockHeader
	Uncles       []*BlockHeader
	Transactions [][]byte

	hash *chainhash.Hash
}

// NewBlock returns a block whose hash is computed once. Blocks are treated as immutable
// after construction.
func NewBlock(header *BlockHeader, uncles []*BlockHeader, transactions [][]byte) *Block {
	return &Block{
		Header:       header,
		Uncles:       uncles,
		Transactions: transactions,
		hash:         header.Hash(),
	}
}

func (b *Block) Hash() *chainhash.Hash {
	if b.hash != nil {
		return b.hash
	}

	return b.Header.Hash()
}

func (b *Block) ParentHash() *chainhash.Hash {
	return b.Header.ParentHash()
}

func (b *Block) Number() uint64 {
	return b.Header.Number
}

func (b *Block) Difficulty() *uint256.Int {
	if b.Header.Difficulty == nil {
		return uint256.NewInt(0)
	}

	return b.Header.Difficulty
}

func (b *Block) Identifier() BlockIdentifier {
	return BlockIdentifier{Hash: *b.Hash(), Number: b.Number()}
}

func (b *Block) String() string {
	return b.Header.String()
}
