package model

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// Status is what a node announces about its best block.
type Status struct {
	BestBlockNumber     uint64
	BestBlockHash       chainhash.Hash
	BestBlockParentHash chainhash.Hash
	TotalDifficulty     *uint256.Int
}

func (s *Status) String() string {
	td := "0"
	if s.TotalDifficulty != nil {
		td = s.TotalDifficulty.Dec()
	}

	return fmt.Sprintf("best %s (%d), parent %s, td %s", s.BestBlockHash, s.BestBlockNumber, s.BestBlockParentHash, td)
}

// BlockIdentifier is a (hash, number) pair, used in skeletons and block announcements.
type BlockIdentifier struct {
	Hash   chainhash.Hash
	Number uint64
}

func (b BlockIdentifier) String() string {
	return fmt.Sprintf("%s (%d)", b.Hash, b.Number)
}
