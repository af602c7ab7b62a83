// Package memory is a fork aware ledger kept entirely in memory.
//
// Every connected block is kept, whichever branch it is on. The canonical chain is the branch
// with the highest total difficulty, ties keep the current best block.
package memory

import (
	"sync"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

type entry struct {
	block           *model.Block
	totalDifficulty *uint256.Int
}

// Validator rejects a block before it is connected.
type Validator func(block *model.Block) error

type Option func(*Ledger)

// WithValidator makes TryToConnect return InvalidBlock whenever validator returns an error.
func WithValidator(validator Validator) Option {
	return func(l *Ledger) {
		l.validator = validator
	}
}

// WithMinNumber sets the number returned by GetMinNumber.
func WithMinNumber(minNumber uint64) Option {
	return func(l *Ledger) {
		l.minNumber = minNumber
	}
}

type Ledger struct {
	logger    ulogger.Logger
	mu        sync.RWMutex
	blocks    map[chainhash.Hash]*entry
	canonical map[uint64]chainhash.Hash
	best      *entry
	minNumber uint64
	validator Validator
}

func New(logger ulogger.Logger, genesis *model.Block, options ...Option) *Ledger {
	genesisEntry := &entry{
		block:           genesis,
		totalDifficulty: new(uint256.Int).Set(genesis.Difficulty()),
	}

	l := &Ledger{
		logger:    logger,
		blocks:    map[chainhash.Hash]*entry{*genesis.Hash(): genesisEntry},
		canonical: map[uint64]chainhash.Hash{genesis.Number(): *genesis.Hash()},
		best:      genesisEntry,
	}

	for _, o := range options {
		o(l)
	}

	return l
}

// Size is the number of blocks known on any branch.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}
