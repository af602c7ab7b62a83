package blocksync

import (
	"context"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/stores/ledger"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/holiman/uint256"
)

// StatusResolver builds the status we announce to peers.
type StatusResolver struct {
	logger  ulogger.Logger
	ledger  ledger.Ledger
	genesis *model.Block
}

func NewStatusResolver(logger ulogger.Logger, l ledger.Ledger, genesis *model.Block) *StatusResolver {
	return &StatusResolver{
		logger:  logger,
		ledger:  l,
		genesis: genesis,
	}
}

// CurrentStatus reports the ledger's best block and its total difficulty. While the ledger only
// knows a height floor, the genesis block is reported instead with number 0.
func (s *StatusResolver) CurrentStatus(ctx context.Context) (*model.Status, error) {
	minNumber, err := s.ledger.GetMinNumber(ctx)
	if err != nil {
		s.logger.Warnf("[StatusResolver.CurrentStatus] could not read min number, reporting genesis: %v", err)
		return s.genesisStatus(), nil
	}

	if minNumber != 0 {
		return s.genesisStatus(), nil
	}

	best, err := s.ledger.GetBestBlock(ctx)
	if err != nil {
		s.logger.Warnf("[StatusResolver.CurrentStatus] best block unreadable, reporting genesis: %v", err)
		return s.genesisStatus(), nil
	}

	totalDifficulty, err := s.ledger.GetTotalDifficultyForHash(ctx, best.Hash())
	if err != nil {
		return nil, errors.NewProcessingError("[StatusResolver.CurrentStatus] no total difficulty for best block %s", best.Hash(), err)
	}

	return &model.Status{
		BestBlockNumber:     best.Number(),
		BestBlockHash:       *best.Hash(),
		BestBlockParentHash: *best.ParentHash(),
		TotalDifficulty:     totalDifficulty,
	}, nil
}

func (s *StatusResolver) genesisStatus() *model.Status {
	return &model.Status{
		BestBlockNumber:     0,
		BestBlockHash:       *s.genesis.Hash(),
		BestBlockParentHash: *s.genesis.ParentHash(),
		TotalDifficulty:     new(uint256.Int).Set(s.genesis.Difficulty()),
	}
}
