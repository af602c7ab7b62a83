package memory

import (
	"context"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/holiman/uint256"
)

func (l *Ledger) TryToConnect(_ context.Context, block *model.Block) (model.ImportResult, error) {
	hash := *block.Hash()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.blocks[hash]; ok {
		return model.Exist, nil
	}

	parent, ok := l.blocks[*block.ParentHash()]
	if !ok {
		return model.NoParent, nil
	}

	if block.Number() != parent.block.Number()+1 {
		l.logger.Warnf("[TryToConnect][%s] block number %d does not follow parent number %d", block.Hash(), block.Number(), parent.block.Number())
		return model.InvalidBlock, nil
	}

	if l.validator != nil {
		if err := l.validator(block); err != nil {
			l.logger.Warnf("[TryToConnect][%s] block failed validation: %v", block.Hash(), err)
			return model.InvalidBlock, nil
		}
	}

	e := &entry{
		block:           block,
		totalDifficulty: new(uint256.Int).Add(parent.totalDifficulty, block.Difficulty()),
	}

	l.blocks[hash] = e

	if e.totalDifficulty.Cmp(l.best.totalDifficulty) <= 0 {
		return model.ImportedNotBest, nil
	}

	l.reorganize(e)

	return model.ImportedBest, nil
}

// reorganize makes newBest the tip of the canonical chain. Must be called with the write lock held.
func (l *Ledger) reorganize(newBest *entry) {
	oldBestNumber := l.best.block.Number()

	for number := newBest.block.Number() + 1; number <= oldBestNumber; number++ {
		delete(l.canonical, number)
	}

	current := newBest
	for current != nil {
		number := current.block.Number()
		hash := *current.block.Hash()

		if canonicalHash, ok := l.canonical[number]; ok && canonicalHash == hash {
			break
		}

		l.canonical[number] = hash

		current = l.blocks[*current.block.ParentHash()]
	}

	if *l.best.block.Hash() != *newBest.block.ParentHash() {
		l.logger.Infof("[TryToConnect] reorganized from %s to %s", l.best.block, newBest.block)
	}

	l.best = newBest
}
