package blockentry

import (
	"sync"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

type hashSet map[chainhash.Hash]struct{}

// MemoryStore is the in-memory Store. Writes are expected from a single goroutine, reads may
// come from any goroutine.
type MemoryStore struct {
	mu       sync.RWMutex
	blocks   *swiss.Map[chainhash.Hash, *model.Block]
	headers  *swiss.Map[chainhash.Hash, *model.BlockHeader]
	byNumber heightIndex
	byParent map[chainhash.Hash]hashSet

	// headersByNumber lets ReleaseRange drop headers whose block never arrived
	headersByNumber heightIndex
}

func New(initialSize uint32) *MemoryStore {
	return &MemoryStore{
		blocks:          swiss.NewMap[chainhash.Hash, *model.Block](initialSize),
		headers:         swiss.NewMap[chainhash.Hash, *model.BlockHeader](initialSize),
		byNumber:        newHeightIndex(),
		headersByNumber: newHeightIndex(),
		byParent:        make(map[chainhash.Hash]hashSet),
	}
}

// SaveBlock inserts the block, replacing any block stored under the same hash.
func (s *MemoryStore) SaveBlock(block *model.Block) {
	hash := *block.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.blocks.Get(hash); ok {
		s.unindex(hash, existing)
	}

	s.blocks.Put(hash, block)
	s.byNumber.add(block.Number(), hash)

	parentHash := *block.ParentHash()

	children, ok := s.byParent[parentHash]
	if !ok {
		children = make(hashSet)
		s.byParent[parentHash] = children
	}

	children[hash] = struct{}{}
}

// SaveHeader keeps the header in its own index. It does not count towards Size and is not
// returned by the block height or parent lookups.
func (s *MemoryStore) SaveHeader(header *model.BlockHeader) {
	hash := *header.Hash()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.headers.Get(hash); ok {
		s.headersByNumber.remove(existing.Number, hash)
	}

	s.headers.Put(hash, header)
	s.headersByNumber.add(header.Number, hash)
}

func (s *MemoryStore) RemoveBlock(hash *chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeBlock(*hash)
}

func (s *MemoryStore) RemoveHeader(hash *chainhash.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeHeader(*hash)
}

func (s *MemoryStore) GetBlockByHash(hash *chainhash.Hash) (*model.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blocks.Get(*hash)
}

func (s *MemoryStore) GetHeaderByHash(hash *chainhash.Hash) (*model.BlockHeader, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.headers.Get(*hash)
}

// GetBlocksByNumber returns an empty slice when nothing is stored at number.
func (s *MemoryStore) GetBlocksByNumber(number uint64) []*model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.byNumber.get(number))
}

// GetBlocksByParentHash returns an empty slice when no stored block has parentHash as parent.
func (s *MemoryStore) GetBlocksByParentHash(parentHash *chainhash.Hash) []*model.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.collect(s.byParent[*parentHash])
}

func (s *MemoryStore) HasBlock(hash *chainhash.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blocks.Has(*hash)
}

func (s *MemoryStore) HasHeader(hash *chainhash.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.headers.Has(*hash)
}

// MinimalHeight is the lowest stored block height, 0 when no block is stored.
func (s *MemoryStore) MinimalHeight() uint64 {
	minimal, _ := s.bounds(&s.byNumber)
	return minimal
}

// MaximumHeight is the highest stored block height, 0 when no block is stored.
func (s *MemoryStore) MaximumHeight() uint64 {
	_, maximum := s.bounds(&s.byNumber)
	return maximum
}

// MinimalHeaderHeight is the lowest stored header height, 0 when no header is stored.
func (s *MemoryStore) MinimalHeaderHeight() uint64 {
	minimal, _ := s.bounds(&s.headersByNumber)
	return minimal
}

func (s *MemoryStore) bounds(index *heightIndex) (uint64, uint64) {
	s.mu.RLock()

	if !index.stale {
		minimal, maximum := index.min, index.max
		s.mu.RUnlock()

		return minimal, maximum
	}

	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	index.refresh()

	return index.min, index.max
}

func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blocks.Count()
}

func (s *MemoryStore) HeadersSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.headers.Count()
}

// ReleaseRange removes every block and header with a height in [low, high] and returns how many
// records were removed.
func (s *MemoryStore) ReleaseRange(low, high uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0

	for _, hash := range s.byNumber.inRange(low, high) {
		if s.removeBlock(hash) {
			removed++
		}
	}

	for _, hash := range s.headersByNumber.inRange(low, high) {
		if s.removeHeader(hash) {
			removed++
		}
	}

	return removed
}

func (s *MemoryStore) removeBlock(hash chainhash.Hash) bool {
	block, ok := s.blocks.Get(hash)
	if !ok {
		return false
	}

	s.blocks.Delete(hash)
	s.unindex(hash, block)

	return true
}

func (s *MemoryStore) removeHeader(hash chainhash.Hash) bool {
	header, ok := s.headers.Get(hash)
	if !ok {
		return false
	}

	s.headers.Delete(hash)
	s.headersByNumber.remove(header.Number, hash)

	return true
}

func (s *MemoryStore) unindex(hash chainhash.Hash, block *model.Block) {
	s.byNumber.remove(block.Number(), hash)

	parentHash := *block.ParentHash()

	if children, ok := s.byParent[parentHash]; ok {
		delete(children, hash)

		if len(children) == 0 {
			delete(s.byParent, parentHash)
		}
	}
}

func (s *MemoryStore) collect(hashes hashSet) []*model.Block {
	blocks := make([]*model.Block, 0, len(hashes))

	for hash := range hashes {
		if block, ok := s.blocks.Get(hash); ok {
			blocks = append(blocks, block)
		}
	}

	return blocks
}
