package blocksync

import (
	"context"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/services/blocksync/availability"
	"github.com/bsv-blockchain/blocksync/services/blocksync/blockcache"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/stores/blockentry"
	"github.com/bsv-blockchain/blocksync/stores/ledger"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeStored
	OutcomeConnected
	OutcomeConnectedRecursive
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "IGNORED"
	case OutcomeStored:
		return "STORED"
	case OutcomeConnected:
		return "CONNECTED"
	case OutcomeConnectedRecursive:
		return "CONNECTED_RECURSIVE"
	case OutcomeInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}

// BlockProcessResult is the decision taken for one block. ImportResults holds every ledger
// connect attempt made while deciding, including those for descendants taken from the store.
type BlockProcessResult struct {
	Outcome       Outcome
	ImportResults map[chainhash.Hash]model.ImportResult
	Duration      time.Duration
}

// WasConnected reports whether the block itself was accepted by the ledger.
func (r *BlockProcessResult) WasConnected() bool {
	return r.Outcome == OutcomeConnected || r.Outcome == OutcomeConnectedRecursive
}

// BlockSync decides, for each block a peer hands us, whether to ignore, park or connect it.
//
// BlockSync is not safe for concurrent use. The MessageProcessor serialises every call.
type BlockSync struct {
	logger     ulogger.Logger
	settings   settings.BlockSyncSettings
	ledger     ledger.Ledger
	store      blockentry.Store
	tracker    *availability.Tracker
	blockCache *blockcache.BlockCache

	// pending remembers GET_BLOCK requests already sent, keyed by peer and hash.
	pending *cache.Cache
	// peerBest is the last best number each peer announced in a STATUS.
	peerBest *lru.Cache[model.NodeID, uint64]

	processedBlocks uint64
}

func New(logger ulogger.Logger, tSettings settings.BlockSyncSettings, l ledger.Ledger, store blockentry.Store,
	tracker *availability.Tracker, blockCache *blockcache.BlockCache) (*BlockSync, error) {
	initPrometheusMetrics()

	peerBest, err := lru.New[model.NodeID, uint64](tSettings.PeerStatusCacheSize)
	if err != nil {
		return nil, errors.NewConfigurationError("[BlockSync] invalid peer status cache size %d", tSettings.PeerStatusCacheSize, err)
	}

	return &BlockSync{
		logger:     logger,
		settings:   tSettings,
		ledger:     l,
		store:      store,
		tracker:    tracker,
		blockCache: blockCache,
		pending:    cache.New(tSettings.PendingRequestTTL, 2*tSettings.PendingRequestTTL),
		peerBest:   peerBest,
	}, nil
}

// ProcessBlock decides what to do with block. sender may be nil for blocks we produced or loaded
// ourselves, in which case no parent is ever requested.
func (bs *BlockSync) ProcessBlock(ctx context.Context, sender Peer, block *model.Block) *BlockProcessResult {
	start := time.Now()
	result := bs.processBlock(ctx, sender, block)
	result.Duration = time.Since(start)

	prometheusBlockSyncBlockOutcomes.WithLabelValues(result.Outcome.String()).Inc()
	prometheusBlockSyncProcessBlock.Observe(result.Duration.Seconds())
	prometheusBlockSyncStoreSize.Set(float64(bs.store.Size()))

	return result
}

func (bs *BlockSync) processBlock(ctx context.Context, sender Peer, block *model.Block) *BlockProcessResult {
	hash := block.Hash()

	best, err := bs.ledger.GetBestBlock(ctx)
	if err != nil {
		bs.logger.Errorf("[BlockSync.ProcessBlock][%s] could not read best block: %v", hash, err)
		return ignored()
	}

	bs.tryReleaseStore(best.Number())
	bs.store.RemoveHeader(hash)

	if block.Number() > best.Number()+bs.settings.AdvanceLimit() {
		bs.logger.Debugf("[BlockSync.ProcessBlock][%s] block %d too far ahead of best %d, ignoring", hash, block.Number(), best.Number())
		return ignored()
	}

	if sender != nil {
		nodeID := sender.PeerNodeID()
		bs.tracker.AddBlockToNode(hash, nodeID)

		for _, uncle := range block.Uncles {
			bs.tracker.AddBlockToNode(uncle.Hash(), nodeID)
		}

		bs.pending.Delete(pendingKey(nodeID, hash))
	}

	if best.Hash().IsEqual(hash) {
		return ignored()
	}

	if _, err = bs.ledger.GetBlockByHash(ctx, hash); err == nil {
		bs.logger.Debugf("[BlockSync.ProcessBlock][%s] block already in the ledger", hash)
		bs.store.RemoveBlock(hash)

		return ignored()
	} else if !errors.Is(err, errors.ErrBlockNotFound) {
		bs.logger.Errorf("[BlockSync.ProcessBlock][%s] ledger lookup failed: %v", hash, err)
		return ignored()
	}

	return bs.connect(ctx, sender, block)
}

func (bs *BlockSync) connect(ctx context.Context, sender Peer, block *model.Block) *BlockProcessResult {
	hash := block.Hash()

	importResult, err := bs.ledger.TryToConnect(ctx, block)
	if err != nil {
		bs.logger.Errorf("[BlockSync.connect][%s] ledger failed to connect block: %v", hash, err)
		return ignored()
	}

	result := &BlockProcessResult{
		ImportResults: map[chainhash.Hash]model.ImportResult{*hash: importResult},
	}

	switch importResult {
	case model.ImportedBest, model.ImportedNotBest:
		bs.store.RemoveBlock(hash)
		bs.blockCache.AddBlock(block)

		if bs.connectDescendants(ctx, hash, result.ImportResults) > 0 {
			result.Outcome = OutcomeConnectedRecursive
		} else {
			result.Outcome = OutcomeConnected
		}

		bs.logger.Debugf("[BlockSync.connect][%s] connected block %d: %s", hash, block.Number(), importResult)

	case model.NoParent:
		bs.store.SaveBlock(block)
		result.Outcome = OutcomeStored

		// a parent already in the store is itself waiting, its own parent was requested when it arrived
		if sender != nil && !bs.store.HasBlock(block.ParentHash()) {
			bs.requestBlock(sender, block.ParentHash())
		}

		bs.logger.Debugf("[BlockSync.connect][%s] stored orphan block %d, parent %s", hash, block.Number(), block.ParentHash())

	case model.InvalidBlock:
		bs.store.RemoveBlock(hash)
		result.Outcome = OutcomeInvalid

		bs.logger.Warnf("[BlockSync.connect][%s] invalid block %d", hash, block.Number())

	default:
		bs.store.RemoveBlock(hash)
		result.Outcome = OutcomeIgnored
	}

	return result
}

// connectDescendants connects every stored block descending from parent, depth first, and
// returns how many were accepted by the ledger.
func (bs *BlockSync) connectDescendants(ctx context.Context, parent *chainhash.Hash, results map[chainhash.Hash]model.ImportResult) int {
	connected := 0
	stack := []chainhash.Hash{*parent}

	for len(stack) > 0 {
		parentHash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range bs.store.GetBlocksByParentHash(&parentHash) {
			childHash := child.Hash()

			importResult, err := bs.ledger.TryToConnect(ctx, child)
			if err != nil {
				bs.logger.Errorf("[BlockSync.connectDescendants][%s] ledger failed to connect stored block: %v", childHash, err)
				continue
			}

			results[*childHash] = importResult

			switch importResult {
			case model.ImportedBest, model.ImportedNotBest:
				bs.store.RemoveBlock(childHash)
				bs.blockCache.AddBlock(child)

				stack = append(stack, *childHash)
				connected++

			case model.Exist:
				bs.store.RemoveBlock(childHash)
				stack = append(stack, *childHash)

			case model.InvalidBlock:
				bs.store.RemoveBlock(childHash)
				bs.logger.Warnf("[BlockSync.connectDescendants][%s] stored block %d is invalid", childHash, child.Number())

			default:
				bs.logger.Warnf("[BlockSync.connectDescendants][%s] stored block %d still has no parent", childHash, child.Number())
			}
		}
	}

	return connected
}

// ProcessStatus records the peer's best block and asks the peer for it when it is ahead of us.
// Repeating the same status sends at most one request per PendingRequestTTL. A peer that is not
// ahead is sent our canonical blocks from its best number on, at most BlocksForPeers of them.
func (bs *BlockSync) ProcessStatus(ctx context.Context, sender Peer, status *model.Status) {
	if status == nil {
		return
	}

	if sender != nil {
		nodeID := sender.PeerNodeID()
		bs.peerBest.Add(nodeID, status.BestBlockNumber)
		bs.tracker.AddBlockToNode(&status.BestBlockHash, nodeID)
	}

	best, err := bs.ledger.GetBestBlock(ctx)
	if err != nil {
		bs.logger.Errorf("[BlockSync.ProcessStatus] could not read best block: %v", err)
		return
	}

	if status.BestBlockNumber <= best.Number() {
		if sender != nil {
			bs.sendBlocksToPeer(ctx, sender, status.BestBlockNumber, best.Number())
		}

		return
	}

	if sender == nil || !bs.isUnknown(ctx, &status.BestBlockHash) {
		return
	}

	bs.logger.Debugf("[BlockSync.ProcessStatus][%s] peer %s is ahead at %d, we are at %d", status.BestBlockHash,
		sender.PeerNodeID().ShortString(), status.BestBlockNumber, best.Number())

	bs.requestBlock(sender, &status.BestBlockHash)
}

// ProcessNewBlockHashes requests every announced block we know nothing about.
func (bs *BlockSync) ProcessNewBlockHashes(ctx context.Context, sender Peer, identifiers []model.BlockIdentifier) {
	if sender == nil {
		return
	}

	nodeID := sender.PeerNodeID()

	for i := range identifiers {
		hash := &identifiers[i].Hash

		bs.tracker.AddBlockToNode(hash, nodeID)

		if bs.isUnknown(ctx, hash) {
			bs.requestBlock(sender, hash)
		}
	}
}

// ProcessBlockHeaders keeps headers we have no block for and asks the sender for their blocks.
// Headers further ahead than AdvanceLimit are dropped like blocks are.
func (bs *BlockSync) ProcessBlockHeaders(ctx context.Context, sender Peer, headers []*model.BlockHeader) {
	best, err := bs.ledger.GetBestBlock(ctx)
	if err != nil {
		bs.logger.Errorf("[BlockSync.ProcessBlockHeaders] could not read best block: %v", err)
		return
	}

	limit := best.Number() + bs.settings.AdvanceLimit()

	for _, header := range headers {
		if header == nil {
			continue
		}

		hash := header.Hash()

		if header.Number > limit {
			bs.logger.Debugf("[BlockSync.ProcessBlockHeaders][%s] header %d too far ahead of best %d, ignoring", hash, header.Number, best.Number())
			continue
		}

		if sender != nil {
			bs.tracker.AddBlockToNode(hash, sender.PeerNodeID())
		}

		if bs.store.HasHeader(hash) || !bs.isUnknown(ctx, hash) {
			continue
		}

		bs.store.SaveHeader(header)

		if sender != nil {
			bs.requestBlock(sender, hash)
		}
	}
}

// HasBetterBlockToSync reports whether any peer announced a best block above ours.
func (bs *BlockSync) HasBetterBlockToSync(ctx context.Context) bool {
	best, err := bs.ledger.GetBestBlock(ctx)
	if err != nil {
		bs.logger.Errorf("[BlockSync.HasBetterBlockToSync] could not read best block: %v", err)
		return false
	}

	for _, number := range bs.peerBest.Values() {
		if number > best.Number() {
			return true
		}
	}

	return false
}

// PeerBestNumber is the best number nodeID last announced.
func (bs *BlockSync) PeerBestNumber(nodeID model.NodeID) (uint64, bool) {
	return bs.peerBest.Peek(nodeID)
}

// CanBeIgnoredForUnclesRewards reports whether a block at number is too old to be an uncle.
func (bs *BlockSync) CanBeIgnoredForUnclesRewards(ctx context.Context, number uint64) bool {
	best, err := bs.ledger.GetBestBlock(ctx)
	if err != nil {
		bs.logger.Errorf("[BlockSync.CanBeIgnoredForUnclesRewards] could not read best block: %v", err)
		return false
	}

	limit := uint64(0)
	if bs.settings.UncleGenerationLimit > 0 {
		limit = uint64(bs.settings.UncleGenerationLimit)
	}

	// number < best - 1 - limit, without underflow
	return number+1+limit < best.Number()
}

func (bs *BlockSync) Store() blockentry.Store {
	return bs.store
}

func (bs *BlockSync) Tracker() *availability.Tracker {
	return bs.tracker
}

func (bs *BlockSync) isUnknown(ctx context.Context, hash *chainhash.Hash) bool {
	if bs.store.HasBlock(hash) {
		return false
	}

	if _, ok := bs.blockCache.GetBlockByHash(hash); ok {
		return false
	}

	_, err := bs.ledger.GetBlockByHash(ctx, hash)

	return err != nil
}

func (bs *BlockSync) requestBlock(sender Peer, hash *chainhash.Hash) {
	nodeID := sender.PeerNodeID()

	if err := bs.pending.Add(pendingKey(nodeID, hash), struct{}{}, cache.DefaultExpiration); err != nil {
		bs.logger.Debugf("[BlockSync.requestBlock][%s] already requested from %s", hash, nodeID.ShortString())
		return
	}

	sender.SendMessage(&model.GetBlockMessage{BlockHash: *hash})
}

func (bs *BlockSync) sendBlocksToPeer(ctx context.Context, sender Peer, from, bestNumber uint64) {
	if bs.settings.BlocksForPeers <= 0 {
		return
	}

	nodeID := sender.PeerNodeID()

	known := make(map[chainhash.Hash]struct{})
	for _, hash := range bs.tracker.GetBlocksByNode(nodeID) {
		known[hash] = struct{}{}
	}

	last := min(bestNumber, from+uint64(bs.settings.BlocksForPeers)-1)
	sent := 0

	for number := from; number <= last; number++ {
		block, err := bs.ledger.GetBlockByNumber(ctx, number)
		if err != nil {
			bs.logger.Debugf("[BlockSync.sendBlocksToPeer] no canonical block %d: %v", number, err)
			continue
		}

		if _, ok := known[*block.Hash()]; ok {
			continue
		}

		bs.tracker.AddBlockToNode(block.Hash(), nodeID)
		sender.SendMessage(&model.BlockMessage{Block: block})
		sent++
	}

	if sent > 0 {
		bs.logger.Debugf("[BlockSync.sendBlocksToPeer] sent %d blocks from %d to peer %s", sent, from, nodeID.ShortString())
	}
}

func (bs *BlockSync) tryReleaseStore(bestNumber uint64) {
	bs.processedBlocks++

	if bs.settings.ReleaseInterval <= 0 || bs.processedBlocks%uint64(bs.settings.ReleaseInterval) != 0 {
		return
	}

	if bs.settings.ReleaseRange <= 0 {
		return
	}

	minimal, ok := bs.lowestStoredHeight()
	if !ok {
		return
	}

	releaseRange := uint64(bs.settings.ReleaseRange)

	if bestNumber <= releaseRange || minimal >= bestNumber-releaseRange {
		return
	}

	released := bs.store.ReleaseRange(minimal, minimal+releaseRange)
	prometheusBlockSyncStoreReleased.Add(float64(released))

	bs.logger.Infof("[BlockSync.tryReleaseStore] released %d stale blocks and headers between %d and %d, best is %d",
		released, minimal, minimal+releaseRange, bestNumber)
}

// lowestStoredHeight is the lowest height of any stored block or header.
func (bs *BlockSync) lowestStoredHeight() (uint64, bool) {
	hasBlocks := bs.store.Size() > 0
	hasHeaders := bs.store.HeadersSize() > 0

	switch {
	case hasBlocks && hasHeaders:
		return min(bs.store.MinimalHeight(), bs.store.MinimalHeaderHeight()), true
	case hasBlocks:
		return bs.store.MinimalHeight(), true
	case hasHeaders:
		return bs.store.MinimalHeaderHeight(), true
	default:
		return 0, false
	}
}

func pendingKey(nodeID model.NodeID, hash *chainhash.Hash) string {
	return nodeID.String() + ":" + hash.String()
}

func ignored() *BlockProcessResult {
	return &BlockProcessResult{
		Outcome:       OutcomeIgnored,
		ImportResults: map[chainhash.Hash]model.ImportResult{},
	}
}
