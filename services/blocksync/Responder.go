package blocksync

import (
	"context"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/services/blocksync/availability"
	"github.com/bsv-blockchain/blocksync/services/blocksync/blockcache"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/stores/blockentry"
	"github.com/bsv-blockchain/blocksync/stores/ledger"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Responder answers block queries from peers. Requests we cannot or will not serve get no
// response at all.
type Responder struct {
	logger     ulogger.Logger
	settings   settings.BlockSyncSettings
	ledger     ledger.Ledger
	store      blockentry.Store
	tracker    *availability.Tracker
	blockCache *blockcache.BlockCache
}

func NewResponder(logger ulogger.Logger, tSettings settings.BlockSyncSettings, l ledger.Ledger, store blockentry.Store,
	tracker *availability.Tracker, blockCache *blockcache.BlockCache) *Responder {
	return &Responder{
		logger:     logger,
		settings:   tSettings,
		ledger:     l,
		store:      store,
		tracker:    tracker,
		blockCache: blockCache,
	}
}

func (r *Responder) ProcessGetBlock(ctx context.Context, sender Peer, hash *chainhash.Hash) {
	block := r.findBlock(ctx, hash)
	if block == nil {
		return
	}

	r.tracker.AddBlockToNode(hash, sender.PeerNodeID())
	sender.SendMessage(&model.BlockMessage{Block: block})
}

func (r *Responder) ProcessBlockRequest(ctx context.Context, sender Peer, requestID uint64, hash *chainhash.Hash) {
	block := r.findBlock(ctx, hash)
	if block == nil {
		return
	}

	r.tracker.AddBlockToNode(hash, sender.PeerNodeID())
	sender.SendMessage(&model.BlockResponseMessage{ID: requestID, Block: block})
}

func (r *Responder) ProcessBodyRequest(ctx context.Context, sender Peer, requestID uint64, hash *chainhash.Hash) {
	block := r.findBlock(ctx, hash)
	if block == nil {
		return
	}

	sender.SendMessage(&model.BodyResponseMessage{
		ID:           requestID,
		Transactions: block.Transactions,
		Uncles:       block.Uncles,
	})
}

// ProcessBlockHeadersRequest sends up to count headers walking back from hash, highest first.
// A count above ChunkSize is treated as abuse and dropped.
func (r *Responder) ProcessBlockHeadersRequest(ctx context.Context, sender Peer, requestID uint64, hash *chainhash.Hash, count int) {
	if count <= 0 || count > r.settings.ChunkSize {
		r.logger.Debugf("[Responder.ProcessBlockHeadersRequest][%s] dropping request for %d headers from %s", hash, count, sender.PeerNodeID().ShortString())
		return
	}

	block := r.findBlock(ctx, hash)
	if block == nil {
		return
	}

	headers := make([]*model.BlockHeader, 0, count)
	headers = append(headers, block.Header)

	for len(headers) < count {
		block = r.findBlock(ctx, block.ParentHash())
		if block == nil {
			break
		}

		headers = append(headers, block.Header)
	}

	sender.SendMessage(&model.BlockHeadersResponseMessage{ID: requestID, Headers: headers})
}

// ProcessSkeletonRequest sends the canonical block at every multiple of SkeletonStep from the
// step containing startNumber, followed by our best block, bounded to MaxSkeletonChunks steps.
func (r *Responder) ProcessSkeletonRequest(ctx context.Context, sender Peer, requestID uint64, startNumber uint64) {
	if _, err := r.ledger.GetBlockByNumber(ctx, startNumber); err != nil {
		r.logger.Debugf("[Responder.ProcessSkeletonRequest] no block at start %d: %v", startNumber, err)
		return
	}

	best, err := r.ledger.GetBestBlock(ctx)
	if err != nil {
		r.logger.Errorf("[Responder.ProcessSkeletonRequest] could not read best block: %v", err)
		return
	}

	if r.settings.SkeletonStep <= 0 || r.settings.MaxSkeletonChunks <= 0 {
		r.logger.Errorf("[Responder.ProcessSkeletonRequest] invalid skeleton settings, step %d, chunks %d", r.settings.SkeletonStep, r.settings.MaxSkeletonChunks)
		return
	}

	step := uint64(r.settings.SkeletonStep)
	skeletonStart := startNumber / step * step
	maxNumber := min(best.Number(), skeletonStart+step*uint64(r.settings.MaxSkeletonChunks))

	identifiers := make([]model.BlockIdentifier, 0, (maxNumber-skeletonStart)/step+1)

	for number := skeletonStart; number < maxNumber; number += step {
		block, err := r.ledger.GetBlockByNumber(ctx, number)
		if err != nil {
			r.logger.Errorf("[Responder.ProcessSkeletonRequest] canonical block %d missing: %v", number, err)
			return
		}

		identifiers = append(identifiers, block.Identifier())
	}

	last, err := r.ledger.GetBlockByNumber(ctx, maxNumber)
	if err != nil {
		r.logger.Errorf("[Responder.ProcessSkeletonRequest] canonical block %d missing: %v", maxNumber, err)
		return
	}

	identifiers = append(identifiers, last.Identifier())

	sender.SendMessage(&model.SkeletonResponseMessage{ID: requestID, BlockIdentifiers: identifiers})
}

// findBlock looks in the block cache, the orphan store and the ledger, in that order.
func (r *Responder) findBlock(ctx context.Context, hash *chainhash.Hash) *model.Block {
	if block, ok := r.blockCache.GetBlockByHash(hash); ok {
		return block
	}

	if block, ok := r.store.GetBlockByHash(hash); ok {
		return block
	}

	block, err := r.ledger.GetBlockByHash(ctx, hash)
	if err != nil {
		return nil
	}

	return block
}
