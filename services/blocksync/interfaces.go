package blocksync

import (
	"context"

	"github.com/bsv-blockchain/blocksync/model"
)

// Peer is a remote node we can send messages to. SendMessage must not block.
type Peer interface {
	PeerNodeID() model.NodeID
	SendMessage(msg model.Message)
}

// StatusBroadcaster announces our status to every connected peer.
type StatusBroadcaster interface {
	BroadcastStatus(ctx context.Context, status *model.Status)
}

// SyncResponseHandler receives the responses that belong to a bulk sync in progress.
type SyncResponseHandler interface {
	ProcessBlockHeadersResponse(ctx context.Context, sender Peer, msg *model.BlockHeadersResponseMessage)
	ProcessBodyResponse(ctx context.Context, sender Peer, msg *model.BodyResponseMessage)
	ProcessSkeletonResponse(ctx context.Context, sender Peer, msg *model.SkeletonResponseMessage)
}

// BlockProcessedListener is called on the consumer goroutine after every block decision.
type BlockProcessedListener func(block *model.Block, result *BlockProcessResult)
