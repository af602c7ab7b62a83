package main

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/services/blocksync"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/stores/ledger"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/google/uuid"
)

// simNode is one in-process node: a memory ledger behind a block sync server.
type simNode struct {
	name    string
	id      model.NodeID
	logger  ulogger.Logger
	genesis *model.Block
	ledger  ledger.Ledger
	server  *blocksync.Server

	mu    sync.RWMutex
	peers []blocksync.Peer

	connected atomic.Int64
	dropped   atomic.Int64
}

func newSimNode(name string, logger ulogger.Logger, tSettings *settings.Settings, genesis *model.Block) (*simNode, error) {
	sessionID := uuid.New()

	n := &simNode{
		name:    name,
		id:      nodeIDFromUUID(sessionID),
		logger:  logger.New(name),
		genesis: genesis,
	}

	l, err := ledger.NewLedger(n.logger, tSettings.LedgerURL, genesis)
	if err != nil {
		return nil, err
	}

	n.ledger = l
	n.server = blocksync.NewServer(n.logger, tSettings, n.ledger, genesis,
		blocksync.WithStatusBroadcaster(n),
		blocksync.WithBlockProcessedListener(n.onBlockProcessed),
	)

	n.logger.Debugf("[%s] session %s, node id %s, ledger %s", name, sessionID, n.id.ShortString(), tSettings.LedgerURL)

	return n, nil
}

// nodeIDFromUUID spreads the uuid over the node id so short forms differ between nodes.
func nodeIDFromUUID(id uuid.UUID) model.NodeID {
	var nodeID model.NodeID

	for i := 0; i < len(nodeID); i += len(id) {
		copy(nodeID[i:], id[:])
	}

	return nodeID
}

func (n *simNode) addPeer(peer blocksync.Peer) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.peers = append(n.peers, peer)
}

func (n *simNode) BroadcastStatus(_ context.Context, status *model.Status) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, peer := range n.peers {
		peer.SendMessage(&model.StatusMessage{Status: status})
	}
}

func (n *simNode) onBlockProcessed(block *model.Block, result *blocksync.BlockProcessResult) {
	if !result.WasConnected() {
		return
	}

	accepted := int64(0)

	for _, importResult := range result.ImportResults {
		if importResult.IsSuccessful() {
			accepted++
		}
	}

	total := n.connected.Add(accepted)

	if result.Outcome == blocksync.OutcomeConnectedRecursive {
		n.logger.Infof("[%s] block %d connected %d stored descendants, %d connected so far", n.name, block.Number(), accepted-1, total)
	}
}

func (n *simNode) bestBlock(ctx context.Context) (*model.Block, error) {
	return n.ledger.GetBestBlock(ctx)
}

// localPeer is how one node sees the other. Messages sent to it are posted to the remote
// node's processor with the local node as sender.
type localPeer struct {
	local  *simNode
	remote *simNode
}

func connectNodes(a, b *simNode) {
	a.addPeer(&localPeer{local: a, remote: b})
	b.addPeer(&localPeer{local: b, remote: a})
}

func (p *localPeer) PeerNodeID() model.NodeID {
	return p.remote.id
}

func (p *localPeer) SendMessage(msg model.Message) {
	reply := &localPeer{local: p.remote, remote: p.local}

	if !p.remote.server.Processor().PostMessage(reply, msg) {
		p.local.dropped.Add(1)
		p.local.logger.Debugf("[%s] %s to %s was dropped", p.local.name, msg.Type(), p.remote.name)
	}
}
