package blocksync

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/bsv-blockchain/blocksync/model"
	"github.com/bsv-blockchain/blocksync/settings"
	"github.com/bsv-blockchain/blocksync/ulogger"
	"github.com/bsv-blockchain/blocksync/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/jellydator/ttlcache/v3"
	"github.com/looplab/fsm"
)

const (
	StateStopped = "STOPPED"
	StateRunning = "RUNNING"

	eventStart = "START"
	eventStop  = "STOP"

	maintenanceInterval = time.Second
)

type queuedMessage struct {
	sender   Peer
	msg      model.Message
	queuedAt time.Time
}

type ProcessorOption func(*MessageProcessor)

func WithStatusBroadcaster(broadcaster StatusBroadcaster) ProcessorOption {
	return func(p *MessageProcessor) {
		p.broadcaster = broadcaster
	}
}

func WithSyncResponseHandler(handler SyncResponseHandler) ProcessorOption {
	return func(p *MessageProcessor) {
		p.syncHandler = handler
	}
}

func WithBlockProcessedListener(listener BlockProcessedListener) ProcessorOption {
	return func(p *MessageProcessor) {
		p.listener = listener
	}
}

// MessageProcessor queues peer messages and handles them one at a time on a single consumer
// goroutine. PostMessage never blocks.
type MessageProcessor struct {
	logger         ulogger.Logger
	settings       settings.BlockSyncSettings
	blockSync      *BlockSync
	responder      *Responder
	statusResolver *StatusResolver
	broadcaster    StatusBroadcaster
	syncHandler    SyncResponseHandler
	listener       BlockProcessedListener

	queue          *util.LockFreeQ[queuedMessage]
	wake           chan struct{}
	queuedPerPeer  *util.SyncedSwissMap[model.NodeID, int]
	receivedBlocks *ttlcache.Cache[chainhash.Hash, struct{}]

	// processingMu serialises queued and direct ProcessMessage calls.
	processingMu sync.Mutex

	lifecycleMu   sync.Mutex
	state         *fsm.FSM
	quit          chan struct{}
	done          chan struct{}
	lastBroadcast time.Time
}

func NewMessageProcessor(logger ulogger.Logger, tSettings settings.BlockSyncSettings, blockSync *BlockSync, responder *Responder,
	statusResolver *StatusResolver, options ...ProcessorOption) *MessageProcessor {
	initPrometheusMetrics()

	p := &MessageProcessor{
		logger:         logger,
		settings:       tSettings,
		blockSync:      blockSync,
		responder:      responder,
		statusResolver: statusResolver,
		queue:          util.NewLockFreeQ[queuedMessage](),
		wake:           make(chan struct{}, 1),
		queuedPerPeer:  util.NewSyncedSwissMap[model.NodeID, int](64),
		receivedBlocks: ttlcache.New[chainhash.Hash, struct{}](
			ttlcache.WithTTL[chainhash.Hash, struct{}](tSettings.ReceivedBlocksCacheTTL),
			ttlcache.WithCapacity[chainhash.Hash, struct{}](uint64(max(tSettings.ReceivedBlocksCacheSize, 1))),
		),
		state: newProcessorFSM(),
	}

	for _, option := range options {
		option(p)
	}

	return p
}

func newProcessorFSM() *fsm.FSM {
	return fsm.NewFSM(
		StateStopped,
		fsm.Events{
			{Name: eventStart, Src: []string{StateStopped}, Dst: StateRunning},
			{Name: eventStop, Src: []string{StateRunning}, Dst: StateStopped},
		},
		fsm.Callbacks{},
	)
}

// PostMessage queues msg and returns whether it was accepted. Messages are dropped when the
// sender already has MessageQueueMaxSize messages queued, or when the same block arrived
// within ReceivedBlocksCacheTTL. Messages posted while stopped are kept until Start.
func (p *MessageProcessor) PostMessage(sender Peer, msg model.Message) bool {
	if msg == nil {
		return false
	}

	if sender != nil && !p.reserveSlot(sender.PeerNodeID()) {
		p.logger.Debugf("[MessageProcessor.PostMessage] peer %s exceeded its queue quota, dropping %s", sender.PeerNodeID().ShortString(), msg.Type())
		prometheusBlockSyncMessagesDropped.WithLabelValues("quota").Inc()

		return false
	}

	// only blocks that made it past the quota count as received
	if blockMsg, ok := msg.(*model.BlockMessage); ok && blockMsg.Block != nil && blockMsg.Block.Header != nil {
		if _, found := p.receivedBlocks.GetOrSet(*blockMsg.Block.Hash(), struct{}{}); found {
			if sender != nil {
				p.releaseSlot(sender.PeerNodeID())
			}

			prometheusBlockSyncMessagesDropped.WithLabelValues("duplicate").Inc()

			return false
		}
	}

	p.queue.Enqueue(queuedMessage{sender: sender, msg: msg, queuedAt: time.Now()})
	prometheusBlockSyncQueueLength.Inc()

	select {
	case p.wake <- struct{}{}:
	default:
	}

	return true
}

// ProcessMessage handles msg on the calling goroutine, serialised with the consumer.
func (p *MessageProcessor) ProcessMessage(ctx context.Context, sender Peer, msg model.Message) {
	if msg == nil {
		return
	}

	p.processingMu.Lock()
	defer p.processingMu.Unlock()

	p.processMessage(ctx, sender, msg)

	prometheusBlockSyncMessagesProcessed.WithLabelValues(msg.Type().String()).Inc()
}

func (p *MessageProcessor) processMessage(ctx context.Context, sender Peer, msg model.Message) {
	switch m := msg.(type) {
	case *model.StatusMessage:
		p.blockSync.ProcessStatus(ctx, sender, m.Status)

	case *model.GetBlockMessage:
		if p.requireSender(sender, msg) {
			p.responder.ProcessGetBlock(ctx, sender, &m.BlockHash)
		}

	case *model.BlockMessage:
		p.processBlock(ctx, sender, m.Block)

	case *model.BlockRequestMessage:
		if p.requireSender(sender, msg) {
			p.responder.ProcessBlockRequest(ctx, sender, m.ID, &m.BlockHash)
		}

	case *model.BlockResponseMessage:
		p.processBlock(ctx, sender, m.Block)

	case *model.BlockHeadersRequestMessage:
		if p.requireSender(sender, msg) {
			p.responder.ProcessBlockHeadersRequest(ctx, sender, m.ID, &m.BlockHash, m.Count)
		}

	case *model.BlockHeadersResponseMessage:
		p.blockSync.ProcessBlockHeaders(ctx, sender, m.Headers)

		if p.syncHandler != nil {
			p.syncHandler.ProcessBlockHeadersResponse(ctx, sender, m)
		}

	case *model.BodyRequestMessage:
		if p.requireSender(sender, msg) {
			p.responder.ProcessBodyRequest(ctx, sender, m.ID, &m.BlockHash)
		}

	case *model.BodyResponseMessage:
		if p.syncHandler != nil {
			p.syncHandler.ProcessBodyResponse(ctx, sender, m)
		}

	case *model.SkeletonRequestMessage:
		if p.requireSender(sender, msg) {
			p.responder.ProcessSkeletonRequest(ctx, sender, m.ID, m.StartNumber)
		}

	case *model.SkeletonResponseMessage:
		if p.syncHandler != nil {
			p.syncHandler.ProcessSkeletonResponse(ctx, sender, m)
		}

	case *model.NewBlockHashesMessage:
		p.blockSync.ProcessNewBlockHashes(ctx, sender, m.BlockIdentifiers)

	default:
		p.logger.Warnf("[MessageProcessor.processMessage] unsupported message type %s", msg.Type())
	}
}

func (p *MessageProcessor) processBlock(ctx context.Context, sender Peer, block *model.Block) {
	if block == nil || block.Header == nil {
		p.logger.Debugf("[MessageProcessor.processBlock] dropping empty block message")
		return
	}

	result := p.blockSync.ProcessBlock(ctx, sender, block)

	if p.listener != nil {
		p.listener(block, result)
	}
}

func (p *MessageProcessor) requireSender(sender Peer, msg model.Message) bool {
	if sender == nil {
		p.logger.Debugf("[MessageProcessor] dropping %s without a sender to answer", msg.Type())
		return false
	}

	return true
}

// Start launches the consumer. Starting a running processor is an error.
func (p *MessageProcessor) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.state.Can(eventStart) {
		return errors.NewStateTransitionError("[MessageProcessor.Start] cannot start from %s", p.state.Current())
	}

	if p.done != nil {
		// the previous consumer finishes its current message before a new one takes over
		<-p.done
	}

	if err := p.state.Event(ctx, eventStart); err != nil {
		return errors.NewStateTransitionError("[MessageProcessor.Start] cannot start from %s", p.state.Current(), err)
	}

	p.quit = make(chan struct{})
	p.done = make(chan struct{})

	go p.consume(ctx, p.quit, p.done)

	p.logger.Infof("[MessageProcessor.Start] consumer started")

	return nil
}

// Stop signals the consumer to exit after the message it is handling. Queued messages are kept.
func (p *MessageProcessor) Stop() {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.stopLocked()
}

func (p *MessageProcessor) stopLocked() {
	if err := p.state.Event(context.Background(), eventStop); err != nil {
		return
	}

	close(p.quit)
}

// StopAndWait stops the consumer and waits up to timeout for it to exit. It returns false when
// the consumer was still busy at the deadline.
func (p *MessageProcessor) StopAndWait(timeout time.Duration) bool {
	p.lifecycleMu.Lock()
	p.stopLocked()
	done := p.done
	p.lifecycleMu.Unlock()

	if done == nil {
		return true
	}

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		p.logger.Warnf("[MessageProcessor.StopAndWait] consumer did not exit within %s", timeout)
		return false
	}
}

func (p *MessageProcessor) State() string {
	return p.state.Current()
}

func (p *MessageProcessor) IsRunning() bool {
	return p.state.Is(StateRunning)
}

// QueueLength is approximate while producers are posting.
func (p *MessageProcessor) QueueLength() int64 {
	return p.queue.Length()
}

func (p *MessageProcessor) consume(ctx context.Context, quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		for {
			select {
			case <-quit:
				return
			default:
			}

			item, ok := p.queue.Dequeue()
			if !ok {
				break
			}

			p.handle(ctx, &item)
		}

		select {
		case <-quit:
			return
		case <-ctx.Done():
			p.logger.Infof("[MessageProcessor.consume] context done, stopping consumer")

			// Stop may race us here, whichever transition wins the other is a no-op
			_ = p.state.Event(context.Background(), eventStop)

			return
		case <-p.wake:
		case <-ticker.C:
			p.maintenance(ctx)
		}
	}
}

func (p *MessageProcessor) handle(ctx context.Context, item *queuedMessage) {
	prometheusBlockSyncQueueLength.Dec()

	if item.sender != nil {
		p.releaseSlot(item.sender.PeerNodeID())
	}

	if waited := time.Since(item.queuedAt); waited > p.settings.QueueWarnThreshold {
		p.logger.Warnf("[MessageProcessor.handle] %s waited %s in the queue", item.msg.Type(), waited)
	}

	defer func() {
		if r := recover(); r != nil {
			prometheusBlockSyncMessagePanics.Inc()
			p.logger.Errorf("[MessageProcessor.handle] panic while processing %s: %v\n%s", item.msg.Type(), r, debug.Stack())
		}
	}()

	p.ProcessMessage(ctx, item.sender, item.msg)
}

func (p *MessageProcessor) maintenance(ctx context.Context) {
	p.receivedBlocks.DeleteExpired()

	if p.broadcaster == nil || p.settings.StatusBroadcastInterval <= 0 {
		return
	}

	if time.Since(p.lastBroadcast) < p.settings.StatusBroadcastInterval {
		return
	}

	status, err := p.statusResolver.CurrentStatus(ctx)
	if err != nil {
		p.logger.Errorf("[MessageProcessor.maintenance] could not resolve status: %v", err)
		return
	}

	p.lastBroadcast = time.Now()
	p.broadcaster.BroadcastStatus(ctx, status)
}

func (p *MessageProcessor) reserveSlot(nodeID model.NodeID) bool {
	if p.settings.MessageQueueMaxSize <= 0 {
		return true
	}

	accepted := false

	p.queuedPerPeer.Update(nodeID, func(count int, _ bool) (int, bool) {
		if count >= p.settings.MessageQueueMaxSize {
			return count, true
		}

		accepted = true

		return count + 1, true
	})

	return accepted
}

func (p *MessageProcessor) releaseSlot(nodeID model.NodeID) {
	if p.settings.MessageQueueMaxSize <= 0 {
		return
	}

	p.queuedPerPeer.Update(nodeID, func(count int, _ bool) (int, bool) {
		if count <= 1 {
			return 0, false
		}

		return count - 1, true
	})
}

func (p *MessageProcessor) String() string {
	return fmt.Sprintf("MessageProcessor[%s, queued %d]", p.state.Current(), p.queue.Length())
}
