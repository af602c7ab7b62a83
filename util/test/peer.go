package test

import (
	"sync"

	"github.com/bsv-blockchain/blocksync/model"
)

// SimplePeer records every message sent to it.
type SimplePeer struct {
	nodeID model.NodeID

	mu       sync.Mutex
	messages []model.Message
}

func NewSimplePeer() *SimplePeer {
	return &SimplePeer{nodeID: model.NewRandomNodeID()}
}

func NewSimplePeerWithID(nodeID model.NodeID) *SimplePeer {
	return &SimplePeer{nodeID: nodeID}
}

func (p *SimplePeer) PeerNodeID() model.NodeID {
	return p.nodeID
}

func (p *SimplePeer) SendMessage(msg model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = append(p.messages, msg)
}

// Messages returns a copy of what has been sent so far.
func (p *SimplePeer) Messages() []model.Message {
	p.mu.Lock()
	defer p.mu.Unlock()

	messages := make([]model.Message, len(p.messages))
	copy(messages, p.messages)

	return messages
}

func (p *SimplePeer) MessagesOfType(messageType model.MessageType) []model.Message {
	var messages []model.Message

	for _, msg := range p.Messages() {
		if msg.Type() == messageType {
			messages = append(messages, msg)
		}
	}

	return messages
}

func (p *SimplePeer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = nil
}
