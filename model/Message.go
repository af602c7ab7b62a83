package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type MessageType int

const (
	MessageTypeStatus MessageType = iota + 1
	MessageTypeGetBlock
	MessageTypeBlock
	MessageTypeBlockRequest
	MessageTypeBlockResponse
	MessageTypeBlockHeadersRequest
	MessageTypeBlockHeadersResponse
	MessageTypeBodyRequest
	MessageTypeBodyResponse
	MessageTypeSkeletonRequest
	MessageTypeSkeletonResponse
	MessageTypeNewBlockHashes
)

func (m MessageType) String() string {
	switch m {
	case MessageTypeStatus:
		return "STATUS"
	case MessageTypeGetBlock:
		return "GET_BLOCK"
	case MessageTypeBlock:
		return "BLOCK"
	case MessageTypeBlockRequest:
		return "BLOCK_REQUEST"
	case MessageTypeBlockResponse:
		return "BLOCK_RESPONSE"
	case MessageTypeBlockHeadersRequest:
		return "BLOCK_HEADERS_REQUEST"
	case MessageTypeBlockHeadersResponse:
		return "BLOCK_HEADERS_RESPONSE"
	case MessageTypeBodyRequest:
		return "BODY_REQUEST"
	case MessageTypeBodyResponse:
		return "BODY_RESPONSE"
	case MessageTypeSkeletonRequest:
		return "SKELETON_REQUEST"
	case MessageTypeSkeletonResponse:
		return "SKELETON_RESPONSE"
	case MessageTypeNewBlockHashes:
		return "NEW_BLOCK_HASHES"
	default:
		return "UNKNOWN"
	}
}

// Message is the closed set of block sync messages. Only types in this package implement it.
type Message interface {
	Type() MessageType
	message()
}

type StatusMessage struct {
	Status *Status
}

type GetBlockMessage struct {
	BlockHash chainhash.Hash
}

type BlockMessage struct {
	Block *Block
}

type BlockRequestMessage struct {
	ID        uint64
	BlockHash chainhash.Hash
}

type BlockResponseMessage struct {
	ID    uint64
	Block *Block
}

type BlockHeadersRequestMessage struct {
	ID        uint64
	BlockHash chainhash.Hash
	Count     int
}

// BlockHeadersResponseMessage carries headers in descending height order.
type BlockHeadersResponseMessage struct {
	ID      uint64
	Headers []*BlockHeader
}

type BodyRequestMessage struct {
	ID        uint64
	BlockHash chainhash.Hash
}

type BodyResponseMessage struct {
	ID           uint64
	Transactions [][]byte
	Uncles       []*BlockHeader
}

type SkeletonRequestMessage struct {
	ID          uint64
	StartNumber uint64
}

// SkeletonResponseMessage carries checkpoints in ascending height order.
type SkeletonResponseMessage struct {
	ID               uint64
	BlockIdentifiers []BlockIdentifier
}

type NewBlockHashesMessage struct {
	BlockIdentifiers []BlockIdentifier
}

func (*StatusMessage) Type() MessageType               { return MessageTypeStatus }
func (*GetBlockMessage) Type() MessageType             { return MessageTypeGetBlock }
func (*BlockMessage) Type() MessageType                { return MessageTypeBlock }
func (*BlockRequestMessage) Type() MessageType         { return MessageTypeBlockRequest }
func (*BlockResponseMessage) Type() MessageType        { return MessageTypeBlockResponse }
func (*BlockHeadersRequestMessage) Type() MessageType  { return MessageTypeBlockHeadersRequest }
func (*BlockHeadersResponseMessage) Type() MessageType { return MessageTypeBlockHeadersResponse }
func (*BodyRequestMessage) Type() MessageType          { return MessageTypeBodyRequest }
func (*BodyResponseMessage) Type() MessageType         { return MessageTypeBodyResponse }
func (*SkeletonRequestMessage) Type() MessageType      { return MessageTypeSkeletonRequest }
func (*SkeletonResponseMessage) Type() MessageType     { return MessageTypeSkeletonResponse }
func (*NewBlockHashesMessage) Type() MessageType       { return MessageTypeNewBlockHashes }

func (*StatusMessage) message()               {}
func (*GetBlockMessage) message()             {}
func (*BlockMessage) message()                {}
func (*BlockRequestMessage) message()         {}
func (*BlockResponseMessage) message()        {}
func (*BlockHeadersRequestMessage) message()  {}
func (*BlockHeadersResponseMessage) message() {}
func (*BodyRequestMessage) message()          {}
func (*BodyResponseMessage) message()         {}
func (*SkeletonRequestMessage) message()      {}
func (*SkeletonResponseMessage) message()     {}
func (*NewBlockHashesMessage) message()       {}
