package model

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NodeIDSize is the length of a peer identifier.
const NodeIDSize = 64

// NodeID identifies a peer. It is comparable and can be used as a map key.
type NodeID [NodeIDSize]byte

func NewNodeIDFromBytes(b []byte) (NodeID, error) {
	var id NodeID

	if len(b) != NodeIDSize {
		return id, fmt.Errorf("node id should be %d bytes long, got %d", NodeIDSize, len(b))
	}

	copy(id[:], b)

	return id, nil
}

func (n NodeID) String() string {
	return hex.EncodeToString(n[:])
}

// ShortString is the first 8 bytes in hex, enough to tell peers apart in logs.
func (n NodeID) ShortString() string {
	return hex.EncodeToString(n[:8])
}

// NewRandomNodeID fills a NodeID with random uuid bytes. It is meant for tests and simulations,
// real peers derive their id from their public key.
func NewRandomNodeID() NodeID {
	var id NodeID

	for i := 0; i < NodeIDSize; i += 16 {
		u := uuid.New()
		copy(id[i:], u[:])
	}

	return id
}
