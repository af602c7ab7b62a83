package model

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

// BlockHeaderSize is the length in bytes of a serialised block header.
const BlockHeaderSize = 4 + 32 + 32 + 8 + 32 + 4 + 4

type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version uint32

	// Hash of the previous block header in the blockchain.
	HashPrevBlock *chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	HashMerkleRoot *chainhash.Hash

	// Height of the block, genesis is 0.
	Number uint64

	// Difficulty of this block, the chain with most cumulative difficulty wins.
	Difficulty *uint256.Int

	// Time the block was created im unix time.
	Timestamp uint32

	// Nonce used to generate the block.
	Nonce uint32
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize {
		return nil, fmt.Errorf("block header should be %d bytes long, got %d", BlockHeaderSize, len(headerBytes))
	}

	hashPrevBlock, err := chainhash.NewHash(headerBytes[4:36])
	if err != nil {
		return nil, fmt.Errorf("error creating previous block hash from bytes: %s", err.Error())
	}

	hashMerkleRoot, err := chainhash.NewHash(headerBytes[36:68])
	if err != nil {
		return nil, fmt.Errorf("error creating merkle root hash from bytes: %s", err.Error())
	}

	return &BlockHeader{
		Version:        binary.LittleEndian.Uint32(headerBytes[:4]),
		HashPrevBlock:  hashPrevBlock,
		HashMerkleRoot: hashMerkleRoot,
		Number:         binary.LittleEndian.Uint64(headerBytes[68:76]),
		Difficulty:     new(uint256.Int).SetBytes(headerBytes[76:108]),
		Timestamp:      binary.LittleEndian.Uint32(headerBytes[108:112]),
		Nonce:          binary.LittleEndian.Uint32(headerBytes[112:]),
	}, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, fmt.Errorf("error decoding hex string to bytes: %s", err.Error())
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

func (bh *BlockHeader) Hash() *chainhash.Hash {
	hash := chainhash.DoubleHashH(bh.Bytes())
	return &hash
}

// ParentHash never returns nil, a missing previous hash is the zero hash.
func (bh *BlockHeader) ParentHash() *chainhash.Hash {
	if bh.HashPrevBlock == nil {
		return &chainhash.Hash{}
	}

	return bh.HashPrevBlock
}

func (bh *BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)

	binary.LittleEndian.PutUint32(b[:4], bh.Version)

	if bh.HashPrevBlock != nil {
		copy(b[4:36], bh.HashPrevBlock.CloneBytes())
	}

	if bh.HashMerkleRoot != nil {
		copy(b[36:68], bh.HashMerkleRoot.CloneBytes())
	}

	binary.LittleEndian.PutUint64(b[68:76], bh.Number)

	if bh.Difficulty != nil {
		difficulty := bh.Difficulty.Bytes32()
		copy(b[76:108], difficulty[:])
	}

	binary.LittleEndian.PutUint32(b[108:112], bh.Timestamp)
	binary.LittleEndian.PutUint32(b[112:], bh.Nonce)

	return b
}

func (bh *BlockHeader) String() string {
	return fmt.Sprintf("%s (%d)", bh.Hash(), bh.Number)
}
