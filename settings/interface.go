package settings

import (
	"net/url"
	"time"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

type Settings struct {
	ClientName string
	LogLevel   string
	PrettyLogs bool
	// LedgerURL selects the ledger backend, memory:/// is the only scheme so far.
	LedgerURL *url.URL
	BlockSync BlockSyncSettings
}

type BlockSyncSettings struct {
	// ChunkSize bounds the number of headers served per request.
	ChunkSize int
	// MaxSkeletonChunks times ChunkSize is the furthest ahead of our best block we accept blocks.
	MaxSkeletonChunks int
	// SkeletonStep is the stride between skeleton checkpoints.
	SkeletonStep         int
	UncleGenerationLimit int
	// BlocksForPeers caps how many of our blocks are pushed to a peer whose status is not ahead of us,
	// 0 disables the push.
	BlocksForPeers int

	TrackerMaxPeers  int
	TrackerMaxBlocks int
	BlockCacheSize   int

	// ReleaseInterval is the number of processed blocks between store releases.
	ReleaseInterval int
	ReleaseRange    int

	PendingRequestTTL       time.Duration
	MessageQueueMaxSize     int
	StatusBroadcastInterval time.Duration
	QueueWarnThreshold      time.Duration

	ReceivedBlocksCacheSize int
	ReceivedBlocksCacheTTL  time.Duration
	PeerStatusCacheSize     int
}

// AdvanceLimit is how far beyond our best block a received block may be before it is ignored.
func (s BlockSyncSettings) AdvanceLimit() uint64 {
	chunkSize, err := safeconversion.IntToUint64(s.ChunkSize)
	if err != nil {
		return 0
	}

	maxChunks, err := safeconversion.IntToUint64(s.MaxSkeletonChunks)
	if err != nil {
		return 0
	}

	return chunkSize * maxChunks
}
