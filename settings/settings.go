package settings

import (
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
)

func NewSettings() *Settings {
	return &Settings{
		ClientName: getString("clientName", "blocksync"),
		LogLevel:   getString("logLevel", "INFO"),
		PrettyLogs: getBool("PRETTY_LOGS", true),
		LedgerURL:  getURL("ledger_store", "memory:///"),
		BlockSync:  NewBlockSyncSettings(),
	}
}

func NewBlockSyncSettings() BlockSyncSettings {
	return BlockSyncSettings{
		ChunkSize:               getInt("blocksync_chunkSize", 192),
		MaxSkeletonChunks:       getInt("blocksync_maxSkeletonChunks", 20),
		SkeletonStep:            getInt("blocksync_skeletonStep", 192),
		UncleGenerationLimit:    getInt("blocksync_uncleGenerationLimit", 7),
		BlocksForPeers:          getInt("blocksync_blocksForPeers", 100),
		TrackerMaxPeers:         getInt("blocksync_trackerMaxPeers", 100),
		TrackerMaxBlocks:        getInt("blocksync_trackerMaxBlocks", 1000),
		BlockCacheSize:          getInt("blocksync_blockCacheSize", 1000),
		ReleaseInterval:         getInt("blocksync_releaseInterval", 200),
		ReleaseRange:            getInt("blocksync_releaseRange", 1000),
		PendingRequestTTL:       getDuration("blocksync_pendingRequestTTL", 30*time.Second),
		MessageQueueMaxSize:     getInt("blocksync_messageQueueMaxSize", 100),
		StatusBroadcastInterval: getDuration("blocksync_statusBroadcastInterval", 10*time.Second),
		QueueWarnThreshold:      getDuration("blocksync_queueWarnThreshold", 2*time.Second),
		ReceivedBlocksCacheSize: getInt("blocksync_receivedBlocksCacheSize", 5000),
		ReceivedBlocksCacheTTL:  getDuration("blocksync_receivedBlocksCacheTTL", 2*time.Minute),
		PeerStatusCacheSize:     getInt("blocksync_peerStatusCacheSize", 100),
	}
}

// Validate rejects values the block sync components cannot work with.
func (s BlockSyncSettings) Validate() error {
	positive := map[string]int{
		"blocksync_chunkSize":               s.ChunkSize,
		"blocksync_maxSkeletonChunks":       s.MaxSkeletonChunks,
		"blocksync_skeletonStep":            s.SkeletonStep,
		"blocksync_trackerMaxPeers":         s.TrackerMaxPeers,
		"blocksync_trackerMaxBlocks":        s.TrackerMaxBlocks,
		"blocksync_blockCacheSize":          s.BlockCacheSize,
		"blocksync_releaseInterval":         s.ReleaseInterval,
		"blocksync_releaseRange":            s.ReleaseRange,
		"blocksync_messageQueueMaxSize":     s.MessageQueueMaxSize,
		"blocksync_receivedBlocksCacheSize": s.ReceivedBlocksCacheSize,
		"blocksync_peerStatusCacheSize":     s.PeerStatusCacheSize,
	}

	for key, value := range positive {
		if value <= 0 {
			return errors.NewConfigurationError("%s must be positive, got %d", key, value)
		}
	}

	if s.UncleGenerationLimit < 0 {
		return errors.NewConfigurationError("blocksync_uncleGenerationLimit must not be negative, got %d", s.UncleGenerationLimit)
	}

	if s.BlocksForPeers < 0 {
		return errors.NewConfigurationError("blocksync_blocksForPeers must not be negative, got %d", s.BlocksForPeers)
	}

	return nil
}
