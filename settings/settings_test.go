package settings

import (
	"testing"
	"time"

	"github.com/bsv-blockchain/blocksync/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSettings_Defaults(t *testing.T) {
	tSettings := NewSettings()
	require.NotNil(t, tSettings)
	require.NotNil(t, tSettings.LedgerURL)
	assert.Equal(t, "memory", tSettings.LedgerURL.Scheme)

	bs := tSettings.BlockSync
	assert.Equal(t, 192, bs.ChunkSize)
	assert.Equal(t, 20, bs.MaxSkeletonChunks)
	assert.Equal(t, 192, bs.SkeletonStep)
	assert.Equal(t, 7, bs.UncleGenerationLimit)
	assert.Equal(t, 100, bs.BlocksForPeers)
	assert.Equal(t, 100, bs.TrackerMaxPeers)
	assert.Equal(t, 1000, bs.TrackerMaxBlocks)
	assert.Equal(t, 200, bs.ReleaseInterval)
	assert.Equal(t, 1000, bs.ReleaseRange)
	assert.Equal(t, 10*time.Second, bs.StatusBroadcastInterval)
	assert.Equal(t, 2*time.Second, bs.QueueWarnThreshold)
	assert.Equal(t, 5000, bs.ReceivedBlocksCacheSize)
	assert.Equal(t, 2*time.Minute, bs.ReceivedBlocksCacheTTL)

	require.NoError(t, bs.Validate())
}

func TestBlockSyncSettings_AdvanceLimit(t *testing.T) {
	bs := NewBlockSyncSettings()
	assert.Equal(t, uint64(3840), bs.AdvanceLimit())

	bs.ChunkSize = 0
	assert.Equal(t, uint64(0), bs.AdvanceLimit())
}

func TestBlockSyncSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *BlockSyncSettings)
	}{
		{"zero chunk size", func(s *BlockSyncSettings) { s.ChunkSize = 0 }},
		{"negative skeleton step", func(s *BlockSyncSettings) { s.SkeletonStep = -1 }},
		{"zero tracker peers", func(s *BlockSyncSettings) { s.TrackerMaxPeers = 0 }},
		{"negative uncle limit", func(s *BlockSyncSettings) { s.UncleGenerationLimit = -1 }},
		{"negative blocks for peers", func(s *BlockSyncSettings) { s.BlocksForPeers = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := NewBlockSyncSettings()
			tt.modify(&bs)

			err := bs.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
		})
	}
}
