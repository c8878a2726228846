package config

import (
	"time"

	"github.com/spf13/viper"
)

type RoleSyncer struct {
	// Chunks are sealed when the block number is a multiple of this
	ChunkSize uint64

	// How long the drainer sleeps when its queue is empty
	QueueBackoff time.Duration

	// Workers reconciling members of one chunk in parallel
	DrainerNumWorkers int

	// Max time between failed retries to persist the watermark
	WatermarkMaxBackoffInterval time.Duration

	// Wait before resubscribing after a stream error
	StreamBackoff time.Duration

	// Buffered chunks per network before the consumer blocks
	StreamChannelSize int

	// How often the periodic refresh pass runs
	RefreshInterval time.Duration
}

func setRoleSyncerDefaults() {
	viper.SetDefault("RoleSyncer.ChunkSize", 5)
	viper.SetDefault("RoleSyncer.QueueBackoff", "1s")
	viper.SetDefault("RoleSyncer.DrainerNumWorkers", 5)
	viper.SetDefault("RoleSyncer.WatermarkMaxBackoffInterval", "30s")
	viper.SetDefault("RoleSyncer.StreamBackoff", "3s")
	viper.SetDefault("RoleSyncer.StreamChannelSize", 100)
	viper.SetDefault("RoleSyncer.RefreshInterval", "1h")
}
