// Package blocksync decides what to do with blocks arriving from peers before the ledger sees them.
//
// Blocks whose parent is unknown are parked in a blockentry.Store and the parent is requested
// from the sender. When a parent connects, every waiting descendant is connected with it. All
// state changes run on the single consumer goroutine of the MessageProcessor, peer queries are
// answered by the Responder from the same store and ledger.
package blocksync

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusBlockSyncQueueLength       prometheus.Gauge
	prometheusBlockSyncMessagesProcessed *prometheus.CounterVec
	prometheusBlockSyncMessagesDropped   *prometheus.CounterVec
	prometheusBlockSyncMessagePanics     prometheus.Counter
	prometheusBlockSyncBlockOutcomes     *prometheus.CounterVec
	prometheusBlockSyncProcessBlock      prometheus.Histogram
	prometheusBlockSyncStoreSize         prometheus.Gauge
	prometheusBlockSyncStoreReleased     prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusBlockSyncQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "queue_length",
			Help:      "Number of messages waiting for the consumer",
		},
	)

	prometheusBlockSyncMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "messages_processed",
			Help:      "Number of messages processed, by message type",
		},
		[]string{"type"},
	)

	prometheusBlockSyncMessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "messages_dropped",
			Help:      "Number of messages dropped before queueing, by reason",
		},
		[]string{"reason"},
	)

	prometheusBlockSyncMessagePanics = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "message_panics",
			Help:      "Number of messages whose handler panicked",
		},
	)

	prometheusBlockSyncBlockOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "block_outcomes",
			Help:      "Number of block decisions, by outcome",
		},
		[]string{"outcome"},
	)

	prometheusBlockSyncProcessBlock = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "process_block_seconds",
			Help:      "Duration of a block decision, including connected descendants",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	prometheusBlockSyncStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "store_size",
			Help:      "Number of orphan blocks waiting for their parent",
		},
	)

	prometheusBlockSyncStoreReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "teranode",
			Subsystem: "blocksync",
			Name:      "store_released",
			Help:      "Number of stale orphan blocks released from the store",
		},
	)
}
