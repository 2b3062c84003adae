package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// lock ids are not used as labels: ids are arbitrary int64s and would blow up cardinality

var (
	// acquire counter - ok vs retry
	// a high retry share means locks are contended and clients ping-pong through revokes
	// labels: result (ok/retry)
	AcquireTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_acquire_total",
			Help: "total number of acquire requests by result",
		},
		[]string{"result"},
	)

	// release counter - ok vs invalid
	// invalid releases point at a client side bug (double release, releasing an unheld lock)
	// labels: result (ok/invalid)
	ReleaseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_release_total",
			Help: "total number of release requests by result",
		},
		[]string{"result"},
	)

	// stat counter
	StatTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lockcache_stat_total",
			Help: "total number of stat requests",
		},
	)

	// outbound callbacks - revoke to owners, retry to queue heads
	// labels: kind (revoke/retry), status (delivered/failed)
	CallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lockcache_callback_total",
			Help: "total number of outbound revoke/retry callbacks",
		},
		[]string{"kind", "status"},
	)

	// callback latency - time the table mutex is released for
	CallbackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lockcache_callback_duration_seconds",
			Help:    "time taken by an outbound callback",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
		},
		[]string{"kind"},
	)

	// how long a client held a lock, from grant to release
	LockHoldDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lockcache_lock_hold_duration_seconds",
			Help:    "time between a grant and the matching release",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		},
	)

	// entries in the lock table - never shrinks, entries are permanent
	Locks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_locks",
			Help: "number of lock ids ever referenced",
		},
	)

	// currently owned locks (lent or revoked)
	LocksOwned = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_locks_owned",
			Help: "current number of owned locks",
		},
	)

	// queued waiters across all locks
	Waiters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_waiters",
			Help: "current number of queued acquire requests",
		},
	)

	// service uptime - always 1 when running
	Up = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lockcache_up",
			Help: "whether the service is up (always 1 when running)",
		},
	)
)

func init() {
	Up.Set(1)
}
