package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ranking and provider Prometheus metrics.
var (
	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "rank_requests_total",
			Help:      "Total number of ranking requests",
		},
		[]string{"status"}, // "ok" / "cached" / "error"
	)

	RankRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "rank_request_duration_seconds",
			Help:      "Ranking request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RankCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "rank_candidates",
			Help:      "Candidate set size per ranking request",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	EngineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "engine_duration_seconds",
			Help:      "Per-strategy scoring duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 20},
		},
		[]string{"engine"},
	)

	EngineTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "engine_timeouts_total",
			Help:      "Scoring strategies that exceeded their budget",
		},
		[]string{"engine"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "cache_total",
			Help:      "Cache hits and misses per tier",
		},
		[]string{"tier", "result"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "ai_requests_total",
			Help:      "External AI generation requests",
		},
		[]string{"status"}, // "success" / "error" / "rate_limited"
	)

	QuotaRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rankdex",
			Name:      "quota_requests_remaining",
			Help:      "Remaining AI request quota",
		},
		[]string{"window"}, // "minute" / "day"
	)
)

// Embedding provider metrics, labeled by provider and model.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rankdex",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankdex",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var registered bool

// Register registers the domain metrics. Must be called once from main
// (no init side effects).
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(
		RankRequestsTotal,
		RankRequestDuration,
		RankCandidates,
		EngineDuration,
		EngineTimeoutsTotal,
		CacheTotal,
		AIRequestsTotal,
		QuotaRemaining,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingErrorsTotal,
	)
	registered = true
}
