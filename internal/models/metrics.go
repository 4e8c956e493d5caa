package models

import "time"

// SystemMetrics is the aggregated runtime view served on the status
// endpoint, cheaper to consume than the full Prometheus exposition.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	SyncJobsEnqueued         uint64    `json:"syncJobsEnqueued"`
	SyncJobsAbandoned        uint64    `json:"syncJobsAbandoned"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
