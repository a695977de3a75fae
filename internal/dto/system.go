package dto

import "time"

// SystemMetrics is a point-in-time summary of process metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	DBQueryCount             uint64    `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64   `json:"averageDbQueryDurationMs"`
	DuplicateRejections      uint64    `json:"duplicateRejections"`
	Goroutines               int       `json:"goroutines"`
	UptimeSeconds            int64     `json:"uptimeSeconds"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Metrics *SystemMetrics    `json:"metrics,omitempty"`
}
