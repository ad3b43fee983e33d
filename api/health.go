package api

import (
	"net/http"
	"time"

	"github.com/malwarebo/dealhub/cache"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type StatsResponse struct {
	Cache  cache.Stats `json:"cache"`
	Uptime string      `json:"uptime"`
}

var startTime = time.Now()

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).String(),
	})
}

// CacheStatsHandler exposes the cache-aside counters.
func CacheStatsHandler(cacheClient *cache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatsResponse{
			Cache:  cacheClient.Stats(),
			Uptime: time.Since(startTime).String(),
		})
	}
}
