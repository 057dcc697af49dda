package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal      uint64
	RequestsInProgress int64
	RequestsSuccess    uint64
	RequestsFailed     uint64
	AssessmentsTotal   uint64
	AssessmentsFailed  uint64
	ResearchTotal      uint64
	StartTime          time.Time

	mu         sync.Mutex
	byCategory map[string]uint64
}

var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{StartTime: time.Now(), byCategory: make(map[string]uint64)}
}

// IncrementAssessments counts one dispatched assessment; category is empty on success
func IncrementAssessments(category string) {
	atomic.AddUint64(&globalMetrics.AssessmentsTotal, 1)
	if category == "" {
		return
	}
	atomic.AddUint64(&globalMetrics.AssessmentsFailed, 1)
	globalMetrics.mu.Lock()
	globalMetrics.byCategory[category]++
	globalMetrics.mu.Unlock()
}

// IncrementResearch counts one research run
func IncrementResearch() {
	atomic.AddUint64(&globalMetrics.ResearchTotal, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	globalMetrics.mu.Lock()
	failures := make(map[string]uint64, len(globalMetrics.byCategory))
	for k, v := range globalMetrics.byCategory {
		failures[k] = v
	}
	globalMetrics.mu.Unlock()

	return map[string]interface{}{
		"requests_total":       atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress": atomic.LoadInt64(&globalMetrics.RequestsInProgress),
		"requests_success":     atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":      atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"assessments_total":    atomic.LoadUint64(&globalMetrics.AssessmentsTotal),
		"assessments_failed":   atomic.LoadUint64(&globalMetrics.AssessmentsFailed),
		"assessment_failures":  failures,
		"research_total":       atomic.LoadUint64(&globalMetrics.ResearchTotal),
		"uptime_seconds":       time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes": m.Alloc,
			"sys_bytes":   m.Sys,
			"num_gc":      m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
		atomic.AddInt64(&globalMetrics.RequestsInProgress, 1)
		defer atomic.AddInt64(&globalMetrics.RequestsInProgress, -1)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
		} else {
			atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
