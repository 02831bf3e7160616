// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc"

	"github.com/ammerola/boxwise-be/internal/core/ports"
)

// Check probes one dependency and returns optional details
type Check func(ctx context.Context) (map[string]interface{}, error)

type namedCheck struct {
	name  string
	check Check
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks      []namedCheck
	version     string
	environment string
	logger      *slog.Logger
	startTime   time.Time
}

// NewHealthHandler creates a new health handler. Dependencies are added with Register.
func NewHealthHandler(version, environment string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		version:     version,
		environment: environment,
		logger:      logger.With(slog.String("handler", "health")),
		startTime:   time.Now(),
	}
}

// Register adds a dependency check. Not safe to call once serving.
func (h *HealthHandler) Register(name string, check Check) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo represents system-level information
type SystemInfo struct {
	GoVersion      string `json:"go_version"`
	NumGoroutines  int    `json:"num_goroutines"`
	NumCPU         int    `json:"num_cpu"`
	MemoryAllocMB  uint64 `json:"memory_alloc_mb"`
	MemorySysMB    uint64 `json:"memory_sys_mb"`
	GCPauseTotalMs uint64 `json:"gc_pause_total_ms"`
	NumGC          uint32 `json:"num_gc"`
}

// Health handles the /health endpoint
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := HealthStatus{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    h.runChecks(ctx),
		System:      systemInfo(),
	}

	for _, svc := range health.Services {
		if svc.Status != "healthy" {
			health.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, health)
}

// Readiness handles the /ready endpoint
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string, len(h.checks))
	for name, svc := range h.runChecks(ctx) {
		if svc.Status == "healthy" {
			details[name] = "ready"
			continue
		}
		ready = false
		details[name] = "not ready"
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respondJSON(w, h.logger, statusCode, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

// runChecks probes every dependency concurrently
func (h *HealthHandler) runChecks(ctx context.Context) map[string]ServiceInfo {
	var (
		mu      sync.Mutex
		results = make(map[string]ServiceInfo, len(h.checks))
		wg      conc.WaitGroup
	)

	for _, c := range h.checks {
		wg.Go(func() {
			start := time.Now()
			info := ServiceInfo{Status: "healthy"}

			details, err := c.check(ctx)
			if err != nil {
				info.Status = "unhealthy"
				info.Message = err.Error()
				h.logger.ErrorContext(ctx, "health check failed",
					slog.String("dependency", c.name),
					slog.String("error", err.Error()))
			} else {
				info.Details = details
				info.ResponseTime = time.Since(start).String()
			}

			mu.Lock()
			results[c.name] = info
			mu.Unlock()
		})
	}
	wg.Wait()

	return results
}

// DatabaseCheck pings Postgres and reports pool statistics
func DatabaseCheck(db ports.Database) Check {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if err := db.Ping(ctx); err != nil {
			return nil, err
		}
		return db.Health(ctx), nil
	}
}

// RedisCheck pings Redis and reports pool statistics
func RedisCheck(client *redis.Client) Check {
	return func(ctx context.Context) (map[string]interface{}, error) {
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			return nil, err
		}
		stats := client.PoolStats()
		return map[string]interface{}{
			"ping":        pong,
			"total_conns": stats.TotalConns,
			"idle_conns":  stats.IdleConns,
			"stale_conns": stats.StaleConns,
		}, nil
	}
}

// QueueCheck reports asynq queue sizes and connected workers
func QueueCheck(inspector *asynq.Inspector) Check {
	return func(ctx context.Context) (map[string]interface{}, error) {
		queues, err := inspector.Queues()
		if err != nil {
			return nil, err
		}

		queueStats := make(map[string]interface{}, len(queues))
		for _, queue := range queues {
			qInfo, err := inspector.GetQueueInfo(queue)
			if err != nil {
				continue
			}
			queueStats[queue] = map[string]interface{}{
				"size":      qInfo.Size,
				"active":    qInfo.Active,
				"pending":   qInfo.Pending,
				"scheduled": qInfo.Scheduled,
				"retry":     qInfo.Retry,
				"archived":  qInfo.Archived,
				"completed": qInfo.Completed,
			}
		}

		details := map[string]interface{}{"queues": queueStats}
		if servers, err := inspector.Servers(); err == nil {
			details["servers"] = len(servers)
		}
		return details, nil
	}
}

// StorageCheck confirms the object store answers requests
func StorageCheck(storage ports.FileStorage) Check {
	return func(ctx context.Context) (map[string]interface{}, error) {
		if _, err := storage.Exists(ctx, "health/probe"); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:      runtime.Version(),
		NumGoroutines:  runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		MemoryAllocMB:  memStats.Alloc / 1024 / 1024,
		MemorySysMB:    memStats.Sys / 1024 / 1024,
		GCPauseTotalMs: memStats.PauseTotalNs / 1000 / 1000,
		NumGC:          memStats.NumGC,
	}
}
