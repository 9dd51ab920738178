// Package health probes the service's backing dependencies and publishes
// the result to the gRPC health service and the HTTP health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Dependency states.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe checks one dependency.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// StatusSink receives the overall serving status. *health.Server from
// google.golang.org/grpc/health satisfies it.
type StatusSink interface {
	SetServingStatus(service string, status healthpb.HealthCheckResponse_ServingStatus)
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(dependency string, success bool)

// Report is a point-in-time view of every dependency.
type Report struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
	CheckedAt    time.Time         `json:"checked_at"`
}

// Checker runs periodic dependency probes. A dependency is degraded after
// FailThreshold consecutive failures and healthy again after one success.
type Checker struct {
	probes     []Probe
	sink       StatusSink
	failCounts map[string]int
	statuses   map[string]string
	checkedAt  time.Time
	mu         sync.Mutex
	cfg        Config
	onMetrics  MetricsRecordFunc
	logger     *zap.Logger
}

// New creates a new Checker. Every dependency starts healthy.
func New(probes []Probe, sink StatusSink, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	statuses := make(map[string]string, len(probes))
	for _, p := range probes {
		statuses[p.Name] = StatusHealthy
	}
	return &Checker{
		probes:     probes,
		sink:       sink,
		failCounts: make(map[string]int),
		statuses:   statuses,
		cfg:        cfg,
		logger:     logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the check loop until ctx is done.
func (h *Checker) Start(ctx context.Context) {
	h.CheckAll(ctx)

	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.CheckAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes every dependency concurrently and publishes the overall
// status.
func (h *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range h.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := p.Check(pctx)
			cancel()

			if h.onMetrics != nil {
				h.onMetrics(p.Name, err == nil)
			}
			h.record(p.Name, err)
		}(p)
	}
	wg.Wait()

	h.mu.Lock()
	h.checkedAt = time.Now().UTC()
	serving := h.servingLocked()
	h.mu.Unlock()

	if h.sink != nil {
		status := healthpb.HealthCheckResponse_SERVING
		if !serving {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		h.sink.SetServingStatus("", status)
	}
}

func (h *Checker) record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.statuses[name]
	if err == nil {
		h.failCounts[name] = 0
		h.statuses[name] = StatusHealthy
		if prev == StatusDegraded {
			h.logger.Info("health: recovered", zap.String("dependency", name))
		}
		return
	}

	h.failCounts[name]++
	count := h.failCounts[name]
	h.logger.Debug("health: probe failed", zap.String("dependency", name), zap.Error(err))
	if count >= h.cfg.FailThreshold && prev != StatusDegraded {
		h.statuses[name] = StatusDegraded
		h.logger.Warn("health: degraded",
			zap.String("dependency", name),
			zap.Int("fail_count", count),
			zap.Error(err),
		)
	}
}

func (h *Checker) servingLocked() bool {
	for _, s := range h.statuses {
		if s != StatusHealthy {
			return false
		}
	}
	return true
}

// Report returns the latest dependency states.
func (h *Checker) Report() Report {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := Report{Status: "ok", Dependencies: make(map[string]string, len(h.statuses)), CheckedAt: h.checkedAt}
	for name, s := range h.statuses {
		r.Dependencies[name] = s
	}
	if !h.servingLocked() {
		r.Status = StatusDegraded
	}
	return r
}
