package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart server.
type Metrics struct {
	// Render pipeline
	RenderPasses   prometheus.Counter
	RenderDur      prometheus.Histogram
	SamplesSkipped prometheus.Counter
	FramesSent     prometheus.Counter

	// Live feed
	LiveSamplesTotal   prometheus.Counter
	LateSamplesDropped prometheus.Counter
	RingDropsTotal     prometheus.Counter
	FeedLag            prometheus.Gauge

	// Interaction
	CrosshairActivations   prometheus.Counter
	CrosshairDeactivations prometheus.Counter
	RangeChangeRequests    *prometheus.CounterVec // labels: resolution

	// Clients
	WSClients prometheus.Gauge
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		RenderPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_render_passes_total",
			Help: "Total chart render passes executed",
		}),
		RenderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chartserver_render_duration_seconds",
			Help:    "Latency of a single render pass",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		SamplesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_samples_skipped_total",
			Help: "Malformed samples dropped during sanitation",
		}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_frames_sent_total",
			Help: "Rendered frames pushed to WebSocket clients",
		}),

		LiveSamplesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_live_samples_total",
			Help: "Live samples received from the feed",
		}),
		LateSamplesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_late_samples_dropped_total",
			Help: "Live samples rejected for stepping backwards in time",
		}),
		RingDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_ring_drops_total",
			Help: "Live samples dropped by full per-client ring buffers",
		}),
		FeedLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartserver_feed_lag_seconds",
			Help: "Lag between the latest live sample timestamp and wall clock",
		}),

		CrosshairActivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_crosshair_activations_total",
			Help: "Crosshair activation events across all clients",
		}),
		CrosshairDeactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chartserver_crosshair_deactivations_total",
			Help: "Crosshair deactivation events across all clients",
		}),
		RangeChangeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chartserver_range_change_requests_total",
			Help: "Resolution change requests (by target resolution)",
		}, []string{"resolution"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chartserver_ws_clients",
			Help: "Currently connected WebSocket clients",
		}),
	}

	prometheus.MustRegister(
		m.RenderPasses,
		m.RenderDur,
		m.SamplesSkipped,
		m.FramesSent,
		m.LiveSamplesTotal,
		m.LateSamplesDropped,
		m.RingDropsTotal,
		m.FeedLag,
		m.CrosshairActivations,
		m.CrosshairDeactivations,
		m.RangeChangeRequests,
		m.WSClients,
	)

	return m
}

// HealthStatus represents the chart server's health.
type HealthStatus struct {
	mu sync.RWMutex

	FeedConnected  bool      `json:"feed_connected"`
	LastSampleTime time.Time `json:"last_sample_time"`
	RedisConnected bool      `json:"redis_connected"`
	SQLiteOK       bool      `json:"sqlite_ok"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastSampleTime(t time.Time) {
	h.mu.Lock()
	h.LastSampleTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}
	go func() {
		probe()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// SQLite is the only hard dependency: without history there is no chart.
	// A dead feed or Redis degrades to history-only mode.
	overallStatus := "healthy"
	httpCode := http.StatusOK

	if !h.FeedConnected || !h.RedisConnected {
		overallStatus = "degraded"
	}
	if !h.SQLiteOK {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	sampleAge := ""
	if !h.LastSampleTime.IsZero() {
		sampleAge = time.Since(h.LastSampleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		FeedConnected   bool    `json:"feed_connected"`
		LastSampleTime  string  `json:"last_sample_time"`
		SampleAge       string  `json:"sample_age"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:   h.FeedConnected,
		LastSampleTime:  h.LastSampleTime.Format(time.RFC3339),
		SampleAge:       sampleAge,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
