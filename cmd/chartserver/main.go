package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chart-systemv1/config"
	"chart-systemv1/internal/gateway"
	"chart-systemv1/internal/logger"
	"chart-systemv1/internal/metrics"
	"chart-systemv1/internal/model"
	"chart-systemv1/internal/store/redis"
	"chart-systemv1/internal/store/sqlite"
)

var processStart = time.Now()

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[chartserver] starting...")

	cfg := config.Load()
	slg := logger.Init("chartserver", logger.ParseLevel(cfg.LogLevel))

	res, err := model.ParseResolution(cfg.DefaultResolution)
	if err != nil {
		log.Fatalf("[chartserver] bad DEFAULT_RESOLUTION: %v", err)
	}
	hor, err := model.ParseHorizon(cfg.DefaultHorizon)
	if err != nil {
		log.Fatalf("[chartserver] bad DEFAULT_HORIZON: %v", err)
	}
	vp := model.Viewport{
		WidthPx:      cfg.ViewportWidth,
		HeightPx:     cfg.ViewportHeight,
		PastFraction: cfg.PastFraction,
	}
	if !vp.Valid() {
		log.Fatalf("[chartserver] invalid default viewport %+v", vp)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// History is the hard dependency: no chart without it.
	store, err := sqlite.NewReader(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[chartserver] sqlite open failed: %v", err)
	}
	defer store.Close()
	health.SetSQLiteOK(true)

	hub := gateway.NewHub(gateway.HubConfig{
		Symbol:     cfg.Symbol,
		Viewport:   vp,
		Resolution: res,
		Horizon:    hor,
	}, store)
	hub.OnFrameSent = m.FramesSent.Inc
	hub.OnRingDrop = m.RingDropsTotal.Inc
	hub.OnClientCount = func(n int) { m.WSClients.Set(float64(n)) }
	hub.OnRenderPass = func(d time.Duration) {
		m.RenderPasses.Inc()
		m.RenderDur.Observe(d.Seconds())
	}
	hub.OnSamplesSkipped = func(n int) { m.SamplesSkipped.Add(float64(n)) }
	hub.OnLateDrop = m.LateSamplesDropped.Inc
	hub.OnCrosshairChange = func(active bool) {
		if active {
			m.CrosshairActivations.Inc()
		} else {
			m.CrosshairDeactivations.Inc()
		}
	}
	hub.OnRangeRequest = func(res string) {
		m.RangeChangeRequests.WithLabelValues(res).Inc()
	}

	// The live feed is best-effort: a missing Redis degrades the server to
	// history-only, it does not stop it.
	feedCh := make(chan model.PriceSample, 256)
	feed, err := redis.NewReader(redis.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cfg.FeedStream(),
	})
	if err != nil {
		slg.Warn("live feed unavailable, serving history only", slog.String("err", err.Error()))
		close(feedCh)
	} else {
		defer feed.Close()
		health.SetFeedConnected(true)
		health.StartLivenessChecker(ctx, feed.Client(), store.DB(), 10*time.Second)

		rawCh := make(chan model.PriceSample, 256)
		go func() {
			if err := feed.ConsumeSamples(ctx, rawCh); err != nil && ctx.Err() == nil {
				slg.Error("feed consumer stopped", slog.String("err", err.Error()))
			}
			health.SetFeedConnected(false)
			close(rawCh)
		}()
		// Instrument the feed before fan-out.
		go func() {
			defer close(feedCh)
			for s := range rawCh {
				m.LiveSamplesTotal.Inc()
				m.FeedLag.Set(time.Since(s.TS).Seconds())
				health.SetLastSampleTime(s.TS)
				select {
				case feedCh <- s:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go hub.Run(ctx, feedCh)
	go hub.StartStatusBroadcast(ctx, 5*time.Second)

	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, ctx, processStart)
	srv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[chartserver] serving %s at http://localhost%s", cfg.Symbol, cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[chartserver] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[chartserver] shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Stop(shutdownCtx)
}
