// cmd/feedsim publishes simulated live price samples to the Redis feed
// stream, for exercising the chart server without a real market feed.
//
// Config (env vars):
//
//	CHART_SYMBOL      — symbol to simulate          (default: "AAPL")
//	REDIS_ADDR        — Redis address               (default: "localhost:6379")
//	FEED_INTERVAL_MS  — publish interval in millis  (default: "1000")
//	FEED_START_PRICE  — starting price              (default: "100.0")
package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chart-systemv1/config"
	"chart-systemv1/internal/model"
	"chart-systemv1/internal/store/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[feedsim] starting...")

	cfg := config.Load()
	intervalMs := envInt("FEED_INTERVAL_MS", 1000)
	price := envFloat("FEED_START_PRICE", 100.0)

	feed, err := redis.NewReader(redis.ReaderConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		Stream:   cfg.FeedStream(),
	})
	if err != nil {
		log.Fatalf("[feedsim] redis connect failed: %v", err)
	}
	defer feed.Close()

	// Publishes go through a breaker so a Redis outage mid-run does not
	// turn into a tight error loop.
	breaker := redis.NewPublishBreaker(feed.PublishSample, 5, 10*time.Second)
	breaker.OnStateChange = func(from, to redis.State) {
		log.Printf("[feedsim] publish breaker %s -> %s", from, to)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()

	published := 0
	rejected := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("[feedsim] done: published=%d rejected=%d", published, rejected)
			return
		case <-ticker.C:
			price = walkPrice(price, rng)
			s := model.PriceSample{TS: time.Now().UTC(), Price: price}

			err := breaker.Publish(ctx, s)
			switch {
			case errors.Is(err, redis.ErrPublishRejected):
				rejected++
			case err != nil:
				log.Printf("[feedsim] publish error: %v", err)
			default:
				published++
				if published%60 == 0 {
					log.Printf("[feedsim] %s = %.2f (published=%d)", cfg.Symbol, price, published)
				}
			}
		}
	}
}

// walkPrice applies a tiny random walk (about ±0.1%) per tick.
func walkPrice(price float64, rng *rand.Rand) float64 {
	pct := (rng.Float64()*0.2 - 0.1) / 100.0
	next := price * (1 + pct)
	if next < 0.01 {
		next = 0.01
	}
	return next
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
