package redis

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"chart-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

// ReaderConfig configures the live-feed reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string // stream carrying live samples, e.g. "chart:samples:AAPL"
}

// Reader consumes live price samples from a Redis Stream. It is the
// external collaborator that pushes new samples into the engine: the engine
// itself performs no I/O.
type Reader struct {
	client *goredis.Client
	stream string
}

// NewReader creates a live-feed Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis-feed] connected to %s (stream=%s)", cfg.Addr, cfg.Stream)
	return &Reader{client: client, stream: cfg.Stream}, nil
}

// Client returns the underlying client for health checks.
func (r *Reader) Client() *goredis.Client { return r.client }

// Close closes the Redis client.
func (r *Reader) Close() error { return r.client.Close() }

// ConsumeSamples blocks on XREAD from the tail of the stream and forwards
// parsed samples to out. Malformed entries are logged and skipped so a bad
// feed message never kills the consumer. Returns when ctx is cancelled.
func (r *Reader) ConsumeSamples(ctx context.Context, out chan<- model.PriceSample) error {
	lastID := "$"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		results, err := r.client.XRead(ctx, &goredis.XReadArgs{
			Streams: []string{r.stream, lastID},
			Count:   100,
			Block:   2 * time.Second,
		}).Result()
		if err != nil {
			if err == goredis.Nil {
				continue // block timeout, poll again
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[redis-feed] xread error: %v (retrying)", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				s, err := parseSample(msg.Values)
				if err != nil {
					log.Printf("[redis-feed] skipping malformed message %s: %v", msg.ID, err)
					continue
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}

// PublishSample appends a sample to the stream. Used by feed simulators and
// importers; the chart server only consumes.
func (r *Reader) PublishSample(ctx context.Context, s model.PriceSample) error {
	err := r.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: r.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"ts":    s.TS.UnixMilli(),
			"price": s.Price,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd: %w", err)
	}
	return nil
}

func parseSample(values map[string]interface{}) (model.PriceSample, error) {
	tsRaw, ok := values["ts"].(string)
	if !ok {
		return model.PriceSample{}, fmt.Errorf("missing ts field")
	}
	tsMs, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("bad ts %q: %w", tsRaw, err)
	}

	priceRaw, ok := values["price"].(string)
	if !ok {
		return model.PriceSample{}, fmt.Errorf("missing price field")
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return model.PriceSample{}, fmt.Errorf("bad price %q: %w", priceRaw, err)
	}

	return model.PriceSample{TS: time.UnixMilli(tsMs).UTC(), Price: price}, nil
}
