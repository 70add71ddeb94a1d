package gateway

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"

	"github.com/gorilla/websocket"
)

// HistoryStore loads the chart history a new client starts from. Satisfied
// by the SQLite reader; defined here so the hub never depends on a concrete
// storage backend.
type HistoryStore interface {
	ReadSamples(symbol string, from, to time.Time) ([]model.PriceSample, error)
	ReadPreviousClose(symbol string, day time.Time) (float64, bool, error)
	ReadCatalysts(symbol string, until time.Time) ([]model.CatalystEvent, error)
}

// HubConfig configures the WebSocket hub.
type HubConfig struct {
	Symbol       string
	Viewport     model.Viewport // default viewport until the client reports its own
	Resolution   model.Resolution
	Horizon      model.Horizon
	RingCapacity int // per-client live sample buffer, rounded to a power of two
}

// Hub owns the set of connected WebSocket clients and fans live samples out
// to them. Each client runs its own chart engine in its own goroutine; the
// hub only pushes raw samples into per-client ring buffers and never touches
// engine state.
type Hub struct {
	cfg   HubConfig
	store HistoryStore

	mu      sync.RWMutex
	clients map[*Client]bool

	// Metric hooks, set once before Run. The per-client hooks fire from
	// client run goroutines.
	OnLiveSample      func()
	OnFrameSent       func()
	OnClientCount     func(n int)
	OnRingDrop        func()
	OnRenderPass      func(d time.Duration)
	OnSamplesSkipped  func(n int)
	OnCrosshairChange func(active bool)
	OnRangeRequest    func(resolution string)
	OnLateDrop        func()
}

// NewHub creates a Hub. store may not be nil.
func NewHub(cfg HubConfig, store HistoryStore) *Hub {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1024
	}
	return &Hub{
		cfg:     cfg,
		store:   store,
		clients: make(map[*Client]bool),
	}
}

// Run consumes live samples from feed and fans them out to all connected
// clients. Blocks until ctx is cancelled or feed is closed.
func (h *Hub) Run(ctx context.Context, feed <-chan model.PriceSample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-feed:
			if !ok {
				return
			}
			if h.OnLiveSample != nil {
				h.OnLiveSample()
			}
			h.mu.RLock()
			for c := range h.clients {
				if !c.ring.Push(s) && h.OnRingDrop != nil {
					h.OnRingDrop()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWSRequest registers an upgraded connection and starts its pumps.
func (h *Hub) HandleWSRequest(ctx context.Context, conn *websocket.Conn) {
	client := newClient(h, conn)

	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
	log.Printf("[gateway] ws client connected (%d total)", count)

	go client.writePump()
	go client.readPump()
	go client.run(ctx)
}

// RemoveClient unregisters a client and signals its goroutines to stop. The
// send channel stays open: the run goroutine may still render one more frame
// after removal, and that late send must never hit a closed channel.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if h.OnClientCount != nil {
		h.OnClientCount(count)
	}
	close(c.done)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartStatusBroadcast sends the market-session status to all clients every
// interval. Blocks until ctx is cancelled.
func (h *Hub) StartStatusBroadcast(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			tag := markethours.Resolve(now)
			envelope, _ := json.Marshal(StatusOut{
				Type:    "status",
				Session: tag.String(),
				Open:    tag == model.Regular,
				Clients: h.ClientCount(),
				TS:      now.UTC().Format(time.RFC3339Nano),
			})
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- envelope:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}
