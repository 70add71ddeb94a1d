package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chart-systemv1/internal/chart"
	"chart-systemv1/internal/chart/crosshair"
	"chart-systemv1/internal/model"
	"chart-systemv1/internal/ringbuf"

	"github.com/gorilla/websocket"
)

// renderInterval is how often the run loop drains the live ring and
// re-renders when something changed.
const renderInterval = 250 * time.Millisecond

// Client is a single WebSocket peer. It owns a private chart engine: all
// engine calls happen on the run goroutine, so the engine's single-goroutine
// contract holds without locks. readPump only parses and forwards messages;
// the hub only pushes samples into the ring.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{} // closed by the hub on removal; send itself never closes
	hub  *Hub

	ring   *ringbuf.Ring
	msgCh  chan ClientMsg
	engine *chart.Engine

	dirty bool // frame needs re-render and resend
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		conn:  conn,
		send:  make(chan []byte, 256),
		done:  make(chan struct{}),
		hub:   h,
		ring:  ringbuf.New(h.cfg.RingCapacity),
		msgCh: make(chan ClientMsg, 64),
	}
	c.engine = chart.New(h.cfg.Resolution, h.cfg.Horizon, h.cfg.Viewport)
	c.engine.OnCrosshairChange = func(active bool, value float64, ts time.Time) {
		// Headline freeze/unfreeze changes what the frame reports.
		c.dirty = true
		if h.OnCrosshairChange != nil {
			h.OnCrosshairChange(active)
		}
	}
	c.engine.OnRangeChangeRequest = func(res model.Resolution) {
		if h.OnRangeRequest != nil {
			h.OnRangeRequest(res.String())
		}
		c.loadHistory(res)
		c.engine.SetResolution(res)
		c.dirty = true
	}
	c.engine.OnSamplesSkipped = func(n int) {
		if h.OnSamplesSkipped != nil {
			h.OnSamplesSkipped(n)
		}
	}
	return c
}

// loadHistory replaces the engine's series for the given resolution.
// Called from the run goroutine only.
func (c *Client) loadHistory(res model.Resolution) {
	now := time.Now()
	symbol := c.hub.cfg.Symbol

	samples, err := c.hub.store.ReadSamples(symbol, now.Add(-res.Window()), now)
	if err != nil {
		log.Printf("[gateway] history load failed (symbol=%s res=%s): %v", symbol, res, err)
		samples = nil
	}
	c.engine.SetSamples(samples)

	if close, ok, err := c.hub.store.ReadPreviousClose(symbol, now); err != nil {
		log.Printf("[gateway] previous close load failed (symbol=%s): %v", symbol, err)
	} else if ok {
		c.engine.SetPreviousClose(close)
	}

	events, err := c.hub.store.ReadCatalysts(symbol, now.Add(c.engine.Horizon().Duration()))
	if err != nil {
		log.Printf("[gateway] catalysts load failed (symbol=%s): %v", symbol, err)
		events = nil
	}
	c.engine.SetCatalysts(events)
}

// run owns the engine. It seeds history, then loops: drain live samples,
// apply client messages, re-render when dirty.
func (c *Client) run(ctx context.Context) {
	c.loadHistory(c.engine.Resolution())
	c.dirty = true

	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	var batch []model.PriceSample
	for {
		select {
		case <-ctx.Done():
			return

		case <-c.done:
			return

		case msg, ok := <-c.msgCh:
			if !ok {
				return
			}
			c.apply(msg)

		case <-ticker.C:
			batch = c.ring.Drain(batch[:0])
			for _, s := range batch {
				if c.engine.AppendSample(s) {
					c.dirty = true
				} else if c.hub.OnLateDrop != nil {
					c.hub.OnLateDrop()
				}
			}
			// A held-down pointer with no move events arms on the tick.
			if st, armed := c.engine.Tick(time.Now()); armed {
				c.sendJSON(crosshairOut(st))
			}
		}

		if c.dirty {
			c.renderAndSend()
			c.dirty = false
		}
	}
}

// apply dispatches one inbound message to the engine.
func (c *Client) apply(msg ClientMsg) {
	switch msg.Type {
	case "pointer":
		phase, ok := parsePhase(msg.Phase)
		if !ok {
			c.sendError("unknown pointer phase " + msg.Phase)
			return
		}
		st := c.engine.Pointer(crosshair.PointerEvent{
			X: msg.X, Y: msg.Y, Phase: phase, At: time.Now(),
		})
		c.sendJSON(crosshairOut(st))

	case "resolution":
		res, err := model.ParseResolution(msg.Value)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		// The engine only raises the request; the hook above reloads data.
		c.engine.RequestResolution(res)

	case "horizon":
		hor, err := model.ParseHorizon(msg.Value)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.engine.SetHorizon(hor)
		c.dirty = true

	case "viewport":
		vp := model.Viewport{
			WidthPx:      msg.Width,
			HeightPx:     msg.Height,
			PastFraction: msg.PastFraction,
		}
		if !vp.Valid() {
			c.sendError("invalid viewport")
			return
		}
		c.engine.SetViewport(vp)
		c.dirty = true

	case "ping":
		pong, _ := json.Marshal(map[string]interface{}{
			"type":      "pong",
			"ping":      msg.Ping,
			"server_ts": time.Now().UnixMilli(),
		})
		select {
		case c.send <- pong:
		default:
		}

	default:
		c.sendError("unknown message type " + msg.Type)
	}
}

func (c *Client) renderAndSend() {
	start := time.Now()
	frame, err := c.engine.Render(start)
	if err != nil {
		log.Printf("[gateway] render error: %v", err)
		return
	}
	if c.hub.OnRenderPass != nil {
		c.hub.OnRenderPass(time.Since(start))
	}
	out := frameOut(frame)
	if price, ok := c.engine.HeadlinePrice(); ok {
		out.Headline, out.HasHead = price, true
	}
	c.sendJSON(out)
	if c.hub.OnFrameSent != nil {
		c.hub.OnFrameSent()
	}
}

func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Slow consumer: drop rather than block the run loop.
	}
}

func (c *Client) sendError(msg string) {
	c.sendJSON(ErrorOut{Type: "error", Error: msg})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			// Write coalescing: batch queued messages into one frame with
			// newline separators.
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.RemoveClient(c)
		close(c.msgCh)
		c.conn.Close()
		log.Println("[gateway] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMsg
		if json.Unmarshal(raw, &msg) != nil {
			continue
		}
		select {
		case c.msgCh <- msg:
		default:
			// Pointer events are droppable; the next one supersedes.
		}
	}
}

func parsePhase(s string) (crosshair.Phase, bool) {
	switch s {
	case "down":
		return crosshair.PhaseDown, true
	case "move":
		return crosshair.PhaseMove, true
	case "up":
		return crosshair.PhaseUp, true
	case "cancel":
		return crosshair.PhaseCancel, true
	}
	return crosshair.PhaseCancel, false
}
