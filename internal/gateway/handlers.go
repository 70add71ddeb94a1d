package gateway

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"chart-systemv1/internal/markethours"
	"chart-systemv1/internal/model"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RangeInfo is the REST response element for /api/resolutions and
// /api/horizons.
type RangeInfo struct {
	Name    string `json:"name"`
	Seconds int64  `json:"seconds"`
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, hub *Hub, ctx context.Context, processStart time.Time) {
	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		hub.HandleWSRequest(ctx, conn)
	})

	// REST: selectable past resolutions
	mux.HandleFunc("/api/resolutions", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		all := []model.Resolution{
			model.Res1D, model.Res1W, model.Res1M, model.Res3M,
			model.Res6M, model.Res1Y, model.Res5Y,
		}
		list := make([]RangeInfo, len(all))
		for i, res := range all {
			list[i] = RangeInfo{Name: res.String(), Seconds: int64(res.Window().Seconds())}
		}
		json.NewEncoder(w).Encode(list)
	})

	// REST: selectable future horizons
	mux.HandleFunc("/api/horizons", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		all := []model.Horizon{
			model.Hor1M, model.Hor3M, model.Hor6M, model.Hor1Y, model.Hor3Y,
		}
		list := make([]RangeInfo, len(all))
		for i, hor := range all {
			list[i] = RangeInfo{Name: hor.String(), Seconds: int64(hor.Duration().Seconds())}
		}
		json.NewEncoder(w).Encode(list)
	})

	// REST: server configuration snapshot
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"symbol":             hub.cfg.Symbol,
			"default_resolution": hub.cfg.Resolution.String(),
			"default_horizon":    hub.cfg.Horizon.String(),
		})
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		now := time.Now()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "ok",
			"session":    markethours.Resolve(now).String(),
			"ws_clients": hub.ClientCount(),
			"uptime_sec": int64(time.Since(processStart).Seconds()),
			"ts":         now.UTC().Format(time.RFC3339Nano),
		})
	})
}
