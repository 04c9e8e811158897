package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hilthontt/huddle/internal/infrastructure/json"
)

type Handler struct {
	startTime time.Time
	healthy   atomic.Bool
}

func NewHandler() *Handler {
	h := &Handler{startTime: time.Now()}
	h.healthy.Store(true)
	return h
}

// SetHealthy flips the reported status, e.g. while draining on shutdown.
func (h *Handler) SetHealthy(healthy bool) {
	h.healthy.Store(healthy)
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if !h.healthy.Load() {
		resp.Status = "unhealthy"
		json.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	json.Write(w, http.StatusOK, resp)
}
