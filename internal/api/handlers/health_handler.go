package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports database reachability and host memory usage.
type HealthHandler struct {
	db     Pinger
	memory func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, memory: mem.VirtualMemoryWithContext}
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string  `json:"status"`
	Database      string  `json:"database"`
	MemoryUsedPct float64 `json:"memory_used_percent,omitempty"`
}

// Get handles GET /healthz. It responds 503 when the database is unreachable.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok"}
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health check: database ping failed")
		resp.Status, resp.Database = "unavailable", "unreachable"
		status = http.StatusServiceUnavailable
	}

	if vm, err := h.memory(ctx); err == nil {
		resp.MemoryUsedPct = vm.UsedPercent
	} else {
		log.Warn().Err(err).Msg("Health check: could not read memory stats")
	}

	writeJSON(w, status, resp)
}
