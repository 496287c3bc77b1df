package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/holdwatch/holdwatch/internal/database"
)

// SystemHandlers serves runtime and database status endpoints
type SystemHandlers struct {
	db        *database.DB
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		db:        db,
		startTime: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is the shape of GET /api/system/status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
	Database      dbInfo  `json:"database"`
	Timestamp     string  `json:"timestamp"`
}

type dbInfo struct {
	SizeBytes    int64 `json:"size_bytes"`
	WALSizeBytes int64 `json:"wal_size_bytes"`
	StockRows    int   `json:"stock_rows"`
	AssetRows    int   `json:"asset_rows"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		response.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.log.Warn().Err(err).Msg("Failed to read CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response.MemoryPercent = memStat.UsedPercent
		response.MemoryUsedMB = memStat.Used / 1024 / 1024
	} else {
		h.log.Warn().Err(err).Msg("Failed to read memory usage")
	}

	if stats, err := h.db.GetStats(); err == nil {
		response.Database.SizeBytes = stats.SizeBytes
		response.Database.WALSizeBytes = stats.WALSizeBytes
	} else {
		h.log.Warn().Err(err).Msg("Failed to read database stats")
		response.Status = "degraded"
	}

	if err := h.db.Conn().QueryRow("SELECT COUNT(*) FROM stocks").Scan(&response.Database.StockRows); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count stock rows")
	}
	if err := h.db.Conn().QueryRow("SELECT COUNT(*) FROM assets").Scan(&response.Database.AssetRows); err != nil {
		h.log.Warn().Err(err).Msg("Failed to count asset rows")
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}
