package server

import (
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/dya-app/dya-go/internal/modules/alerts"
	"github.com/dya-app/dya-go/internal/modules/prices"
	"github.com/dya-app/dya-go/internal/scheduler"
)

// SystemHandlers serves the health check and the process status endpoint.
type SystemHandlers struct {
	log       zerolog.Logger
	startedAt time.Time
	sched     *scheduler.Scheduler
	prices    *prices.Service
	aprStore  *alerts.APRStore
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	sched *scheduler.Scheduler,
	priceService *prices.Service,
	aprStore *alerts.APRStore,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		startedAt: time.Now(),
		sched:     sched,
		prices:    priceService,
		aprStore:  aprStore,
	}
}

// HandleHealth is a liveness probe.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleStatus reports process and component statistics for the dashboard's
// operations view.
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds":   int64(time.Since(h.startedAt).Seconds()),
		"goroutines":       runtime.NumGoroutine(),
		"scheduled_jobs":   h.sched.Entries(),
		"price_cache_size": h.prices.CacheLen(),
		"apr_store_size":   h.aprStore.Len(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
			status["rss_bytes"] = mem.RSS
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			status["cpu_percent"] = cpu
		}
	}

	h.writeJSON(w, http.StatusOK, status)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
