package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/aitrader/internal/database"
	"github.com/aristath/aitrader/internal/scheduler"
)

// ScheduleSource lists the active trading schedule groups
type ScheduleSource interface {
	Groups() []scheduler.GroupInfo
}

// NextRunProvider reports when a cron entry fires next
type NextRunProvider interface {
	Next(id cron.EntryID) time.Time
}

// JobRunner runs a registered job outside its schedule
type JobRunner interface {
	RunNow(job scheduler.Job) error
}

// ScheduleResponse is one schedule group in /api/schedules
type ScheduleResponse struct {
	Expression string     `json:"expression"`
	TradeIDs   []string   `json:"trade_ids"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

// SystemStatusResponse is the body of /api/system
type SystemStatusResponse struct {
	UptimeSeconds int64           `json:"uptime_seconds"`
	CPUPercent    float64         `json:"cpu_percent"`
	RAMPercent    float64         `json:"ram_percent"`
	Goroutines    int             `json:"goroutines"`
	Schedules     int             `json:"schedules"`
	ScheduledJobs int             `json:"scheduled_trades"`
	Database      *database.Stats `json:"database,omitempty"`
}

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	db          *database.DB
	schedules   ScheduleSource
	engine      NextRunProvider
	hostStats   func() (float64, float64)

	jobs          JobRunner
	walCheckpoint scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance. db, schedules
// and engine may be nil.
func NewSystemHandlers(log zerolog.Logger, db *database.DB, schedules ScheduleSource, engine NextRunProvider) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("handler", "system").Logger(),
		startupTime: time.Now(),
		db:          db,
		schedules:   schedules,
		engine:      engine,
	}
	h.hostStats = h.getSystemStats
	return h
}

// SetJobs registers job references for manual triggering
func (h *SystemHandlers) SetJobs(runner JobRunner, walCheckpoint scheduler.Job) {
	h.jobs = runner
	h.walCheckpoint = walCheckpoint
}

// HandleTriggerWALCheckpoint runs the WAL checkpoint job immediately
// POST /api/jobs/wal-checkpoint
func (h *SystemHandlers) HandleTriggerWALCheckpoint(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil || h.walCheckpoint == nil {
		h.log.Warn().Msg("WAL checkpoint job not registered yet")
		h.writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "error",
			"message": "WAL checkpoint job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual WAL checkpoint triggered")

	if err := h.jobs.RunNow(h.walCheckpoint); err != nil {
		h.log.Error().Err(err).Msg("Failed to trigger WAL checkpoint")
		h.writeJSONStatus(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "WAL checkpoint triggered successfully",
	})
}

// HandleSchedules lists schedule groups with their next fire time
func (h *SystemHandlers) HandleSchedules(w http.ResponseWriter, r *http.Request) {
	groups := h.groups()

	resp := make([]ScheduleResponse, 0, len(groups))
	for _, g := range groups {
		item := ScheduleResponse{Expression: g.Expression, TradeIDs: g.TradeIDs}
		if h.engine != nil {
			if next := h.engine.Next(g.EntryID); !next.IsZero() {
				item.NextRun = &next
			}
		}
		resp = append(resp, item)
	}

	h.writeJSON(w, map[string]interface{}{
		"schedules": resp,
		"count":     len(resp),
	})
}

// HandleSystemStatus reports host and database statistics
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.hostStats()

	groups := h.groups()
	trades := 0
	for _, g := range groups {
		trades += len(g.TradeIDs)
	}

	resp := SystemStatusResponse{
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		Schedules:     len(groups),
		ScheduledJobs: trades,
	}

	if h.db != nil {
		stats, err := h.db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to get database stats")
		} else {
			resp.Database = stats
		}
	}

	h.writeJSON(w, resp)
}

func (h *SystemHandlers) groups() []scheduler.GroupInfo {
	if h.schedules == nil {
		return nil
	}
	return h.schedules.Groups()
}

// getSystemStats calculates CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// Short sample window keeps the request from blocking
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a 200 JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *SystemHandlers) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
