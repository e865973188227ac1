// Package scheduler runs the periodic AI trading jobs.
//
// Trades sharing an identical schedule expression are grouped under one cron
// entry. Every tick re-reads each trade record and moves it to its current
// expression when it changed, so the table heals itself without a restart.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/aitrader/internal/metrics"
	"github.com/rs/zerolog"
)

// Engine is a JobEngine whose lifecycle TradingCron controls
type Engine interface {
	JobEngine
	Start()
	Stop()
}

// TradingCronConfig holds the collaborators of TradingCron
type TradingCronConfig struct {
	Engine    Engine
	Trades    TradeStore
	Executor  TradeExecutor
	Users     UserStore
	Reporter  AccountReporter
	Messenger Messenger
	Metrics   *metrics.TradingMetrics
	Location  *time.Location
	Log       zerolog.Logger

	// LeaderboardSchedule is empty when the leaderboard is disabled
	LeaderboardSchedule string

	// Now is overridable in tests
	Now func() time.Time
}

// TradingCron owns the schedule table and the jobs it drives
type TradingCron struct {
	engine    Engine
	table     *ScheduleTable
	lock      *ChannelLock
	trades    TradeStore
	executor  TradeExecutor
	users     UserStore
	reporter  AccountReporter
	messenger Messenger
	metrics   *metrics.TradingMetrics
	loc       *time.Location
	now       func() time.Time
	log       zerolog.Logger

	leaderboardSchedule string

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewTradingCron creates the scheduler core. Call Init to load trades and start.
func NewTradingCron(cfg TradingCronConfig) *TradingCron {
	ctx, cancel := context.WithCancel(context.Background())

	c := &TradingCron{
		engine:              cfg.Engine,
		lock:                NewChannelLock(),
		trades:              cfg.Trades,
		executor:            cfg.Executor,
		users:               cfg.Users,
		reporter:            cfg.Reporter,
		messenger:           cfg.Messenger,
		metrics:             cfg.Metrics,
		loc:                 cfg.Location,
		now:                 cfg.Now,
		log:                 cfg.Log.With().Str("component", "trading_cron").Logger(),
		leaderboardSchedule: cfg.LeaderboardSchedule,
		ctx:                 ctx,
		cancel:              cancel,
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.table = NewScheduleTable(cfg.Engine, func(expr string) Job {
		return &groupJob{cron: c, expr: expr}
	})
	return c
}

// Init loads every trade record, registers those with a schedule, starts the
// leaderboard job when configured and starts the engine.
func (c *TradingCron) Init(ctx context.Context) error {
	records, err := c.trades.GetAllTradeInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trade records: %w", err)
	}

	for _, record := range records {
		if !record.HasSchedule() {
			continue
		}
		if err := c.AddTradeCron(record.ID, record.CronTime); err != nil {
			c.log.Warn().
				Err(err).
				Str("trade_id", record.ID).
				Str("cron_time", record.CronTime).
				Msg("Skipping trade with invalid schedule")
		}
	}

	groups, trades := c.table.Len()
	c.log.Info().
		Int("groups", groups).
		Int("trades", trades).
		Msg("Trading schedules loaded")

	if c.leaderboardSchedule != "" {
		job := NewLeaderboardJob(c.users, c.messenger, c.metrics, c.log)
		job.ctx = c.ctx
		if _, err := c.engine.AddJob(c.leaderboardSchedule, job); err != nil {
			return fmt.Errorf("failed to start leaderboard: %w", err)
		}
	}

	c.engine.Start()
	return nil
}

// Stop cancels in-flight work and waits for running jobs to return
func (c *TradingCron) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.engine.Stop()
	})
}

// AddTradeCron registers tradeID under expr
func (c *TradingCron) AddTradeCron(tradeID, expr string) error {
	if err := c.table.Add(tradeID, expr); err != nil {
		return err
	}
	c.metrics.SetGroups(c.table.Len())
	return nil
}

// RemoveTradeCron drops tradeID from expr's group
func (c *TradingCron) RemoveTradeCron(tradeID, expr string) {
	c.table.Remove(tradeID, expr)
	c.metrics.SetGroups(c.table.Len())
}

// RemoveTradeCronByUserID removes the user's trade from the group of its
// stored schedule. Users without a trade or schedule are ignored.
func (c *TradingCron) RemoveTradeCronByUserID(ctx context.Context, userID string) error {
	record, err := c.trades.GetTradeByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load trade for user %s: %w", userID, err)
	}
	if record == nil || !record.HasSchedule() {
		return nil
	}
	if _, ok := c.table.Get(record.CronTime); !ok {
		return nil
	}

	c.RemoveTradeCron(record.ID, record.CronTime)
	return nil
}

// ValidateCronTime reports whether expr is a well-formed schedule expression
func (c *TradingCron) ValidateCronTime(expr string) bool {
	return Validate(expr)
}

// GetTradingCronsByCronTime returns a copy of expr's group
func (c *TradingCron) GetTradingCronsByCronTime(expr string) (GroupInfo, bool) {
	return c.table.Get(expr)
}

// Groups returns copies of every schedule group
func (c *TradingCron) Groups() []GroupInfo {
	return c.table.Groups()
}
