/**
 * Package di provides dependency injection type definitions.
 *
 * The Container holds every application dependency and is the single
 * source of truth for service instances used by the bot, the trading cron
 * and the admin server.
 */
package di

import (
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aristath/aitrader/internal/agent"
	"github.com/aristath/aitrader/internal/archive"
	"github.com/aristath/aitrader/internal/bot"
	"github.com/aristath/aitrader/internal/clients/community"
	"github.com/aristath/aitrader/internal/clients/upbit"
	"github.com/aristath/aitrader/internal/database"
	"github.com/aristath/aitrader/internal/discord"
	"github.com/aristath/aitrader/internal/metrics"
	"github.com/aristath/aitrader/internal/modules/account"
	"github.com/aristath/aitrader/internal/modules/trades"
	"github.com/aristath/aitrader/internal/modules/trading"
	"github.com/aristath/aitrader/internal/modules/users"
	"github.com/aristath/aitrader/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Database
	DB *database.DB

	// Repositories
	TradeRepo *trades.Repository
	UserRepo  *users.Repository

	// Clients
	UpbitClient     *upbit.Client
	CommunityClient *community.Client // nil when DCINSIDE_APP_ID is unset
	Discord         *discordgo.Session
	Messenger       *discord.Messenger

	// Services
	Valuer         *account.Valuer
	UserService    *users.Service
	Runner         *agent.Runner
	Archive        *archive.S3Archive // nil when archiving is disabled
	TradingService *trading.Service

	// Scheduling
	Registry    *prometheus.Registry
	Metrics     *metrics.TradingMetrics
	Scheduler   *scheduler.Scheduler
	TradingCron *scheduler.TradingCron

	// Discord command layer
	Controller *bot.Controller
	Router     *bot.Router
}

// Close releases the resources owned by the container
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

// Compile-time checks that the concrete services satisfy the scheduler and bot contracts
var (
	_ scheduler.TradeStore      = (*trading.Service)(nil)
	_ scheduler.TradeExecutor   = (*trading.Service)(nil)
	_ scheduler.UserStore       = (*users.Service)(nil)
	_ scheduler.AccountReporter = (*account.Valuer)(nil)
	_ scheduler.Messenger       = (*discord.Messenger)(nil)
	_ bot.UserService           = (*users.Service)(nil)
	_ bot.TradingService        = (*trading.Service)(nil)
	_ bot.TradeScheduler        = (*scheduler.TradingCron)(nil)
	_ bot.AccountReporter       = (*account.Valuer)(nil)
	_ agent.CommunitySource     = (*community.Client)(nil)
)
