package di

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/aristath/aitrader/internal/agent"
	"github.com/aristath/aitrader/internal/archive"
	"github.com/aristath/aitrader/internal/bot"
	"github.com/aristath/aitrader/internal/clients/community"
	"github.com/aristath/aitrader/internal/clients/upbit"
	"github.com/aristath/aitrader/internal/config"
	"github.com/aristath/aitrader/internal/discord"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/aristath/aitrader/internal/metrics"
	"github.com/aristath/aitrader/internal/modules/account"
	"github.com/aristath/aitrader/internal/modules/trading"
	"github.com/aristath/aitrader/internal/modules/users"
	"github.com/aristath/aitrader/internal/scheduler"
)

// InitializeServices creates clients, services, the trading cron and the
// Discord command layer. The Discord session is created but not opened.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.TradeRepo == nil || container.UserRepo == nil {
		return fmt.Errorf("repositories are not initialized")
	}

	// Exchange
	container.UpbitClient = upbit.NewClient(cfg.UpbitBaseURL, log)
	container.Valuer = account.NewValuer(container.UpbitClient, log)
	container.UserService = users.NewService(container.UserRepo, container.UpbitClient.ExchangeFactory(), container.Valuer, log)

	// Agent
	container.Runner = agent.NewRunner(agent.DefaultMaxSteps, log)
	clients := agent.NewClientFactory(agent.APIKeys{
		OpenAI:    cfg.OpenAIAPIKey,
		Anthropic: cfg.AnthropicAPIKey,
		DeepSeek:  cfg.DeepSeekAPIKey,
	})

	// Archive is optional; keep the interface nil when disabled
	var history trading.HistoryArchive
	if cfg.Archive.Enabled() {
		store, err := archive.NewS3Archive(ctx, archive.Options{
			Bucket:    cfg.Archive.Bucket,
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize history archive: %w", err)
		}
		container.Archive = store
		history = store
	}

	// Community boards are optional; keep the interface nil without an app id
	var boards agent.CommunitySource
	if cfg.DCInsideAppID != "" {
		container.CommunityClient = community.NewClient(cfg.DCInsideBaseURL, cfg.DCInsideAppID, log)
		boards = container.CommunityClient
	}

	quotation := container.UpbitClient
	container.TradingService = trading.NewService(trading.Dependencies{
		Trades:    container.TradeRepo,
		Users:     container.UserRepo,
		Quotation: quotation,
		Exchanges: container.UpbitClient.ExchangeFactory(),
		PaperExchange: func() domain.Exchange {
			return upbit.NewMockExchange(quotation)
		},
		Valuer:    container.Valuer,
		Clients:   clients,
		Runner:    container.Runner,
		Archive:   history,
		Community: boards,
		Log:       log,
	})

	// Discord
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent
	container.Discord = session
	container.Messenger = discord.NewMessenger(session, log)

	// Metrics
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.Metrics = metrics.NewTradingMetrics(container.Registry)

	// Scheduling
	leaderboard := cfg.LeaderboardSchedule
	if cfg.IsTest() {
		leaderboard = ""
	}
	container.Scheduler = scheduler.New(log, cfg.Location())
	container.TradingCron = scheduler.NewTradingCron(scheduler.TradingCronConfig{
		Engine:              container.Scheduler,
		Trades:              container.TradingService,
		Executor:            container.TradingService,
		Users:               container.UserService,
		Reporter:            container.Valuer,
		Messenger:           container.Messenger,
		Metrics:             container.Metrics,
		Location:            cfg.Location(),
		Log:                 log,
		LeaderboardSchedule: leaderboard,
	})

	// Command layer
	container.Controller = bot.NewController(
		container.UserService,
		container.TradingService,
		container.TradingCron,
		container.Valuer,
		cfg.IsProduction(),
		log,
	)
	container.Router = bot.NewRouter(container.Controller, log)

	return nil
}
