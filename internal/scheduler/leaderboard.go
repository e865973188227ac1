package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/aristath/aitrader/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// LeaderboardJob posts the daily return ranking to every channel with live traders
type LeaderboardJob struct {
	users     UserStore
	messenger Messenger
	metrics   *metrics.TradingMetrics
	log       zerolog.Logger
	ctx       context.Context
}

// NewLeaderboardJob creates a new LeaderboardJob
func NewLeaderboardJob(users UserStore, messenger Messenger, m *metrics.TradingMetrics, log zerolog.Logger) *LeaderboardJob {
	return &LeaderboardJob{
		users:     users,
		messenger: messenger,
		metrics:   m,
		log:       log.With().Str("job", "trade_rank").Logger(),
		ctx:       context.Background(),
	}
}

// Name returns the job name
func (j *LeaderboardJob) Name() string {
	return "trade_rank"
}

// Run posts one leaderboard per channel. A failing channel does not stop the others.
func (j *LeaderboardJob) Run() error {
	channels, err := j.users.GetTradeUserChannels(j.ctx)
	if err != nil {
		return fmt.Errorf("failed to list trading channels: %w", err)
	}

	posted := 0
	for _, channelID := range channels {
		err := j.postChannel(j.ctx, channelID)
		j.metrics.LeaderboardPosted(err)
		if err != nil {
			j.log.Warn().Err(err).Str("channel_id", channelID).Msg("Failed to post leaderboard")
			continue
		}
		posted++
	}

	j.log.Info().
		Int("channels", len(channels)).
		Int("posted", posted).
		Msg("Leaderboard posted")

	return nil
}

func (j *LeaderboardJob) postChannel(ctx context.Context, channelID string) error {
	rankings, err := j.users.GetTradingList(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to rank channel: %w", err)
	}

	channel, err := j.messenger.FetchChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to fetch channel: %w", err)
	}
	if !channel.IsText() {
		j.log.Debug().Str("channel_id", channelID).Msg("Channel is not a guild text channel")
		return nil
	}

	_, err = j.messenger.Send(ctx, channel.ID, FormatLeaderboard(rankings))
	return err
}

// FormatLeaderboard renders rankings, already ordered best first
func FormatLeaderboard(rankings []domain.Ranking) string {
	var b strings.Builder
	b.WriteString("*트레이딩 순위*\n\n")

	rates := make([]float64, 0, len(rankings))
	for i, r := range rankings {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d위: %s - 수익율 %s%% (%s원)",
			i+1, domain.Mention(r.User.UserID), r.Rate.Round(2).String(), r.TotalBalance.String())
		rates = append(rates, r.Rate.InexactFloat64())
	}

	if len(rates) > 0 {
		mean := decimal.NewFromFloat(stat.Mean(rates, nil)).Round(2)
		fmt.Fprintf(&b, "\n\n채널 평균 수익율: %s%%", mean.String())
	}

	return b.String()
}
