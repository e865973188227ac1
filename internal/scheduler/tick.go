package scheduler

import (
	"context"
	"fmt"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/aristath/aitrader/internal/metrics"
)

// groupJob is the periodic job of one schedule group
type groupJob struct {
	cron *TradingCron
	expr string
}

func (j *groupJob) Name() string {
	return "trade_cron:" + j.expr
}

func (j *groupJob) Run() error {
	j.cron.runTick(j.expr)
	return nil
}

// runTick executes every trade of expr's group in snapshot order.
// A trade's failure or panic never stops the remaining trades.
func (c *TradingCron) runTick(expr string) {
	started := c.now()
	tradeIDs := c.table.Snapshot(expr)
	dayLabel := DayLabel(started, c.loc)
	threads := make(map[string]*domain.Channel)

	c.log.Info().
		Str("cron_time", expr).
		Strs("trade_ids", tradeIDs).
		Msg("Trading tick started")

	for _, tradeID := range tradeIDs {
		if c.ctx.Err() != nil {
			c.log.Warn().Str("cron_time", expr).Msg("Trading tick interrupted by shutdown")
			break
		}
		c.metrics.TradeOutcome(c.runTrade(expr, tradeID, dayLabel, threads))
	}

	elapsed := c.now().Sub(started)
	c.metrics.ObserveTick(elapsed)
	c.log.Info().
		Str("cron_time", expr).
		Dur("elapsed", elapsed).
		Msg("Trading tick completed")
}

func (c *TradingCron) runTrade(expr, tradeID, dayLabel string, threads map[string]*domain.Channel) (outcome string) {
	log := c.log.With().Str("cron_time", expr).Str("trade_id", tradeID).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Trade panicked")
			outcome = metrics.OutcomePanic
		}
	}()

	ctx := c.ctx

	record, err := c.trades.GetTradeByID(ctx, tradeID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load trade record")
		return metrics.OutcomeFailure
	}
	if record == nil {
		log.Debug().Msg("Trade record no longer exists")
		return metrics.OutcomeSkipped
	}

	if record.CronTime != expr {
		c.RemoveTradeCron(tradeID, expr)
		if record.HasSchedule() {
			if err := c.AddTradeCron(tradeID, record.CronTime); err != nil {
				log.Warn().Err(err).Str("new_cron_time", record.CronTime).Msg("Failed to move trade to new schedule")
				return metrics.OutcomeSkipped
			}
		}
		log.Info().Str("new_cron_time", record.CronTime).Msg("Trade schedule changed, regrouped")
		return metrics.OutcomeSkipped
	}

	user, err := c.users.GetUser(ctx, record.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", record.UserID).Msg("Failed to load user")
		return metrics.OutcomeFailure
	}
	if user == nil {
		log.Debug().Str("user_id", record.UserID).Msg("User no longer exists")
		return metrics.OutcomeSkipped
	}

	thread, err := c.resolveThread(ctx, user.ChannelID, dayLabel, threads)
	if err != nil {
		log.Error().Err(err).Str("channel_id", user.ChannelID).Msg("Failed to resolve trading thread")
		return metrics.OutcomeFailure
	}
	if thread == nil {
		log.Warn().Str("channel_id", user.ChannelID).Msg("Channel is not a guild text channel")
		return metrics.OutcomeSkipped
	}

	notice, err := c.messenger.Send(ctx, thread.ID, fmt.Sprintf("%s님의 트레이딩이 실행되었습니다.", user.Nickname))
	if err != nil {
		log.Error().Err(err).Str("thread_id", thread.ID).Msg("Failed to post start notice")
		return metrics.OutcomeFailure
	}

	content, outcome := c.execute(ctx, tradeID, user)
	if err := c.messenger.Edit(ctx, notice, content); err != nil {
		log.Error().Err(err).Str("message_id", notice.ID).Msg("Failed to post trade result")
	}
	return outcome
}

// execute runs the trade and renders the message replacing the start notice
func (c *TradingCron) execute(ctx context.Context, tradeID string, user *domain.User) (content, outcome string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("trade_id", tradeID).Msg("Trade execution panicked")
			content = domain.UnknownErrorMessage + " " + user.Mention()
			outcome = metrics.OutcomePanic
		}
	}()

	result, err := c.executor.ExecuteTrading(ctx, tradeID, false)
	if err != nil {
		c.log.Warn().Err(err).Str("trade_id", tradeID).Str("user_id", user.UserID).Msg("Trade failed")
		return domain.DisplayMessage(err) + " " + user.Mention(), metrics.OutcomeFailure
	}

	// The trade already happened; a valuation failure only loses the summary
	report, err := c.reporter.Report(ctx, result.Account)
	if err != nil {
		c.log.Warn().Err(err).Str("trade_id", tradeID).Str("user_id", user.UserID).Msg("Failed to value account after trade")
		report = "\n\n" + domain.AccountReportFailedMessage
	}
	return result.LastMessageContent + report + " " + user.Mention(), metrics.OutcomeSuccess
}

// resolveThread finds or creates today's trading thread under channelID.
// Returns nil, nil when the channel cannot hold threads.
func (c *TradingCron) resolveThread(ctx context.Context, channelID, dayLabel string, threads map[string]*domain.Channel) (*domain.Channel, error) {
	var thread *domain.Channel

	err := c.lock.Do(ctx, channelID, func() error {
		if cached, ok := threads[channelID]; ok {
			thread = cached
			return nil
		}

		channel, err := c.messenger.FetchChannel(ctx, channelID)
		if err != nil {
			return fmt.Errorf("failed to fetch channel: %w", err)
		}
		if !channel.IsText() {
			return nil
		}

		existing, err := c.messenger.FindActiveThread(ctx, channel, dayLabel)
		if err != nil {
			return fmt.Errorf("failed to list active threads: %w", err)
		}
		if existing == nil {
			existing, err = c.messenger.CreateThread(ctx, channel, ThreadName(dayLabel))
			if err != nil {
				return fmt.Errorf("failed to create thread: %w", err)
			}
		}

		threads[channelID] = existing
		thread = existing
		return nil
	})

	return thread, err
}
