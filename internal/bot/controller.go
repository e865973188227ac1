// Package bot implements the Discord commands, buttons and modals.
package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/aitrader/internal/agent"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Replies
const (
	msgSetupGuide         = "매매를 위해 필요한 정보를 등록해주세요.\n유저 정보 등록을 먼저 한 후, 프롬프트 정보 등록을 해주세요."
	msgRegisterUserFirst  = "유저 정보를 먼저 등록해주세요. (채팅에 '트레이딩시작할래!'를 입력해주세요.)"
	msgRegisterPrompt     = "프롬프트 정보를 먼저 등록해주세요. (채팅에 '트레이딩시작할래!'를 입력해주세요.)"
	msgTradingInProgress  = "트레이딩 진행중... 약 1분정도 소요됩니다 :hourglass_flowing_sand:"
	msgTestNotStored      = "\n테스트 매매는 매매 기록이 저장되지 않습니다."
	msgNoAccountInfo      = "해당 유저의 정보가 없습니다."
	msgUserMissing        = "유저 정보가 없습니다."
	msgUserRemoved        = "유저 정보 삭제가 완료되었습니다."
	msgAgreementRequired  = "동의를 하셔야 합니다."
	msgInvalidBalance     = "시작 자산은 숫자로 입력해주세요."
	msgUserSaved          = "유저 정보 등록이 완료되었습니다.\n"
	msgUpbitRegistered    = "업비트 API 등록이 완료되었습니다."
	msgUpbitNotRegistered = "업비트 API 등록을 하지 않았습니다. 테스트 매매만 가능합니다."

	agreementText         = "동의함"
	defaultInitialBalance = "1000000"
	historyFileName       = "trading-history.txt"
)

// Controller handles Discord input independent of the gateway library
type Controller struct {
	users      UserService
	trading    TradingService
	scheduler  TradeScheduler
	reporter   AccountReporter
	production bool
	log        zerolog.Logger
}

// NewController creates a new controller. Outside production the local
// live-trading command is enabled.
func NewController(users UserService, trading TradingService, scheduler TradeScheduler, reporter AccountReporter, production bool, log zerolog.Logger) *Controller {
	return &Controller{
		users:      users,
		trading:    trading,
		scheduler:  scheduler,
		reporter:   reporter,
		production: production,
		log:        log.With().Str("component", "bot_controller").Logger(),
	}
}

// HandleMessage dispatches a guild message. Unrelated messages are ignored.
func (c *Controller) HandleMessage(ctx context.Context, msg Message, r MessageResponder) error {
	content := strings.TrimSpace(msg.Content)

	switch {
	case content == CommandStart:
		_, err := r.Reply(ctx, Reply{
			Content: msgSetupGuide,
			Buttons: []Button{
				{CustomID: ButtonOpenUserSetting, Label: "유저 정보 등록"},
				{CustomID: ButtonOpenPromptSetting, Label: "프롬프트 정보 등록"},
				{CustomID: ButtonRemoveUserSetting, Label: "유저 & 프롬프트 정보 삭제", Danger: true},
			},
		})
		return err
	case content == CommandLiveTrading:
		return c.executeTrading(ctx, msg, r, false)
	case content == CommandTestTrading:
		return c.executeTrading(ctx, msg, r, true)
	case content == CommandLocalTrading && !c.production:
		return c.executeTrading(ctx, msg, r, false)
	case strings.HasPrefix(content, "<@") && strings.HasSuffix(content, commandAccountInfo):
		return c.accountInfo(ctx, msg, r)
	}
	return nil
}

func (c *Controller) executeTrading(ctx context.Context, msg Message, r MessageResponder, isTest bool) error {
	user, err := c.users.GetUser(ctx, msg.AuthorID)
	if err != nil {
		return err
	}
	if user == nil {
		_, err := r.Reply(ctx, Reply{Content: msgRegisterUserFirst})
		return err
	}

	rec, err := c.trading.GetTradeByUserID(ctx, msg.AuthorID)
	if err != nil {
		return err
	}
	if rec == nil {
		_, err := r.Reply(ctx, Reply{Content: msgRegisterPrompt})
		return err
	}

	progress := msgTradingInProgress
	if isTest {
		progress += msgTestNotStored
	}
	notice, err := r.Reply(ctx, Reply{Content: progress})
	if err != nil {
		return err
	}

	log := c.log.With().Str("user_id", msg.AuthorID).Str("trade_id", rec.ID).Bool("test", isTest).Logger()

	result, err := c.trading.ExecuteTrading(ctx, rec.ID, isTest)
	if err != nil {
		log.Warn().Err(err).Msg("Manual trading failed")
		return r.Edit(ctx, notice, Reply{Content: domain.DisplayMessage(err)})
	}

	report, err := c.reporter.Report(ctx, result.Account)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to value account after manual trading")
		report = "\n\n" + domain.AccountReportFailedMessage
	}

	history, err := json.MarshalIndent(result.History, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	return r.Edit(ctx, notice, Reply{
		Content: result.LastMessageContent + report,
		Files:   []Attachment{{Name: historyFileName, Data: history}},
	})
}

func (c *Controller) accountInfo(ctx context.Context, msg Message, r MessageResponder) error {
	target := msg.AuthorID
	if len(msg.Mentions) > 0 {
		target = msg.Mentions[0]
	}

	snapshot, err := c.trading.GetTradeAccount(ctx, target)
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", target).Msg("Failed to load account")
		_, err := r.Reply(ctx, Reply{Content: domain.DisplayMessage(err)})
		return err
	}
	if snapshot == nil {
		_, err := r.Reply(ctx, Reply{Content: msgNoAccountInfo})
		return err
	}

	report, err := c.reporter.Report(ctx, *snapshot)
	if err != nil {
		return err
	}
	_, err = r.Reply(ctx, Reply{
		Content: fmt.Sprintf("%s님의 계좌 정보입니다.\n%s", domain.Mention(target), strings.TrimLeft(report, "\n")),
	})
	return err
}

// HandleInteraction dispatches a button click or modal submission
func (c *Controller) HandleInteraction(ctx context.Context, in Interaction, r InteractionResponder) error {
	switch in.Kind {
	case InteractionButton:
		switch in.CustomID {
		case ButtonOpenUserSetting:
			return c.openUserSetting(ctx, in, r)
		case ButtonOpenPromptSetting:
			return c.openPromptSetting(ctx, in, r)
		case ButtonRemoveUserSetting:
			return c.removeUserSetting(ctx, in, r)
		}
	case InteractionModalSubmit:
		switch in.CustomID {
		case ModalUserSetting:
			return c.submitUserSetting(ctx, in, r)
		case ModalPromptSetting:
			return c.submitPromptSetting(ctx, in, r)
		}
	}
	return nil
}

func (c *Controller) openUserSetting(ctx context.Context, in Interaction, r InteractionResponder) error {
	user, err := c.users.GetUser(ctx, in.UserID)
	if err != nil {
		return err
	}
	return r.ShowModal(ctx, UserSettingModal(user))
}

func (c *Controller) openPromptSetting(ctx context.Context, in Interaction, r InteractionResponder) error {
	user, err := c.users.GetUser(ctx, in.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return r.Respond(ctx, Reply{Content: "유저 정보를 먼저 등록해주세요.", Ephemeral: true})
	}

	rec, err := c.trading.GetTradeByUserID(ctx, in.UserID)
	if err != nil {
		return err
	}
	return r.ShowModal(ctx, PromptSettingModal(rec))
}

func (c *Controller) removeUserSetting(ctx context.Context, in Interaction, r InteractionResponder) error {
	if err := c.removeUser(ctx, in.UserID); err != nil {
		c.log.Warn().Err(err).Str("user_id", in.UserID).Msg("Failed to remove user setting")
		return r.Respond(ctx, Reply{Content: domain.DisplayMessage(err), Ephemeral: true})
	}
	return r.Respond(ctx, Reply{Content: msgUserRemoved, Ephemeral: true})
}

// removeUser drops the schedule before the record it is read from
func (c *Controller) removeUser(ctx context.Context, userID string) error {
	user, err := c.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.NewUserError(msgUserMissing)
	}

	if err := c.users.DeleteUser(ctx, userID); err != nil {
		return err
	}
	if err := c.scheduler.RemoveTradeCronByUserID(ctx, userID); err != nil {
		return err
	}
	return c.trading.RemoveTradeInfoByUserID(ctx, userID)
}

func (c *Controller) submitUserSetting(ctx context.Context, in Interaction, r InteractionResponder) error {
	if strings.TrimSpace(in.Field(FieldAgree)) != agreementText {
		return r.Respond(ctx, Reply{Content: msgAgreementRequired, Ephemeral: true})
	}

	initial, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(in.Field(FieldInitialBalance)), ",", ""))
	if err != nil || initial.IsNegative() {
		return r.Respond(ctx, Reply{Content: msgInvalidBalance, Ephemeral: true})
	}

	accessKey := strings.TrimSpace(in.Field(FieldAccessKey))
	user := domain.User{
		UserID:         in.UserID,
		ServerID:       in.GuildID,
		ChannelID:      in.ChannelID,
		Nickname:       in.Username,
		InitialBalance: initial,
		UpbitAccessKey: accessKey,
		UpbitSecretKey: strings.TrimSpace(in.Field(FieldSecretKey)),
	}
	if err := c.users.UpsertUser(ctx, user); err != nil {
		c.log.Info().Err(err).Str("user_id", in.UserID).Msg("User registration rejected")
		return r.Respond(ctx, Reply{Content: domain.DisplayMessage(err), Ephemeral: true})
	}

	status := msgUpbitNotRegistered
	if accessKey != "" {
		status = msgUpbitRegistered
	}
	return r.Respond(ctx, Reply{Content: msgUserSaved + status, Ephemeral: true})
}

func (c *Controller) submitPromptSetting(ctx context.Context, in Interaction, r InteractionResponder) error {
	userMessage := in.Field(FieldUserMessage)
	cronInput := strings.TrimSpace(in.Field(FieldCron))

	expr, err := c.savePrompt(ctx, in)
	if err != nil {
		c.log.Info().Err(err).Str("user_id", in.UserID).Msg("Prompt setting rejected")
		if cronInput == "" {
			cronInput = "없음"
		}
		return r.Respond(ctx, Reply{
			Content:   fmt.Sprintf("%s\n입력 프롬프트: %s\n입력 시간: %s", domain.DisplayMessage(err), userMessage, cronInput),
			Ephemeral: true,
		})
	}

	schedule := expr
	if schedule == "" {
		schedule = "없음"
	}
	return r.Respond(ctx, Reply{
		Content: fmt.Sprintf("%s님의 프롬프트 정보 등록이 완료되었습니다.\n프롬프트: ```%s```\n시간: %s\n\n"+
			"정해진 시간에 매매가 진행됩니다. 혹은 '%s'나 '%s'를 입력해주세요.",
			domain.Mention(in.UserID), userMessage, schedule, CommandLiveTrading, CommandTestTrading),
	})
}

// savePrompt stores the prompt and moves the user's trade to its new
// schedule. Only users with exchange keys get a schedule.
func (c *Controller) savePrompt(ctx context.Context, in Interaction) (string, error) {
	user, err := c.users.GetUser(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domain.NewUserError(msgRegisterUserFirst)
	}

	var expr string
	if user.HasCredentials() {
		if expr, err = HoursToCron(in.Field(FieldCron)); err != nil {
			return "", err
		}
	}
	if expr != "" && !c.scheduler.ValidateCronTime(expr) {
		return "", domain.NewUserError(InvalidHoursMessage)
	}

	model := strings.TrimSpace(in.Field(FieldModel))
	if model == "" {
		model = agent.ModelGPT
	}
	if !agent.IsKnownModel(model) {
		return "", domain.NewUserError(agent.UnknownModelMessage)
	}

	if err := c.scheduler.RemoveTradeCronByUserID(ctx, in.UserID); err != nil {
		return "", err
	}

	rec, err := c.trading.UpsertTradeInfo(ctx, domain.TradeRecord{
		UserID:        in.UserID,
		SystemMessage: in.Field(FieldSystemMessage),
		UserMessage:   in.Field(FieldUserMessage),
		CronTime:      expr,
		Model:         model,
	})
	if err != nil {
		return "", err
	}

	if expr != "" {
		if err := c.scheduler.AddTradeCron(rec.ID, expr); err != nil {
			return "", err
		}
	}
	return expr, nil
}
