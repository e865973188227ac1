// Package trading runs AI trading sessions and manages trade records.
package trading

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/aitrader/internal/agent"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/rs/zerolog"
)

// User-facing errors
const (
	TradeNotFoundMessage = "해당하는 거래 정보를 찾을 수 없습니다."
	UserNotFoundMessage  = "해당하는 사용자를 찾을 수 없습니다."
	MissingAPIKeyMessage = "업비트 API 키가 등록되지 않았습니다."
)

// TradeRepositoryInterface defines the interface for trade record persistence
type TradeRepositoryInterface interface {
	// FindAll returns every trade record
	FindAll(ctx context.Context) ([]domain.TradeRecord, error)

	// FindByID returns a record, or nil if missing
	FindByID(ctx context.Context, id string) (*domain.TradeRecord, error)

	// FindByUserID returns a user's record, or nil if missing
	FindByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error)

	// Upsert creates or replaces the user's record and returns the stored row
	Upsert(ctx context.Context, rec domain.TradeRecord) (*domain.TradeRecord, error)

	// DeleteByUserID removes the user's record
	DeleteByUserID(ctx context.Context, userID string) error

	// UpdateLastMessages stores the latest agent history
	UpdateLastMessages(ctx context.Context, id string, history []domain.HistoryEntry) error
}

// UserRepositoryInterface looks up registered users
type UserRepositoryInterface interface {
	FindByUserID(ctx context.Context, userID string) (*domain.User, error)
}

// HistoryArchive keeps a copy of executed session histories
type HistoryArchive interface {
	Store(ctx context.Context, userID string, at time.Time, history []domain.HistoryEntry) error
}

// SessionRunner runs one agent session
type SessionRunner interface {
	Run(ctx context.Context, s agent.Session) (*agent.Result, error)
}

// Dependencies wires the trading service
type Dependencies struct {
	Trades    TradeRepositoryInterface
	Users     UserRepositoryInterface
	Quotation domain.Quotation
	Exchanges domain.ExchangeFactory
	// PaperExchange builds the simulated account used for test trading
	PaperExchange func() domain.Exchange
	Valuer        agent.AccountValuer
	Clients       agent.ClientFactory
	Runner        SessionRunner
	Archive       HistoryArchive        // Optional
	Community     agent.CommunitySource // Optional
	Now           func() time.Time
	Log           zerolog.Logger
}

// Service executes trading sessions
type Service struct {
	trades        TradeRepositoryInterface
	users         UserRepositoryInterface
	quotation     domain.Quotation
	exchanges     domain.ExchangeFactory
	paperExchange func() domain.Exchange
	valuer        agent.AccountValuer
	clients       agent.ClientFactory
	runner        SessionRunner
	archive       HistoryArchive
	community     agent.CommunitySource
	now           func() time.Time
	log           zerolog.Logger
}

// NewService creates a new trading service
func NewService(deps Dependencies) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		trades:        deps.Trades,
		users:         deps.Users,
		quotation:     deps.Quotation,
		exchanges:     deps.Exchanges,
		paperExchange: deps.PaperExchange,
		valuer:        deps.Valuer,
		clients:       deps.Clients,
		runner:        deps.Runner,
		archive:       deps.Archive,
		community:     deps.Community,
		now:           now,
		log:           deps.Log.With().Str("service", "trading").Logger(),
	}
}

// ExecuteTrading runs the agent for a trade record. Test sessions trade a
// fresh paper account and leave the stored history untouched; live
// sessions store the history even when the agent fails.
func (s *Service) ExecuteTrading(ctx context.Context, tradeID string, isTest bool) (*domain.TradeResult, error) {
	rec, err := s.trades.FindByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade %s: %w", tradeID, err)
	}
	if rec == nil {
		return nil, domain.NewUserError(TradeNotFoundMessage)
	}

	user, err := s.users.FindByUserID(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", rec.UserID, err)
	}
	if user == nil {
		return nil, domain.NewUserError(UserNotFoundMessage)
	}

	var exchange domain.Exchange
	if isTest {
		exchange = s.paperExchange()
	} else {
		if !user.HasCredentials() {
			return nil, domain.NewUserError(MissingAPIKeyMessage)
		}
		exchange = s.exchanges(user.UpbitAccessKey, user.UpbitSecretKey)
	}

	model, err := agent.LookupModel(rec.Model)
	if err != nil {
		return nil, err
	}

	log := s.log.With().
		Str("trade_id", rec.ID).
		Str("user_id", rec.UserID).
		Str("model", model.ID).
		Bool("test", isTest).
		Logger()
	log.Info().Msg("Executing trading session")

	started := s.now()
	res, runErr := s.runner.Run(ctx, agent.Session{
		Client:       s.clients(model),
		Model:        model,
		SystemPrompt: agent.SystemPrompt(rec.SystemMessage),
		UserMessage:  rec.UserMessage,
		Tools:        agent.TradingTools(s.community, s.quotation, exchange, s.valuer),
	})
	if res == nil {
		res = &agent.Result{}
	}

	if !isTest {
		s.persist(ctx, log, rec, started, res.History)
	}
	if runErr != nil {
		log.Warn().Err(runErr).Int("history", len(res.History)).Msg("Trading session failed")
		return nil, runErr
	}

	balances, err := exchange.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load account after trading: %w", err)
	}

	log.Info().Int("history", len(res.History)).Dur("took", s.now().Sub(started)).Msg("Trading session finished")

	return &domain.TradeResult{
		LastMessageContent: res.LastMessage,
		Account:            domain.AccountSnapshot{Balances: balances, FetchedAt: s.now()},
		History:            res.History,
	}, nil
}

// persist stores the session history. Failures are logged; they never
// replace the session outcome.
func (s *Service) persist(ctx context.Context, log zerolog.Logger, rec *domain.TradeRecord, at time.Time, history []domain.HistoryEntry) {
	if err := s.trades.UpdateLastMessages(ctx, rec.ID, history); err != nil {
		log.Error().Err(err).Msg("Failed to store trading history")
	}
	if s.archive == nil || len(history) == 0 {
		return
	}
	if err := s.archive.Store(ctx, rec.UserID, at, history); err != nil {
		log.Warn().Err(err).Msg("Failed to archive trading history")
	}
}

// UpsertTradeInfo creates or replaces the user's trade record. A blank model
// falls back to the default; an unknown one is rejected.
func (s *Service) UpsertTradeInfo(ctx context.Context, rec domain.TradeRecord) (*domain.TradeRecord, error) {
	if rec.Model == "" {
		rec.Model = agent.ModelGPT
	}
	if !agent.IsKnownModel(rec.Model) {
		return nil, domain.NewUserError(agent.UnknownModelMessage)
	}
	return s.trades.Upsert(ctx, rec)
}

// RemoveTradeInfoByUserID deletes the user's trade record
func (s *Service) RemoveTradeInfoByUserID(ctx context.Context, userID string) error {
	return s.trades.DeleteByUserID(ctx, userID)
}

// GetTradeByUserID returns the user's record, or nil
func (s *Service) GetTradeByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error) {
	return s.trades.FindByUserID(ctx, userID)
}

// GetTradeByID returns a record, or nil
func (s *Service) GetTradeByID(ctx context.Context, id string) (*domain.TradeRecord, error) {
	return s.trades.FindByID(ctx, id)
}

// GetAllTradeInfo returns every record
func (s *Service) GetAllTradeInfo(ctx context.Context) ([]domain.TradeRecord, error) {
	return s.trades.FindAll(ctx)
}

// GetTradeAccount returns the user's live exchange balances, or nil when
// the user is unknown or has no keys
func (s *Service) GetTradeAccount(ctx context.Context, userID string) (*domain.AccountSnapshot, error) {
	user, err := s.users.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if user == nil || !user.HasCredentials() {
		return nil, nil
	}

	balances, err := s.exchanges(user.UpbitAccessKey, user.UpbitSecretKey).Accounts(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.AccountSnapshot{Balances: balances, FetchedAt: s.now()}, nil
}
