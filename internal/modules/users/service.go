package users

import (
	"context"
	"fmt"
	"sort"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
)

// InvalidAPIKeyMessage is shown when exchange keys cannot list accounts
const InvalidAPIKeyMessage = "API 키가 올바르지 않거나 허용 IP가 등록되지 않았습니다."

// valuationWorkers bounds concurrent account lookups while ranking a channel
const valuationWorkers = 4

var hundred = decimal.NewFromInt(100)

// AccountValuer prices balances in KRW
type AccountValuer interface {
	TotalBalance(ctx context.Context, balances []domain.Balance) (decimal.Decimal, error)
}

// Service provides user registration and ranking
type Service struct {
	repo      *Repository
	exchanges domain.ExchangeFactory
	valuer    AccountValuer
	log       zerolog.Logger
}

// NewService creates a new user service
func NewService(repo *Repository, exchanges domain.ExchangeFactory, valuer AccountValuer, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		exchanges: exchanges,
		valuer:    valuer,
		log:       log.With().Str("service", "users").Logger(),
	}
}

// GetUser returns the user, or nil if not registered
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// UpsertUser registers or updates a user. Supplied exchange keys are checked
// by listing the account before anything is stored.
func (s *Service) UpsertUser(ctx context.Context, user domain.User) error {
	if user.UpbitAccessKey != "" || user.UpbitSecretKey != "" {
		if _, err := s.exchanges(user.UpbitAccessKey, user.UpbitSecretKey).Accounts(ctx); err != nil {
			s.log.Info().Err(err).Str("user_id", user.UserID).Msg("Rejected exchange keys")
			return domain.WrapUserError(InvalidAPIKeyMessage, err)
		}
	}
	return s.repo.Upsert(ctx, user)
}

// DeleteUser removes a user's registration
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

// GetTradeUserChannels returns channels with at least one live trader
func (s *Service) GetTradeUserChannels(ctx context.Context) ([]string, error) {
	return s.repo.FindTradeChannels(ctx)
}

// GetTradingList ranks a channel's live traders by return rate, best first.
// Ties are ordered by user id. Users whose account cannot be valued are left out.
func (s *Service) GetTradingList(ctx context.Context, channelID string) ([]domain.Ranking, error) {
	users, err := s.repo.FindTradersByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[*domain.Ranking]().WithMaxGoroutines(valuationWorkers)
	for _, user := range users {
		user := user
		p.Go(func() *domain.Ranking {
			ranking, err := s.rank(ctx, user)
			if err != nil {
				s.log.Warn().Err(err).Str("user_id", user.UserID).Msg("Skipping user in ranking")
				return nil
			}
			return ranking
		})
	}

	rankings := make([]domain.Ranking, 0, len(users))
	for _, r := range p.Wait() {
		if r != nil {
			rankings = append(rankings, *r)
		}
	}
	SortRankings(rankings)
	return rankings, nil
}

func (s *Service) rank(ctx context.Context, user domain.User) (*domain.Ranking, error) {
	balances, err := s.exchanges(user.UpbitAccessKey, user.UpbitSecretKey).Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	total, err := s.valuer.TotalBalance(ctx, balances)
	if err != nil {
		return nil, err
	}
	return &domain.Ranking{
		User:         user,
		TotalBalance: total,
		Rate:         ReturnRate(total, user.InitialBalance),
	}, nil
}

// ReturnRate is (total - initial) / initial * 100 rounded to two decimals, zero when initial is not positive
func ReturnRate(total, initial decimal.Decimal) decimal.Decimal {
	if !initial.IsPositive() {
		return decimal.Zero
	}
	return total.Sub(initial).Div(initial).Mul(hundred).Round(2)
}

// SortRankings orders by rate descending, then user id ascending
func SortRankings(rankings []domain.Ranking) {
	sort.SliceStable(rankings, func(i, j int) bool {
		if c := rankings[i].Rate.Cmp(rankings[j].Rate); c != 0 {
			return c > 0
		}
		return rankings[i].User.UserID < rankings[j].User.UserID
	})
}
