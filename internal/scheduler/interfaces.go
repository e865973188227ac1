package scheduler

import (
	"context"

	"github.com/aristath/aitrader/internal/domain"
)

// TradeStore reads trade records. Lookups return nil, nil when absent.
type TradeStore interface {
	GetAllTradeInfo(ctx context.Context) ([]domain.TradeRecord, error)
	GetTradeByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)
	GetTradeByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error)
}

// TradeExecutor runs one AI trading session
type TradeExecutor interface {
	ExecuteTrading(ctx context.Context, tradeID string, isTest bool) (*domain.TradeResult, error)
}

// UserStore reads users and leaderboard data. GetUser returns nil, nil when absent.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetTradeUserChannels(ctx context.Context) ([]string, error)
	GetTradingList(ctx context.Context, channelID string) ([]domain.Ranking, error)
}

// AccountReporter renders a fresh valuation of an account snapshot
type AccountReporter interface {
	Report(ctx context.Context, snapshot domain.AccountSnapshot) (string, error)
}

// Messenger posts to Discord channels and threads
type Messenger interface {
	// FetchChannel returns nil, nil when the channel does not exist
	FetchChannel(ctx context.Context, channelID string) (*domain.Channel, error)

	// FindActiveThread returns the first active thread of channel whose name
	// contains nameContains, or nil, nil
	FindActiveThread(ctx context.Context, channel *domain.Channel, nameContains string) (*domain.Channel, error)

	// CreateThread opens a public thread archived after one day of inactivity
	CreateThread(ctx context.Context, channel *domain.Channel, name string) (*domain.Channel, error)

	Send(ctx context.Context, channelID, content string) (*domain.Message, error)
	Edit(ctx context.Context, msg *domain.Message, content string) error
}
