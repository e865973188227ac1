package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Exchange defines account and order operations against a spot exchange.
// Live trading uses the Upbit client; test trading uses an in-memory mock.
type Exchange interface {
	// Accounts returns every balance held by the account
	Accounts(ctx context.Context) ([]Balance, error)

	// BuyMarket spends price (quote currency) on market at the current price
	BuyMarket(ctx context.Context, market string, price decimal.Decimal) (*Order, error)

	// SellMarket sells volume units of market at the current price
	SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*Order, error)
}

// Quotation defines public market data operations
type Quotation interface {
	Markets(ctx context.Context) ([]Market, error)
	Tickers(ctx context.Context, markets []string) ([]Ticker, error)
	TickersByQuote(ctx context.Context, quoteCurrencies []string) ([]Ticker, error)
	MinuteCandles(ctx context.Context, unit int, market string, count int) ([]Candle, error)
}

// ExchangeFactory builds an authenticated exchange for a user's keys
type ExchangeFactory func(accessKey, secretKey string) Exchange
