package upbit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Paper trading error messages
const (
	ErrInsufficientKRW     = "원화 잔고가 부족합니다."
	ErrInsufficientHolding = "보유량이 부족합니다."
)

// MockExchange is an in-memory paper trading account filled at live ticker prices.
// It starts with 500,000 KRW and 300 XRP bought at 800 KRW.
type MockExchange struct {
	mu        sync.Mutex
	quotation domain.Quotation
	order     []string
	balances  map[string]*domain.Balance
}

// NewMockExchange creates a paper account priced by quotation
func NewMockExchange(quotation domain.Quotation) *MockExchange {
	m := &MockExchange{
		quotation: quotation,
		balances:  make(map[string]*domain.Balance),
	}
	m.set(domain.Balance{
		Currency:     domain.QuoteCurrencyKRW,
		UnitCurrency: domain.QuoteCurrencyKRW,
		Balance:      decimal.NewFromInt(500000),
	})
	m.set(domain.Balance{
		Currency:     "XRP",
		UnitCurrency: domain.QuoteCurrencyKRW,
		Balance:      decimal.NewFromInt(300),
		AvgBuyPrice:  decimal.NewFromInt(800),
	})
	return m
}

// Accounts returns a copy of every balance
func (m *MockExchange) Accounts(ctx context.Context) ([]domain.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Balance, 0, len(m.order))
	for _, currency := range m.order {
		out = append(out, *m.balances[currency])
	}
	return out, nil
}

// BuyMarket spends price KRW on market at the current ticker price
func (m *MockExchange) BuyMarket(ctx context.Context, market string, price decimal.Decimal) (*domain.Order, error) {
	m.mu.Lock()
	krw := m.balances[domain.QuoteCurrencyKRW]
	insufficient := krw.Balance.LessThan(price)
	m.mu.Unlock()
	if insufficient {
		return nil, domain.NewUserError(ErrInsufficientKRW)
	}

	current, err := m.currentPrice(ctx, market)
	if err != nil {
		return nil, err
	}
	volume := price.Div(current)
	currency := currencyOf(market)

	m.mu.Lock()
	defer m.mu.Unlock()

	if krw.Balance.LessThan(price) {
		return nil, domain.NewUserError(ErrInsufficientKRW)
	}
	krw.Balance = krw.Balance.Sub(price)

	if holding, ok := m.balances[currency]; ok {
		cost := holding.AvgBuyPrice.Mul(holding.Balance).Add(price)
		holding.Balance = holding.Balance.Add(volume)
		holding.AvgBuyPrice = cost.Div(holding.Balance)
	} else {
		m.set(domain.Balance{
			Currency:     currency,
			UnitCurrency: domain.QuoteCurrencyKRW,
			Balance:      volume,
			AvgBuyPrice:  current,
		})
	}

	return &domain.Order{
		UUID:           uuid.NewString(),
		Side:           sideBid,
		OrdType:        ordTypePrice,
		State:          domain.OrderStateDone,
		Market:         market,
		Price:          price,
		Volume:         volume,
		ExecutedVolume: volume,
		ExecutedFunds:  price,
	}, nil
}

// SellMarket sells volume units of market at the current ticker price
func (m *MockExchange) SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*domain.Order, error) {
	currency := currencyOf(market)

	m.mu.Lock()
	holding, ok := m.balances[currency]
	insufficient := !ok || holding.Balance.LessThan(volume)
	m.mu.Unlock()
	if insufficient {
		return nil, domain.NewUserError(ErrInsufficientHolding)
	}

	current, err := m.currentPrice(ctx, market)
	if err != nil {
		return nil, err
	}
	funds := volume.Mul(current)

	m.mu.Lock()
	defer m.mu.Unlock()

	if holding.Balance.LessThan(volume) {
		return nil, domain.NewUserError(ErrInsufficientHolding)
	}
	holding.Balance = holding.Balance.Sub(volume)
	krw := m.balances[domain.QuoteCurrencyKRW]
	krw.Balance = krw.Balance.Add(funds)

	return &domain.Order{
		UUID:           uuid.NewString(),
		Side:           sideAsk,
		OrdType:        ordTypeMarket,
		State:          domain.OrderStateDone,
		Market:         market,
		Price:          current,
		Volume:         volume,
		ExecutedVolume: volume,
		ExecutedFunds:  funds,
	}, nil
}

func (m *MockExchange) currentPrice(ctx context.Context, market string) (decimal.Decimal, error) {
	tickers, err := m.quotation.Tickers(ctx, []string{market})
	if err != nil {
		return decimal.Zero, err
	}
	if len(tickers) == 0 || !tickers[0].TradePrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("no price for %s", market)
	}
	return tickers[0].TradePrice, nil
}

// set must be called with mu held or before the account is shared
func (m *MockExchange) set(b domain.Balance) {
	if _, ok := m.balances[b.Currency]; !ok {
		m.order = append(m.order, b.Currency)
	}
	m.balances[b.Currency] = &b
}

// currencyOf maps "KRW-BTC" to "BTC"
func currencyOf(market string) string {
	if i := strings.IndexByte(market, '-'); i >= 0 {
		return market[i+1:]
	}
	return market
}
