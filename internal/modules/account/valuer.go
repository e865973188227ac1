// Package account values exchange balances at current market prices.
package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Holding is one non-KRW position valued at the current price
type Holding struct {
	Market        string
	Currency      string
	Volume        decimal.Decimal
	BuyAmount     decimal.Decimal // avg buy price * volume, floored
	CurrentAmount decimal.Decimal // trade price * volume, floored; zero when unpriced
	ChangeRate    decimal.Decimal // percent, two decimals
}

// Valuation is a priced account
type Valuation struct {
	KRW      decimal.Decimal
	Holdings []Holding
	Total    decimal.Decimal
}

// Valuer prices balances with live KRW tickers
type Valuer struct {
	quotation domain.Quotation
	log       zerolog.Logger
}

// NewValuer creates a new Valuer
func NewValuer(quotation domain.Quotation, log zerolog.Logger) *Valuer {
	return &Valuer{
		quotation: quotation,
		log:       log.With().Str("service", "account_valuer").Logger(),
	}
}

// Valuate prices every positive non-KRW balance. The total is KRW plus
// the current amount of every holding, floored to whole won.
func (v *Valuer) Valuate(ctx context.Context, balances []domain.Balance) (*Valuation, error) {
	tickers, err := v.quotation.TickersByQuote(ctx, []string{domain.QuoteCurrencyKRW})
	if err != nil {
		return nil, fmt.Errorf("failed to price account: %w", err)
	}
	prices := make(map[string]decimal.Decimal, len(tickers))
	for _, t := range tickers {
		prices[t.Market] = t.TradePrice
	}

	val := &Valuation{}
	sum := decimal.Zero
	for _, b := range balances {
		if b.Currency == domain.QuoteCurrencyKRW {
			val.KRW = b.Balance
			sum = sum.Add(b.Balance)
			continue
		}
		if !b.Balance.IsPositive() {
			continue
		}

		market := domain.QuoteCurrencyKRW + "-" + b.Currency
		price, ok := prices[market]
		if !ok {
			v.log.Debug().Str("currency", b.Currency).Msg("No KRW market for holding")
			val.Holdings = append(val.Holdings, Holding{
				Market:    b.Currency,
				Currency:  b.Currency,
				Volume:    b.Balance,
				BuyAmount: b.AvgBuyPrice,
			})
			continue
		}

		h := Holding{
			Market:        market,
			Currency:      b.Currency,
			Volume:        b.Balance,
			BuyAmount:     b.AvgBuyPrice.Mul(b.Balance).Floor(),
			CurrentAmount: price.Mul(b.Balance).Floor(),
		}
		if b.AvgBuyPrice.IsPositive() {
			h.ChangeRate = price.Sub(b.AvgBuyPrice).Div(b.AvgBuyPrice).Mul(hundred).Round(2)
		}
		val.Holdings = append(val.Holdings, h)
		sum = sum.Add(h.CurrentAmount)
	}
	val.Total = sum.Floor()

	return val, nil
}

// TotalBalance returns the floored KRW value of balances
func (v *Valuer) TotalBalance(ctx context.Context, balances []domain.Balance) (decimal.Decimal, error) {
	val, err := v.Valuate(ctx, balances)
	if err != nil {
		return decimal.Zero, err
	}
	return val.Total, nil
}

// Report values a snapshot and renders it for appending to a trade result
func (v *Valuer) Report(ctx context.Context, snapshot domain.AccountSnapshot) (string, error) {
	val, err := v.Valuate(ctx, snapshot.Balances)
	if err != nil {
		return "", err
	}
	return "\n\n" + Format(val), nil
}

// Format renders a valuation in Korean
func Format(val *Valuation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "총 자산 (가상화폐 포함): %s원\n", val.Total.String())
	fmt.Fprintf(&b, "현재 원화 계좌 잔고: %s원\n\n", val.KRW.Floor().String())
	b.WriteString("보유 가상화폐:")

	for i, h := range val.Holdings {
		if i > 0 {
			b.WriteString("\n---------")
		}
		fmt.Fprintf(&b, "\n%s:\n  보유량: %s개\n  평균 매수가: %s원\n  현재 가격: %s원\n  수익률: %s%%",
			h.Market, h.Volume.String(), h.BuyAmount.String(), h.CurrentAmount.String(), h.ChangeRate.StringFixed(2))
	}

	return b.String()
}
