package upbit

import (
	"github.com/aristath/aitrader/internal/domain"
	"github.com/shopspring/decimal"
)

// accountResponse is an element of GET /accounts
type accountResponse struct {
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	Locked       decimal.Decimal `json:"locked"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
	UnitCurrency string          `json:"unit_currency"`
}

func (a accountResponse) toDomain() domain.Balance {
	return domain.Balance{
		Currency:     a.Currency,
		UnitCurrency: a.UnitCurrency,
		Balance:      a.Balance,
		Locked:       a.Locked,
		AvgBuyPrice:  a.AvgBuyPrice,
	}
}

// orderRequest is the body of POST /orders
type orderRequest struct {
	Market  string `json:"market"`
	Side    string `json:"side"`
	Volume  string `json:"volume,omitempty"`
	Price   string `json:"price,omitempty"`
	OrdType string `json:"ord_type"`
}

// Order sides and types
const (
	sideBid = "bid"
	sideAsk = "ask"

	ordTypePrice  = "price"  // market buy by total quote amount
	ordTypeMarket = "market" // market sell by volume
)
