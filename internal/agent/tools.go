package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/aristath/aitrader/internal/modules/account"
	"github.com/aristath/aitrader/pkg/formulas"
	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/shopspring/decimal"
)

// Order and candle limits
const (
	MinOrderKRW        = 5000
	candleUnitMinutes  = 1
	defaultCandleCount = 60
	maxCandleCount     = 200
	rsiPeriod          = 14
	smaPeriod          = 20
)

// Tool is a function the model can call
type Tool interface {
	Name() string
	Definition() openai.Tool
	Call(ctx context.Context, arguments string) (string, error)
}

// AccountValuer prices exchange balances
type AccountValuer interface {
	Valuate(ctx context.Context, balances []domain.Balance) (*account.Valuation, error)
}

// TradingTools returns the market and order tools bound to one exchange account.
// Community tools come first when a community source is configured.
func TradingTools(community CommunitySource, quotation domain.Quotation, exchange domain.Exchange, valuer AccountValuer) []Tool {
	tools := make([]Tool, 0, 7)
	if community != nil {
		tools = append(tools,
			&popularPostsTool{community: community},
			&searchPostsTool{community: community},
		)
	}
	return append(tools,
		&marketsTool{quotation: quotation},
		&accountTool{exchange: exchange, valuer: valuer},
		&candlesTool{quotation: quotation},
		&buyTool{exchange: exchange},
		&sellTool{exchange: exchange},
	)
}

func functionTool(name, description string, params jsonschema.Definition) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

var noParams = jsonschema.Definition{
	Type:       jsonschema.Object,
	Properties: map[string]jsonschema.Definition{},
}

func marketCoinParam() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: "마켓 코인 (KRW- 로 시작)"}
}

func decodeArgs(arguments string, v interface{}) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func requireKRWMarket(market string) error {
	if !strings.HasPrefix(market, domain.QuoteCurrencyKRW+"-") {
		return domain.NewUserError(fmt.Sprintf("%s: 마켓 코인은 KRW- 로 시작해야 합니다.", market))
	}
	return nil
}

// get_markets

type marketsTool struct {
	quotation domain.Quotation
}

func (t *marketsTool) Name() string { return "get_markets" }

func (t *marketsTool) Definition() openai.Tool {
	return functionTool(t.Name(), "가상화폐 마켓 조회", noParams)
}

func (t *marketsTool) Call(ctx context.Context, _ string) (string, error) {
	markets, err := t.quotation.Markets(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list markets: %w", err)
	}

	krw := make([]domain.Market, 0, len(markets))
	codes := make([]string, 0, len(markets))
	for _, m := range markets {
		if strings.HasPrefix(m.Market, domain.QuoteCurrencyKRW+"-") {
			krw = append(krw, m)
			codes = append(codes, m.Market)
		}
	}

	prices := make(map[string]decimal.Decimal, len(codes))
	if len(codes) > 0 {
		tickers, err := t.quotation.Tickers(ctx, codes)
		if err != nil {
			return "", fmt.Errorf("failed to get tickers: %w", err)
		}
		for _, tk := range tickers {
			prices[tk.Market] = tk.TradePrice
		}
	}

	lines := make([]string, 0, len(krw))
	for _, m := range krw {
		line := fmt.Sprintf("%s: %s", m.Market, m.KoreanName)
		if p, ok := prices[m.Market]; ok {
			line += fmt.Sprintf(" / %s원", p.String())
		}
		lines = append(lines, line)
	}
	return "마켓 목록:\n" + strings.Join(lines, "\n-------\n"), nil
}

// get_my_account

type accountTool struct {
	exchange domain.Exchange
	valuer   AccountValuer
}

func (t *accountTool) Name() string { return "get_my_account" }

func (t *accountTool) Definition() openai.Tool {
	return functionTool(t.Name(), "내 계좌(포트폴리오) 조회", noParams)
}

func (t *accountTool) Call(ctx context.Context, _ string) (string, error) {
	balances, err := t.exchange.Accounts(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get accounts: %w", err)
	}
	val, err := t.valuer.Valuate(ctx, balances)
	if err != nil {
		return "", err
	}
	return account.Format(val), nil
}

// get_minutes_candles

type candlesTool struct {
	quotation domain.Quotation
}

type candlesArgs struct {
	MarketCoin string `json:"marketCoin"`
	Count      int    `json:"count"`
}

type candleView struct {
	Time   string          `json:"시각"`
	Open   decimal.Decimal `json:"시가"`
	High   decimal.Decimal `json:"고가"`
	Low    decimal.Decimal `json:"저가"`
	Close  decimal.Decimal `json:"종가"`
	Volume decimal.Decimal `json:"거래량"`
	Amount decimal.Decimal `json:"거래대금"`
}

func (t *candlesTool) Name() string { return "get_minutes_candles" }

func (t *candlesTool) Definition() openai.Tool {
	return functionTool(t.Name(), "현재 마켓 가격(분봉) 조회", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"marketCoin": marketCoinParam(),
			"count":      {Type: jsonschema.Integer, Description: "조회할 개수 (최대 200)"},
		},
		Required: []string{"marketCoin", "count"},
	})
}

func (t *candlesTool) Call(ctx context.Context, arguments string) (string, error) {
	var args candlesArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if err := requireKRWMarket(args.MarketCoin); err != nil {
		return "", err
	}
	switch {
	case args.Count <= 0:
		args.Count = defaultCandleCount
	case args.Count > maxCandleCount:
		args.Count = maxCandleCount
	}

	candles, err := t.quotation.MinuteCandles(ctx, candleUnitMinutes, args.MarketCoin, args.Count)
	if err != nil {
		return "", fmt.Errorf("failed to get candles: %w", err)
	}

	lines := make([]string, 0, len(candles)+2)
	for _, c := range candles {
		b, err := json.Marshal(candleView{
			Time:   c.CandleDateTimeKST,
			Open:   c.OpeningPrice,
			High:   c.HighPrice,
			Low:    c.LowPrice,
			Close:  c.TradePrice,
			Volume: c.CandleAccTradeVolume,
			Amount: c.CandleAccTradePrice,
		})
		if err != nil {
			return "", fmt.Errorf("failed to encode candle: %w", err)
		}
		lines = append(lines, string(b))
	}

	closes := chronologicalCloses(candles)
	if rsi := formulas.RSI(closes, rsiPeriod); rsi != nil {
		lines = append(lines, fmt.Sprintf("RSI(%d): %.2f", rsiPeriod, *rsi))
	}
	if sma := formulas.SMA(closes, smaPeriod); sma != nil {
		lines = append(lines, fmt.Sprintf("SMA(%d): %.2f", smaPeriod, *sma))
	}
	return strings.Join(lines, "\n"), nil
}

// chronologicalCloses returns closing prices oldest first; candles arrive newest first
func chronologicalCloses(candles []domain.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[len(candles)-1-i] = c.TradePrice.InexactFloat64()
	}
	return closes
}

// buy_coin

type buyTool struct {
	exchange domain.Exchange
}

type buyArgs struct {
	MarketCoin string          `json:"marketCoin"`
	Price      decimal.Decimal `json:"price"`
}

func (t *buyTool) Name() string { return "buy_coin" }

func (t *buyTool) Definition() openai.Tool {
	return functionTool(t.Name(), "매수 주문 (시장가)", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"marketCoin": marketCoinParam(),
			"price":      {Type: jsonschema.Number, Description: fmt.Sprintf("매수 금액 (%d원 이상)", MinOrderKRW)},
		},
		Required: []string{"marketCoin", "price"},
	})
}

func (t *buyTool) Call(ctx context.Context, arguments string) (string, error) {
	var args buyArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if err := requireKRWMarket(args.MarketCoin); err != nil {
		return "", err
	}
	if args.Price.LessThan(decimal.NewFromInt(MinOrderKRW)) {
		return "", domain.NewUserError(fmt.Sprintf("최소 주문 금액은 %d원입니다.", MinOrderKRW))
	}

	order, err := t.exchange.BuyMarket(ctx, args.MarketCoin, args.Price.Floor())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("매수 주문 결과:\n마켓: %s\n채결금: %s원\n", order.Market, order.ExecutedFunds.Round(0).String()), nil
}

// sell_coin

type sellTool struct {
	exchange domain.Exchange
}

type sellArgs struct {
	MarketCoin string          `json:"marketCoin"`
	Volume     decimal.Decimal `json:"volume"`
}

func (t *sellTool) Name() string { return "sell_coin" }

func (t *sellTool) Definition() openai.Tool {
	return functionTool(t.Name(), "매도 주문 (시장가)", jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"marketCoin": marketCoinParam(),
			"volume":     {Type: jsonschema.Number, Description: "매도 코인 수 (개)"},
		},
		Required: []string{"marketCoin", "volume"},
	})
}

func (t *sellTool) Call(ctx context.Context, arguments string) (string, error) {
	var args sellArgs
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if err := requireKRWMarket(args.MarketCoin); err != nil {
		return "", err
	}
	if !args.Volume.IsPositive() {
		return "", domain.NewUserError("매도 수량은 0보다 커야 합니다.")
	}

	order, err := t.exchange.SellMarket(ctx, args.MarketCoin, args.Volume)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("매도 주문 결과:\n마켓: %s\n채결금: %s원\n", order.Market, order.ExecutedFunds.Round(0).String()), nil
}
