package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/aristath/aitrader/internal/clients/upbit"
	"github.com/aristath/aitrader/internal/domain"
	"github.com/aristath/aitrader/internal/modules/account"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func toolByName(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	for _, tool := range tools {
		if tool.Name() == name {
			return tool
		}
	}
	t.Fatalf("tool %s not found", name)
	return nil
}

func newToolset(q *marketData) ([]Tool, *upbit.MockExchange) {
	exchange := upbit.NewMockExchange(q)
	return TradingTools(nil, q, exchange, account.NewValuer(q, zerolog.Nop())), exchange
}

func TestTradingTools_Definitions(t *testing.T) {
	tools, _ := newToolset(newMarketData())

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		def := tool.Definition()
		require.NotNil(t, def.Function)
		assert.Equal(t, tool.Name(), def.Function.Name)
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{"get_markets", "get_my_account", "get_minutes_candles", "buy_coin", "sell_coin"}, names)
}

func TestMarketsTool_ListsKRWMarketsOnly(t *testing.T) {
	tools, _ := newToolset(newMarketData())

	out, err := toolByName(t, tools, "get_markets").Call(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "마켓 목록:\nKRW-BTC: 비트코인 / 100000000원\n-------\nKRW-XRP: 리플 / 1000원", out)
}

func TestAccountTool_FormatsValuation(t *testing.T) {
	tools, _ := newToolset(newMarketData())

	out, err := toolByName(t, tools, "get_my_account").Call(context.Background(), "{}")
	require.NoError(t, err)

	// 500,000 KRW + 300 XRP @ 1,000
	assert.Contains(t, out, "총 자산 (가상화폐 포함): 800000원")
	assert.Contains(t, out, "KRW-XRP:")
	assert.Contains(t, out, "수익률: 25.00%")
}

func TestCandlesTool_AddsIndicators(t *testing.T) {
	q := newMarketData()
	for i := 0; i < 30; i++ {
		price := decimal.NewFromInt(int64(1000 - i)) // newest first, so prices rise over time
		q.candles = append(q.candles, domain.Candle{
			Market:            "KRW-XRP",
			CandleDateTimeKST: fmt.Sprintf("2026-10-17T09:%02d:00", 59-i),
			OpeningPrice:      price,
			HighPrice:         price,
			LowPrice:          price,
			TradePrice:        price,
		})
	}
	tools, _ := newToolset(q)

	out, err := toolByName(t, tools, "get_minutes_candles").Call(context.Background(), `{"marketCoin":"KRW-XRP","count":30}`)
	require.NoError(t, err)

	assert.Contains(t, out, `"종가":"1000"`)
	assert.Contains(t, out, "RSI(14): 100.00")
	assert.Contains(t, out, "SMA(20): 990.50")
}

func TestCandlesTool_FewCandlesSkipIndicators(t *testing.T) {
	q := newMarketData()
	q.candles = []domain.Candle{{Market: "KRW-XRP", TradePrice: decimal.NewFromInt(1000)}}
	tools, _ := newToolset(q)

	out, err := toolByName(t, tools, "get_minutes_candles").Call(context.Background(), `{"marketCoin":"KRW-XRP","count":5}`)
	require.NoError(t, err)
	assert.NotContains(t, out, "RSI")
	assert.NotContains(t, out, "SMA")
}

func TestCandlesTool_RejectsNonKRWMarket(t *testing.T) {
	tools, _ := newToolset(newMarketData())

	_, err := toolByName(t, tools, "get_minutes_candles").Call(context.Background(), `{"marketCoin":"BTC-XRP","count":5}`)
	require.Error(t, err)
}

func TestBuyTool(t *testing.T) {
	tools, exchange := newToolset(newMarketData())
	buy := toolByName(t, tools, "buy_coin")

	_, err := buy.Call(context.Background(), `{"marketCoin":"KRW-BTC","price":4999}`)
	require.Error(t, err)
	assert.Equal(t, "최소 주문 금액은 5000원입니다.", domain.DisplayMessage(err))

	out, err := buy.Call(context.Background(), `{"marketCoin":"KRW-BTC","price":10000}`)
	require.NoError(t, err)
	assert.Equal(t, "매수 주문 결과:\n마켓: KRW-BTC\n채결금: 10000원\n", out)

	balances, err := exchange.Accounts(context.Background())
	require.NoError(t, err)
	assert.True(t, balances[0].Balance.Equal(decimal.NewFromInt(490000)))
}

func TestSellTool(t *testing.T) {
	tools, _ := newToolset(newMarketData())
	sell := toolByName(t, tools, "sell_coin")

	out, err := sell.Call(context.Background(), `{"marketCoin":"KRW-XRP","volume":100}`)
	require.NoError(t, err)
	assert.Equal(t, "매도 주문 결과:\n마켓: KRW-XRP\n채결금: 100000원\n", out)

	_, err = sell.Call(context.Background(), `{"marketCoin":"KRW-XRP","volume":1000}`)
	require.Error(t, err)
	assert.Equal(t, upbit.ErrInsufficientHolding, domain.DisplayMessage(err))

	_, err = sell.Call(context.Background(), `{"marketCoin":"KRW-XRP","volume":0}`)
	require.Error(t, err)

	_, err = sell.Call(context.Background(), `not json`)
	require.Error(t, err)
}
