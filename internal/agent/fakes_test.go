package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
)

// scriptedClient answers chat requests from a fixed list of messages
type scriptedClient struct {
	mu       sync.Mutex
	replies  []openai.ChatCompletionMessage
	err      error
	requests []openai.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	if len(c.replies) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("no scripted reply")
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: reply}},
	}, nil
}

// loopingClient always asks for another tool call
type loopingClient struct {
	calls int
}

func (c *loopingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: toolCallMessage("call", "get_markets", "{}")}},
	}, nil
}

func toolCallMessage(id, name, args string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleAssistant,
		ToolCalls: []openai.ToolCall{{
			ID:   id,
			Type: openai.ToolTypeFunction,
			Function: openai.FunctionCall{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func answer(content string) openai.ChatCompletionMessage {
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}
}

// marketData is an in-memory quotation
type marketData struct {
	markets []domain.Market
	prices  map[string]decimal.Decimal
	candles []domain.Candle
}

func (q *marketData) Markets(ctx context.Context) ([]domain.Market, error) {
	return q.markets, nil
}

func (q *marketData) Tickers(ctx context.Context, markets []string) ([]domain.Ticker, error) {
	out := make([]domain.Ticker, 0, len(markets))
	for _, m := range markets {
		if p, ok := q.prices[m]; ok {
			out = append(out, domain.Ticker{Market: m, TradePrice: p})
		}
	}
	return out, nil
}

func (q *marketData) TickersByQuote(ctx context.Context, quotes []string) ([]domain.Ticker, error) {
	out := make([]domain.Ticker, 0, len(q.prices))
	for m, p := range q.prices {
		out = append(out, domain.Ticker{Market: m, TradePrice: p})
	}
	return out, nil
}

func (q *marketData) MinuteCandles(ctx context.Context, unit int, market string, count int) ([]domain.Candle, error) {
	if count < len(q.candles) {
		return q.candles[:count], nil
	}
	return q.candles, nil
}

func newMarketData() *marketData {
	return &marketData{
		markets: []domain.Market{
			{Market: "KRW-BTC", KoreanName: "비트코인"},
			{Market: "BTC-XRP", KoreanName: "리플"},
			{Market: "KRW-XRP", KoreanName: "리플"},
		},
		prices: map[string]decimal.Decimal{
			"KRW-BTC": decimal.NewFromInt(100000000),
			"KRW-XRP": decimal.NewFromInt(1000),
		},
	}
}
