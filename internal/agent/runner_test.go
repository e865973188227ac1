package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(client ChatClient, tools ...Tool) Session {
	return Session{
		Client:       client,
		Model:        Model{ID: ModelGPT, Name: "gpt-4o-mini"},
		SystemPrompt: SystemPrompt(""),
		UserMessage:  "비트코인 사줘",
		Tools:        tools,
	}
}

func TestRunner_ToolCallThenAnswer(t *testing.T) {
	client := &scriptedClient{replies: []openai.ChatCompletionMessage{
		toolCallMessage("call-1", "get_markets", "{}"),
		answer("아무것도 사지 않았습니다."),
	}}
	r := NewRunner(0, zerolog.Nop())

	res, err := r.Run(context.Background(), session(client, &marketsTool{quotation: newMarketData()}))
	require.NoError(t, err)

	assert.Equal(t, "아무것도 사지 않았습니다.", res.LastMessage)
	require.Len(t, res.History, 5)
	assert.Equal(t, domain.HistoryMessage, res.History[0].Type)
	assert.Equal(t, "비트코인 사줘", res.History[0].Content)
	assert.Equal(t, domain.HistoryToolCall, res.History[2].Type)
	assert.Equal(t, "get_markets", res.History[2].Tool)
	assert.Equal(t, domain.HistoryToolResult, res.History[3].Type)
	assert.Contains(t, res.History[3].Content, "KRW-BTC: 비트코인")

	require.Len(t, client.requests, 2)
	assert.Equal(t, "gpt-4o-mini", client.requests[0].Model)
	assert.Len(t, client.requests[0].Tools, 1)
	second := client.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
}

func TestRunner_ToolErrorsAreReturnedToModel(t *testing.T) {
	client := &scriptedClient{replies: []openai.ChatCompletionMessage{
		toolCallMessage("call-1", "buy_coin", `{"marketCoin":"KRW-BTC","price":1000}`),
		toolCallMessage("call-2", "launch_rocket", "{}"),
		answer("done"),
	}}
	r := NewRunner(0, zerolog.Nop())

	res, err := r.Run(context.Background(), session(client, &buyTool{}))
	require.NoError(t, err)

	assert.Equal(t, "오류: 최소 주문 금액은 5000원입니다.", res.History[3].Content)
	assert.Equal(t, "오류: launch_rocket 도구를 찾을 수 없습니다.", res.History[6].Content)
}

func TestRunner_StepLimit(t *testing.T) {
	client := &loopingClient{}
	r := NewRunner(3, zerolog.Nop())

	res, err := r.Run(context.Background(), session(client, &marketsTool{quotation: newMarketData()}))
	require.Error(t, err)

	assert.Equal(t, StepLimitMessage, domain.DisplayMessage(err))
	assert.Equal(t, 3, client.calls)
	assert.NotEmpty(t, res.History)
	assert.Empty(t, res.LastMessage)
}

func TestRunner_ProviderErrorKeepsPartialHistory(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	r := NewRunner(0, zerolog.Nop())

	res, err := r.Run(context.Background(), session(client))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	require.Len(t, res.History, 1)
	assert.Empty(t, client.requests[0].Tools)
}

type emptyClient struct{}

func (emptyClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{}, nil
}

func TestRunner_EmptyResponse(t *testing.T) {
	_, err := NewRunner(0, zerolog.Nop()).Run(context.Background(), session(emptyClient{}))
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &scriptedClient{replies: []openai.ChatCompletionMessage{answer("never")}}

	_, err := NewRunner(0, zerolog.Nop()).Run(ctx, session(client))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.requests)
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, BasePrompt, SystemPrompt("  "))
	assert.Equal(t, BasePrompt+"\n\n비트코인만 거래하세요.", SystemPrompt("비트코인만 거래하세요."))
}

func TestLookupModel(t *testing.T) {
	m, err := LookupModel("claude")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-20241022", m.Name)
	assert.NotEmpty(t, m.BaseURL)

	_, err = LookupModel("llama")
	require.Error(t, err)
	assert.Equal(t, UnknownModelMessage, domain.DisplayMessage(err))

	assert.True(t, IsKnownModel("deep-seek"))
	assert.Equal(t, []string{"claude", "deep-seek", "gpt"}, ModelIDs())
}

func TestNewClientFactory(t *testing.T) {
	factory := NewClientFactory(APIKeys{OpenAI: "o", Anthropic: "a", DeepSeek: "d"})
	for _, id := range ModelIDs() {
		m, err := LookupModel(id)
		require.NoError(t, err)
		assert.NotNil(t, factory(m))
	}
}
