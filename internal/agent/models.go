package agent

import (
	"context"
	"sort"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/sashabaranov/go-openai"
)

// Model identifiers stored on trade records
const (
	ModelGPT      = "gpt"
	ModelClaude   = "claude"
	ModelDeepSeek = "deep-seek"
)

// UnknownModelMessage is returned for a model identifier with no provider
const UnknownModelMessage = "해당하는 모델을 찾을 수 없습니다."

// ChatClient is the chat completion surface of an OpenAI-compatible API
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Model is an LLM reachable through an OpenAI-compatible endpoint
type Model struct {
	ID      string // Identifier stored on trade records
	Name    string // Provider model name
	BaseURL string // Empty means the OpenAI default
}

var models = map[string]Model{
	ModelGPT:      {ID: ModelGPT, Name: "gpt-4o-mini"},
	ModelClaude:   {ID: ModelClaude, Name: "claude-3-5-haiku-20241022", BaseURL: "https://api.anthropic.com/v1"},
	ModelDeepSeek: {ID: ModelDeepSeek, Name: "deepseek-chat", BaseURL: "https://api.deepseek.com"},
}

// LookupModel resolves a model identifier
func LookupModel(id string) (Model, error) {
	m, ok := models[strings.TrimSpace(id)]
	if !ok {
		return Model{}, domain.NewUserError(UnknownModelMessage)
	}
	return m, nil
}

// IsKnownModel reports whether id names a supported model
func IsKnownModel(id string) bool {
	_, err := LookupModel(id)
	return err == nil
}

// ModelIDs returns every supported model identifier, sorted
func ModelIDs() []string {
	ids := make([]string, 0, len(models))
	for id := range models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// APIKeys holds provider credentials
type APIKeys struct {
	OpenAI    string
	Anthropic string
	DeepSeek  string
}

// ClientFactory builds a chat client for a model
type ClientFactory func(m Model) ChatClient

// NewClientFactory returns a factory creating go-openai clients pointed at
// each model's provider
func NewClientFactory(keys APIKeys) ClientFactory {
	return func(m Model) ChatClient {
		var key string
		switch m.ID {
		case ModelClaude:
			key = keys.Anthropic
		case ModelDeepSeek:
			key = keys.DeepSeek
		default:
			key = keys.OpenAI
		}

		cfg := openai.DefaultConfig(key)
		if m.BaseURL != "" {
			cfg.BaseURL = m.BaseURL
		}
		return openai.NewClientWithConfig(cfg)
	}
}
