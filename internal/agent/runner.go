// Package agent runs tool-calling LLM trading sessions.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// DefaultMaxSteps bounds model calls in one session
const DefaultMaxSteps = 35

// StepLimitMessage is returned when the model keeps calling tools past the limit
const StepLimitMessage = "트레이딩 단계 제한을 초과했습니다."

// ErrEmptyResponse is returned when the provider answers without choices
var ErrEmptyResponse = errors.New("model returned no choices")

// Session is one trading conversation
type Session struct {
	Client       ChatClient
	Model        Model
	SystemPrompt string
	UserMessage  string
	Tools        []Tool
}

// Result is the outcome of a session
type Result struct {
	History     []domain.HistoryEntry
	LastMessage string
}

// Runner drives the tool-calling loop
type Runner struct {
	maxSteps int
	log      zerolog.Logger
}

// NewRunner creates a runner; maxSteps <= 0 uses DefaultMaxSteps
func NewRunner(maxSteps int, log zerolog.Logger) *Runner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Runner{
		maxSteps: maxSteps,
		log:      log.With().Str("component", "agent_runner").Logger(),
	}
}

// Run executes a session. The returned result always carries the history
// gathered so far, including when an error is returned.
func (r *Runner) Run(ctx context.Context, s Session) (*Result, error) {
	tools := make(map[string]Tool, len(s.Tools))
	defs := make([]openai.Tool, 0, len(s.Tools))
	for _, t := range s.Tools {
		tools[t.Name()] = t
		defs = append(defs, t.Definition())
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: s.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: s.UserMessage},
	}
	result := &Result{History: []domain.HistoryEntry{{
		Type:    domain.HistoryMessage,
		Role:    openai.ChatMessageRoleUser,
		Content: s.UserMessage,
	}}}

	for step := 0; step < r.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		req := openai.ChatCompletionRequest{
			Model:    s.Model.Name,
			Messages: messages,
		}
		if len(defs) > 0 {
			req.Tools = defs
		}

		resp, err := s.Client.CreateChatCompletion(ctx, req)
		if err != nil {
			return result, fmt.Errorf("chat completion failed (model %s): %w", s.Model.ID, err)
		}
		if len(resp.Choices) == 0 {
			return result, ErrEmptyResponse
		}

		msg := resp.Choices[0].Message
		messages = append(messages, msg)
		result.History = append(result.History, domain.HistoryEntry{
			Type:    domain.HistoryMessage,
			Role:    openai.ChatMessageRoleAssistant,
			Content: msg.Content,
		})

		if len(msg.ToolCalls) == 0 {
			result.LastMessage = msg.Content
			r.log.Debug().
				Str("model", s.Model.ID).
				Int("steps", step+1).
				Msg("Trading session finished")
			return result, nil
		}

		for _, call := range msg.ToolCalls {
			result.History = append(result.History, domain.HistoryEntry{
				Type:      domain.HistoryToolCall,
				Tool:      call.Function.Name,
				ToolCall:  call.ID,
				Arguments: call.Function.Arguments,
			})

			output := r.callTool(ctx, tools, call)
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    output,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
			result.History = append(result.History, domain.HistoryEntry{
				Type:     domain.HistoryToolResult,
				Tool:     call.Function.Name,
				ToolCall: call.ID,
				Content:  output,
			})
		}
	}

	r.log.Warn().Str("model", s.Model.ID).Int("max_steps", r.maxSteps).Msg("Trading session hit step limit")
	return result, domain.NewUserError(StepLimitMessage)
}

// callTool runs one tool call. Failures are handed back to the model as text.
func (r *Runner) callTool(ctx context.Context, tools map[string]Tool, call openai.ToolCall) string {
	tool, ok := tools[call.Function.Name]
	if !ok {
		return fmt.Sprintf("오류: %s 도구를 찾을 수 없습니다.", call.Function.Name)
	}

	output, err := tool.Call(ctx, call.Function.Arguments)
	if err != nil {
		r.log.Info().Err(err).Str("tool", call.Function.Name).Msg("Tool call failed")
		return "오류: " + domain.DisplayMessage(err)
	}
	return output
}
