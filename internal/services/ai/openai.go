package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/usecase"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout bounds a single HTTP exchange with the API
	DefaultTimeout = 30 * time.Second

	maxContextItems = 10
	systemPrompt    = "You are a marketing coach. Suggest a short, concrete approach (at most five steps) for completing the user's task this week. Reply with plain text only."
)

// ErrNoChoices is returned when the API response has no choices
var ErrNoChoices = errors.New("no choices in response")

// OpenAIProvider implements usecase.SuggestionProvider with the Chat Completions API.
type OpenAIProvider struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider creates a provider. An empty baseURL or model falls back to the defaults.
func NewOpenAIProvider(apiKey, baseURL, model string, logger *zap.Logger) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		option.WithMaxRetries(0),
	)

	return &OpenAIProvider{
		client: client,
		model:  model,
		logger: logger,
	}
}

// SuggestApproach asks the model for an approach to task.
func (p *OpenAIProvider) SuggestApproach(ctx context.Context, task domain.Task, sc usecase.SuggestionContext) (string, error) {
	prompt := BuildPrompt(task, sc)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		p.logger.Debug("llm_api_error",
			zap.String("operation", "suggest_approach"),
			zap.String("model", p.model),
			zap.String("task_id", task.ID),
			zap.Duration("latency", latency),
			zap.Error(err))
		return "", fmt.Errorf("failed to suggest approach: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	p.logger.Debug("llm_api_response",
		zap.String("operation", "suggest_approach"),
		zap.String("model", p.model),
		zap.String("task_id", task.ID),
		zap.Int("response_length", len(content)),
		zap.Int64("latency_ms", latency.Milliseconds()))
	return content, nil
}

// BuildPrompt renders the user message for a suggestion request.
func BuildPrompt(task domain.Task, sc usecase.SuggestionContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", task.Title)
	if task.Description != "" {
		fmt.Fprintf(&b, "Details: %s\n", task.Description)
	}
	if task.Category != "" {
		fmt.Fprintf(&b, "Channel: %s\n", task.Category)
	}
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	if minutes, ok := task.EstimatedMinutes(); ok {
		fmt.Fprintf(&b, "Time budget: %d minutes\n", minutes)
	}
	if !sc.WeekStart.IsZero() {
		fmt.Fprintf(&b, "Week of: %s\n", sc.WeekStart)
	}
	writeList(&b, "Other tasks this week", sc.WeekTasks)
	writeList(&b, "Approaches that worked before", sc.PastApproaches)
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	if len(items) > maxContextItems {
		items = items[:maxContextItems]
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", strings.TrimSpace(item))
	}
}

var _ usecase.SuggestionProvider = (*OpenAIProvider)(nil)
