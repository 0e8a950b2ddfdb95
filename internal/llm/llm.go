package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/llm4edu/freetext/internal/llm/prompts"
	"github.com/llm4edu/freetext/internal/model"
)

const providerName = "openai"

// Client wraps an OpenAI-compatible API and turns assignments and
// submissions into generated feedback and authoring-time suggestions.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// New creates a new LLM client. timeout bounds every generation call.
func New(baseURL, apiKey, modelName string, timeout time.Duration) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(config),
		model:   modelName,
		timeout: timeout,
	}
}

// Name identifies this provider in feedback items.
func (c *Client) Name() string {
	return providerName
}

// Ping verifies the API endpoint is reachable and accepts our credentials.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("LLM endpoint check: %w", err)
	}
	return nil
}

// Feedback generates feedback for a submission against the assignment's
// hidden criteria. The raw model text is split into discrete items.
func (c *Client) Feedback(ctx context.Context, a model.Assignment, sub model.Submission) ([]model.Feedback, error) {
	userPrompt, err := prompts.BuildFeedbackPrompt(a, sub)
	if err != nil {
		return nil, fmt.Errorf("build feedback prompt: %w", err)
	}

	raw, err := c.chat(ctx, prompts.SystemFeedback, userPrompt, 0.3)
	if err != nil {
		return nil, err
	}
	slog.Debug("LLM feedback response", "assignment_id", sub.AssignmentID, "raw", raw)

	var feedback []model.Feedback
	for _, item := range SplitItems(raw) {
		feedback = append(feedback, model.Feedback{
			FeedbackString: item,
			Source:         providerName,
			Location:       []int{0, len(sub.SubmissionString)},
		})
	}
	return feedback, nil
}

// SuggestQuestion generates an improved student-facing question from a
// draft assignment.
func (c *Client) SuggestQuestion(ctx context.Context, a model.Assignment) (string, error) {
	userPrompt, err := prompts.BuildSuggestQuestionPrompt(a)
	if err != nil {
		return "", fmt.Errorf("build suggest-question prompt: %w", err)
	}
	raw, err := c.chat(ctx, prompts.SystemSuggest, userPrompt, 0.7)
	if err != nil {
		return "", err
	}
	return trimQuotes(raw), nil
}

// SuggestCriteria generates grading criteria from a draft assignment.
func (c *Client) SuggestCriteria(ctx context.Context, a model.Assignment) ([]string, error) {
	userPrompt, err := prompts.BuildSuggestCriteriaPrompt(a)
	if err != nil {
		return nil, fmt.Errorf("build suggest-criteria prompt: %w", err)
	}
	raw, err := c.chat(ctx, prompts.SystemSuggest, userPrompt, 0.7)
	if err != nil {
		return nil, err
	}
	return SplitItems(raw), nil
}

// chat performs a single bounded chat completion call, retrying once on
// transient failure. Context expiry and permanent API errors are never
// retried.
func (c *Client) chat(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	raw, err := c.complete(ctx, systemPrompt, userPrompt, temperature)
	if err != nil && ctx.Err() == nil && retryable(err) {
		slog.Warn("LLM call failed, retrying once", "error", err)
		raw, err = c.complete(ctx, systemPrompt, userPrompt, temperature)
	}
	return raw, err
}

// retryable reports whether a failed API call is worth one more attempt.
// Client-side errors (auth, unknown model, malformed request) will fail
// the same way again.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
		return false
	}
	return true
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
