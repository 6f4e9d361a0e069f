package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openaiapi "github.com/sashabaranov/go-openai"

	"github.com/hireloop/interview-agent/internal/ai"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = openaiapi.GPT4o

// chatCompleter is the slice of the go-openai client the adapter depends on.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openaiapi.ChatCompletionRequest) (openaiapi.ChatCompletionResponse, error)
}

// Client generates text through the OpenAI chat completion API. It implements
// ai.Generator so roles can run against OpenAI instead of Gemini.
type Client struct {
	api   chatCompleter
	model string
}

// NewClient builds a Client authenticated with the given API key.
func NewClient(apiKey, model string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: openai api key is empty", ai.ErrAuth)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}

	return &Client{api: openaiapi.NewClient(apiKey), model: model}, nil
}

// Generate sends the request as a two message chat completion and returns the
// content of the first choice.
func (c *Client) Generate(ctx context.Context, req ai.Request) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("openai client is not initialized")
	}

	user := strings.TrimSpace(req.User)
	if user == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]openaiapi.ChatCompletionMessage, 0, 2)
	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, openaiapi.ChatCompletionMessage{
			Role:    openaiapi.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openaiapi.ChatCompletionMessage{
		Role:    openaiapi.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openaiapi.ChatCompletionRequest{
		Model:               c.model,
		Temperature:         req.Sampling.Temperature,
		MaxCompletionTokens: int(req.Sampling.MaxTokens),
		Messages:            messages,
	})
	if err != nil {
		return "", classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", ai.ErrUnavailable)
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	if output == "" {
		return "", fmt.Errorf("%w: openai returned empty content", ai.ErrUnavailable)
	}

	return output, nil
}

// Model reports the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// classify translates go-openai failures into the engine error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}

	var apiErr *openaiapi.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion: %w", err)
	}

	switch {
	case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ai.ErrAuth, apiErr.Message)
	case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ai.ErrRateLimit, apiErr.Message)
	case apiErr.HTTPStatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %s", ai.ErrTimeout, apiErr.Message)
	case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ai.ErrUnavailable, apiErr.Message)
	default:
		return fmt.Errorf("chat completion: %w", err)
	}
}
