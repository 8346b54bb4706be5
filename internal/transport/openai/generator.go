package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Generator produces text via the chat completions endpoint of an
// OpenAI-compatible API.
type Generator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenerator creates a chat-completion text generator.
func NewGenerator(apiKey, baseURL, model string, logger *zap.Logger) *Generator {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		logger: logger,
	}
}

// Generate implements domain.Generator. A 429-shaped failure surfaces
// as domain.ErrRateLimited so the caller takes the backoff path; other
// failures wrap domain.ErrProviderError.
func (g *Generator) Generate(ctx context.Context, prompt string, cfg domain.GenerationConfig) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		wrapped := parseGenerateError(err)
		if errors.Is(wrapped, domain.ErrRateLimited) {
			metrics.AIRequestsTotal.WithLabelValues("rate_limited").Inc()
		} else {
			metrics.AIRequestsTotal.WithLabelValues("error").Inc()
		}
		return "", wrapped
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		metrics.AIRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("empty generation response: %w", domain.ErrMalformedResponse)
	}

	metrics.AIRequestsTotal.WithLabelValues("success").Inc()
	return resp.Choices[0].Message.Content, nil
}

func parseGenerateError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("generation API error %d: %w", reqErr.HTTPStatusCode, domain.ErrRateLimited)
		}
		return fmt.Errorf("generation API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrProviderError)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("generation API error %d: %w", apiErr.HTTPStatusCode, domain.ErrRateLimited)
		}
		return fmt.Errorf("generation API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrProviderError)
	}

	return fmt.Errorf("generation request failed: %w", domain.ErrProviderError)
}
