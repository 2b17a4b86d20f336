// Package llm calls an OpenAI-compatible chat completions API to generate
// analysis results.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/aristath/lifecandle/internal/domain"
)

const (
	// DefaultTimeout bounds one generation call
	DefaultTimeout = 120 * time.Second
	// DefaultModel is used when neither the request nor the environment names one
	DefaultModel = "gemini-3-pro-preview"

	temperature = 0.7
	maxTokens   = 30000
)

// Config holds the server-side defaults. Request fields override them.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client generates analyses through the upstream model
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client with the given defaults
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		cfg: cfg,
		// The per-call context carries the deadline; this is a backstop.
		httpClient: &http.Client{Timeout: cfg.Timeout + 5*time.Second},
		log:        log.With().Str("component", "llm").Logger(),
	}
}

// resolve picks the endpoint and model for a request
func (c *Client) resolve(req domain.AnalysisRequest) (baseURL, model string) {
	baseURL = strings.TrimSpace(req.APIBaseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(c.cfg.BaseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model = strings.TrimSpace(req.ModelName)
	if model == "" {
		model = c.cfg.Model
	}
	return baseURL, model
}

// Generate asks the upstream model for an analysis of req using apiKey.
// Errors wrap domain.ErrConfiguration or domain.ErrUpstream.
func (c *Client) Generate(ctx context.Context, req domain.AnalysisRequest, apiKey string) (domain.AnalysisResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: no API key provided", domain.ErrConfiguration)
	}
	baseURL, model := c.resolve(req)
	if baseURL == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: API base URL is not configured", domain.ErrConfiguration)
	}

	oaCfg := openai.DefaultConfig(apiKey)
	oaCfg.BaseURL = baseURL
	oaCfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(oaCfg)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		c.log.Error().Err(err).Str("model", model).Dur("elapsed", time.Since(start)).Msg("Generation call failed")
		return domain.AnalysisResult{}, classify(err)
	}

	c.log.Info().
		Str("model", model).
		Int("total_tokens", resp.Usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Msg("Generation call completed")

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return domain.AnalysisResult{}, fmt.Errorf("%w: model returned no content", domain.ErrUpstream)
	}
	return ParseResult(resp.Choices[0].Message.Content)
}

// classify maps transport and API errors onto the domain taxonomy
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch status {
	case http.StatusUnauthorized, http.StatusPaymentRequired, http.StatusTooManyRequests:
		return fmt.Errorf("%w: upstream returned %d, the API key may be exhausted or invalid: %v",
			domain.ErrConfiguration, status, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: generation timed out: %v", domain.ErrUpstream, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}
