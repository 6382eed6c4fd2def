package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.3
	DefaultMaxTokens   = 2000
)

var (
	ErrNotConfigured = errors.New("ai service is not configured")
	ErrUpstream      = errors.New("ai service returned an error")
	ErrEmptyResponse = errors.New("empty response from ai service")
)

// Client sends a single prompt to the model and returns its raw text.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	HTTPClient  *http.Client
}

type client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewGroqClient builds a client for Groq's OpenAI compatible API. With an
// empty APIKey the client is still usable but every call fails with
// ErrNotConfigured.
func NewGroqClient(cfg Config) Client {
	c := &client{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.maxTokens == 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return c
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// No overall timeout here: callers bound latency through ctx.
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 60 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}
	}
	oc.HTTPClient = httpClient
	c.api = openai.NewClientWithConfig(oc)
	return c
}

// Complete issues exactly one chat completion request. There is no retry.
func (c *client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
