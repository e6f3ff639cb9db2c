// Package llm talks to language-model completion endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2048
	maxResponseBytes = 4 << 20
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configures a ChatClient.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	endpoint   string
	apiKey     string
	model      string
	maxTokens  int
	timeout    time.Duration
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// NewChatClient creates a ChatClient.
func NewChatClient(opts Options) *ChatClient {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &ChatClient{
		endpoint:  strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/") + "/chat/completions",
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Complete sends prompt as a single user message at zero temperature.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode completion request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", apperror.Wrap(apperror.Timeout, err, "Language model request timed out")
		}
		return "", apperror.Wrap(apperror.UpstreamError, err, "Language model request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return "", apperror.Wrap(apperror.Timeout, err, "Language model request timed out")
		}
		return "", apperror.Wrap(apperror.UpstreamError, err, "Failed to read language model response")
	}

	logger.Log.Debug().
		Str("model", c.model).
		Int("status", resp.StatusCode).
		Int("response_bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Language model call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", apperror.Newf(apperror.UpstreamError, "Language model returned status %d", resp.StatusCode)
	}

	return ExtractText(body)
}

// completionResponse covers the chat and generative response shapes.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractText returns the completion text from a chat-style
// (choices[0].message.content) or generative-style
// (candidates[0].content.parts[0].text) response body.
func ExtractText(body []byte) (string, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperror.Wrap(apperror.EmptyResponse, err, "Language model returned an unreadable response")
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, nil
	}
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 &&
		resp.Candidates[0].Content.Parts[0].Text != "" {
		return resp.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", apperror.New(apperror.EmptyResponse, "Language model returned no content")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
