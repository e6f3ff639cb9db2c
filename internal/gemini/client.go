// Package gemini provides a language model completer backed by the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

// ModelName is the default Gemini model.
const ModelName = "gemini-2.5-flash"

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2048
)

// ContentGenerator defines the interface for generating content via Gemini.
// This abstraction enables testing without making actual API calls.
type ContentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// modelsAdapter wraps *genai.Models to implement ContentGenerator.
type modelsAdapter struct {
	models *genai.Models
}

func (m *modelsAdapter) GenerateContent(
	ctx context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	resp, err := m.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai.GenerateContent: %w", err)
	}
	return resp, nil
}

// Options tunes completions.
type Options struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client completes prompts with Gemini.
type Client struct {
	generator ContentGenerator
	model     string
	maxTokens int32
	timeout   time.Duration
}

// NewClient creates a new Gemini client with the provided API key.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return NewClientWithGenerator(&modelsAdapter{models: client.Models}, opts), nil
}

// NewClientWithGenerator creates a Client with a custom ContentGenerator.
// This is primarily used for testing with mock generators.
func NewClientWithGenerator(generator ContentGenerator, opts Options) *Client {
	if opts.Model == "" {
		opts.Model = ModelName
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		generator: generator,
		model:     opts.Model,
		maxTokens: int32(opts.MaxTokens),
		timeout:   opts.Timeout,
	}
}

// Complete sends prompt as a single user turn at zero temperature and
// returns the text of the first candidate.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0),
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperror.Wrap(apperror.Timeout, err, "Language model request timed out")
		}
		return "", apperror.Wrap(apperror.UpstreamError, err, "Language model request failed")
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperror.New(apperror.EmptyResponse, "Language model returned no content")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", apperror.New(apperror.EmptyResponse, "Language model returned no content")
	}
	return b.String(), nil
}
