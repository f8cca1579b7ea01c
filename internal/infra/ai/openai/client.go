package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/threat-console/internal/domain/vendor"
)

const (
	vendorName = "completion"

	maxTokens = 2048

	// DefaultBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.5-flash"
)

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	*openai.Client
	model      string
	configured bool
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = DefaultBaseURL
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		Client:     openai.NewClientWithConfig(cfg),
		model:      model,
		configured: !vendor.IsPlaceholder(opts.APIKey),
	}
}

func (c *Client) Model() string { return c.model }

// Configured is false when the API key is empty or a placeholder.
func (c *Client) Configured() bool { return c.configured }

// Complete sends the prompt as a single user message and returns the text of
// the first choice. One attempt only; retrying is left to the user.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.configured {
		return "", &vendor.ConfigError{Vendor: vendorName, Field: "ai.apiKey"}
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", transportError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &vendor.TransportError{Vendor: vendorName, Message: "response contained no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// transportError keeps the vendor's message and marks quota errors so the
// router can answer 429.
func transportError(err error) error {
	te := &vendor.TransportError{Vendor: vendorName, Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		te.StatusCode = apiErr.HTTPStatusCode
		te.Message = apiErr.Message
	case errors.As(err, &reqErr):
		te.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			te.Message = reqErr.Err.Error()
		}
	}
	if te.StatusCode == http.StatusTooManyRequests {
		te.Err = errors.Join(vendor.ErrQuotaExceeded, err)
	}
	return te
}
