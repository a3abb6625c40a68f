package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// ErrEmptyResponse is returned when the service answers but the completion
// carries no usable text.
var ErrEmptyResponse = errors.New("empty response from evaluation service")

// UpstreamError wraps any transport or service-level failure. The message
// never includes the API key.
type UpstreamError struct {
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("evaluation service error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("evaluation service error: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type Options struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
}

type Client struct {
	opts Options
	http *resty.Client
}

// NewClient builds the one configured evaluation client shared by the
// pipeline. Timeout is enforced here; callers do not retry.
func NewClient(opts Options, http *resty.Client) *Client {
	return &Client{opts: opts, http: http}
}

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []map[string]string `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float32             `json:"temperature"`
}

// Complete performs a single chat-completion request and returns the raw
// text of the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.opts.Model,
		Messages: []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: 0.0,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.opts.BaseURL + "/chat/completions")
	if err != nil {
		return "", &UpstreamError{Err: err}
	}

	body := resp.String()
	if resp.StatusCode() >= 400 {
		if msg := gjson.Get(body, "error.message").String(); msg != "" {
			return "", &UpstreamError{Status: resp.StatusCode(), Err: errors.New(msg)}
		}
		return "", &UpstreamError{Status: resp.StatusCode(), Err: errors.New("request failed")}
	}

	if msg := gjson.Get(body, "error.message").String(); msg != "" {
		return "", &UpstreamError{Err: errors.New(msg)}
	}

	content := strings.TrimSpace(gjson.Get(body, "choices.0.message.content").String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
