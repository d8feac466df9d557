// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

var ErrNotConfigured = errors.New("llm base url is not configured")

type (
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	Request struct {
		Model       string
		Messages    []Message
		Temperature float64
		MaxTokens   int
		// JSON asks the model for a single JSON object.
		JSON bool
	}

	chatRequest struct {
		Model          string          `json:"model"`
		Messages       []Message       `json:"messages"`
		Temperature    float64         `json:"temperature"`
		MaxTokens      int             `json:"max_tokens,omitempty"`
		ResponseFormat *responseFormat `json:"response_format,omitempty"`
	}

	responseFormat struct {
		Type string `json:"type"`
	}

	chatResponse struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
)

type Client struct {
	http    *resty.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	c := resty.New().
		SetTimeout(cfg.AITimeout).
		SetHeader("Content-Type", "application/json")
	if cfg.AIAPIKey != "" {
		c.SetAuthToken(cfg.AIAPIKey)
	}
	return &Client{
		http:    c,
		baseURL: strings.TrimRight(cfg.AIBaseURL, "/"),
	}
}

// Complete returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.baseURL == "" {
		return "", ErrNotConfigured
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&chatResponse{}).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", errors.Wrap(err, "chat completions request")
	}
	if resp.IsError() {
		return "", errors.Errorf("chat completions: unexpected status %d", resp.StatusCode())
	}

	result, ok := resp.Result().(*chatResponse)
	if !ok || len(result.Choices) == 0 {
		return "", errors.New("chat completions: empty choices")
	}
	return result.Choices[0].Message.Content, nil
}
