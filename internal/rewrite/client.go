// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rewrite calls the language-model service that softens the tone of
// customer feedback. The prompt pair is fixed; the caller owns the
// fallback-to-original policy when a call fails.
package rewrite

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	temperature = 0.7
	maxTokens   = 1000
)

// Rewriter produces a softened version of customer feedback text.
type Rewriter interface {
	// Rewrite returns the transformed text, or an error when the rewrite
	// backend is unavailable or returns an unusable response.
	Rewrite(ctx context.Context, text string) (string, error)

	// Model is the model identifier recorded in feedback metadata.
	Model() string
}

// Client is a Rewriter backed by an OpenAI-compatible chat completions API.
type Client struct {
	http  *resty.Client
	model string
}

// Config holds rewrite client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewClient creates a rewrite client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:  http,
		model: cfg.Model,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// chatMessage is a single role/content pair in a completions request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// chatResponse holds the fields we read from a completions response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Rewrite submits the fixed system/user prompt pair with the original text
// embedded and returns the generated rewrite. A single call, no retries.
func (c *Client) Rewrite(ctx context.Context, text string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(text)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var out chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("rewrite request: %w", err)
	}

	if resp.IsError() {
		if out.Error != nil {
			return "", fmt.Errorf("rewrite backend: %s (%s)", out.Error.Message, out.Error.Type)
		}
		return "", fmt.Errorf("rewrite backend returned HTTP %d", resp.StatusCode())
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("rewrite backend returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}
