/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Seednode/promptphone/games/telephone"
)

const (
	DefaultOpenAIURL      = "https://api.openai.com/v1"
	DefaultChatModel      = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAI serves both the rewrite and embedding contracts. Either can be
// swapped for another provider without touching the other.
type OpenAI struct {
	Key            string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	Client         *http.Client
}

func NewOpenAI(key, baseURL, chatModel, embeddingModel string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}

	return &OpenAI{
		Key:            key,
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		ChatModel:      chatModel,
		EmbeddingModel: embeddingModel,
		Timeout:        timeout,
		Client:         &http.Client{},
	}
}

func (o *OpenAI) auth() http.Header {
	return http.Header{"Authorization": {"Bearer " + o.Key}}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	MaxTokens        int           `json:"max_tokens"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Rewrite(ctx context.Context, req telephone.RewriteRequest) (string, error) {
	if o.Key == "" {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if req.SystemInstructions == "" || req.UserPrompt == "" {
		return "", &APIError{Provider: "OpenAI", Status: http.StatusBadRequest, Message: "Both systemPrompt and userPrompt are required"}
	}

	var out chatResponse

	err := postJSON(ctx, o.Client, o.Timeout, "OpenAI", o.BaseURL+"/chat/completions", o.auth(),
		chatRequest{
			Model: o.ChatModel,
			Messages: []chatMessage{
				{Role: "system", Content: req.SystemInstructions},
				{Role: "user", Content: req.UserPrompt},
			},
			Temperature:      1.2,
			MaxTokens:        150,
			FrequencyPenalty: 0.8,
			PresencePenalty:  0.6,
		}, &out)
	if err != nil {
		return "", err
	}

	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: OpenAI returned no choices", ErrMalformedResponse)
	}

	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: OpenAI returned an empty completion", ErrMalformedResponse)
	}

	return text, nil
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	if o.Key == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	var out embeddingResponse

	err := postJSON(ctx, o.Client, o.Timeout, "OpenAI", o.BaseURL+"/embeddings", o.auth(),
		embeddingRequest{
			Model: o.EmbeddingModel,
			Input: text,
		}, &out)
	if err != nil {
		return nil, err
	}

	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: OpenAI returned no embedding", ErrMalformedResponse)
	}

	return out.Data[0].Embedding, nil
}
