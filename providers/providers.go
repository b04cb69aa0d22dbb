/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package providers talks to the hosted AI services the game leans on:
// image generation, prompt rewriting and text embeddings.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured means a required key or endpoint is missing.
	ErrNotConfigured = errors.New("provider not configured")

	ErrMalformedResponse = errors.New("malformed provider response")
)

const DefaultTimeout = 30 * time.Second

// APIError is a non-success answer from a provider.
type APIError struct {
	Provider string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %d - %s", e.Provider, e.Status, e.Message)
}

type errorBody struct {
	Detail any `json:"detail"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b errorBody) message(fallback string) string {
	switch d := b.Detail.(type) {
	case string:
		if d != "" {
			return d
		}
	case nil:
	default:
		if raw, err := json.Marshal(d); err == nil {
			return string(raw)
		}
	}

	if b.Error.Message != "" {
		return b.Error.Message
	}

	return fallback
}

// postJSON sends in as JSON and decodes a 2xx reply into out, bounded by timeout.
func postJSON(ctx context.Context, client *http.Client, timeout time.Duration, provider, url string, header http.Header, in, out any) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%s response: %w", provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)

		return &APIError{
			Provider: provider,
			Status:   resp.StatusCode,
			Message:  eb.message(http.StatusText(resp.StatusCode)),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, provider, err)
	}

	return nil
}
