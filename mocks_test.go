/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Seednode/promptphone/games/telephone"
	"github.com/Seednode/promptphone/providers"
)

type MockRewriter struct {
	mock.Mock
}

func (m *MockRewriter) Rewrite(ctx context.Context, req telephone.RewriteRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

var errImageDown = errors.New("image service unavailable")

// stubImages numbers its images. The first call can be made to fail, and
// while hold is set the first call waits until it is closed.
type stubImages struct {
	failFirst bool
	hold      chan struct{}

	mu    sync.Mutex
	calls int
}

func (s *stubImages) Generate(ctx context.Context, req providers.ImageRequest) (providers.ImageResult, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()

	if n == 1 && s.hold != nil {
		select {
		case <-s.hold:
		case <-ctx.Done():
			return providers.ImageResult{}, ctx.Err()
		}
	}

	if n == 1 && s.failFirst {
		return providers.ImageResult{}, errImageDown
	}

	return providers.ImageResult{
		ImageURL: fmt.Sprintf("https://images.test/%d.png", n),
		Prompt:   req.Prompt,
	}, nil
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

// tick blocks until the timer goroutine takes it.
func (t *manualTicker) tick() {
	t.ch <- time.Now()
}

type manualTickers struct {
	made chan *manualTicker
}

func newManualTickers() *manualTickers {
	return &manualTickers{made: make(chan *manualTicker, 4)}
}

func (f *manualTickers) NewTicker(time.Duration) telephone.Ticker {
	t := &manualTicker{ch: make(chan time.Time)}
	f.made <- t
	return t
}
