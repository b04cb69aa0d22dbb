/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRewriter struct {
	mock.Mock
}

func (m *MockRewriter) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	args := m.Called(ctx, text)
	v, _ := args.Get(0).([]float64)
	return v, args.Error(1)
}

// fixedRand always picks n, wrapped into range.
type fixedRand struct {
	n int
}

func (f fixedRand) IntN(max int) int {
	return f.n % max
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

// tick blocks until the timer goroutine takes it.
func (t *fakeTicker) tick() {
	t.ch <- time.Now()
}

type fakeTickers struct {
	made chan *fakeTicker
}

func newFakeTickers() *fakeTickers {
	return &fakeTickers{made: make(chan *fakeTicker, 4)}
}

func (f *fakeTickers) NewTicker(time.Duration) Ticker {
	t := &fakeTicker{ch: make(chan time.Time)}
	f.made <- t
	return t
}
