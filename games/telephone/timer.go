/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"sync"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory hands out tick sources, so tests can drive the countdown by hand.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

type SystemTickers struct{}

func (SystemTickers) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type timerState int

const (
	timerIdle timerState = iota
	timerRunning
	timerExpired
	timerFired
	timerClaimed
	timerStopped
)

// TurnTimer counts down whole seconds once armed. On reaching zero it submits
// the draft if the draft is non-empty and fits the word limit; otherwise it
// just expires and the player may still submit by hand.
type TurnTimer struct {
	seconds int
	limit   WordLimit
	tickers TickerFactory

	mu        sync.Mutex
	state     timerState
	remaining int
	stop      chan struct{}
}

func NewTurnTimer(seconds int, limit WordLimit, tickers TickerFactory) *TurnTimer {
	if tickers == nil {
		tickers = SystemTickers{}
	}

	return &TurnTimer{
		seconds:   seconds,
		limit:     limit,
		tickers:   tickers,
		remaining: seconds,
	}
}

// Arm starts the countdown. It returns false if the timer has no duration or
// was armed before.
func (t *TurnTimer) Arm(draft func() string, submit func(string), onTick func(remaining int)) bool {
	t.mu.Lock()
	if t.seconds <= 0 || t.state != timerIdle {
		t.mu.Unlock()
		return false
	}
	t.state = timerRunning
	t.stop = make(chan struct{})
	stop := t.stop
	t.mu.Unlock()

	tk := t.tickers.NewTicker(time.Second)

	go func() {
		defer tk.Stop()

		for {
			select {
			case <-stop:
				return
			case <-tk.C():
			}

			t.mu.Lock()
			if t.state != timerRunning {
				t.mu.Unlock()
				return
			}
			t.remaining--
			remaining := t.remaining
			t.mu.Unlock()

			if onTick != nil {
				onTick(remaining)
			}

			if remaining > 0 {
				continue
			}

			t.expire(draft, submit)

			return
		}
	}()

	return true
}

func (t *TurnTimer) expire(draft func() string, submit func(string)) {
	text := ""
	if draft != nil {
		text = draft()
	}
	n := CountWords(text)
	valid := n > 0 && t.limit.Allows(n)

	t.mu.Lock()
	if t.state != timerRunning {
		t.mu.Unlock()
		return
	}
	if !valid {
		t.state = timerExpired
		t.mu.Unlock()
		return
	}
	t.state = timerFired
	t.mu.Unlock()

	submit(text)
}

// Claim is the manual-submit side of the race with expiry. It returns false
// when the timer already force-submitted (or another claim won).
func (t *TurnTimer) Claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.state {
	case timerFired, timerClaimed:
		return false
	case timerRunning:
		close(t.stop)
	}
	t.state = timerClaimed

	return true
}

// Stop cancels a running countdown without submitting anything.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == timerRunning {
		close(t.stop)
		t.state = timerStopped
	}
}

func (t *TurnTimer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining
}

func (t *TurnTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state == timerRunning
}
