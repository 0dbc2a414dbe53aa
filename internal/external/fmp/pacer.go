package fmp

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pacer spaces calls to FMP.
//
// Concurrent calls: call starts are at least interval apart (rate.Limiter, burst 1).
// A call issued while nothing is in flight also waits interval after the previous
// call finished, so a sequential scan gets the full gap even after a slow response.
type pacer struct {
	limiter  *rate.Limiter
	interval time.Duration

	mu       sync.Mutex
	inFlight int
	lastDone time.Time
}

func newPacer(interval time.Duration) *pacer {
	p := &pacer{interval: interval}
	if interval <= 0 {
		p.limiter = rate.NewLimiter(rate.Inf, 1)
	} else {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return p
}

// begin blocks until the next call may start. Every successful begin needs one end.
func (p *pacer) begin(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	var delay time.Duration
	if p.interval > 0 && p.inFlight == 0 && !p.lastDone.IsZero() {
		delay = time.Until(p.lastDone.Add(p.interval))
	}
	p.inFlight++
	p.mu.Unlock()

	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
		return ctx.Err()
	}
}

// end marks a call as finished
func (p *pacer) end() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inFlight--
	if p.inFlight == 0 {
		p.lastDone = time.Now()
	}
}
