package fmp

import "sync"

// DefaultMaxCalls is the per-scan call budget when none is configured
const DefaultMaxCalls = 200

// Budget is the read-only view of a BudgetTracker
type Budget interface {
	Used() int
	Limit() int
	Remaining() int
}

// BudgetTracker counts outbound calls against a fixed limit.
// Acquire checks and increments under one lock so concurrent workers can never
// issue more than Limit calls. Release returns a unit whose call was never sent.
// ⭐ SSOT: API 호출 카운터는 여기서만 증가
type BudgetTracker struct {
	mu    sync.Mutex
	limit int
	used  int
}

// NewBudgetTracker creates a tracker; limit <= 0 falls back to DefaultMaxCalls
func NewBudgetTracker(limit int) *BudgetTracker {
	if limit <= 0 {
		limit = DefaultMaxCalls
	}
	return &BudgetTracker{limit: limit}
}

// Acquire reserves one call or fails with *BudgetExhaustedError
func (b *BudgetTracker) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used >= b.limit {
		return &BudgetExhaustedError{Limit: b.limit, Used: b.used}
	}
	b.used++
	return nil
}

// Release gives back one unit acquired for a call that was never sent
func (b *BudgetTracker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used > 0 {
		b.used--
	}
}

// Used returns how many calls have been made
func (b *BudgetTracker) Used() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// Limit returns the configured maximum
func (b *BudgetTracker) Limit() int {
	return b.limit
}

// Remaining returns calls left before exhaustion
func (b *BudgetTracker) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit - b.used
}
