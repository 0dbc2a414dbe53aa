package fmp

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the upstream answers 200 with no data for a symbol
var ErrNotFound = errors.New("fmp: no data")

// BudgetExhaustedError means "stop calling for now": either the per-scan call
// budget is spent or the upstream answered 429. Callers treat it as an expected,
// recoverable halt.
type BudgetExhaustedError struct {
	Limit       int
	Used        int
	RateLimited bool
}

func (e *BudgetExhaustedError) Error() string {
	if e.RateLimited {
		return fmt.Sprintf("fmp: rate limited by upstream (HTTP 429) after %d of %d calls", e.Used, e.Limit)
	}
	return fmt.Sprintf("fmp: API call budget exhausted (%d/%d calls used)", e.Used, e.Limit)
}

// IsBudgetExhausted reports whether err (or anything it wraps) is a BudgetExhaustedError
func IsBudgetExhausted(err error) bool {
	var be *BudgetExhaustedError
	return errors.As(err, &be)
}

// UpstreamError is any non-200, non-429 response
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Body       string // first maxErrorBody characters
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fmp: %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

const maxErrorBody = 200

// truncateBody keeps the first n characters (runes, not bytes)
func truncateBody(body []byte, n int) string {
	r := []rune(string(body))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
