package scanner

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/swingscan/internal/contracts"
)

// step is the explicit per-item result of an enrichment stage.
// Exactly one of: value set (passed), outcome rejected/skipped, or halt set.
type step[T any] struct {
	value   T
	outcome contracts.ItemOutcome
	halt    error // budget exhausted: stop the stage
}

func passed[T any](stage contracts.Stage, symbol string, v T) step[T] {
	return step[T]{
		value:   v,
		outcome: contracts.ItemOutcome{Stage: stage, Symbol: symbol, Outcome: contracts.OutcomePassed},
	}
}

func rejected[T any](stage contracts.Stage, symbol, reason string) step[T] {
	return step[T]{outcome: contracts.ItemOutcome{Stage: stage, Symbol: symbol, Outcome: contracts.OutcomeRejected, Reason: reason}}
}

func skipped[T any](stage contracts.Stage, symbol, reason string) step[T] {
	return step[T]{outcome: contracts.ItemOutcome{Stage: stage, Symbol: symbol, Outcome: contracts.OutcomeSkipped, Reason: reason}}
}

func halted[T any](stage contracts.Stage, symbol string, err error) step[T] {
	return step[T]{
		halt:    err,
		outcome: contracts.ItemOutcome{Stage: stage, Symbol: symbol, Outcome: contracts.OutcomeSkipped, Reason: err.Error()},
	}
}

// stageRun is what runStage hands back
type stageRun[T any] struct {
	steps     []step[T] // completed items, in input order
	attempted int       // items whose step ran (including the halting one)
	halt      error     // first halt error, if any
}

// survivors returns the passed values in input order
func (r stageRun[T]) survivors() []T {
	var out []T
	for _, s := range r.steps {
		if s.halt == nil && s.outcome.Outcome == contracts.OutcomePassed {
			out = append(out, s.value)
		}
	}
	return out
}

// runStage applies fn to items with at most workers in flight.
// The first halt stops dispatch; in-flight items drain, queued items are abandoned.
// onDispatch runs on the dispatching goroutine before item i starts.
func runStage[In, Out any](
	ctx context.Context,
	workers int,
	items []In,
	fn func(context.Context, In) step[Out],
	onDispatch func(i int, item In),
) (stageRun[Out], error) {
	if workers <= 1 {
		return runSequential(ctx, items, fn, onDispatch)
	}

	results := make([]step[Out], len(items))
	done := make([]bool, len(items))

	var (
		stop     atomic.Bool
		haltOnce sync.Once
		haltErr  error
		g        errgroup.Group
	)
	g.SetLimit(workers)

	for i, item := range items {
		if stop.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return stageRun[Out]{}, err
		}
		if onDispatch != nil {
			onDispatch(i, item)
		}

		g.Go(func() error {
			if stop.Load() {
				return nil
			}
			r := fn(ctx, item)
			results[i] = r
			done[i] = true
			if r.halt != nil {
				haltOnce.Do(func() { haltErr = r.halt })
				stop.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return stageRun[Out]{}, err
	}

	run := stageRun[Out]{halt: haltErr}
	for i := range items {
		if done[i] {
			run.steps = append(run.steps, results[i])
			run.attempted++
		}
	}
	return run, nil
}

func runSequential[In, Out any](
	ctx context.Context,
	items []In,
	fn func(context.Context, In) step[Out],
	onDispatch func(i int, item In),
) (stageRun[Out], error) {
	var run stageRun[Out]

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return stageRun[Out]{}, err
		}
		if onDispatch != nil {
			onDispatch(i, item)
		}

		r := fn(ctx, item)
		run.steps = append(run.steps, r)
		run.attempted++
		if r.halt != nil {
			run.halt = r.halt
			break
		}
	}

	// 마지막 항목 처리 중 취소된 경우도 치명적
	if err := ctx.Err(); err != nil {
		return stageRun[Out]{}, err
	}

	return run, nil
}
