// Package retry implements the shared backoff loop behind a pipeline
// step's RetryPolicy: plain retry and "controlled" retry (a retry with a
// distinct on-failure callback, separate from the filter that decides
// whether to retry at all).
package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// Filter decides whether err should be retried. A nil Filter means "always
// retry" (until attempts are exhausted).
type Filter func(policy *Policy, state *State, err error) bool

// OnFailure reacts to a retryable failure after the Filter has accepted it.
// It may log, record metrics, or cancel further retries by returning a
// non-nil error, which aborts the loop immediately with that error.
type OnFailure func(policy *Policy, state *State, err error) error

// Policy configures the retry loop. A nil *Policy passed to Retry or
// ControlledRetry means "run the block exactly once".
type Policy struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	BackoffMultiplier float64
	Filter            Filter
}

// State tracks the loop's progress across attempts. AttemptIndex is
// 1-based: the first attempt runs with AttemptIndex == 1.
type State struct {
	AttemptIndex int
	CurrentDelay time.Duration
	Failures     []error
}

// ExceededRetryAttempts is raised when a policy's MaxAttempts is exhausted
// without the block succeeding. Its message concatenates every accumulated
// failure in attempt order.
type ExceededRetryAttempts struct {
	Failures []error
}

func (e *ExceededRetryAttempts) Error() string {
	msg := "retry: exceeded max attempts: "
	for i, f := range e.Failures {
		if i > 0 {
			msg += "; "
		}
		msg += f.Error()
	}
	return msg
}

func (e *ExceededRetryAttempts) Unwrap() []error { return e.Failures }

// Block is the unit of work the retry loop runs.
type Block func(ctx context.Context) error

// Retry runs block under policy with no on-failure callback. A nil policy
// runs block exactly once.
func Retry(ctx context.Context, policy *Policy, block Block) error {
	return run(ctx, policy, block, nil)
}

// ControlledRetry runs block under policy, invoking onFailure for every
// retryable failure before sleeping. A nil policy runs block exactly once
// and never calls onFailure.
func ControlledRetry(ctx context.Context, policy *Policy, block Block, onFailure OnFailure) error {
	return run(ctx, policy, block, onFailure)
}

func run(ctx context.Context, policy *Policy, block Block, onFailure OnFailure) error {
	if policy == nil {
		return block(ctx)
	}

	state := &State{AttemptIndex: 1, CurrentDelay: policy.InitialDelay}

	for {
		err := block(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		retryable := true
		if policy.Filter != nil {
			retryable = policy.Filter(policy, state, err)
		}
		if !retryable {
			return err
		}

		state.Failures = append(state.Failures, err)

		if onFailure != nil {
			if hookErr := onFailure(policy, state, err); hookErr != nil {
				return hookErr
			}
		}

		if state.AttemptIndex >= policy.MaxAttempts {
			return &ExceededRetryAttempts{Failures: state.Failures}
		}

		if err := sleep(ctx, state.CurrentDelay); err != nil {
			return err
		}

		state.AttemptIndex++
		state.CurrentDelay = scaleDelay(state.CurrentDelay, policy.BackoffMultiplier)
	}
}

// scaleDelay multiplies delay by multiplier, rounded to the nearest
// millisecond, matching the source policy's documented rounding rule.
func scaleDelay(delay time.Duration, multiplier float64) time.Duration {
	if multiplier <= 0 {
		return delay
	}
	ms := math.Round(float64(delay) * multiplier / float64(time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
