package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"casino-simulator/backend/pkg/resilience"
)

// WithTimeout bounds every call to next. The bound holds even if next
// ignores its context.
func WithTimeout(next Completer, provider string, d time.Duration) Completer {
	if d <= 0 {
		return next
	}
	return CompleterFunc(func(ctx context.Context, system, user string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type result struct {
			text string
			err  error
		}
		done := make(chan result, 1)
		go func() {
			text, err := next.Complete(ctx, system, user)
			done <- result{text: text, err: err}
		}()

		select {
		case res := <-done:
			if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", &ProviderError{Provider: provider, Err: fmt.Errorf("request timed out after %s", d)}
			}
			return res.text, asProviderError(provider, res.err)
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return "", &ProviderError{Provider: provider, Err: fmt.Errorf("request timed out after %s", d)}
			}
			return "", &ProviderError{Provider: provider, Err: ctx.Err()}
		}
	})
}

// WithCircuitBreaker short-circuits calls while the provider keeps failing.
// The breaker never retries.
func WithCircuitBreaker(next Completer, provider string, cb *resilience.CircuitBreaker) Completer {
	if cb == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, system, user string) (string, error) {
		var text string
		err := cb.Execute(func() error {
			var callErr error
			text, callErr = next.Complete(ctx, system, user)
			return callErr
		})
		if err != nil {
			return "", asProviderError(provider, err)
		}
		return text, nil
	})
}
