// Package ai contains the clients that talk to third-party completion
// providers.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyCompletion is reported when a provider answers without any text.
var ErrEmptyCompletion = errors.New("no response generated")

// Completer returns the completion for one system instruction and one user
// message. Every failure is a *ProviderError.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a plain function to the Completer interface.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

// ProviderError covers network failures, authentication and quota
// rejections, timeouts and malformed provider responses alike.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// asProviderError leaves existing ProviderErrors untouched.
func asProviderError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}
