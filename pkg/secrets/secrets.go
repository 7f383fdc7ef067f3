package secrets

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrVaultDisabled  = errors.New("vault integration is disabled")
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

// Manager provides access to secrets
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)
}

// Resolve returns current when it is set and otherwise looks key up in m.
// A nil manager or a disabled Vault leaves current untouched.
func Resolve(ctx context.Context, m Manager, key, current string) (string, error) {
	if current != "" || m == nil {
		return current, nil
	}
	value, err := m.GetSecret(ctx, key)
	if errors.Is(err, ErrVaultDisabled) {
		return current, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
