package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"casino-simulator/backend/pkg/config"
	"casino-simulator/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

const defaultCacheTTL = 5 * time.Minute

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// VaultManager reads secrets from a KV v2 engine.
type VaultManager struct {
	client   *vault.Client
	config   config.VaultConfig
	log      *logger.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// NewVaultManager creates a new Vault manager instance. When Vault is
// disabled the manager answers every lookup with ErrVaultDisabled.
func NewVaultManager(cfg config.VaultConfig, log *logger.Logger) (*VaultManager, error) {
	m := &VaultManager{
		config:   cfg,
		log:      log,
		cacheTTL: defaultCacheTTL,
		cache:    make(map[string]cachedSecret),
	}
	if !cfg.Enabled {
		return m, nil
	}

	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	if cfg.Timeout > 0 {
		vaultConfig.Timeout = cfg.Timeout
	}
	vaultConfig.MaxRetries = 3

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	m.client = client
	return m, nil
}

// GetSecret returns key from the configured secrets path.
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	if !m.config.Enabled {
		return "", ErrVaultDisabled
	}

	m.mu.RLock()
	cached, found := m.cache[key]
	m.mu.RUnlock()
	if found && time.Now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	secret, err := m.client.KVv2(m.config.MountPath).Get(ctx, m.config.SecretsPath)
	if err != nil {
		m.log.Error("Failed to read secret from Vault",
			"path", m.config.SecretsPath,
			"error", err.Error(),
		)
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	value, ok := secret.Data[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, key)
	}

	m.mu.Lock()
	m.cache[key] = cachedSecret{value: value, expiresAt: time.Now().Add(m.cacheTTL)}
	m.mu.Unlock()

	return value, nil
}
