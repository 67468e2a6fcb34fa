package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"brokerage-chat/backend/pkg/cache"
	"brokerage-chat/backend/pkg/config"

	vault "github.com/hashicorp/vault/api"
)

var (
	ErrNoVaultToken   = errors.New("no vault token provided")
	ErrNoVaultAddress = errors.New("no vault address provided")
)

const defaultSecretsPath = "secret/brokerage-chat"

// VaultSource reads one KV v2 secret and serves its fields as keys
type VaultSource struct {
	client *vault.Client
	mount  string
	path   string
	cache  *cache.Cache
}

// NewVaultSource connects to Vault. SecretsPath is "<mount>/<path>", e.g. secret/brokerage-chat.
func NewVaultSource(cfg config.VaultConfig) (*VaultSource, error) {
	if cfg.Address == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.Token == "" {
		return nil, ErrNoVaultToken
	}

	secretsPath := strings.Trim(cfg.SecretsPath, "/")
	if secretsPath == "" {
		secretsPath = defaultSecretsPath
	}
	mount, path, ok := strings.Cut(secretsPath, "/")
	if !ok || path == "" {
		return nil, fmt.Errorf("vault secrets path %q must be <mount>/<path>", cfg.SecretsPath)
	}

	vc := vault.DefaultConfig()
	vc.Address = cfg.Address
	vc.Timeout = 10 * time.Second
	vc.MaxRetries = 3

	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &VaultSource{
		client: client,
		mount:  mount,
		path:   path,
		cache:  cache.New(cache.Options{DefaultExpiration: 5 * time.Minute, CleanupInterval: 10 * time.Minute}),
	}, nil
}

// Lookup returns one field of the configured secret
func (v *VaultSource) Lookup(ctx context.Context, key string) (string, error) {
	if cached, ok := v.cache.Get(key); ok {
		return cached.(string), nil
	}

	secret, err := v.client.KVv2(v.mount).Get(ctx, v.path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("read vault secret %s/%s: %w", v.mount, v.path, err)
	}

	// Cache every field so one read serves all keys
	var found string
	for k, raw := range secret.Data {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		v.cache.Set(k, s)
		if k == key {
			found = s
		}
	}
	if found == "" {
		return "", ErrSecretNotFound
	}
	return found, nil
}

// Close stops the cache janitor
func (v *VaultSource) Close() {
	v.cache.Close()
}
