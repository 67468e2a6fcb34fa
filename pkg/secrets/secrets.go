// Package secrets resolves sensitive settings from Vault or the environment.
package secrets

import (
	"context"
	"errors"
	"os"
	"strings"

	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/logger"
)

var ErrSecretNotFound = errors.New("secret not found")

// Source looks up a secret by key
type Source interface {
	Lookup(ctx context.Context, key string) (string, error)
}

// EnvSource reads secrets from environment variables; "smtp_password" maps to SMTP_PASSWORD
type EnvSource struct{}

func (EnvSource) Lookup(_ context.Context, key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
	if value := os.Getenv(envKey); value != "" {
		return value, nil
	}
	return "", ErrSecretNotFound
}

// Chain tries each source in order until one has the key
type Chain []Source

func (c Chain) Lookup(ctx context.Context, key string) (string, error) {
	for _, src := range c {
		value, err := src.Lookup(ctx, key)
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			return "", err
		}
	}
	return "", ErrSecretNotFound
}

// Keys resolved into the configuration
const (
	KeyJWTSecret    = "jwt_secret"
	KeySMTPPassword = "smtp_password"
	KeyDBPassword   = "db_password"
)

// Apply overwrites sensitive configuration fields with values found in src.
// Missing keys keep their current value.
func Apply(ctx context.Context, cfg *config.Config, src Source, log *logger.Logger) error {
	targets := map[string]*string{
		KeyJWTSecret:    &cfg.JWT.Secret,
		KeySMTPPassword: &cfg.SMTP.Password,
		KeyDBPassword:   &cfg.Database.Password,
	}

	for key, field := range targets {
		value, err := src.Lookup(ctx, key)
		if errors.Is(err, ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		*field = value
		log.Debug("Secret applied", "key", key)
	}
	return nil
}
