package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSource map[string]string

func (m mapSource) Lookup(_ context.Context, key string) (string, error) {
	if v, ok := m[key]; ok {
		return v, nil
	}
	return "", ErrSecretNotFound
}

func TestApplyOverridesFoundKeys(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "from-env"
	cfg.SMTP.Password = "keep-me"

	err := Apply(context.Background(), cfg, mapSource{KeyJWTSecret: "from-vault"}, logger.Discard())
	require.NoError(t, err)

	assert.Equal(t, "from-vault", cfg.JWT.Secret)
	assert.Equal(t, "keep-me", cfg.SMTP.Password)
}

func TestEnvSourceAndChain(t *testing.T) {
	t.Setenv("SMTP_PASSWORD", "env-pass")

	value, err := EnvSource{}.Lookup(context.Background(), "smtp_password")
	require.NoError(t, err)
	assert.Equal(t, "env-pass", value)

	chain := Chain{mapSource{KeyJWTSecret: "first"}, EnvSource{}}
	value, err = chain.Lookup(context.Background(), KeyJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "first", value)

	value, err = chain.Lookup(context.Background(), KeySMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "env-pass", value)

	_, err = chain.Lookup(context.Background(), "missing_key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestVaultSourceReadsKV2(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/brokerage-chat" || r.Header.Get("X-Vault-Token") != "root" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"jwt_secret": "vault-secret", "smtp_password": "vault-smtp"},
				"metadata": {"created_time": "2024-01-01T00:00:00Z", "deletion_time": "", "destroyed": false, "version": 1}
			}
		}`))
	}))
	defer srv.Close()

	src, err := NewVaultSource(config.VaultConfig{Address: srv.URL, Token: "root", SecretsPath: "secret/brokerage-chat"})
	require.NoError(t, err)
	defer src.Close()

	value, err := src.Lookup(context.Background(), KeyJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "vault-secret", value)

	// Served from cache
	value, err = src.Lookup(context.Background(), KeySMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "vault-smtp", value)
	assert.Equal(t, int32(1), hits.Load())
}

func TestNewVaultSourceValidation(t *testing.T) {
	_, err := NewVaultSource(config.VaultConfig{Token: "t"})
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultSource(config.VaultConfig{Address: "http://127.0.0.1:8200"})
	assert.ErrorIs(t, err, ErrNoVaultToken)

	_, err = NewVaultSource(config.VaultConfig{Address: "http://127.0.0.1:8200", Token: "t", SecretsPath: "nomount"})
	assert.Error(t, err)
}
