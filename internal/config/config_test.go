package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("DIFY_API_KEY", "test-key")
}

func TestLoad_AllowedOriginsDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_AllowedOriginsFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", "https://chat.example.com, https://admin.example.com")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t,
		[]string{"https://chat.example.com", "https://admin.example.com"},
		cfg.AllowedOrigins)
}

func TestLoad_AllowedOriginsIgnoresEmptyEntries(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " , ,")

	cfg, err := Load(Overrides{})
	require.NoError(t, err)
	require.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("DIFY_API_KEY", "test-key")

	_, err := Load(Overrides{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "JWT_SECRET_KEY")
}
