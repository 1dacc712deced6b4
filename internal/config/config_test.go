package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, int64(1), cfg.MessageCostCoins)
	assert.Equal(t, int64(99), cfg.VIPPriceCoins)
	assert.Equal(t, 720*time.Hour, cfg.VIPDuration)
	assert.Equal(t, "0 0 * * *", cfg.ClubResetSchedule)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.AllowedHost)
}

func TestLoadProductionDerivesHostAndOrigins(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("HOST", "https://api.clubhub.app:443/v1")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.clubhub.app, ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.clubhub.app", cfg.AllowedHost)
	assert.Equal(t, []string{
		"https://admin.clubhub.app",
		"https://clubhub.app",
		"https://www.clubhub.app",
	}, cfg.AllowedOrigins)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "localhost", hostname("http://localhost:8080"))
	assert.Equal(t, "api.example.com", hostname(" https://api.example.com/path "))
	assert.Equal(t, "", hostname(""))
}
