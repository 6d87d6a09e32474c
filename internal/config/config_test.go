package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMemoryStorageNeedsNoDatabase(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadReportsEveryMissingVariable(t *testing.T) {
	t.Setenv("STORAGE", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("BCRYPT_COST", "ten")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE")
	assert.Contains(t, err.Error(), "BCRYPT_COST")
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_ENABLED", "off")

	cfg := LoadRateLimitConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestKinopoiskConfig(t *testing.T) {
	t.Setenv("KINOPOISK_API_KEY", "")
	_, err := LoadKinopoiskConfig()
	assert.Error(t, err)

	t.Setenv("KINOPOISK_API_KEY", "key")
	t.Setenv("KINOPOISK_RPS", "2.5")
	cfg, err := LoadKinopoiskConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, "https://kinopoiskapiunofficial.tech/api/v2.2/films/", cfg.BaseURL)
}

func TestLoadStorageIgnoresTokenSettings(t *testing.T) {
	t.Setenv("STORAGE", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "kp")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "kinopoisk")
	t.Setenv("DB_PORT", "")

	cfg, err := LoadStorage()
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.DBHost)
	assert.Equal(t, "3306", cfg.DBPort)
}

func TestLoadKinopoiskConfig(t *testing.T) {
	t.Setenv("KINOPOISK_API_KEY", "")
	_, err := LoadKinopoiskConfig()
	require.Error(t, err)

	t.Setenv("KINOPOISK_API_KEY", "k")
	t.Setenv("KINOPOISK_RPS", "2.5")
	cfg, err := LoadKinopoiskConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.RPS)
	assert.Equal(t, uint32(5), cfg.MaxFailures)
	assert.Equal(t, "https://kinopoiskapiunofficial.tech/api/v2.2/films/", cfg.BaseURL)
}
