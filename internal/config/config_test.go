package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty directory so no .env is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 180*time.Second, cfg.Cache.CategoryTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "/media", cfg.Media.URLPrefix)
}

func TestLoadLegacyEnv(t *testing.T) {
	chdir(t)
	t.Setenv("DB_DSN", "postgres://localhost/shop")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/shop", cfg.Database.DSN)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.SessionSecret)
}

func TestLoadPrefixedEnv(t *testing.T) {
	chdir(t)
	t.Setenv("STOREFRONT_CACHE_ENABLED", "false")
	t.Setenv("STOREFRONT_CACHE_CATEGORY_TTL", "30s")
	t.Setenv("STOREFRONT_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.CategoryTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadDotEnvAndFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DB_DSN=from-dotenv\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DB_DSN") })
	file := filepath.Join(dir, "storefront.yaml")
	require.NoError(t, os.WriteFile(file, []byte("redis:\n  addr: localhost:6379\ncatalog:\n  banned_words: [spam]\n"), 0o600))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Database.DSN)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"spam"}, cfg.Catalog.BannedWords)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: "8080"}}
	assert.NoError(t, cfg.Validate(false))

	err := cfg.Validate(true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}
