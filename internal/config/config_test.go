package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Quotes.CacheTTL)
	assert.Equal(t, 200*time.Millisecond, cfg.Quotes.Pacing)
	assert.Equal(t, int64(42), cfg.Generator.Seed)
	assert.Equal(t, "default", cfg.Generator.Profile)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
quotes:
  pacing: 1s
  snapshot_file: snapshots.json
generator:
  seed: 7
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic_prefix: staging.
`), 0o644))

	t.Setenv("KLEAR_GENERATOR_SEED", "1234")
	t.Setenv("KLEAR_REDIS_ADDR", "localhost:6379")
	t.Setenv("ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Quotes.Pacing)
	assert.Equal(t, "snapshots.json", cfg.Quotes.SnapshotFile)
	assert.Equal(t, int64(1234), cfg.Generator.Seed)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "staging.", cfg.Kafka.TopicPrefix)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.App.IsProduction())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsEmptySecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: \"\"\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
