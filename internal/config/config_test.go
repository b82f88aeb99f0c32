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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Batch.Size)
	assert.Equal(t, 5*time.Second, cfg.Batch.Delay)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.PubSubEnabled())
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.ExportArchiveEnabled())
	assert.NotEmpty(t, cfg.InstanceID)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
server:
  port: "9090"
batch:
  size: 20
  delay: 2s
redis:
  host: redis.internal
kafka:
  brokers: ["k1:9092"]
export:
  bucket: fleet-exports
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("BATCH_DELAY", "30")
	t.Setenv("KAFKA_BROKERS", "k2:9092, k3:9092")
	t.Setenv("VAPI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Batch.Size)
	assert.Equal(t, 30*time.Second, cfg.Batch.Delay)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, []string{"k2:9092", "k3:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "sk-test", cfg.Vapi.APIKey)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.ExportArchiveEnabled())
	assert.Equal(t, "exports", cfg.Export.Prefix)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch:\n  size: 500\n"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("server: [not, a, map]\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}
