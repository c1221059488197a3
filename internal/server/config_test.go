package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("loads default configuration", func(t *testing.T) {
		cfg, err := LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, ":8000", cfg.HTTPAddr)
		assert.Equal(t, ":9090", cfg.MetricsAddr)
		assert.Equal(t, "", cfg.GRPCAddr)
		assert.Equal(t, "tfidf_vectorizer.json", cfg.VectorizerPath)
		assert.Equal(t, "emotion_model.json", cfg.ModelPath)
		assert.Equal(t, 0, cfg.Cache.Size)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("reads a yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":8080"
grpc_addr: ":50051"
model_path: /models/emotion_model.json
cache:
  size: 1024
  ttl: 5m
log:
  level: debug
  format: console
`), 0o600))

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, ":50051", cfg.GRPCAddr)
		assert.Equal(t, "/models/emotion_model.json", cfg.ModelPath)
		assert.Equal(t, "tfidf_vectorizer.json", cfg.VectorizerPath)
		assert.Equal(t, 1024, cfg.Cache.Size)
		assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("http_addr: \":8080\"\n"), 0o600))
		t.Setenv("EMOTION_HTTP_ADDR", ":9000")
		t.Setenv("EMOTION_CACHE_SIZE", "64")
		t.Setenv("EMOTION_CACHE_TTL", "30s")

		cfg, err := LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, 64, cfg.Cache.Size)
		assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	})

	t.Run("ignores malformed numbers", func(t *testing.T) {
		t.Setenv("EMOTION_CACHE_SIZE", "lots")
		t.Setenv("EMOTION_SHUTDOWN_TIMEOUT", "soon")

		cfg, err := LoadConfig("")

		require.NoError(t, err)
		assert.Equal(t, 0, cfg.Cache.Size)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache: [unclosed"), 0o600))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing file is fine", func(t *testing.T) {
		assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("exports variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("EMOTION_MODEL_PATH=/srv/emotion_model.json\n"), 0o600))
		t.Setenv("EMOTION_MODEL_PATH", "")
		require.NoError(t, os.Unsetenv("EMOTION_MODEL_PATH"))

		require.NoError(t, LoadEnvFile(path))

		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "/srv/emotion_model.json", cfg.ModelPath)
	})
}
