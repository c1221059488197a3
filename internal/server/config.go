package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"emotionapi/internal/logger"
)

// Config holds server configuration
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	MetricsAddr     string        `yaml:"metrics_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	VectorizerPath  string        `yaml:"vectorizer_path"`
	ModelPath       string        `yaml:"model_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Cache           CacheConfig   `yaml:"cache"`
	Log             logger.Config `yaml:"log"`
}

// CacheConfig sizes the optional prediction cache. Size 0 disables it.
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		HTTPAddr:        ":8000",
		MetricsAddr:     ":9090",
		VectorizerPath:  "tfidf_vectorizer.json",
		ModelPath:       "emotion_model.json",
		ShutdownTimeout: 10 * time.Second,
		Log: logger.Config{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig layers defaults, the optional YAML file at path and EMOTION_*
// environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getEnv("EMOTION_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = getEnv("EMOTION_METRICS_ADDR", cfg.MetricsAddr)
	cfg.GRPCAddr = getEnv("EMOTION_GRPC_ADDR", cfg.GRPCAddr)
	cfg.VectorizerPath = getEnv("EMOTION_VECTORIZER_PATH", cfg.VectorizerPath)
	cfg.ModelPath = getEnv("EMOTION_MODEL_PATH", cfg.ModelPath)
	cfg.ShutdownTimeout = getEnvAsDuration("EMOTION_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.Cache.Size = getEnvAsInt("EMOTION_CACHE_SIZE", cfg.Cache.Size)
	cfg.Cache.TTL = getEnvAsDuration("EMOTION_CACHE_TTL", cfg.Cache.TTL)
	cfg.Log.Level = getEnv("EMOTION_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("EMOTION_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = getEnv("EMOTION_LOG_FILE", cfg.Log.File)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getEnvAsDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}
