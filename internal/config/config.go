// Package config resolves the client settings from defaults, an optional .env file,
// an optional YAML profile and RNGSYNC_* environment variables, in that order.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aretw0/rngsync/internal/logging"
	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "RNGSYNC"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// StorageConfig selects and configures the durable slot.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" split_words:"true"`
	Path          string `mapstructure:"path" split_words:"true"`
	RedisAddr     string `mapstructure:"redis_addr" split_words:"true"`
	RedisPassword string `mapstructure:"redis_password" split_words:"true"`
	RedisDB       int    `mapstructure:"redis_db" split_words:"true"`

	// EncryptionKey is a 32 byte AES key, hex or base64 encoded. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key" split_words:"true"`

	// RedactPatterns mask matching context tags in the persisted copy.
	RedactPatterns []string `mapstructure:"redact_patterns" split_words:"true"`
}

// Config is the resolved client configuration.
type Config struct {
	NodeURL   string `mapstructure:"node_url" split_words:"true"`
	PushURL   string `mapstructure:"push_url" split_words:"true"`
	NodeID    string `mapstructure:"node_id" split_words:"true"`
	ProcessID string `mapstructure:"process_id" split_words:"true"`
	StateKey  string `mapstructure:"state_key" split_words:"true"`

	Storage StorageConfig `mapstructure:"storage" envconfig:"STORAGE"`

	LogLevel       string        `mapstructure:"log_level" split_words:"true"`
	MetricsAddr    string        `mapstructure:"metrics_addr" split_words:"true"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" split_words:"true"`
	SubmitRPS      float64       `mapstructure:"submit_rps" split_words:"true"`
	SubmitBurst    int           `mapstructure:"submit_burst" split_words:"true"`
}

// Default returns the settings for a node on localhost.
func Default() *Config {
	return &Config{
		NodeURL:   "http://localhost:8080/rng:rng:template.os",
		ProcessID: "rng:rng:template.os",
		StateKey:  domain.DefaultStateKey,
		Storage: StorageConfig{
			Backend:   BackendFile,
			Path:      ".rngsync/state",
			RedisAddr: "localhost:6379",
		},
		LogLevel:       "info",
		RequestTimeout: 10 * time.Second,
		SubmitBurst:    1,
	}
}

// Load is LoadFiles without an explicit .env path; ./.env is used when present.
func Load(profile string) (*Config, error) {
	return LoadFiles(profile, "")
}

// LoadFiles resolves the configuration. profile is an optional YAML file and
// envFile an optional .env file whose values are exported to the environment.
func LoadFiles(profile, envFile string) (*Config, error) {
	if envFile != "" {
		if err := exportEnvironment(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	cfg := Default()

	if profile != "" {
		if err := applyProfile(cfg, profile); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.PushURL == "" {
		push, err := DerivePushURL(cfg.NodeURL)
		if err != nil {
			return nil, err
		}
		cfg.PushURL = push
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyProfile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return nil
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

// exportEnvironment copies the .env entries into the process environment.
// Variables already set win over the file.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}

// DerivePushURL maps the node base URL onto its WebSocket endpoint
// (http -> ws, https -> wss) with a trailing slash.
func DerivePushURL(nodeURL string) (string, error) {
	u, err := url.Parse(nodeURL)
	if err != nil {
		return "", &domain.ConfigurationError{Field: "node_url", Reason: err.Error()}
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", &domain.ConfigurationError{Field: "node_url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String(), nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.NodeURL); err != nil {
		return &domain.ConfigurationError{Field: "node_url", Reason: err.Error()}
	}
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendSQLite:
	default:
		return &domain.ConfigurationError{Field: "storage.backend", Reason: fmt.Sprintf("unknown backend %q", c.Storage.Backend)}
	}
	if _, err := c.EncryptionKey(); err != nil {
		return &domain.ConfigurationError{Field: "storage.encryption_key", Reason: err.Error()}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return &domain.ConfigurationError{Field: "log_level", Reason: err.Error()}
	}
	if c.SubmitRPS < 0 || c.SubmitBurst < 0 {
		return &domain.ConfigurationError{Field: "submit_rps", Reason: "must not be negative"}
	}
	return nil
}

// Identity returns the push channel identity.
func (c *Config) Identity() domain.Identity {
	return domain.Identity{NodeID: c.NodeID, ProcessID: c.ProcessID}
}

// EncryptionKey decodes Storage.EncryptionKey. It returns nil when encryption is off.
func (c *Config) EncryptionKey() ([]byte, error) {
	raw := strings.TrimSpace(c.Storage.EncryptionKey)
	if raw == "" {
		return nil, nil
	}
	var (
		key []byte
		err error
	)
	if len(raw) == 64 {
		key, err = hex.DecodeString(raw)
	} else {
		key, err = base64.StdEncoding.DecodeString(raw)
	}
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "storage.encryption_key", Reason: "must be hex or base64"}
	}
	if len(key) != 32 {
		return nil, &domain.ConfigurationError{Field: "storage.encryption_key", Reason: fmt.Sprintf("must be 32 bytes, got %d", len(key))}
	}
	return key, nil
}
