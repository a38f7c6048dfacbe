package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// EnvPrefix prefixes every environment override, e.g. AUTOAPPLY_STORE_BACKEND.
const EnvPrefix = "AUTOAPPLY"

const defaultModel = "claude-sonnet-4-20250514"

// Config represents the application configuration.
type Config struct {
	Name             string        `json:"name" mapstructure:"name"`
	AnthropicAPIKey  string        `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`
	Model            string        `json:"model,omitempty" mapstructure:"model"`
	ResumePath       string        `json:"resume_path" mapstructure:"resume_path"`
	Concurrency      int           `json:"concurrency" mapstructure:"concurrency"`
	MaxProviderCalls int           `json:"max_provider_calls,omitempty" mapstructure:"max_provider_calls"`
	Log              LogConfig     `json:"log" mapstructure:"log"`
	Store            StoreConfig   `json:"store" mapstructure:"store"`
	Server           ServerConfig  `json:"server" mapstructure:"server"`
	Defaults         DefaultConfig `json:"defaults" mapstructure:"defaults"`
}

// LogConfig selects the zap level and encoder.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"`
}

// StoreConfig selects where application packs are persisted.
type StoreConfig struct {
	Backend       string `json:"backend" mapstructure:"backend"`
	Dir           string `json:"dir,omitempty" mapstructure:"dir"`
	DatabaseURL   string `json:"database_url,omitempty" mapstructure:"database_url"`
	RedisAddr     string `json:"redis_addr,omitempty" mapstructure:"redis_addr"`
	RedisPassword string `json:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `json:"redis_db,omitempty" mapstructure:"redis_db"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	OutputDir string `json:"output_dir" mapstructure:"output_dir"`
}

// DefaultPath returns ~/.autoapply/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".autoapply", "config.json")
	return path, err
}

// newViper returns a viper instance with defaults and env overrides bound.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func newViper() (v *viper.Viper) {
	v = viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("name", "")
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("model", defaultModel)
	v.SetDefault("resume_path", "")
	v.SetDefault("concurrency", 3)
	v.SetDefault("max_provider_calls", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.redis_addr", "")
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("defaults.output_dir", "./applications")

	_ = v.BindEnv("anthropic_api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")

	return v
}

// Load reads configuration from file with environment variable overrides.
// An explicit configPath must exist; the default location may be absent
// when the environment supplies everything.
func Load(configPath string) (cfg Config, err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	v := newViper()
	v.SetConfigFile(path)

	err = v.ReadInConfig()
	if err != nil {
		_, statErr := os.Stat(path)
		switch {
		case os.IsNotExist(statErr) && configPath == "":
			err = nil
		case os.IsNotExist(statErr):
			err = errors.Errorf("config file not found: %s (run 'autoapply init' to create)", path)
			return cfg, err
		default:
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	}

	err = v.Unmarshal(&cfg)
	if err != nil {
		err = errors.Wrapf(err, "failed to decode config: %s", path)
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// Validate checks that all required configuration is present and fills
// derived defaults.
func (c *Config) Validate() (err error) {
	if c.Name == "" {
		err = errors.New("name is required in config")
		return err
	}

	if c.AnthropicAPIKey == "" {
		err = errors.New("anthropic_api_key is required (set in config or ANTHROPIC_API_KEY env var)")
		return err
	}

	if c.Concurrency < 1 {
		err = errors.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
		return err
	}

	if c.MaxProviderCalls < 0 {
		err = errors.Errorf("max_provider_calls must not be negative, got %d", c.MaxProviderCalls)
		return err
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			var homeDir string
			homeDir, err = os.UserHomeDir()
			if err != nil {
				err = errors.Wrap(err, "failed to get user home directory")
				return err
			}
			c.Store.Dir = filepath.Join(homeDir, ".autoapply", "packs")
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			err = errors.New("store.database_url is required for the postgres backend")
			return err
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			err = errors.New("store.redis_addr is required for the redis backend")
			return err
		}
	case BackendMemory:
	default:
		err = errors.Errorf("unknown store.backend %q (want file, postgres, redis or memory)", c.Store.Backend)
		return err
	}

	if c.Model == "" {
		c.Model = defaultModel
	}

	if c.Defaults.OutputDir == "" {
		c.Defaults.OutputDir = "./applications"
	}

	return err
}

// InitConfig creates a default configuration file.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return err
	}

	defaultConfig := Config{
		Name:            "your-name",
		AnthropicAPIKey: "sk-ant-api03-...",
		Model:           defaultModel,
		ResumePath:      filepath.Join(homeDir, ".autoapply", "resume.txt"),
		Concurrency:     3,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Dir:     filepath.Join(homeDir, ".autoapply", "packs"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Defaults: DefaultConfig{
			OutputDir: filepath.Join(homeDir, "Documents", "Applications"),
		},
	}

	var data []byte
	data, err = json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
