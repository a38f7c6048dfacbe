package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ANTHROPIC_API_KEY",
		"AUTOAPPLY_ANTHROPIC_API_KEY",
		"AUTOAPPLY_NAME",
		"AUTOAPPLY_CONCURRENCY",
		"AUTOAPPLY_STORE_BACKEND",
		"AUTOAPPLY_STORE_DATABASE_URL",
		"AUTOAPPLY_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, cfg map[string]any) (path string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	storeDir := t.TempDir()
	configPath := writeConfig(t, map[string]any{
		"name":              "test-user",
		"anthropic_api_key": "test-key",
		"resume_path":       "/tmp/resume.txt",
		"store": map[string]any{
			"backend": "file",
			"dir":     storeDir,
		},
		"defaults": map[string]any{
			"output_dir": "./test-output",
		},
	})

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AnthropicAPIKey != "test-key" {
		t.Errorf("Expected API key test-key, got %s", cfg.AnthropicAPIKey)
	}

	if cfg.Store.Dir != storeDir {
		t.Errorf("Expected store dir %s, got %s", storeDir, cfg.Store.Dir)
	}

	if cfg.Concurrency != 3 {
		t.Errorf("Expected default concurrency 3, got %d", cfg.Concurrency)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Expected default server addr :8080, got %s", cfg.Server.Addr)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Expected info/console logging, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}

	if cfg.Model != defaultModel {
		t.Errorf("Expected default model %s, got %s", defaultModel, cfg.Model)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	configPath := writeConfig(t, map[string]any{
		"name":              "test-user",
		"anthropic_api_key": "file-key",
		"concurrency":       2,
	})

	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	t.Setenv("AUTOAPPLY_CONCURRENCY", "7")
	t.Setenv("AUTOAPPLY_STORE_BACKEND", "postgres")
	t.Setenv("AUTOAPPLY_STORE_DATABASE_URL", "postgres://localhost/autoapply")
	t.Setenv("AUTOAPPLY_LOG_LEVEL", "debug")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AnthropicAPIKey != "env-key" {
		t.Errorf("Expected API key from env, got %s", cfg.AnthropicAPIKey)
	}

	if cfg.Concurrency != 7 {
		t.Errorf("Expected concurrency 7, got %d", cfg.Concurrency)
	}

	if cfg.Store.Backend != BackendPostgres {
		t.Errorf("Expected postgres backend, got %s", cfg.Store.Backend)
	}

	if cfg.Store.DatabaseURL != "postgres://localhost/autoapply" {
		t.Errorf("Expected database url from env, got %s", cfg.Store.DatabaseURL)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoadNonexistent(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Fatal("Expected error loading nonexistent config, got nil")
	}

	if !strings.Contains(err.Error(), "autoapply init") {
		t.Errorf("Expected init hint in error, got %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte("{not json"), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err = Load(path)
	if err == nil {
		t.Error("Expected error loading invalid config, got nil")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Name:            "test-user",
			AnthropicAPIKey: "test-key",
			Concurrency:     3,
			Store:           StoreConfig{Backend: BackendMemory},
		}
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantError: false},
		{name: "missing name", mutate: func(c *Config) { c.Name = "" }, wantError: true},
		{name: "missing API key", mutate: func(c *Config) { c.AnthropicAPIKey = "" }, wantError: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, wantError: true},
		{name: "negative provider calls", mutate: func(c *Config) { c.MaxProviderCalls = -1 }, wantError: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "s3" }, wantError: true},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = BackendPostgres }, wantError: true},
		{name: "redis without addr", mutate: func(c *Config) { c.Store.Backend = BackendRedis }, wantError: true},
		{
			name: "redis with addr",
			mutate: func(c *Config) {
				c.Store.Backend = BackendRedis
				c.Store.RedisAddr = "localhost:6379"
			},
			wantError: false,
		},
		{name: "file backend defaults dir", mutate: func(c *Config) { c.Store.Backend = BackendFile }, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{
		Name:            "test-user",
		AnthropicAPIKey: "test-key",
		Concurrency:     1,
		Store:           StoreConfig{Backend: BackendFile},
	}

	err := cfg.Validate()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Store.Dir == "" {
		t.Error("Expected store dir default to be set")
	}

	if cfg.Defaults.OutputDir != "./applications" {
		t.Errorf("Expected default output dir ./applications, got %s", cfg.Defaults.OutputDir)
	}

	if cfg.Model != defaultModel {
		t.Errorf("Expected default model, got %s", cfg.Model)
	}
}

func TestInitConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := InitConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var cfg Config
	err = json.Unmarshal(data, &cfg)
	if err != nil {
		t.Fatalf("Failed to unmarshal config: %v", err)
	}

	if cfg.Defaults.OutputDir == "" {
		t.Error("Default output dir was not set")
	}

	if cfg.Name == "" {
		t.Error("Default name was not set")
	}

	if cfg.Store.Backend != BackendFile {
		t.Errorf("Expected file backend, got %s", cfg.Store.Backend)
	}
}

func TestInitConfigAlreadyExists(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	err := os.WriteFile(configPath, []byte("{}"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	err = InitConfig(configPath)
	if err == nil {
		t.Error("Expected error when config already exists, got nil")
	}
}
