// Package config loads docdex configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete docdex configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Reranking  RerankingConfig  `yaml:"reranking"`
	Search     SearchConfig     `yaml:"search"`
	Server     ServerConfig     `yaml:"server"`
}

// DatabaseConfig locates the index database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is hash, ollama, or openai.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// OllamaHost is the Ollama API endpoint (default: http://localhost:11434).
	OllamaHost string `yaml:"ollama_host"`

	// BaseURL overrides the OpenAI endpoint for API-compatible services.
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	TokenBudget int `yaml:"token_budget"`
	CacheSize   int `yaml:"cache_size"`
}

// RerankingConfig configures the reranking provider.
type RerankingConfig struct {
	// Provider is noop, local, cohere, or jina.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

// SearchConfig configures retrieval defaults.
type SearchConfig struct {
	// Mode is keyword, semantic, or hybrid.
	Mode         string `yaml:"mode"`
	MaxResults   int    `yaml:"max_results"`
	UseReranking bool   `yaml:"use_reranking"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	LogLevel string `yaml:"log_level"`

	// DefaultTokens is the snippet token budget per get-library-docs call.
	DefaultTokens int `yaml:"default_tokens"`
}

// DefaultDatabasePath returns ~/.docdex/docdex.db, falling back to the
// temp directory when the home directory is unavailable.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".docdex", "docdex.db")
	}
	return filepath.Join(home, ".docdex", "docdex.db")
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
		Embeddings: EmbeddingsConfig{
			Provider: "hash",
		},
		Reranking: RerankingConfig{
			Provider: "noop",
		},
		Search: SearchConfig{
			Mode:       "hybrid",
			MaxResults: 10,
		},
		Server: ServerConfig{
			LogLevel:      "info",
			DefaultTokens: 10000,
		},
	}
}

// userConfigPath returns the user-level config file location, honoring
// XDG_CONFIG_HOME.
func userConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docdex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "docdex", "config.yaml")
}

// Load builds the configuration. Precedence, lowest to highest: defaults,
// DOCDEX_* environment variables, the config file (explicit path or the
// user config). Flags are applied on top by the CLI.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	cfg.applyEnvOverrides()

	if path == "" {
		if user := userConfigPath(); user != "" {
			if _, err := os.Stat(user); err == nil {
				path = user
			}
		}
	}
	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyKeyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies DOCDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCDEX_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DOCDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCDEX_OPENAI_BASE_URL"); v != "" {
		c.Embeddings.BaseURL = v
	}
	if v := os.Getenv("DOCDEX_OPENAI_API_KEY"); v != "" {
		c.Embeddings.APIKey = v
	}
	if v := os.Getenv("DOCDEX_RERANK_PROVIDER"); v != "" {
		c.Reranking.Provider = v
	}
	if v := os.Getenv("DOCDEX_RERANK_MODEL"); v != "" {
		c.Reranking.Model = v
	}
	if v := os.Getenv("DOCDEX_RERANK_API_KEY"); v != "" {
		c.Reranking.APIKey = v
	}
	if v := os.Getenv("DOCDEX_SEARCH_MODE"); v != "" {
		c.Search.Mode = v
	}
	if v := os.Getenv("DOCDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("DOCDEX_DEFAULT_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.DefaultTokens = n
		}
	}
}

// applyKeyFallbacks fills still-empty API keys from the ambient provider
// variables. Runs after the file so the configured provider picks its key.
func (c *Config) applyKeyFallbacks() {
	if c.Embeddings.APIKey == "" {
		c.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Reranking.APIKey == "" {
		switch c.Reranking.Provider {
		case "cohere":
			c.Reranking.APIKey = os.Getenv("COHERE_API_KEY")
		case "jina":
			c.Reranking.APIKey = os.Getenv("JINA_API_KEY")
		}
	}
}

// Validate rejects configurations that could only fail later at runtime.
func (c *Config) Validate() error {
	switch c.Embeddings.Provider {
	case "", "hash", "ollama":
	case "openai":
		if c.Embeddings.APIKey == "" {
			return fmt.Errorf("embeddings provider openai requires an API key (DOCDEX_OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}

	switch c.Reranking.Provider {
	case "", "noop", "local":
	case "cohere", "jina":
		if c.Reranking.APIKey == "" {
			return fmt.Errorf("reranking provider %s requires an API key (DOCDEX_RERANK_API_KEY)", c.Reranking.Provider)
		}
	default:
		return fmt.Errorf("unknown reranking provider %q", c.Reranking.Provider)
	}

	switch c.Search.Mode {
	case "", "keyword", "semantic", "hybrid":
	default:
		return fmt.Errorf("unknown search mode %q", c.Search.Mode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	return nil
}

// WriteYAML writes the configuration to a file, creating the directory.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
