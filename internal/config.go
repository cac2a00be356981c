package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFilename = "config.yaml"

type EmbeddingsConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	Endpoint  string `yaml:"endpoint,omitempty"`
}

type VectorConfig struct {
	Engine string `yaml:"engine"`
	Path   string `yaml:"path,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	Embeddings      EmbeddingsConfig          `yaml:"embeddings"`
	Vector          VectorConfig              `yaml:"vector"`
	Providers       map[string]ProviderConfig `yaml:"providers,omitempty"`
	DefaultProvider string                    `yaml:"default_provider,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Embeddings: EmbeddingsConfig{
			Backend:   "ollama",
			Model:     DefaultOllamaModel,
			Dimension: DefaultDimension,
		},
		Vector: VectorConfig{
			Engine: "sqlite",
		},
		Providers: make(map[string]ProviderConfig),
	}
}

// ConfigPath is where the config file lives under the insights root.
func ConfigPath(root string) string {
	return filepath.Join(root, configFilename)
}

func LoadConfig(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Embeddings.Backend == "" {
		cfg.Embeddings.Backend = "ollama"
	}
	if cfg.Embeddings.Dimension == 0 {
		cfg.Embeddings.Dimension = DefaultDimension
	}
	if cfg.Vector.Engine == "" {
		cfg.Vector.Engine = "sqlite"
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	return &cfg, nil
}

func SaveConfig(root string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Endpoint resolves the embedding daemon endpoint: environment override
// first, then config, then the platform default.
func (c *Config) Endpoint() string {
	if ep := os.Getenv(EnvEndpoint); ep != "" {
		return ep
	}
	if c.Embeddings.Endpoint != "" {
		return c.Embeddings.Endpoint
	}
	return defaultEndpoint
}

// VectorPath resolves where the vector store lives for the given engine.
func (c *Config) VectorPath(root string) string {
	if c.Vector.Path != "" {
		return c.Vector.Path
	}
	if c.Vector.Engine == "annoy" {
		return filepath.Join(root, "vectors")
	}
	return filepath.Join(root, "vectors.db")
}

// NewBackend builds the configured embedding backend for the daemon.
func (c *Config) NewBackend() (EmbeddingBackend, error) {
	switch c.Embeddings.Backend {
	case "mock":
		return NewMockBackend(c.Embeddings.Dimension), nil
	case "ollama", "":
		model := c.Embeddings.Model
		if model == "" {
			model = DefaultOllamaModel
		}
		return NewOllamaBackend(DefaultOllamaHost, model, c.Embeddings.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: unknown embeddings backend %q", ErrInvalidArgument, c.Embeddings.Backend)
	}
}

// NewVectorStore builds the configured vector store.
func (c *Config) NewVectorStore(root string) (VectorStore, error) {
	switch c.Vector.Engine {
	case "annoy":
		return OpenAnnoyVectorStore(c.VectorPath(root), c.Embeddings.Dimension)
	case "sqlite", "":
		return OpenSQLiteVectorStore(c.VectorPath(root))
	default:
		return nil, fmt.Errorf("%w: unknown vector engine %q", ErrInvalidArgument, c.Vector.Engine)
	}
}
