package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the faceid tool.
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Matching    MatchingConfig    `yaml:"matching"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// StorageConfig holds enrollment persistence configuration.
type StorageConfig struct {
	Path string `yaml:"path"` // empty means .faceid/faces.db under the root dir
}

// MatchingConfig holds matcher configuration.
type MatchingConfig struct {
	Threshold     float64 `yaml:"threshold"`
	SecurityLevel string  `yaml:"security_level"` // "low", "medium", "high"; overrides Threshold when set
	Dimension     int     `yaml:"dimension"`
}

// RecognitionConfig holds configuration for the periodic recognition loop.
type RecognitionConfig struct {
	Interval time.Duration `yaml:"interval"`
	Includes []string      `yaml:"includes"`
	Excludes []string      `yaml:"excludes"`
}

// ExtractorConfig holds embedding extractor configuration.
type ExtractorConfig struct {
	Provider     string        `yaml:"provider"` // "http", "mock"
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxImageSide int           `yaml:"max_image_side"` // frames are downscaled to fit before upload; 0 disables
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text", "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			Threshold: 0.6,
			Dimension: 128,
		},
		Recognition: RecognitionConfig{
			Interval: 100 * time.Millisecond,
			Includes: []string{"**/*.jpg", "**/*.jpeg", "**/*.png", "**/*.webp", "**/*.bmp"},
			Excludes: []string{"**/.faceid/**", "**/.git/**"},
		},
		Extractor: ExtractorConfig{
			Provider:     "http",
			URL:          "http://localhost:8000",
			Timeout:      10 * time.Second,
			MaxImageSide: 1280,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for faceid.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "faceid.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".faceid", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides selected values from the environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("FACEID_EXTRACTOR_URL")); v != "" {
		c.Extractor.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("FACEID_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DBPath returns the enrollment database path, honoring Storage.Path.
func (c *Config) DBPath(dir string) string {
	if c.Storage.Path == "" {
		return filepath.Join(dir, ".faceid", "faces.db")
	}
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(dir, c.Storage.Path)
}

// EnsureDataDir ensures the directory holding the database exists.
func EnsureDataDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
