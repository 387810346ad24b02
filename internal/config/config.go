// Package config handles cosim configuration: a YAML file, an optional .env
// file and COSIM_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME.
	ConfigDir = "cosim"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
)

// Artifact sources.
const (
	SourceLocal = "local"
	SourceMinio = "minio"
)

// Default values applied before the file and environment are read.
const (
	DefaultArtifactsDir = "artifacts"
	DefaultListen       = ":8501"
	DefaultTopN         = 5
	DefaultMaxTopN      = 10
	DefaultRateLimit    = 20
	DefaultRateBurst    = 40
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// DefaultNAValues are the configured cell values counted as missing in the raw
// data. They extend the built-in set in the missing package.
var DefaultNAValues = []string{"NA", "null", "missing", "N/A", "NaN"}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the effective cosim configuration.
type Config struct {
	Source       string      `yaml:"source" json:"source"`
	ArtifactsDir string      `yaml:"artifacts_dir" json:"artifacts_dir"`
	Minio        MinioConfig `yaml:"minio" json:"minio"`
	RawData      string      `yaml:"raw_data,omitempty" json:"raw_data,omitempty"`
	NAValues     []string    `yaml:"na_values" json:"na_values"`
	Listen       string      `yaml:"listen" json:"listen"`
	DefaultTopN  int         `yaml:"default_top_n" json:"default_top_n"`
	MaxTopN      int         `yaml:"max_top_n" json:"max_top_n"`
	RateLimit    float64     `yaml:"rate_limit" json:"rate_limit"` // requests per second per client, 0 disables
	RateBurst    int         `yaml:"rate_burst" json:"rate_burst"`
	LogLevel     string      `yaml:"log_level" json:"log_level"`
	LogFormat    string      `yaml:"log_format" json:"log_format"`
	CacheDir     string      `yaml:"cache_dir,omitempty" json:"cache_dir,omitempty"`
}

// MinioConfig locates artifacts in an S3-compatible bucket.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	AccessKey string `yaml:"access_key,omitempty" json:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty" json:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Source:       SourceLocal,
		ArtifactsDir: DefaultArtifactsDir,
		NAValues:     append([]string(nil), DefaultNAValues...),
		Listen:       DefaultListen,
		DefaultTopN:  DefaultTopN,
		MaxTopN:      DefaultMaxTopN,
		RateLimit:    DefaultRateLimit,
		RateBurst:    DefaultRateBurst,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
	}
}

// Path returns the default config file path.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/cosim/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir, ConfigFile)
}

// Load reads the configuration from path, or from Path() when path is empty.
// A missing default file yields the defaults; a missing explicit file is an
// error. Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.ArtifactsDir = ExpandTilde(cfg.ArtifactsDir)
	cfg.RawData = ExpandTilde(cfg.RawData)
	cfg.CacheDir = ExpandTilde(cfg.CacheDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceLocal:
		if c.ArtifactsDir == "" {
			return fmt.Errorf("%w: artifacts_dir is required for source %q", ErrInvalid, SourceLocal)
		}
	case SourceMinio:
		if c.Minio.Endpoint == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("%w: minio.endpoint and minio.bucket are required for source %q", ErrInvalid, SourceMinio)
		}
	default:
		return fmt.Errorf("%w: source %q (valid: %s, %s)", ErrInvalid, c.Source, SourceLocal, SourceMinio)
	}

	if c.MaxTopN < 1 {
		return fmt.Errorf("%w: max_top_n must be positive, got %d", ErrInvalid, c.MaxTopN)
	}
	if c.DefaultTopN < 1 || c.DefaultTopN > c.MaxTopN {
		return fmt.Errorf("%w: default_top_n must be between 1 and max_top_n (%d), got %d", ErrInvalid, c.MaxTopN, c.DefaultTopN)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalid)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("%w: rate_burst must be positive when rate_limit is set", ErrInvalid)
	}
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalid)
	}
	return nil
}

// Redacted returns a copy safe to print, with credentials masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.NAValues = append([]string(nil), c.NAValues...)
	if out.Minio.AccessKey != "" {
		out.Minio.AccessKey = "***"
	}
	if out.Minio.SecretKey != "" {
		out.Minio.SecretKey = "***"
	}
	return &out
}

// ExpandTilde expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
