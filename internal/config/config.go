package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultConfigName is the file looked up in the working directory and home directory
const DefaultConfigName = ".shipit.yaml"

// Config represents the application configuration
type Config struct {
	Remote     string                      `yaml:"remote" mapstructure:"remote"`
	Providers  map[string]ProviderSettings `yaml:"providers" mapstructure:"providers"`
	PRTemplate *PRTemplateConfig           `yaml:"pr_template" mapstructure:"pr_template"`
	Retry      *RetryConfig                `yaml:"retry" mapstructure:"retry"`
	Untracked  *UntrackedConfig            `yaml:"untracked" mapstructure:"untracked"`
}

// ProviderSettings holds optional per-provider overrides
type ProviderSettings struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PRTemplateConfig represents the PR template configuration
type PRTemplateConfig struct {
	Template string `yaml:"template" mapstructure:"template"` // Inline template content
	File     string `yaml:"file" mapstructure:"file"`         // Path to template file
}

// RetryConfig represents the retry configuration
type RetryConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxAttempts int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffBase float64 `yaml:"backoff_base" mapstructure:"backoff_base"` // in seconds
	BackoffMax  float64 `yaml:"backoff_max" mapstructure:"backoff_max"`   // in seconds
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Enabled:     true,
		MaxAttempts: 3,
		BackoffBase: 1.0,
		BackoffMax:  8.0,
	}
}

// Validate validates the retry configuration
func (r *RetryConfig) Validate() error {
	if r.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be non-negative")
	}
	if r.BackoffBase < 0 {
		return fmt.Errorf("backoff_base must be non-negative")
	}
	if r.BackoffMax < r.BackoffBase {
		return fmt.Errorf("backoff_max must be greater than or equal to backoff_base")
	}
	return nil
}

// UntrackedConfig bounds how much of each new file is sent to the model
type UntrackedConfig struct {
	MaxFiles        int `yaml:"max_files" mapstructure:"max_files"`
	MaxCharsPerFile int `yaml:"max_chars_per_file" mapstructure:"max_chars_per_file"`
}

// DefaultUntrackedConfig returns the default untracked file limits
func DefaultUntrackedConfig() *UntrackedConfig {
	return &UntrackedConfig{
		MaxFiles:        20,
		MaxCharsPerFile: 12000,
	}
}

// ModelConfig is the concrete configuration handed to a chat model provider
type ModelConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Model    string `yaml:"model" mapstructure:"model"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// Default returns a configuration with every section populated with defaults
func Default() *Config {
	return &Config{
		Remote:    "origin",
		Providers: map[string]ProviderSettings{},
		Retry:     DefaultRetryConfig(),
		Untracked: DefaultUntrackedConfig(),
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}
	if c.Untracked != nil {
		if c.Untracked.MaxFiles < 0 {
			return fmt.Errorf("invalid untracked configuration: max_files must be non-negative")
		}
		if c.Untracked.MaxCharsPerFile < 0 {
			return fmt.Errorf("invalid untracked configuration: max_chars_per_file must be non-negative")
		}
	}
	return nil
}

// GetRemote returns the remote name pushes and PRs target
func (c *Config) GetRemote() string {
	if c.Remote == "" {
		return "origin"
	}
	return c.Remote
}

// GetRetryConfig returns the retry configuration with defaults applied
func (c *Config) GetRetryConfig() *RetryConfig {
	if c.Retry == nil {
		return DefaultRetryConfig()
	}
	defaults := DefaultRetryConfig()
	if c.Retry.MaxAttempts < 0 {
		c.Retry.MaxAttempts = defaults.MaxAttempts
	}
	if c.Retry.BackoffBase < 0 {
		c.Retry.BackoffBase = defaults.BackoffBase
	}
	if c.Retry.BackoffMax < 0 {
		c.Retry.BackoffMax = defaults.BackoffMax
	}
	return c.Retry
}

// GetUntrackedConfig returns the untracked limits with defaults applied
func (c *Config) GetUntrackedConfig() *UntrackedConfig {
	if c.Untracked == nil {
		return DefaultUntrackedConfig()
	}
	defaults := DefaultUntrackedConfig()
	if c.Untracked.MaxFiles <= 0 {
		c.Untracked.MaxFiles = defaults.MaxFiles
	}
	if c.Untracked.MaxCharsPerFile <= 0 {
		c.Untracked.MaxCharsPerFile = defaults.MaxCharsPerFile
	}
	return c.Untracked
}

// BaseURL returns the configured endpoint override for a provider id, if any
func (c *Config) BaseURL(providerID string) string {
	if c.Providers == nil {
		return ""
	}
	return strings.TrimSpace(c.Providers[providerID].BaseURL)
}

// GetPRTemplate returns the configured PR template content
// Priority: inline template > file template > empty string (use repository discovery)
func (c *Config) GetPRTemplate() (string, error) {
	if c.PRTemplate == nil {
		return "", nil
	}

	if c.PRTemplate.Template != "" {
		return c.PRTemplate.Template, nil
	}

	if c.PRTemplate.File != "" {
		filePath := c.PRTemplate.File
		if strings.HasPrefix(filePath, "~/") {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			filePath = filepath.Join(homeDir, filePath[2:])
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("PR template file not found: %s", filePath)
			}
			return "", fmt.Errorf("failed to read PR template file: %w", err)
		}
		return string(content), nil
	}

	return "", nil
}

// LoadFromFile loads configuration from a file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load loads configuration with the following priority:
// 1. Custom path if provided (must exist)
// 2. Current directory .shipit.yaml
// 3. Home directory ~/.shipit.yaml
// 4. Built-in defaults
func Load(customPath string) (*Config, error) {
	if customPath != "" {
		return LoadFromFile(customPath)
	}

	candidates := []string{DefaultConfigName}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, DefaultConfigName))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
		return LoadFromFile(path)
	}

	return Default(), nil
}
