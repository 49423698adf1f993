package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Source    string          `yaml:"source"`          // Content Document path, relative to the repo root
	Output    string          `yaml:"output"`          // Generated Output directory at the repo root
	Style     string          `yaml:"style"`           // layout/style selector passed to the generator
	Title     string          `yaml:"title,omitempty"` // page title used by the native renderer
	Git       GitConfig       `yaml:"git"`
	Generator GeneratorConfig `yaml:"generator"`
	History   HistoryConfig   `yaml:"history"`
	Notify    NotifyConfig    `yaml:"notify"`
	Watch     WatchConfig     `yaml:"watch"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// GitConfig describes the branches and remote involved in a publish run.
type GitConfig struct {
	PrimaryBranch string `yaml:"primary_branch"`
	PublishBranch string `yaml:"publish_branch"`
	Remote        string `yaml:"remote"`
	CommitMessage string `yaml:"commit_message"`
}

// GeneratorConfig selects and parameterizes the documentation generator.
type GeneratorConfig struct {
	Mode          RenderMode `yaml:"mode,omitempty"`           // external | native | auto
	Command       string     `yaml:"command,omitempty"`        // external generator binary
	CommentPrefix string     `yaml:"comment_prefix,omitempty"` // annotation marker for the native renderer
}

// HistoryConfig configures the publish-run event store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite database path; empty disables history
}

// NotifyConfig configures optional NATS run notifications.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig configures watch mode triggers. Durations are
// time.ParseDuration strings (e.g. "2s", "15m").
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	Interval string `yaml:"interval,omitempty"` // empty disables the periodic schedule
}

// DebounceDuration returns the parsed debounce window.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// IntervalDuration returns the parsed schedule interval, zero when disabled.
func (w WatchConfig) IntervalDuration() time.Duration {
	if w.Interval == "" {
		return 0
	}
	d, err := time.ParseDuration(w.Interval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// MetricsConfig configures the optional Prometheus endpoint in watch mode.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"` // e.g. 127.0.0.1:9190; empty disables
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// loadEnvFiles loads environment variables from .env/.env.local files.
// It attempts each supported filename in order and stops at the first one present.
// Existing process environment variables are not overwritten.
func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			fmt.Fprintf(os.Stderr, "Note: %s couldn't be loaded: %v\n", envPath, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
		return
	}
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "styleguide.md"
	}
	if c.Output == "" {
		c.Output = "docs"
	}
	if c.Style == "" {
		c.Style = "linear"
	}
	if c.Title == "" {
		c.Title = strings.TrimSuffix(filepath.Base(c.Source), filepath.Ext(c.Source))
	}
	if c.Git.PrimaryBranch == "" {
		c.Git.PrimaryBranch = "main"
	}
	if c.Git.PublishBranch == "" {
		c.Git.PublishBranch = "gh-pages"
	}
	if c.Git.Remote == "" {
		c.Git.Remote = "origin"
	}
	if c.Git.CommitMessage == "" {
		c.Git.CommitMessage = "docs"
	}
	if c.Generator.Mode == "" {
		c.Generator.Mode = RenderModeAuto
	}
	if c.Generator.Command == "" {
		c.Generator.Command = "docco"
	}
	if c.Generator.CommentPrefix == "" {
		c.Generator.CommentPrefix = "//"
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = "stylepub.runs"
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "2s"
	}
}

func (c *Config) validate() error {
	if filepath.IsAbs(c.Source) {
		return fmt.Errorf("source must be a path relative to the repository root: %s", c.Source)
	}
	if c.Output == "" || c.Output == "." || c.Output == ".." ||
		strings.HasPrefix(c.Output, "../") || filepath.IsAbs(c.Output) {
		// The output directory is removed wholesale before every run.
		return fmt.Errorf("output must name a directory inside the repository root: %q", c.Output)
	}
	if c.Git.PrimaryBranch == c.Git.PublishBranch {
		return fmt.Errorf("primary_branch and publish_branch must differ: both %q", c.Git.PrimaryBranch)
	}
	if err := c.Generator.Mode.Validate(); err != nil {
		return err
	}
	if c.Notify.Enabled && c.Notify.URL == "" {
		return fmt.Errorf("notify.url is required when notify.enabled is true")
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("invalid watch.debounce %q: %w", c.Watch.Debounce, err)
	}
	if c.Watch.Interval != "" {
		if _, err := time.ParseDuration(c.Watch.Interval); err != nil {
			return fmt.Errorf("invalid watch.interval %q: %w", c.Watch.Interval, err)
		}
	}
	return nil
}
