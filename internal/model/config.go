package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GitHubConfig identifies the watched repository and how to reach the API.
type GitHubConfig struct {
	// Repo is the "owner/name" slug of the watched repository.
	Repo string `mapstructure:"repo" yaml:"repo"`

	// BaseBranch restricts pull request watching to PRs merged into this
	// branch.
	BaseBranch string `mapstructure:"base_branch" yaml:"base_branch"`

	// APIURL is the API root; override for GitHub Enterprise or tests.
	APIURL string `mapstructure:"api_url" yaml:"api_url"`

	// Token is the optional API token. Prefer the GITHUB_TOKEN environment
	// variable or the keyring over putting it in the config file.
	Token string `mapstructure:"token" yaml:"token,omitempty"`
}

// PollConfig controls run cadence and per-run delivery volume.
type PollConfig struct {
	// IntervalMinutes is how often watch mode re-runs the pipeline.
	IntervalMinutes int `mapstructure:"interval_minutes" yaml:"interval_minutes"`

	// MaxNotificationsPerRun caps deliveries per run across both lanes so a
	// backlog after an outage cannot flood the destination.
	MaxNotificationsPerRun int `mapstructure:"max_notifications_per_run" yaml:"max_notifications_per_run"`

	// DryRun skips all external calls when true.
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// SummaryConfig holds settings for the LLM summarizer.
type SummaryConfig struct {
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// DiscordConfig holds the notification destination.
type DiscordConfig struct {
	// WebhookURL is the Discord webhook endpoint. Prefer the
	// DISCORD_WEBHOOK_URL environment variable or the keyring.
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url,omitempty"`
}

// StateConfig locates the durable state on disk.
type StateConfig struct {
	// Dir holds the checkpoint file and the delivery history database.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`

	// File enables rotating file output when non-empty; otherwise logs go
	// to stderr.
	File string `mapstructure:"file" yaml:"file,omitempty"`

	JSON bool `mapstructure:"json" yaml:"json"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Summary SummaryConfig `mapstructure:"summary" yaml:"summary"`
	Discord DiscordConfig `mapstructure:"discord" yaml:"discord"`
	State   StateConfig   `mapstructure:"state" yaml:"state"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// PollInterval returns the watch-mode interval as a duration.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMinutes) * time.Minute
}

// CheckpointPath returns the checkpoint file location under the state dir.
func (c *AppConfig) CheckpointPath() string {
	return filepath.Join(c.State.Dir, "state.json")
}

// HistoryPath returns the delivery history database location under the
// state dir.
func (c *AppConfig) HistoryPath() string {
	return filepath.Join(c.State.Dir, "history.db")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/repowatch/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "repowatch", "config.yaml")
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "state")
	}
	return filepath.Join(home, ".local", "share", "repowatch")
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables with the REPOWATCH_ prefix override file values
// (e.g. REPOWATCH_GITHUB_REPO, REPOWATCH_POLL_DRY_RUN). If the file does
// not exist, defaults plus environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("repowatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults so missing keys resolve to sensible values.
	v.SetDefault("github.repo", "openai/codex")
	v.SetDefault("github.base_branch", "main")
	v.SetDefault("github.api_url", "https://api.github.com")
	v.SetDefault("poll.interval_minutes", 10)
	v.SetDefault("poll.max_notifications_per_run", 5)
	v.SetDefault("poll.dry_run", true)
	v.SetDefault("summary.model", "claude-sonnet-4-20250514")
	v.SetDefault("summary.max_tokens", 1024)
	v.SetDefault("state.dir", defaultStateDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Poll.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("poll.interval_minutes must be greater than 0")
	}
	if cfg.Poll.MaxNotificationsPerRun <= 0 {
		return nil, fmt.Errorf("poll.max_notifications_per_run must be greater than 0")
	}
	if cfg.GitHub.Repo == "" || !strings.Contains(cfg.GitHub.Repo, "/") {
		return nil, fmt.Errorf("github.repo must be an owner/name slug, got %q", cfg.GitHub.Repo)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("github", cfg.GitHub)
	v.Set("poll", cfg.Poll)
	v.Set("summary", cfg.Summary)
	v.Set("discord", cfg.Discord)
	v.Set("state", cfg.State)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
