package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// EnvGithubToken is the environment variable name for the GitHub API token
	EnvGithubToken = "DEVDASH_GITHUB_TOKEN"

	// EnvAnthropicKey enables commit summaries when set
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
)

// Config represents the application configuration. Values come from the
// JSON config file; environment variables override them.
type Config struct {
	// GitHub API token used for projects without their own token
	GitHubToken string `json:"github_token" env:"DEVDASH_GITHUB_TOKEN"`

	Database   Database   `json:"database"`
	HTTPServer HTTPServer `json:"http_server"`
	Anthropic  Anthropic  `json:"anthropic"`
	Sync       Sync       `json:"sync"`

	// Projects registered with `devdash project add`
	Projects []Project `json:"projects"`
}

type Database struct {
	// Driver is "sqlite" or "postgres"
	Driver string `json:"driver" env:"DEVDASH_DB_DRIVER" env-default:"sqlite"`

	// Path to the SQLite database file, relative to the config file
	Path string `json:"path" env:"DEVDASH_DB_PATH" env-default:"devdash.db"`

	// URL is the PostgreSQL connection string
	URL string `json:"url,omitempty" env:"DEVDASH_DB_URL"`
}

type HTTPServer struct {
	Address     string        `json:"address" env:"DEVDASH_HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `json:"-" env:"DEVDASH_HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `json:"-" env:"DEVDASH_HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Anthropic struct {
	APIKey string `json:"-" env:"ANTHROPIC_API_KEY"`
	Model  string `json:"model,omitempty" env:"DEVDASH_SUMMARY_MODEL"`
}

type Sync struct {
	PerPage int `json:"per_page" env:"DEVDASH_PER_PAGE" env-default:"10"`
	Workers int `json:"workers" env:"DEVDASH_WORKERS" env-default:"5"`

	// Client-side REST request budget, requests per second
	RateLimit float64 `json:"rate_limit" env:"DEVDASH_RATE_LIMIT" env-default:"10"`
	RateBurst int     `json:"rate_burst" env:"DEVDASH_RATE_BURST" env-default:"5"`

	// PassTimeout bounds a background reconciliation pass
	PassTimeout time.Duration `json:"-" env:"DEVDASH_PASS_TIMEOUT" env-default:"2m"`
}

// Project links a dashboard project to a GitHub repository
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GitHubURL   string `json:"github_url"`
	GitHubToken string `json:"github_token,omitempty"`
}

// LoadConfig loads the configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	var config Config
	if err := cleanenv.ReadConfig(path, &config); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Make database path absolute if it's relative
	if config.Database.Path != ":memory:" && !filepath.IsAbs(config.Database.Path) {
		configDir := filepath.Dir(path)
		config.Database.Path = filepath.Join(configDir, config.Database.Path)
	}

	return &config, nil
}

// ReadFile reads the config file as stored, without environment overrides
// or path resolution. Use it to edit and save the file.
func ReadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var config Config
	if err := cleanenv.ParseJSON(f, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// FindProject returns the configured project with the given id
func (c *Config) FindProject(id string) (*Project, bool) {
	for i := range c.Projects {
		if c.Projects[i].ID == id {
			return &c.Projects[i], true
		}
	}
	return nil, false
}

// SaveConfig saves the configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig creates a default configuration file if it doesn't exist
func CreateDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, don't overwrite
	}

	config := &Config{
		Database: Database{Driver: "sqlite", Path: "devdash.db"},
		HTTPServer: HTTPServer{
			Address: "localhost:8080",
		},
		Sync: Sync{
			PerPage:   10,
			Workers:   5,
			RateLimit: 10,
			RateBurst: 5,
		},
		Projects: []Project{},
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return SaveConfig(config, path)
}
