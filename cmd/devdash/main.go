package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MurtazaD1410/developer-dashboard/config"
	"github.com/MurtazaD1410/developer-dashboard/internal/api"
	"github.com/MurtazaD1410/developer-dashboard/internal/db"
	"github.com/MurtazaD1410/developer-dashboard/internal/models"
	"github.com/MurtazaD1410/developer-dashboard/internal/summarize"
	"github.com/MurtazaD1410/developer-dashboard/internal/sync"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "devdash",
	Short: "DevDash GitHub sync service",
	Long: fmt.Sprintf(`Keeps a local copy of GitHub repository metadata, commits, issues and
pull requests for DevDash projects and serves it over HTTP.

The GitHub token can be provided via the %s environment variable.
Commit summaries are enabled when %s is set.`, config.EnvGithubToken, config.EnvAnthropicKey),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(json bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var logger *slog.Logger
	if json {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)
	return logger
}

// openStore connects to the configured database, creates the schema and
// registers the configured projects
func openStore(ctx context.Context, cfg *config.Config) (*db.DB, error) {
	database, err := db.Open(ctx, db.Options{
		Driver: db.Dialect(cfg.Database.Driver),
		Path:   cfg.Database.Path,
		URL:    cfg.Database.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.InitializeContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	for _, p := range cfg.Projects {
		err := database.UpsertProject(ctx, &models.Project{
			ID:          p.ID,
			Name:        p.Name,
			GitHubURL:   p.GitHubURL,
			GitHubToken: p.GitHubToken,
		})
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to register project %s: %w", p.ID, err)
		}
	}

	return database, nil
}

func newSyncer(cfg *config.Config, store *db.DB, logger *slog.Logger) *sync.Syncer {
	clients := api.NewClientCache(cfg.GitHubToken, api.Options{
		RateLimit: cfg.Sync.RateLimit,
		RateBurst: cfg.Sync.RateBurst,
	})

	summarizer := summarize.New(summarize.Options{
		APIKey: cfg.Anthropic.APIKey,
		Model:  cfg.Anthropic.Model,
	}, logger)
	if !summarize.Enabled(summarizer) {
		logger.Info("commit summaries disabled", "reason", config.EnvAnthropicKey+" not set")
	}

	syncer := sync.New(store, sync.FromClientCache(clients), summarizer, logger)
	syncer.SetWorkers(cfg.Sync.Workers)
	syncer.SetPerPage(cfg.Sync.PerPage)
	return syncer
}
