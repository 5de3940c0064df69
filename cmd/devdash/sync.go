package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MurtazaD1410/developer-dashboard/config"
	"github.com/MurtazaD1410/developer-dashboard/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync [project-id]",
	Short: "Run one reconciliation pass for a project, or for all projects",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger := newLogger(false)

		ctx := context.Background()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		syncer := newSyncer(cfg, store, logger)

		var ids []string
		if len(args) == 1 {
			if _, ok := cfg.FindProject(args[0]); !ok {
				return fmt.Errorf("project %s is not registered", args[0])
			}
			ids = []string{args[0]}
		} else {
			for _, p := range cfg.Projects {
				ids = append(ids, p.ID)
			}
		}

		if len(ids) == 0 {
			fmt.Println("No projects registered. Use `devdash project add <name> <github-url>`.")
			return nil
		}

		startTime := time.Now()
		var failed []error
		for _, id := range ids {
			results, err := syncer.SyncProject(ctx, id)
			printResults(id, results)
			if err != nil {
				// Continue with other projects even if one fails
				color.Red("  %v", err)
				failed = append(failed, fmt.Errorf("project %s: %w", id, err))
			}
		}

		fmt.Printf("\nSync completed in %v\n", time.Since(startTime).Round(time.Millisecond))
		return errors.Join(failed...)
	},
}

func printResults(projectID string, results []*sync.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n", cyan("Project "+projectID))
	for _, r := range results {
		failed := gray("0 failed")
		if r.Failed > 0 {
			failed = yellow(fmt.Sprintf("%d failed", r.Failed))
		}
		fmt.Printf("  %-14s %3d fetched  %s  %s  %s\n",
			r.Kind, r.Fetched,
			green(fmt.Sprintf("%d stored", r.Upserted)),
			gray(fmt.Sprintf("%d unchanged", r.Unchanged)),
			failed)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
