package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MurtazaD1410/developer-dashboard/config"
	"github.com/MurtazaD1410/developer-dashboard/internal/api"
)

var rateLimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Show the remaining GitHub API budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, err := api.NewGitHubClient(cfg.GitHubToken, api.Options{})
		if err != nil {
			return err
		}
		core, err := client.CoreRate(ctx)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s %d/%d remaining, resets at %s\n",
			cyan("REST:   "), core.Remaining, core.Limit, core.Reset.Local().Format(time.Kitchen))

		if cfg.GitHubToken == "" {
			fmt.Printf("%s requires %s\n", cyan("GraphQL:"), config.EnvGithubToken)
			return nil
		}

		rl, err := api.NewGraphQLClient(cfg.GitHubToken, "").RateLimit(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d/%d remaining, resets at %s\n",
			cyan("GraphQL:"), rl.Remaining, rl.Limit, rl.ResetAt.Local().Format(time.Kitchen))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rateLimitCmd)
}
