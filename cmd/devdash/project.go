package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MurtazaD1410/developer-dashboard/config"
	"github.com/MurtazaD1410/developer-dashboard/internal/api"
)

var projectToken string

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name> <github-url>",
	Short: "Register a project linked to a GitHub repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, url := args[0], args[1]

		ref, err := api.ParseRepositoryURL(url)
		if err != nil {
			return err
		}

		cfg, err := config.ReadFile(configPath)
		if err != nil {
			return err
		}

		for _, p := range cfg.Projects {
			if p.GitHubURL == url {
				fmt.Printf("Repository %s is already registered as project %s\n", ref, p.ID)
				return nil
			}
		}

		project := config.Project{
			ID:          uuid.NewString(),
			Name:        name,
			GitHubURL:   url,
			GitHubToken: projectToken,
		}
		cfg.Projects = append(cfg.Projects, project)
		if err := config.SaveConfig(cfg, configPath); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s project %s (%s) -> %s\n", green("Added"), name, project.ID, ref)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}

		if len(cfg.Projects) == 0 {
			fmt.Println("No projects registered")
			return nil
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		for _, p := range cfg.Projects {
			fmt.Printf("%s  %s  %s\n", cyan(p.ID), p.Name, p.GitHubURL)
		}
		return nil
	},
}

func init() {
	projectAddCmd.Flags().StringVar(&projectToken, "token", "", "GitHub token used for this project only")
	projectCmd.AddCommand(projectAddCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
