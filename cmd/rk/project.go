package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/types"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a project workspace",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := ensureDirectStore()
		path, err := filepath.Abs(args[1])
		if err != nil {
			exitError("%v", err)
		}
		project := &types.Project{Name: args[0], Path: path}
		if err := store.CreateProject(cmd.Context(), project); err != nil {
			exitError("%v", err)
		}
		if jsonOutput {
			outputJSON(project)
		} else {
			fmt.Printf("Registered project %s (%s) at %s\n", project.Name, project.ID, project.Path)
		}
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	Run: func(cmd *cobra.Command, args []string) {
		projects, err := ensureDirectStore().ListProjects(cmd.Context())
		if err != nil {
			exitError("%v", err)
		}
		if jsonOutput {
			outputJSON(projects)
			return
		}
		if len(projects) == 0 {
			fmt.Println("No projects registered")
			return
		}
		for _, p := range projects {
			fmt.Printf("%s  %-20s %s\n", p.ID, p.Name, p.Path)
		}
	},
}

func init() {
	projectCmd.AddCommand(projectAddCmd, projectListCmd)
	rootCmd.AddCommand(projectCmd)
}
