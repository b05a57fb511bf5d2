package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/config"
	"github.com/ralphkit/ralphkit/internal/hooks"
	"github.com/ralphkit/ralphkit/internal/statefile"
)

const hookVersionPrefix = "# rk-hooks-version: "

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Enforcement hooks for tool pipelines and git",
}

var hookWriteGateCmd = &cobra.Command{
	Use:   "write-gate",
	Short: "Check whether code-mutating tool calls are allowed right now",
	Long: `Consults the session state mirror. Exits 0 when writes are allowed
(including when no governed session is active) and 2 when they are blocked,
printing the denial and its remediation to stderr.`,
	Run: func(cmd *cobra.Command, args []string) {
		projectDir, _ := cmd.Flags().GetString("project-dir")

		gate := hooks.NewWriteGate(statefile.DefaultChannel(projectDir))
		decision := gate.Check()

		if jsonOutput {
			outputJSON(decision)
		}
		if !decision.Allowed {
			if !jsonOutput {
				fmt.Fprintln(os.Stderr, decision.Deny().Error())
			}
			os.Exit(2)
		}
	},
}

var hookPrePushCmd = &cobra.Command{
	Use:   "pre-push",
	Short: "Check whether a push is allowed right now",
	Long: `Consults the review marker. Exits 0 only when the marker exists and is
fresh; everything else is a denial (exit 2).`,
	Run: func(cmd *cobra.Command, args []string) {
		projectDir, _ := cmd.Flags().GetString("project-dir")

		window := config.GetDuration("marker-window")
		gate := hooks.NewPushGate(statefile.MarkerPath(projectDir), window)
		decision := gate.Check()

		if jsonOutput {
			outputJSON(decision)
		}
		if !decision.Allowed {
			if !jsonOutput {
				fmt.Fprintln(os.Stderr, decision.Deny().Error())
			}
			os.Exit(2)
		}
	},
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the rk pre-push hook into .git/hooks",
	Run: func(cmd *cobra.Command, args []string) {
		hooksDir := filepath.Join(".git", "hooks")
		if _, err := os.Stat(hooksDir); err != nil {
			exitError("no .git/hooks directory, run from a git repository root")
		}

		path := filepath.Join(hooksDir, "pre-push")
		script := fmt.Sprintf(`#!/bin/sh
%s%s
# Blocks pushes until 'rk review check' has passed recently.
exec rk hook pre-push
`, hookVersionPrefix, Version)

		if err := os.WriteFile(path, []byte(script), 0o755); err != nil { // #nosec G306 - hooks must be executable
			exitError("failed to write hook: %v", err)
		}
		fmt.Printf("Installed pre-push hook (version %s)\n", Version)
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed rk git hooks",
	Run: func(cmd *cobra.Command, args []string) {
		path := filepath.Join(".git", "hooks", "pre-push")
		version, err := hookVersion(path)
		switch {
		case err != nil:
			fmt.Println("pre-push: not installed")
		case version == "":
			fmt.Println("pre-push: installed (not managed by rk)")
		case version != Version:
			fmt.Printf("pre-push: installed, outdated (%s, current %s)\n", version, Version)
		default:
			fmt.Printf("pre-push: installed (%s)\n", version)
		}
	},
}

// hookVersion extracts the rk version marker from a hook file
func hookVersion(path string) (string, error) {
	file, err := os.Open(path) // #nosec G304 - fixed hook path
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for lines := 0; scanner.Scan() && lines < 10; lines++ {
		line := scanner.Text()
		if strings.HasPrefix(line, hookVersionPrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, hookVersionPrefix)), nil
		}
	}
	return "", nil
}

func init() {
	hookWriteGateCmd.Flags().String("project-dir", ".", "Project directory holding .ralphkit/")
	hookPrePushCmd.Flags().String("project-dir", ".", "Project directory holding .ralphkit/")

	hookCmd.AddCommand(hookWriteGateCmd, hookPrePushCmd, hookInstallCmd, hookStatusCmd)
	rootCmd.AddCommand(hookCmd)
}
