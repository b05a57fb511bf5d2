package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an rk database in the current directory",
	Run: func(cmd *cobra.Command, args []string) {
		prefix, _ := cmd.Flags().GetString("prefix")

		cwd, err := os.Getwd()
		if err != nil {
			exitError("%v", err)
		}
		rkDir := filepath.Join(cwd, ".ralphkit")
		if err := os.MkdirAll(rkDir, 0o755); err != nil {
			exitError("failed to create .ralphkit directory: %v", err)
		}

		path := filepath.Join(rkDir, "rk.db")
		if _, err := os.Stat(path); err == nil {
			exitError("database already exists: %s", path)
		}

		s, err := sqlite.New(path)
		if err != nil {
			exitError("failed to create database: %v", err)
		}
		defer func() { _ = s.Close() }()

		if prefix != "" {
			if err := s.SetConfig(cmd.Context(), "ticket-prefix", prefix); err != nil {
				exitError("failed to set ticket prefix: %v", err)
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{"db": path})
		} else {
			fmt.Printf("Initialized rk database: %s\n", path)
		}
	},
}

func init() {
	initCmd.Flags().String("prefix", "", "Ticket ID prefix (default: rk)")
	rootCmd.AddCommand(initCmd)
}
