package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ralphkit/ralphkit"
	"github.com/ralphkit/ralphkit/internal/config"
	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/storage"
	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
	"github.com/ralphkit/ralphkit/internal/utils"
)

var (
	dbPath     string
	actor      string
	jsonOutput bool
	noDaemon   bool

	store        storage.Storage
	daemonClient *rpc.Client
)

var rootCmd = &cobra.Command{
	Use:   "rk",
	Short: "rk - QA workflow enforcement for autonomous coding agents",
	Long: `A ticket lifecycle and session state machine with filesystem-enforced
gates: agents must declare intent before writing code, pass an AI review
gate before demoing, and hold a fresh review marker before pushing.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Priority: flags > viper (config file + env vars) > defaults
		if !cmd.Flags().Changed("json") {
			jsonOutput = config.GetBool("json")
		}
		if !cmd.Flags().Changed("no-daemon") {
			noDaemon = config.GetBool("no-daemon")
		}
		if !cmd.Flags().Changed("db") && dbPath == "" {
			dbPath = config.GetString("db")
		}
		if !cmd.Flags().Changed("actor") && actor == "" {
			actor = config.GetString("actor")
		}
		if actor == "" {
			if user := os.Getenv("USER"); user != "" {
				actor = user
			} else {
				actor = "unknown"
			}
		}

		if !commandNeedsStore(cmd) {
			return
		}

		rpc.ClientVersion = Version

		if dbPath == "" {
			dbPath = ralphkit.FindDatabasePath()
			if dbPath == "" {
				fmt.Fprintf(os.Stderr, "Error: no rk database found\n")
				fmt.Fprintf(os.Stderr, "Hint: run 'rk init' to create a database in the current directory\n")
				fmt.Fprintf(os.Stderr, "      or set RK_DB to specify a database\n")
				os.Exit(1)
			}
		}

		if !noDaemon {
			client, err := rpc.TryConnect(socketPathFor(dbPath))
			if err == nil && client != nil {
				client.SetActor(actor)
				daemonClient = client
				return
			}
		}

		var err error
		store, err = sqlite.New(dbPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open database: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if daemonClient != nil {
			_ = daemonClient.Close()
			daemonClient = nil
		}
		if store != nil {
			_ = store.Close()
			store = nil
		}
	},
}

// commandNeedsStore reports whether a command touches the database. Hook and
// review commands read only filesystem artifacts and must stay fast.
func commandNeedsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "init", "version", "help", "completion", "daemon", "hook", "review":
			return false
		}
	}
	return true
}

// socketPathFor derives the daemon socket path from the database path so
// each database gets its own daemon.
func socketPathFor(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "daemon.sock")
}

func outputJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// ensureDirectStore opens the database directly for commands that have no
// daemon operation, even when a daemon connection is active.
func ensureDirectStore() storage.Storage {
	if store == nil {
		var err error
		store, err = sqlite.New(dbPath)
		if err != nil {
			exitError("failed to open database: %v", err)
		}
	}
	return store
}

// ticketIDArg normalizes a prefix-optional ticket argument ("7" -> "rk-7").
// With direct storage access it also resolves unique prefix matches.
func ticketIDArg(cmd *cobra.Command, input string) string {
	if store != nil {
		if id, err := utils.ResolveTicketID(cmd.Context(), store, input); err == nil {
			return id
		}
	}
	return utils.ParseTicketID(input, config.GetString("ticket-prefix"))
}

// viaDaemon routes an operation through the daemon when one is connected.
// Returns false when the command should fall back to direct storage access.
func viaDaemon(op string, args interface{}, out interface{}) (bool, error) {
	if daemonClient == nil {
		return false, nil
	}
	resp, err := daemonClient.Execute(op, args)
	if err != nil {
		return true, err
	}
	if out != nil {
		if err := resp.UnmarshalData(out); err != nil {
			return true, fmt.Errorf("failed to decode daemon response: %w", err)
		}
	}
	return true, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .ralphkit/*.db)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor name for the audit trail (default: $RK_ACTOR or $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noDaemon, "no-daemon", false, "Force direct storage mode, bypass daemon if running")
}

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
