package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ralphkit/ralphkit"
	"github.com/ralphkit/ralphkit/internal/lockfile"
	"github.com/ralphkit/ralphkit/internal/rpc"
	"github.com/ralphkit/ralphkit/internal/storage/sqlite"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the rk daemon serving lifecycle operations over a local socket",
	Long: `Runs an RPC server on a per-database socket so repeated rk commands and
agent tool calls skip database open overhead.

Use --stop to stop a running daemon.
Use --status to check if a daemon is running.`,
	Run: func(cmd *cobra.Command, args []string) {
		stop, _ := cmd.Flags().GetBool("stop")
		status, _ := cmd.Flags().GetBool("status")
		logFile, _ := cmd.Flags().GetString("log")

		if dbPath == "" {
			dbPath = ralphkit.FindDatabasePath()
		}
		if dbPath == "" {
			exitError("no rk database found, run 'rk init' first")
		}

		pidFile := filepath.Join(filepath.Dir(dbPath), "daemon.pid")

		if status {
			showDaemonStatus(pidFile)
			return
		}
		if stop {
			stopDaemon(pidFile)
			return
		}

		runDaemon(logFile, pidFile)
	},
}

func runDaemon(logFile, pidFile string) {
	lockPath := filepath.Join(filepath.Dir(dbPath), "daemon.lock")
	lock, err := lockfile.Acquire(lockPath)
	if errors.Is(err, lockfile.ErrLocked) {
		exitError("daemon already running (PID %d), use 'rk daemon --stop' first", lockfile.HolderPID(lockPath))
	}
	if err != nil {
		exitError("failed to acquire daemon lock: %v", err)
	}
	defer func() { _ = lock.Close() }()

	if logFile == "" {
		logFile = filepath.Join(filepath.Dir(dbPath), "daemon.log")
	}
	logF, logf := setupDaemonLogger(logFile)
	defer func() { _ = logF.Close() }()

	store, err := sqlite.New(dbPath)
	if err != nil {
		exitError("failed to open database: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		exitError("failed to write PID file: %v", err)
	}
	defer func() { _ = os.Remove(pidFile) }()

	rpc.ServerVersion = Version
	server := rpc.NewServer(socketPathFor(dbPath), store)

	logf("daemon starting (version %s, db %s)", Version, dbPath)
	fmt.Printf("rk daemon listening on %s\n", socketPathFor(dbPath))

	if err := server.Start(context.Background()); err != nil {
		logf("daemon exited with error: %v", err)
		exitError("%v", err)
	}
	logf("daemon stopped")
}

// setupDaemonLogger creates a rotating log file logger for the daemon
func setupDaemonLogger(logPath string) (*lumberjack.Logger, func(string, ...interface{})) {
	logF := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    getEnvInt("RK_DAEMON_LOG_MAX_SIZE", 10),
		MaxBackups: getEnvInt("RK_DAEMON_LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("RK_DAEMON_LOG_MAX_AGE", 7),
		Compress:   getEnvBool("RK_DAEMON_LOG_COMPRESS", true),
	}

	logf := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(logF, "[%s] %s\n", timestamp, msg)
	}
	return logF, logf
}

func showDaemonStatus(pidFile string) {
	running, pid := isDaemonRunning(pidFile)
	if jsonOutput {
		outputJSON(map[string]interface{}{"running": running, "pid": pid})
		return
	}
	if running {
		fmt.Printf("daemon running (PID %d)\n", pid)
	} else {
		fmt.Println("daemon not running")
	}
}

func stopDaemon(pidFile string) {
	running, pid := isDaemonRunning(pidFile)
	if !running {
		fmt.Println("daemon not running")
		return
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		exitError("%v", err)
	}
	if err := proc.Signal(os.Interrupt); err != nil {
		exitError("failed to signal daemon: %v", err)
	}
	fmt.Printf("stopped daemon (PID %d)\n", pid)
}

func isDaemonRunning(pidFile string) (bool, int) {
	data, err := os.ReadFile(pidFile) // #nosec G304 - pid file next to db
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}
	if !lockfile.ProcessAlive(pid) {
		return false, 0
	}
	return true, pid
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func init() {
	daemonCmd.Flags().Bool("stop", false, "Stop a running daemon")
	daemonCmd.Flags().Bool("status", false, "Show daemon status")
	daemonCmd.Flags().String("log", "", "Log file path (default: daemon.log next to the database)")
	rootCmd.AddCommand(daemonCmd)
}
