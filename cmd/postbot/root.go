package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/postbot/internal/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	configPath string
	repoPath   string
	verbose    bool

	cfg     *config.Config
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "postbot",
	Short: "Publish finished posts to a GitHub repository through pull requests",
	Long: `postbot lands finished blog posts in a GitHub-hosted site repository.

Each publish checks the post against recently published ones, then creates a
branch, commits the post, pushes it, opens a pull request and, when auto-merge
is enabled, merges it and deletes the branch. Failures before the pull request
exists are rolled back; a failed merge leaves the pull request open.

Configuration comes from postbot.yaml (optional) and the environment
(GITHUB_TOKEN, GITHUB_REPO, GITHUB_BRANCH, GITHUB_AUTO_MERGE, ...).
Run 'postbot config show' to see the effective values.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if repoPath != "" {
			loaded.Repository.Path = repoPath
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		if err := loaded.ValidateLocal(); err != nil {
			return err
		}
		cfg = loaded

		logger, f, err := newLogger(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		logFile = f
		slog.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./postbot.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "", "Site repository work tree (overrides POSTBOT_REPO_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Version = version
}

// newLogger builds the process logger. When cfg.File is set, records go to
// both w and the file; the caller closes the returned file.
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, *os.File, error) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	var f *os.File
	if cfg.File != "" {
		var err error
		f, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(w, f)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), f, nil
}
