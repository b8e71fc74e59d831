package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Jiyoung0219/doc2plan-coach/internal/config"
	"github.com/Jiyoung0219/doc2plan-coach/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "doc2plan",
	Short: "Turn assignment and project documents into plans",
	Long: "doc2plan parses a course document, extracts assignment or project\n" +
		"requirements, and coaches a student through planning and self-review.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; the environment may already be set.
		_ = godotenv.Load()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite call ledger (overrides events_db)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the --config file and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.EventsDB = p
	}
	return cfg, nil
}

// newLogger builds the process logger. serve logs JSON; the other
// commands log text to stderr.
func newLogger(cmd *cobra.Command, json bool) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", name)
	}

	opts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if json {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	slog.SetDefault(logger)
	return logger, nil
}

// resolveDBPath returns the ledger path for the calls commands: --db, then
// events_db from the config, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.EventsDB != "" {
		return cfg.EventsDB, store.EnsureDir(cfg.EventsDB)
	}
	return store.DefaultDBPath()
}
