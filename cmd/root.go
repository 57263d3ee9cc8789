package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/abhisek/codehunt/internal/config"
	"github.com/abhisek/codehunt/internal/logger"
	"github.com/abhisek/codehunt/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "codehunt",
	Short: "Code exploration challenges built from your own repository",
	Long: `Codehunt reads a codebase, asks an LLM for a challenge grounded in it,
and checks your editor for the answer: find a spot, or change the code.

Running codehunt with no subcommand is the same as "codehunt play".`,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd, args)
	},
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides CODEHUNT_CONFIG)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides CODEHUNT_DB)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("addr", "", "Editor bridge listen address; \"off\" disables it")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies flags and
// positional roots. With no roots configured the working directory is used.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.BridgeAddr = v
		if v == "off" {
			cfg.BridgeAddr = ""
		}
	}
	if len(args) > 0 {
		cfg.Roots = args
	}
	if len(cfg.Roots) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		cfg.Roots = []string{wd}
	}
	for i, r := range cfg.Roots {
		if abs, err := filepath.Abs(r); err == nil {
			cfg.Roots[i] = abs
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger writes to the configured log file, or to fallback when none
// is set. A nil fallback means the default log file. The returned func
// releases the file.
func setupLogger(cfg *config.Config, fallback io.Writer) (zerolog.Logger, func() error, error) {
	if cfg.LogFile == "" && fallback != nil {
		return logger.Setup(cfg.LogLevel, cfg.LogFormat, fallback), func() error { return nil }, nil
	}
	path := cfg.LogFile
	if path == "" {
		path = logger.DefaultLogPath()
	}
	f, err := logger.OpenFile(path)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}
	return logger.Setup(cfg.LogLevel, cfg.LogFormat, f), f.Close, nil
}

// openStore opens the LLM request log named by --db, CODEHUNT_DB, or the
// default location.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = os.Getenv("CODEHUNT_DB")
	}
	cfg := &config.Config{DBPath: path}
	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
