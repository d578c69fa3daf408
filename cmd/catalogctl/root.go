package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	_ "github.com/JonMunkholm/catalog/internal/core/tables" // Register column rules
	"github.com/JonMunkholm/catalog/internal/database"
	"github.com/JonMunkholm/catalog/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	schema   string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:           "catalogctl",
	Short:         "Inspect and maintain the device catalog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describeError(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&schema, "schema", "", "catalog schema (default: DB_SCHEMA)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// openService loads configuration, connects and returns a catalog service.
// The returned func closes the pool.
func openService(ctx context.Context) (*core.Service, func(), error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if schema != "" {
		cfg.Database.Schema = schema
	}

	// Results go to stdout; logs stay on stderr.
	slog.SetDefault(logging.New(os.Stderr, logLevel, cfg.Logging.Format))

	// One command, one connection at a time.
	cfg.Database.MinConns = 0
	cfg.Database.MaxConns = 2

	pool, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	svc := core.NewService(pool,
		core.WithSchema(cfg.Database.Schema),
		core.WithStatementTimeout(cfg.Database.StatementTimeout),
		core.WithAudit(cfg.Audit.Enabled),
	)
	return svc, pool.Close, nil
}

// commandContext tags audit entries written by a command.
func commandContext(cmd *cobra.Command) context.Context {
	return core.WithRequestMeta(cmd.Context(), "", "catalogctl/"+version)
}

// describeError prefers the user message for catalog errors.
func describeError(err error) string {
	if msg := core.FormatUserError(err); msg != "" && core.IsUserFacing(err) {
		return msg
	}
	return err.Error()
}
