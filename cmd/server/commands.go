package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/verbdrill/internal/config"
	"github.com/phrazzld/verbdrill/internal/platform/logger"
	"github.com/phrazzld/verbdrill/internal/platform/postgres"
	"github.com/phrazzld/verbdrill/internal/service/auth"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "verbdrill",
		Short:         "Conjugation practice scheduling and grading server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default: .env if present)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// load reads configuration and installs the configured logger as the slog default.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithOptions(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))
	return cfg, log, nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return app.Run(ctx)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|reset] [args...]",
		Short: "Run database migrations against the postgres store",
		Args:  cobra.MinimumNArgs(1),
		ValidArgs: []string{
			"up", "down", "status", "version", "reset",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrations apply to the %s driver only, configured driver is %s",
					config.DriverPostgres, cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, err := postgres.Open(ctx, cfg.Database.URL, 1, log)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := db.Close(); cerr != nil {
					log.Error("failed to close database", slog.String("error", cerr.Error()))
				}
			}()

			return postgres.Migrate(ctx, db, args[0], log, args[1:]...)
		},
	}
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token <learner-id>",
		Short: "Mint a bearer token for a learner (development use)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			token, err := mintToken(cmd.Context(), cfg.Auth, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}

func mintToken(ctx context.Context, cfg config.AuthConfig, learnerID string) (string, error) {
	jwtService, err := auth.NewJWTService(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	return jwtService.GenerateToken(ctx, learnerID)
}
