package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/app"
	"github.com/Freeeeeet/mentorship_service/internal/auth"
	"github.com/Freeeeeet/mentorship_service/internal/config"
	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mentorship",
		Short:         "Mentorship engagement service for the alumni network",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp загружает конфиг, собирает App и закрывает его после run
func withApp(run func(ctx context.Context, a *app.App, logger *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", zap.Error(err))
		return err
	}
	defer a.Close()

	return run(ctx, a, logger)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification worker, session sweep and Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, logger *zap.Logger) error {
				logger.Info("Starting mentorship service")
				return a.Serve(ctx)
			})
		},
	}
}

func newMigrateCommand() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, logger *zap.Logger) error {
				if down {
					return a.MigrateDown(ctx)
				}
				return a.Migrate(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "Roll back the latest migration instead")

	return cmd
}

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark elapsed scheduled sessions as completed once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App, logger *zap.Logger) error {
				completed, err := a.SweepOnce(ctx)
				if err != nil {
					return err
				}
				logger.Info("Sweep finished", zap.Int64("completed", completed))
				return nil
			})
		},
	}
}

func newTokenCommand() *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.RequireJWTSecret(); err != nil {
				return err
			}

			id := uuid.New()
			if userID != "" {
				if id, err = uuid.Parse(userID); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			actor := model.Actor{UserID: id, Role: model.Role(role)}
			if !actor.Role.Valid() || actor.IsSystem() {
				return fmt.Errorf("--role must be student or mentor")
			}

			token, err := auth.NewAuthenticator(cfg.JWTSecret).Issue(actor, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "user_id: %s\nrole: %s\ntoken: %s\n", actor.UserID, actor.Role, token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id (random when empty)")
	cmd.Flags().StringVar(&role, "role", string(model.RoleStudent), "Role claim: student or mentor")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}
