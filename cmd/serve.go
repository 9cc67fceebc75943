package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"userapi/internal/config"
	"userapi/internal/database"
	"userapi/internal/handlers"
	"userapi/internal/repositories"
	"userapi/internal/server"
	"userapi/internal/services"
	"userapi/pkg/rabbitmq"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP server",
	Long: `Starts the HTTP server. Usage:

	userapi serve --env production
`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	if err := bootstrap(ctx, cfg.Database, db); err != nil {
		return err
	}

	// --- Events ---
	var events services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		client, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Exchange: cfg.RabbitMQ.Exchange})
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable, user events disabled")
		} else {
			events = client
			defer func() {
				if err := client.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close RabbitMQ client")
				}
			}()
		}
	}

	// --- HTTP ---
	userService := services.NewUserService(repositories.NewGORMUserRepository(db), events)
	app := server.NewApp(cfg.Server, handlers.NewUserHandler(userService), func(ctx context.Context) error {
		return database.Verify(ctx, db)
	})

	log.Info().Int("port", cfg.Server.Port).Str("profile", cfg.Profile).Msgf("Server is running on port %d", cfg.Server.Port)
	return serve(ctx, app, cfg.Server)
}

// serve listens until ctx is cancelled, then shuts the app down within the
// configured timeout. A listener that fails to start is reported as an error.
func serve(ctx context.Context, app *fiber.App, cfg config.ServerConfig) error {
	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("Server gracefully stopped")
	return nil
}

// bootstrap verifies the database and synchronizes the schema. In strict
// mode failures abort startup; otherwise it runs in the background and only
// logs, leaving the listener up.
func bootstrap(ctx context.Context, cfg config.DatabaseConfig, db *gorm.DB) error {
	if cfg.SyncStrict {
		if err := database.Bootstrap(ctx, db); err != nil {
			return fmt.Errorf("database bootstrap: %w", err)
		}
		return nil
	}

	go func() {
		if err := database.Bootstrap(ctx, db); err != nil {
			log.Error().Err(err).Str("dialect", cfg.Dialect).Msg("Unable to connect to the database")
		}
	}()
	return nil
}
