// Package server assembles the HTTP application: global middleware, the user
// routes and the health endpoint.
package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"userapi/internal/config"
	"userapi/internal/handlers"
)

const accessLogFormat = "${status} ${method} ${path} ${latency} ${ip} ${locals:requestid}\n"

// HealthCheck reports whether the database can be reached.
type HealthCheck func(ctx context.Context) error

// NewApp creates the Fiber app serving the user routes.
func NewApp(cfg config.ServerConfig, users *handlers.UserHandler, health HealthCheck) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "userapi",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: accessLogFormat,
		Output: accessLog{},
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
	}))

	// --- Routes ---
	users.RegisterRoutes(app)
	app.Get("/health", healthHandler(health))

	return app
}

func healthHandler(check HealthCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, database, code := "healthy", "up", fiber.StatusOK
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				log.Warn().Err(err).Msg("health check failed")
				status, database, code = "unhealthy", "down", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"time":     time.Now().Format(time.RFC3339),
			"database": database,
		})
	}
}

// errorHandler renders errors that escaped the handlers, including unknown
// routes and recovered panics, as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// accessLog forwards fiber's formatted access log lines to zerolog.
type accessLog struct{}

func (accessLog) Write(p []byte) (int, error) {
	log.Info().Str("component", "http").Msg(strings.TrimSpace(string(p)))
	return len(p), nil
}
