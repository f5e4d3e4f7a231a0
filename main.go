package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/afero"
	"github.com/streadway/amqp"

	"pizzeria/internal/auditlog"
	"pizzeria/internal/config"
	"pizzeria/internal/gateway"
	"pizzeria/internal/handlers"
	"pizzeria/internal/logging"
	"pizzeria/internal/middleware"
	"pizzeria/internal/models"
	"pizzeria/internal/services"
	"pizzeria/internal/store"
	"pizzeria/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logging.New("pizzeria", cfg.LogLevel)

	fs := afero.NewOsFs()
	entityStore := store.New(fs, cfg.DataDir)
	if err := entityStore.EnsureCollections("users", "tokens", "carts", "menus", "orders"); err != nil {
		log.Fatal().Err(err).Msg("could not prepare the data directory")
	}

	audit, err := auditlog.New(fs, cfg.LogDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("could not prepare the audit log directory")
	}

	rotationCtx, stopRotation := context.WithCancel(context.Background())
	defer stopRotation()
	go audit.RotationLoop(rotationCtx, 24*time.Hour)

	// The broker is optional: without it order events are simply not
	// published. Everything else keeps working.
	var events services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to RabbitMQ")
		}
		defer mqClient.Close()
		events = mqClient

		if err := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Info().Str("body", string(msg.Body)).Msg("order event received")
			return nil
		}); err != nil {
			log.Fatal().Err(err).Msg("could not start the order event consumer")
		}
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, order events disabled")
	}

	payments := gateway.NewStripeClient(cfg.StripeSecret, cfg.GatewayTimeout)
	notifier := gateway.NewMailgunClient(cfg.MailgunAPIKey, cfg.MailgunDomain, cfg.MailgunFrom, cfg.GatewayTimeout)

	tokenService := services.NewTokenService(entityStore, cfg.TokenTTL)
	authService := services.NewAuthService(entityStore, tokenService, log)
	userService := services.NewUserService(entityStore, log)
	menuService := services.NewMenuService(entityStore)
	cartService := services.NewCartService(entityStore, log)
	orderService := services.NewOrderService(entityStore, payments, notifier, events, audit, log, services.OrderServiceConfig{
		Currency: cfg.Currency,
		Source:   cfg.StripeSource,
	})

	if err := menuService.Seed(defaultMenu()); err != nil {
		log.Fatal().Err(err).Msg("could not seed the menu")
	}

	guard := middleware.NewTokenGuard(tokenService)
	userHandler := handlers.NewUserHandler(authService, userService, log)
	tokenHandler := handlers.NewTokenHandler(authService, tokenService, log)
	menuHandler := handlers.NewMenuHandler(menuService, log)
	cartHandler := handlers.NewCartHandler(cartService, log)
	orderHandler := handlers.NewOrderHandler(orderService, log)

	app := fiber.New()
	app.Use(fiberlogger.New())

	apiV1 := app.Group("/api/v1")
	userHandler.RegisterRoutes(apiV1, guard)
	tokenHandler.RegisterRoutes(apiV1)
	menuHandler.RegisterRoutes(apiV1)
	cartHandler.RegisterRoutes(apiV1, guard)
	orderHandler.RegisterRoutes(apiV1, guard)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()
	log.Info().Str("port", cfg.AppPort).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")
	stopRotation()
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server gracefully stopped")
}

// defaultMenu is written on first startup; afterwards the stored menu wins.
func defaultMenu() models.Menu {
	return models.Menu{
		"margherita":   1099,
		"pepperoni":    1299,
		"hawaiian":     1249,
		"veggie":       1199,
		"garlic bread": 599,
		"soda":         250,
	}
}
