package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "github.com/Gogfather/thegogfather.com/internal/auth/config"
	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	contentconfig "github.com/Gogfather/thegogfather.com/internal/content/config"
	"github.com/Gogfather/thegogfather.com/internal/di"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"localhost"`
	Port string `env:"SERVER_PORT" envDefault:"3000"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLogger()

	// Resolve the layered project configuration: runtime blob, then build-time
	// environment, then the explicit fallback.
	opts, err := appconfig.LoadOptions()
	if err != nil {
		log.Fatalf("Failed to load configuration sources: %v", err)
	}
	appCfg, err := appconfig.Resolve(opts, appLogger)
	if err != nil {
		log.Fatalf("Failed to resolve configuration: %v", err)
	}
	appLogger.Infof("Configuration resolved from %s source, namespace %q", appCfg.Source, appCfg.Namespace)
	if !appCfg.Valid() {
		appLogger.Warn("Running with the fallback namespace; data operations will be refused until configuration is provided")
	}

	container := di.NewContainer(appCfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Errorf("Failed to close container: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
		appLogger.Warnf("MONGODB_URI not set, using default: %s", mongoURI)
	}

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()

	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	appLogger.Info("MongoDB connection established")

	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}

	contentCfg, err := contentconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load content configuration: %v", err)
	}

	redisClient := contentconfig.NewRedisClient(&contentCfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		appLogger.Warnf("Redis unavailable, event history disabled: %v", err)
		redisClient = nil
	}

	if err := container.InitializeAuth(mongoClient, authCfg); err != nil {
		log.Fatalf("Failed to initialize auth module: %v", err)
	}
	appLogger.Info("Auth module initialized")

	if err := container.InitializeContent(redisClient, contentCfg); err != nil {
		log.Fatalf("Failed to initialize content module: %v", err)
	}
	appLogger.Info("Content module initialized")

	// Bring the server-side session up before the mirror so the mutator's
	// authorization predicate has an identity to evaluate.
	container.AuthModule.GetSession().Initialize(ctx)

	if err := container.ContentModule.Start(ctx); err != nil {
		appLogger.Warnf("Content mirror not started: %v", err)
	} else {
		appLogger.Info("Content mirror live")
	}

	app := fiber.New(fiber.Config{
		AppName:      "The Gogfather API v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appLogger.Errorf("HTTP Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal server error",
			})
		},
	})

	authMiddleware := container.AuthModule.GetMiddleware()
	app.Use(recover.New())
	app.Use(authMiddleware.RequestID())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Errorf("Health check failed: %v", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "UNHEALTHY",
				"error":  err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"namespace": appCfg.Namespace,
			"source":    appCfg.Source.String(),
			"timestamp": time.Now().UTC(),
		})
	})

	container.AuthModule.RegisterRoutes(app.Group("/auth"))
	container.ContentModule.RegisterRoutes(app.Group("/api/v1"), authMiddleware)
	appLogger.Info("Routes registered")

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Infof("Starting HTTP server on %s", serverAddr)

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			log.Fatalf("Server startup failed: %v", err)
		}
	case sig := <-quit:
		appLogger.Infof("Received shutdown signal: %v", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		appLogger.Info("HTTP server stopped")
	}
}
