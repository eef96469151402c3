package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/auth"
	authconfig "github.com/Gogfather/thegogfather.com/internal/auth/config"
	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	"github.com/Gogfather/thegogfather.com/internal/content"
	contentconfig "github.com/Gogfather/thegogfather.com/internal/content/config"
	"github.com/Gogfather/thegogfather.com/internal/shared/eventbus"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container wires the application modules in dependency order: resolved app
// config and shared services first, then auth, then content on top of the
// auth session.
type Container struct {
	mu sync.RWMutex

	AuthModule    *auth.AuthModule
	ContentModule *content.ContentModule

	MongoClient *mongo.Client
	RedisClient *redis.Client

	AppConfig     *appconfig.Config
	AuthConfig    *authconfig.Config
	ContentConfig *contentconfig.Config

	EventBus eventbus.EventBusInterface
	Logger   logger.Logger
}

// NewContainer creates an empty container.
func NewContainer(appCfg *appconfig.Config, log logger.Logger) *Container {
	return &Container{
		AppConfig: appCfg,
		EventBus:  eventbus.NewEventBus(log),
		Logger:    log,
	}
}

// InitializeAuth initializes the authentication module.
func (c *Container) InitializeAuth(mongoClient *mongo.Client, authCfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.MongoClient = mongoClient
	c.AuthConfig = authCfg

	db := mongoClient.Database(authCfg.DatabaseName)
	authModule, err := auth.NewAuthModule(db, authCfg, c.AppConfig, c.EventBus, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}

	c.AuthModule = authModule
	return nil
}

// InitializeContent initializes the content module. The auth module must be
// up first: the mutator takes its authorization predicate from the session.
func (c *Container) InitializeContent(redisClient *redis.Client, contentCfg *contentconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.AuthModule == nil {
		return fmt.Errorf("auth module must be initialized before the content module")
	}
	if c.MongoClient == nil {
		return fmt.Errorf("MongoDB must be initialized before the content module")
	}

	c.RedisClient = redisClient
	c.ContentConfig = contentCfg

	db := c.MongoClient.Database(contentCfg.DatabaseName)
	contentModule, err := content.NewContentModule(
		db,
		redisClient,
		contentCfg,
		c.AppConfig,
		c.AuthModule.GetSession(),
		c.EventBus,
		c.Logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create content module: %w", err)
	}

	c.ContentModule = contentModule
	return nil
}

// HealthCheck pings the backing stores.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.MongoClient != nil {
		if err := c.MongoClient.Ping(ctx, nil); err != nil {
			return fmt.Errorf("MongoDB health check failed: %w", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("Redis health check failed: %w", err)
		}
	}
	return nil
}

// Cleanup stops modules in reverse initialization order.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.ContentModule != nil {
		if err := c.ContentModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop content module: %w", err))
		}
		c.ContentModule = nil
	}

	if c.AuthModule != nil {
		if err := c.AuthModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop auth module: %w", err))
		}
		c.AuthModule = nil
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
		c.RedisClient = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close gracefully shuts down the container with a timeout.
func (c *Container) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return c.Cleanup(ctx)
}
