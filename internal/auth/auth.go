package auth

import (
	"context"
	"fmt"

	authhttp "github.com/Gogfather/thegogfather.com/internal/auth/adapter/http"
	"github.com/Gogfather/thegogfather.com/internal/auth/adapter/persistence/mongodb"
	"github.com/Gogfather/thegogfather.com/internal/auth/adapter/security"
	"github.com/Gogfather/thegogfather.com/internal/auth/config"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/auth/usecase"
	appconfig "github.com/Gogfather/thegogfather.com/internal/config"
	"github.com/Gogfather/thegogfather.com/internal/shared/eventbus"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	repository repository.AuthRepository
	tokenSvc   repository.TokenService
	usecase    usecase.AuthUsecaseInterface
	session    *usecase.Session
	handler    *authhttp.AuthHTTPHandler
	config     *config.Config
}

// NewAuthModule creates a new authentication module instance. bus may be nil;
// sign-in lifecycle events are then not announced.
func NewAuthModule(db *mongo.Database, cfg *config.Config, appCfg *appconfig.Config, bus eventbus.EventBusInterface, log logger.Logger) (*AuthModule, error) {
	// Initialize repository
	authRepo, err := mongodb.NewMongoAuthRepository(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth repository: %w", err)
	}

	// Initialize token service
	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	// Initialize usecase
	authUsecase := usecase.NewAuthUsecase(authRepo, tokenSvc, cfg)

	// Initialize the server-side session lifecycle
	session := usecase.NewSession(authUsecase, appCfg, cfg, bus, log)
	registerSessionAudit(bus, log.WithComponent("auth-audit"))

	// Initialize HTTP handler
	handler := authhttp.NewAuthHTTPHandler(authUsecase, cfg)

	return &AuthModule{
		repository: authRepo,
		tokenSvc:   tokenSvc,
		usecase:    authUsecase,
		session:    session,
		handler:    handler,
		config:     cfg,
	}, nil
}

// registerSessionAudit logs every sign-in lifecycle event published on the bus.
func registerSessionAudit(bus eventbus.EventBusInterface, log logger.Logger) {
	if bus == nil {
		return
	}
	handler := func(ctx context.Context, ev eventbus.Event) error {
		if identity, ok := ev.Data().(model.Identity); ok {
			log.Infof("%s %s", ev.Type(), identity.UserID)
			return nil
		}
		log.Infof("%s", ev.Type())
		return nil
	}
	bus.Subscribe(eventbus.EventTypeUserAuthenticated, handler)
	bus.Subscribe(eventbus.EventTypeUserSignedOut, handler)
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	middleware := am.GetMiddleware()
	am.handler.SetupAuthRoutesWithMiddleware(router, middleware)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetSession returns the session lifecycle manager
func (am *AuthModule) GetSession() *usecase.Session {
	return am.session
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return authhttp.NewAuthMiddleware(am.usecase, am.config.CookieName)
}

// Stop performs cleanup when the module is shut down
func (am *AuthModule) Stop() error {
	return nil
}
