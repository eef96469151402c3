package http

import (
	"strings"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/auth/usecase"
	"github.com/Gogfather/thegogfather.com/internal/shared/contextkeys"
	"github.com/Gogfather/thegogfather.com/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// AuthMiddleware provides authentication middleware for Fiber
type AuthMiddleware struct {
	usecase    usecase.AuthUsecaseInterface
	cookieName string
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(uc usecase.AuthUsecaseInterface, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		usecase:    uc,
		cookieName: cookieName,
	}
}

// RateLimiter creates rate limiting middleware for auth endpoints. Hitting
// the limit maps to the too-many-requests classification.
func (m *AuthMiddleware) RateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.Get("X-Forwarded-For", c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			code, message := usecase.ClassifyError(usecase.ErrRateLimited)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": message,
				"code":  code,
			})
		},
	})
}

// RequestID middleware
func (m *AuthMiddleware) RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     "X-Request-ID",
		ContextKey: string(contextkeys.RequestIDKey),
	})
}

// Protect returns middleware that requires a valid token
func (m *AuthMiddleware) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		claims, err := m.usecase.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		ctx := utils.WithUserID(c.UserContext(), claims.UserID)
		if claims.Email != "" {
			ctx = utils.WithUserEmail(ctx, claims.Email)
		}
		c.SetUserContext(ctx)
		c.Locals("claims", claims)
		return c.Next()
	}
}

// OptionalAuth middleware that validates a token when present but lets
// unauthenticated viewers through. The public page renders read-only under
// this middleware.
func (m *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := m.extractToken(c)
		if err != nil || token == "" {
			return c.Next()
		}

		claims, err := m.usecase.ValidateToken(c.Context(), token)
		if err != nil {
			return c.Next()
		}

		ctx := utils.WithUserID(c.UserContext(), claims.UserID)
		if claims.Email != "" {
			ctx = utils.WithUserEmail(ctx, claims.Email)
		}
		c.SetUserContext(ctx)
		c.Locals("claims", claims)
		return c.Next()
	}
}

func (m *AuthMiddleware) extractToken(c *fiber.Ctx) (string, error) {
	return extractToken(c, m.cookieName)
}

// extractToken extracts the token from Authorization header, cookie, or the
// token query parameter (WebSocket connections).
func extractToken(c *fiber.Ctx, cookieName string) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer "), nil
		}
	}

	token := c.Cookies(cookieName)
	if token != "" {
		return token, nil
	}

	token = c.Query("token")
	if token != "" {
		return token, nil
	}

	return "", fiber.NewError(fiber.StatusUnauthorized, "No authentication token found")
}
