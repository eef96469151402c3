package http

import (
	"time"

	"github.com/Gogfather/thegogfather.com/internal/auth/config"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/auth/usecase"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler handles HTTP requests for authentication
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
	config  *config.Config
}

// NewAuthHTTPHandler creates a new authentication HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface, cfg *config.Config) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		usecase: uc,
		config:  cfg,
	}
}

// SetupAuthRoutesWithMiddleware sets up authentication routes with middleware
func (h *AuthHTTPHandler) SetupAuthRoutesWithMiddleware(router fiber.Router, middleware *AuthMiddleware) {
	// Public routes (no authentication required)
	public := router.Group("/", middleware.RateLimiter())
	public.Post("/register", h.Register)
	public.Post("/login", h.Login)
	public.Post("/anonymous", h.SignInAnonymously)
	public.Post("/token", h.ExchangeToken)

	// Protected routes (authentication required)
	protected := router.Group("/", middleware.Protect())
	protected.Post("/logout", h.Logout)
	protected.Get("/me", h.GetCurrentUser)
}

type authResponse struct {
	User        *model.User `json:"user"`
	AccessToken string      `json:"accessToken"`
	SessionOnly bool        `json:"sessionOnly"`
}

// Register handles user registration
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	var req usecase.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, token, err := h.usecase.Register(c.Context(), req)
	if err != nil {
		if err == usecase.ErrEmailTaken {
			return classified(c, fiber.StatusConflict, err)
		}
		return classified(c, fiber.StatusBadRequest, err)
	}

	h.setCookie(c, token)

	return c.Status(fiber.StatusCreated).JSON(authResponse{
		User:        user,
		AccessToken: token,
		SessionOnly: h.config.SessionOnly(),
	})
}

// Login handles user login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	var req usecase.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, token, err := h.usecase.Login(c.Context(), req)
	if err != nil {
		switch err {
		case usecase.ErrUserNotFound, usecase.ErrInvalidCredentials:
			return classified(c, fiber.StatusUnauthorized, err)
		default:
			return classified(c, fiber.StatusBadRequest, err)
		}
	}

	h.setCookie(c, token)

	return c.JSON(authResponse{
		User:        user,
		AccessToken: token,
		SessionOnly: h.config.SessionOnly(),
	})
}

// SignInAnonymously mints an anonymous identity. Under the hardened policy
// this endpoint is disabled and reports operation-not-allowed.
func (h *AuthHTTPHandler) SignInAnonymously(c *fiber.Ctx) error {
	user, token, err := h.usecase.SignInAnonymously(c.Context())
	if err != nil {
		if err == usecase.ErrProviderDisabled {
			return classified(c, fiber.StatusForbidden, err)
		}
		return classified(c, fiber.StatusInternalServerError, err)
	}

	h.setCookie(c, token)

	return c.JSON(authResponse{
		User:        user,
		AccessToken: token,
		SessionOnly: h.config.SessionOnly(),
	})
}

// ExchangeToken trades a host-issued bootstrap token for a session
func (h *AuthHTTPHandler) ExchangeToken(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, token, err := h.usecase.ExchangeToken(c.Context(), req.Token)
	if err != nil {
		return classified(c, fiber.StatusUnauthorized, err)
	}

	h.setCookie(c, token)

	return c.JSON(authResponse{
		User:        user,
		AccessToken: token,
		SessionOnly: h.config.SessionOnly(),
	})
}

// Logout handles user logout
func (h *AuthHTTPHandler) Logout(c *fiber.Ctx) error {
	token, err := extractToken(c, h.config.CookieName)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	if err := h.usecase.Logout(c.Context(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.clearCookie(c)

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns current user information
func (h *AuthHTTPHandler) GetCurrentUser(c *fiber.Ctx) error {
	token, err := extractToken(c, h.config.CookieName)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	user, err := h.usecase.GetUserFromToken(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(user)
}

// classified writes the status plus the stable error classification so
// clients can branch on code rather than message text.
func classified(c *fiber.Ctx, status int, err error) error {
	code, message := usecase.ClassifyError(err)
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// Helper methods

// setCookie writes the access token cookie. Under session-only storage the
// cookie carries no MaxAge so the browser drops it when the tab closes.
func (h *AuthHTTPHandler) setCookie(c *fiber.Ctx, token string) {
	cookie := &fiber.Cookie{
		Name:     h.config.CookieName,
		Value:    token,
		Path:     h.config.CookiePath,
		Domain:   h.config.CookieDomain,
		Secure:   h.config.CookieSecure,
		HTTPOnly: h.config.CookieHTTPOnly,
		SameSite: h.config.CookieSameSite,
	}
	if !h.config.SessionOnly() {
		maxAge := int(h.config.AccessTokenTTL.Seconds())
		cookie.MaxAge = maxAge
		cookie.Expires = time.Now().Add(h.config.AccessTokenTTL)
	}
	c.Cookie(cookie)
}

func (h *AuthHTTPHandler) clearCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     h.config.CookieName,
		Value:    "",
		Path:     h.config.CookiePath,
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		Secure:   h.config.CookieSecure,
		HTTPOnly: h.config.CookieHTTPOnly,
		SameSite: h.config.CookieSameSite,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
