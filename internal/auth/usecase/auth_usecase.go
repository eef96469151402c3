package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/auth/config"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/auth/domain/repository"
	apperrors "github.com/Gogfather/thegogfather.com/internal/shared/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Classified authentication failures. Each maps to a distinct user-facing
// message; none are retried automatically.
var (
	ErrEmailTaken         = errors.New("email is already taken")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrProviderDisabled   = errors.New("sign-in method is disabled")
	ErrRateLimited        = errors.New("too many requests")
	ErrTokenInvalid       = errors.New("token is invalid")
	ErrWeakPassword       = errors.New("password does not meet strength requirements")
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, string, error)
	Login(ctx context.Context, req LoginRequest) (*model.User, string, error)
	SignInAnonymously(ctx context.Context) (*model.User, string, error)
	ExchangeToken(ctx context.Context, initialToken string) (*model.User, string, error)
	Logout(ctx context.Context, tokenString string) error
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error)
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName,omitempty"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	repo     repository.AuthRepository
	tokenSvc repository.TokenService
	config   *config.Config
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	repo repository.AuthRepository,
	tokenSvc repository.TokenService,
	cfg *config.Config,
) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		config:   cfg,
	}
}

// validateEmail validates email format
func (uc *AuthUsecase) validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// validatePassword validates password strength
func (uc *AuthUsecase) validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}

// Register creates a new named user
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, string, error) {
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, "", err
	}
	if err := uc.validatePassword(req.Password); err != nil {
		return nil, "", err
	}

	existingUser, err := uc.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, "", ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashedPassword),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := uc.repo.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Login authenticates a named user with email and password
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*model.User, string, error) {
	if err := uc.validateEmail(req.Email); err != nil {
		return nil, "", err
	}

	user, err := uc.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// SignInAnonymously mints an anonymous identity. Refused when the deployment
// policy requires credentials, mirroring a disabled provider.
func (uc *AuthUsecase) SignInAnonymously(ctx context.Context) (*model.User, string, error) {
	if uc.config.Policy() == config.PolicyCredentialRequired {
		return nil, "", ErrProviderDisabled
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Anonymous: true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := uc.repo.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create anonymous user: %w", err)
	}

	token, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ExchangeToken validates an externally supplied initial auth token and
// exchanges it for a fresh session.
func (uc *AuthUsecase) ExchangeToken(ctx context.Context, initialToken string) (*model.User, string, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, initialToken)
	if err != nil {
		return nil, "", ErrTokenInvalid
	}

	user, err := uc.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, "", ErrUserNotFound
	}

	token, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// Logout invalidates every session belonging to the token's user
func (uc *AuthUsecase) Logout(ctx context.Context, tokenString string) error {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return ErrTokenInvalid
	}

	if err := uc.repo.DeleteUserSessions(ctx, claims.UserID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	return nil
}

// ValidateToken validates a JWT string and checks that a live session still
// backs it. Logout deletes the user's sessions, so a signed-out token is
// rejected here even before its expiry.
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if _, err := uc.repo.GetSessionByToken(ctx, tokenString); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// GetUserFromToken validates a token and fetches the associated user
func (uc *AuthUsecase) GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := uc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	user, err := uc.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user.PasswordHash = ""
	return user, nil
}

// issueSession generates a token and records the matching session. No refresh
// token exists: session lifetime equals token lifetime, which is what makes
// the hardened variant's session-only storage hold server-side.
func (uc *AuthUsecase) issueSession(ctx context.Context, user *model.User) (string, error) {
	token, err := uc.tokenSvc.GenerateToken(ctx, user.ID, user.Email, user.Anonymous)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	session := &model.Session{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(uc.config.AccessTokenTTL),
	}
	if err := uc.repo.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// ClassifyError maps an authentication failure to a stable code and a
// user-facing message. Callers re-submit credentials manually; nothing here
// is retried.
func ClassifyError(err error) (code string, message string) {
	switch {
	case errors.Is(err, ErrProviderDisabled):
		return "operation-not-allowed", "This sign-in method is not enabled for this site."
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid-credential", "Incorrect email or password."
	case errors.Is(err, ErrUserNotFound):
		return "user-not-found", "No account exists for that email."
	case errors.Is(err, ErrRateLimited):
		return "too-many-requests", "Too many attempts. Please wait a moment and try again."
	case errors.Is(err, ErrEmailTaken):
		return "email-taken", "An account already exists for that email."
	default:
		return "unknown", "Sign-in failed. Please try again."
	}
}

// Ensure AuthUsecase implements AuthUsecaseInterface
var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
