package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Policy selects how identities may be established. It is chosen once at
// startup; components never branch on environment sniffing afterwards.
type Policy int

const (
	// PolicyAnonymousAllowed mints anonymous identities for public-read
	// deployments; under this policy an anonymous identity passes the
	// authorization predicate.
	PolicyAnonymousAllowed Policy = iota
	// PolicyCredentialRequired requires an interactive email/password sign-in
	// and forces session-only credential storage.
	PolicyCredentialRequired
)

// ParsePolicy maps the AUTH_POLICY environment value to a Policy.
func ParsePolicy(raw string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "anonymous", "anonymous-allowed":
		return PolicyAnonymousAllowed, nil
	case "credential", "credential-required":
		return PolicyCredentialRequired, nil
	default:
		return PolicyAnonymousAllowed, errors.New("auth policy must be 'anonymous-allowed' or 'credential-required'")
	}
}

func (p Policy) String() string {
	if p == PolicyCredentialRequired {
		return "credential-required"
	}
	return "anonymous-allowed"
}

// Config holds all configuration for the auth module.
type Config struct {
	DatabaseName string `env:"AUTH_DATABASE_NAME" envDefault:"gogfather_auth"`

	// JWT Configuration
	JWTSecretKey   string        `env:"JWT_SECRET_KEY,required"`
	JWTIssuer      string        `env:"JWT_ISSUER" envDefault:"thegogfather-auth"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`

	// AuthPolicy selects the product variant (public-read vs hardened admin).
	PolicyName string `env:"AUTH_POLICY" envDefault:"anonymous-allowed"`

	// Cookie Configuration
	CookieName     string `env:"COOKIE_NAME" envDefault:"gf_auth_token"`
	CookiePath     string `env:"COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"false"`
	CookieHTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAME_SITE" envDefault:"Lax"`

	policy Policy
}

// Policy returns the parsed auth policy.
func (c *Config) Policy() Policy {
	return c.policy
}

// SetPolicy overrides the parsed policy. Intended for tests and embedded use.
func (c *Config) SetPolicy(p Policy) {
	c.policy = p
}

// SessionOnly reports whether credential storage must not survive a reload.
// The hardened admin variant always requires re-authentication; this is a
// deliberate security property, not an oversight.
func (c *Config) SessionOnly() bool {
	return c.policy == PolicyCredentialRequired
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load auth configuration from environment: " + err.Error())
	}

	if cfg.JWTSecretKey == "" {
		return nil, errors.New("jwt_secret_key is required")
	}

	policy, err := ParsePolicy(cfg.PolicyName)
	if err != nil {
		return nil, err
	}
	cfg.policy = policy

	cfg.CookieSameSite = normalizeSameSite(cfg.CookieSameSite)
	if cfg.CookieSameSite == "" {
		return nil, errors.New("cookie_same_site must be one of 'Lax', 'Strict', or 'None'")
	}

	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}

	return cfg, nil
}

func normalizeSameSite(v string) string {
	switch strings.ToLower(v) {
	case "lax":
		return "Lax"
	case "strict":
		return "Strict"
	case "none":
		return "None"
	default:
		return ""
	}
}
