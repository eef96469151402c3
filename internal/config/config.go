package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/Gogfather/thegogfather.com/internal/shared/errors"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/caarlos0/env/v6"
)

// FallbackNamespace is the namespace used when no configuration source is
// populated. It is a single explicit constant; callers must treat a config
// resolved to it as a configuration error before issuing any data operation.
const FallbackNamespace = "default-app-id"

// RuntimeConfigEnvVar names the environment variable carrying the
// runtime-injected configuration blob used by the hosted-preview channel.
const RuntimeConfigEnvVar = "GOGFATHER_RUNTIME_CONFIG"

// Source identifies which configuration channel produced the resolved config.
type Source int

const (
	// SourceFallback means no source was populated; the config is unusable.
	SourceFallback Source = iota
	// SourceEnvironment means build-time environment variables were used.
	SourceEnvironment
	// SourceRuntime means the runtime-injected blob was used.
	SourceRuntime
)

func (s Source) String() string {
	switch s {
	case SourceRuntime:
		return "runtime"
	case SourceEnvironment:
		return "environment"
	default:
		return "fallback"
	}
}

// ProjectConfig holds the backend project identity and credential.
type ProjectConfig struct {
	APIKey     string `json:"apiKey"`
	AuthDomain string `json:"authDomain"`
	ProjectID  string `json:"projectId"`
	AppID      string `json:"appId"`
}

// EnvConfig holds the build-time environment channel. The variables carry a
// public prefix because their values ship in client-delivered pages.
type EnvConfig struct {
	APIKey     string `env:"GOGFATHER_API_KEY"`
	AuthDomain string `env:"GOGFATHER_AUTH_DOMAIN"`
	ProjectID  string `env:"GOGFATHER_PROJECT_ID"`
	AppID      string `env:"GOGFATHER_APP_ID"`
}

// runtimeBlob is the wire shape of the runtime-injected configuration object.
type runtimeBlob struct {
	Config           json.RawMessage `json:"config"`
	InitialAuthToken string          `json:"initialAuthToken,omitempty"`
	AppID            string          `json:"appId"`
}

// Config is the resolved configuration tuple. It is constructed once at boot
// and passed by reference to every component that needs it; there is no
// ambient or memoized lookup.
type Config struct {
	Project          ProjectConfig
	InitialAuthToken string
	Namespace        string
	Source           Source
}

// Valid reports whether data operations may proceed under this config.
func (c *Config) Valid() bool {
	return c.Source != SourceFallback && c.Namespace != FallbackNamespace
}

// Options controls resolution behavior.
type Options struct {
	// RuntimeBlob is the raw runtime-injected JSON blob, usually the value of
	// RuntimeConfigEnvVar. Empty means the channel is absent.
	RuntimeBlob string

	// Env is the build-time environment channel.
	Env EnvConfig

	// StrictRuntimeConfig surfaces malformed runtime blobs as errors instead
	// of logging and falling through to the next source.
	StrictRuntimeConfig bool
}

// LoadOptions populates Options from the process environment.
func LoadOptions() (Options, error) {
	var envCfg EnvConfig
	if err := env.Parse(&envCfg); err != nil {
		return Options{}, errors.NewConfigurationError("failed to parse environment configuration").WithCause(err)
	}
	return Options{
		RuntimeBlob:         os.Getenv(RuntimeConfigEnvVar),
		Env:                 envCfg,
		StrictRuntimeConfig: strings.EqualFold(os.Getenv("GOGFATHER_STRICT_RUNTIME_CONFIG"), "true"),
	}, nil
}

// Resolve produces the single resolved config tuple from the layered sources.
// Precedence: runtime-injected blob > environment variables > fallback.
// The returned fallback config carries no error; callers decide how to surface
// the configuration failure.
func Resolve(opts Options, log logger.Logger) (*Config, error) {
	if opts.RuntimeBlob != "" {
		cfg, err := resolveRuntime(opts)
		if err == nil {
			return cfg, nil
		}
		if opts.StrictRuntimeConfig {
			return nil, errors.NewConfigurationError("malformed runtime-injected config").WithCause(err)
		}
		if log != nil {
			log.Warnf("Ignoring malformed runtime-injected config: %v", err)
		}
	}

	if opts.Env.APIKey != "" && opts.Env.ProjectID != "" {
		return &Config{
			Project: ProjectConfig{
				APIKey:     opts.Env.APIKey,
				AuthDomain: opts.Env.AuthDomain,
				ProjectID:  opts.Env.ProjectID,
				AppID:      opts.Env.AppID,
			},
			Namespace: SanitizeNamespace(opts.Env.ProjectID),
			Source:    SourceEnvironment,
		}, nil
	}

	return &Config{Namespace: FallbackNamespace, Source: SourceFallback}, nil
}

// resolveRuntime parses the injected blob and computes the namespace from the
// best available identity: environment project id, then the blob's raw app id.
func resolveRuntime(opts Options) (*Config, error) {
	var blob runtimeBlob
	if err := json.Unmarshal([]byte(opts.RuntimeBlob), &blob); err != nil {
		return nil, err
	}

	var project ProjectConfig
	if len(blob.Config) > 0 {
		if err := json.Unmarshal(blob.Config, &project); err != nil {
			return nil, err
		}
	}

	namespace := FallbackNamespace
	source := SourceFallback
	switch {
	case opts.Env.ProjectID != "":
		namespace = SanitizeNamespace(opts.Env.ProjectID)
		source = SourceRuntime
	case blob.AppID != "":
		namespace = SanitizeNamespace(blob.AppID)
		source = SourceRuntime
	case project.ProjectID != "":
		namespace = SanitizeNamespace(project.ProjectID)
		source = SourceRuntime
	}

	return &Config{
		Project:          project,
		InitialAuthToken: blob.InitialAuthToken,
		Namespace:        namespace,
		Source:           source,
	}, nil
}

// SanitizeNamespace replaces every character outside [A-Za-z0-9_-] with '-'.
func SanitizeNamespace(raw string) string {
	if raw == "" {
		return raw
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'A' && r <= 'Z',
			r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
