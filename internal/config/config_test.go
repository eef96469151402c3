package config_test

import (
	"testing"

	"github.com/Gogfather/thegogfather.com/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PrefersRuntimeBlob(t *testing.T) {
	opts := config.Options{
		RuntimeBlob: `{"config":{"apiKey":"k1","projectId":"blob-project"},"initialAuthToken":"tok-1","appId":"session 42"}`,
		Env: config.EnvConfig{
			APIKey:    "env-key",
			ProjectID: "env-project",
		},
	}

	cfg, err := config.Resolve(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceRuntime, cfg.Source)
	assert.Equal(t, "tok-1", cfg.InitialAuthToken)
	assert.Equal(t, "k1", cfg.Project.APIKey)
	// Environment project id wins for the namespace even under the runtime channel.
	assert.Equal(t, "env-project", cfg.Namespace)
	assert.True(t, cfg.Valid())
}

func TestResolve_RuntimeBlobNamespaceFromAppID(t *testing.T) {
	opts := config.Options{
		RuntimeBlob: `{"config":{"apiKey":"k1"},"appId":"preview session/9"}`,
	}

	cfg, err := config.Resolve(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceRuntime, cfg.Source)
	assert.Equal(t, "preview-session-9", cfg.Namespace)
}

func TestResolve_EnvironmentChannel(t *testing.T) {
	opts := config.Options{
		Env: config.EnvConfig{
			APIKey:     "env-key",
			AuthDomain: "acme.example",
			ProjectID:  "acme.1",
			AppID:      "app-1",
		},
	}

	cfg, err := config.Resolve(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceEnvironment, cfg.Source)
	assert.Equal(t, "env-key", cfg.Project.APIKey)
	// Project ids from the environment are sanitized too.
	assert.Equal(t, "acme-1", cfg.Namespace)
	assert.True(t, cfg.Valid())
}

func TestResolve_EnvironmentRequiresKeyAndProject(t *testing.T) {
	opts := config.Options{
		Env: config.EnvConfig{APIKey: "env-key"}, // no project id
	}

	cfg, err := config.Resolve(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceFallback, cfg.Source)
	assert.Equal(t, config.FallbackNamespace, cfg.Namespace)
	assert.False(t, cfg.Valid())
}

func TestResolve_MalformedBlobLenientFallsThrough(t *testing.T) {
	opts := config.Options{
		RuntimeBlob: `{not json`,
		Env: config.EnvConfig{
			APIKey:    "env-key",
			ProjectID: "env-project",
		},
	}

	cfg, err := config.Resolve(opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceEnvironment, cfg.Source)
	assert.Equal(t, "env-project", cfg.Namespace)
}

func TestResolve_MalformedBlobStrictSurfacesError(t *testing.T) {
	opts := config.Options{
		RuntimeBlob:         `{not json`,
		StrictRuntimeConfig: true,
		Env: config.EnvConfig{
			APIKey:    "env-key",
			ProjectID: "env-project",
		},
	}

	cfg, err := config.Resolve(opts, nil)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestResolve_NothingPopulated(t *testing.T) {
	cfg, err := config.Resolve(config.Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourceFallback, cfg.Source)
	assert.Equal(t, config.FallbackNamespace, cfg.Namespace)
	assert.False(t, cfg.Valid())
}

func TestSanitizeNamespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"acme-1", "acme-1"},
		{"acme.1", "acme-1"},
		{"my app/v2", "my-app-v2"},
		{"A_b-9", "A_b-9"},
		{"", ""},
		{"éclair", "-clair"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, config.SanitizeNamespace(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeNamespace_AlwaysSafeAlphabet(t *testing.T) {
	out := config.SanitizeNamespace("projects/demo app#7")
	for _, r := range out {
		ok := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
		assert.True(t, ok, "character %q escaped sanitization", r)
	}
}
