package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URLS", "")
	t.Setenv("UPSTREAM_FILE_ORIGIN", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultUpstreamBaseURLs, cfg.Upstream.BaseURLs)
	assert.Equal(t, "https://mrca-final-project-output-4.onrender.com", cfg.Upstream.FileOrigin)
	assert.Equal(t, 30*time.Second, cfg.Upstream.AttemptTimeout)
	assert.Equal(t, int64(20*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Contains(t, cfg.Catalog.Types, "question paper")
}

func TestLoadUpstreamCandidatesFromEnv(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URLS", " http://primary:9000/api/ ,http://secondary/api,, ")
	t.Setenv("UPSTREAM_ATTEMPT_TIMEOUT", "750ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://primary:9000/api", "http://secondary/api"}, cfg.Upstream.BaseURLs)
	assert.Equal(t, "http://primary:9000", cfg.Upstream.FileOrigin)
	assert.Equal(t, 750*time.Millisecond, cfg.Upstream.AttemptTimeout)
}

func TestLoadExplicitFileOrigin(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URLS", "http://primary/api")
	t.Setenv("UPSTREAM_FILE_ORIGIN", "https://files.example.edu/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.edu", cfg.Upstream.FileOrigin)
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://host.example", OriginOf("https://host.example/api/v2"))
	assert.Equal(t, "not a url", OriginOf("not a url/"))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, time.Second, parseDuration("1s", time.Minute))
}
