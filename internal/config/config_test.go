package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "us-west-2", cfg.OpenSearch.Region)
	assert.Equal(t, "es", cfg.OpenSearch.Service)
	assert.True(t, cfg.OpenSearch.AWSAuth)
	assert.Equal(t, 30*time.Second, cfg.OpenSearch.Timeout)
	assert.Equal(t, "embedding_vector", cfg.OpenSearch.VectorField)
	assert.Equal(t, "neural-ingest-pipeline", cfg.OpenSearch.IngestPipeline)
	assert.Equal(t, "neural-search-index", cfg.Search.DefaultIndex)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.False(t, cfg.Search.UpsertEnabled)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, uint32(0), cfg.Breaker.MaxFailures)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENSEARCH_ENDPOINT", "https://search.example.com")
	t.Setenv("SEARCH_UPSERT_ENABLED", "true")
	t.Setenv("SEARCH_DEFAULT_TOP_K", "8")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://search.example.com", cfg.OpenSearch.Endpoint)
	assert.True(t, cfg.Search.UpsertEnabled)
	assert.Equal(t, 8, cfg.Search.DefaultTopK)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "AKIDEXAMPLE", cfg.OpenSearch.AccessKeyID)
}

func TestValidateOpenSearch(t *testing.T) {
	cfg := &Config{}
	cfg.OpenSearch.Endpoint = "https://search.example.com"
	cfg.OpenSearch.AWSAuth = true
	cfg.OpenSearch.Region = "us-west-2"
	cfg.Search.DefaultTopK = 5
	require.NoError(t, cfg.ValidateOpenSearch())

	cfg.OpenSearch.Region = ""
	assert.Error(t, cfg.ValidateOpenSearch())

	cfg.OpenSearch.AWSAuth = false
	assert.NoError(t, cfg.ValidateOpenSearch())

	cfg.OpenSearch.Endpoint = ""
	assert.ErrorContains(t, cfg.ValidateOpenSearch(), "OPENSEARCH_ENDPOINT")
}
