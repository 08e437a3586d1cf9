package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "blog.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, int64(5), cfg.CommentRateLimit)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "BLOG_ADDR=:9000\nBLOG_DB_DRIVER=postgres\nBLOG_DB_NAME=posts\nKAFKA_BROKERS=k1:9092, k2:9092\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"BLOG_ADDR", "BLOG_DB_DRIVER", "BLOG_DB_NAME", "KAFKA_BROKERS"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=posts sslmode=disable", cfg.DSN())
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BLOG_ADDR=:9000\n"), 0o600))
	t.Setenv("BLOG_ADDR", ":7000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"BLOG_DB_DRIVER": "mysql"}},
		{name: "zero rate limit", env: map[string]string{"BLOG_COMMENT_RATE_LIMIT": "0"}},
		{name: "negative session ttl", env: map[string]string{"BLOG_SESSION_TTL": "-1h"}},
		{name: "sample ratio out of range", env: map[string]string{"OTEL_TRACES_SAMPLER_ARG": "2"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	testCases := []struct {
		key, val string
	}{
		{key: "BLOG_SESSION_TTL", val: "abc"},
		{key: "BLOG_COMMENT_RATE_WINDOW", val: "soon"},
		{key: "BLOG_COMMENT_RATE_LIMIT", val: "five"},
		{key: "OTEL_TRACES_SAMPLER_ARG", val: "half"},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}
