package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr":                  ":9090",
		"database_dsn":                   "postgres://u:p@db:5432/x",
		"access_token_validity_duration": "5m",
		"key_page_size":                  250,
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, ":9090", cfg.EndpointAddr)
		assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseDSN)
		assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 250, cfg.KeyPageSize)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			EndpointAddr: ":7070",
			SecretKey:    "keep",
		}
		parseJson(cfg)

		assert.Equal(t, ":7070", cfg.EndpointAddr)
		assert.Equal(t, "keep", cfg.SecretKey)
	})

	t.Run("unset JSON fields keep earlier values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"s3_bucket": "alt-bucket",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{EndpointAddr: ":7070", S3Bucket: "orig"}
		parseJson(cfg)

		assert.Equal(t, ":7070", cfg.EndpointAddr)
		assert.Equal(t, "alt-bucket", cfg.S3Bucket)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
