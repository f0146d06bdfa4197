package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "https://api.dexscreener.com", cfg.Upstream.DexScreenerURL)
	assert.Equal(t, "https://solana-rpc.publicnode.com", cfg.Upstream.SolanaRPCURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 0, cfg.Upstream.RetryCount)
	assert.Empty(t, cfg.Database.ConnStr)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	content := `
log_level: debug
refresh_interval: 30s
server:
  addr: ":8080"
upstream:
  timeout: 3s
  retry_count: 2
database:
  conn_str: "postgres://localhost/normie"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))
	t.Setenv("NORMIE_SERVER_ADDR", ":9090")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 2, cfg.Upstream.RetryCount)
	assert.Equal(t, "postgres://localhost/normie", cfg.Database.ConnStr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "server: [unclosed"},
		{name: "negative retry", content: "upstream:\n  retry_count: -1\n"},
		{name: "zero interval", content: "refresh_interval: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0o644))

			cfg, err := Load(dir)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
