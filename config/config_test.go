package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.aipseo.com/v1", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BackoffBase)

	assert.Equal(t, ".wallet.json", cfg.Wallet.Path)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8321, cfg.Server.Port)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_FromYAMLFile(t *testing.T) {
	content := []byte(`
api:
  base_url: "https://staging.aipseo.com/v1"
  key: "ak_test_123"
  timeout: "5s"
retry:
  max_attempts: 5
  backoff_base: "250ms"
wallet:
  path: "/tmp/test-wallet.json"
server:
  host: "0.0.0.0"
  port: 9090
log:
  level: "debug"
  pretty: true
`)
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "aipseo.yaml")
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.aipseo.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "ak_test_123", cfg.API.Key)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)

	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BackoffBase)

	assert.Equal(t, "/tmp/test-wallet.json", cfg.Wallet.Path)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AIPSEO_API_BASE_URL", "https://env.aipseo.com/v1")
	t.Setenv("AIPSEO_API_KEY", "ak_env")
	t.Setenv("AIPSEO_WALLET_PATH", "/env/wallet.json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.aipseo.com/v1", cfg.API.BaseURL)
	assert.Equal(t, "ak_env", cfg.API.Key)
	assert.Equal(t, "/env/wallet.json", cfg.Wallet.Path)
}

func TestServerConfig_Addr(t *testing.T) {
	srvCfg := ServerConfig{
		Host: "127.0.0.1",
		Port: 8321,
	}

	assert.Equal(t, "127.0.0.1:8321", srvCfg.Addr())
}
