package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/mojito"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Engine.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.Engine.WorkflowTTL)
	assert.True(t, cfg.Engine.LimiterEnabled)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	dir := t.TempDir()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	keyPath := writeFile(t, dir, "pub.key", base64.StdEncoding.EncodeToString(pub)+"\n")

	path := writeFile(t, dir, "mojito.yaml", `
server:
  addr: ":9090"
  trust_proxy: true
log:
  format: json
engine:
  api_base_url: https://api.mojito.test
  api_timeout: 10s
  store_backend: memory
  default_language: ko
  jwt_public_key_file: `+keyPath+`
  limiter_max_attempts: 3
`)

	fileCfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", fileCfg.Server.Addr)
	assert.True(t, fileCfg.Server.TrustProxy)
	assert.Equal(t, "json", fileCfg.Log.Format)
	assert.Equal(t, "info", fileCfg.Log.Level, "unset keys keep defaults")
	assert.Equal(t, 10*time.Second, fileCfg.Server.ShutdownTimeout)

	cfg, err := fileCfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.mojito.test", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, mojito.StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "ko", cfg.Locale.DefaultLanguage)
	assert.Equal(t, []byte(pub), cfg.Session.JWT.PublicKey)
	assert.Equal(t, 3, cfg.Limiter.MaxAttempts)
	assert.True(t, cfg.Audit.Enabled)
}

func TestEngineConfigRequiresKeys(t *testing.T) {
	fileCfg, err := LoadConfig("")
	require.NoError(t, err)
	fileCfg.Engine.APIBaseURL = "https://api.mojito.test"

	_, err = fileCfg.EngineConfig()
	assert.Error(t, err)
}

func TestEngineConfigRejectsBadKeyFile(t *testing.T) {
	dir := t.TempDir()
	fileCfg, err := LoadConfig("")
	require.NoError(t, err)
	fileCfg.Engine.APIBaseURL = "https://api.mojito.test"
	fileCfg.Engine.PublicKeyFile = writeFile(t, dir, "pub.key", "not base64!")

	_, err = fileCfg.EngineConfig()
	assert.Error(t, err)

	fileCfg.Engine.PublicKeyFile = filepath.Join(dir, "missing.key")
	_, err = fileCfg.EngineConfig()
	assert.Error(t, err)
}

func TestEngineConfigRejectsMissingBaseURL(t *testing.T) {
	dir := t.TempDir()
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	fileCfg, err := LoadConfig("")
	require.NoError(t, err)
	fileCfg.Engine.PublicKeyFile = writeFile(t, dir, "pub.key", base64.StdEncoding.EncodeToString(pub))

	_, err = fileCfg.EngineConfig()
	assert.Error(t, err)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := writeFile(t, t.TempDir(), "bad.yaml", "server: [unterminated")
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
