package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ameditor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
remote:
  url: http://cortex.example.com
  tenant_id: tenant-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultHistoryDBPath, cfg.HistoryDBPath)
	assert.Equal(t, 300*time.Millisecond, cfg.Validation.LeadingWindow())
	assert.Equal(t, 500*time.Millisecond, cfg.Validation.SettleDelay())
	assert.Equal(t, 5*time.Second, cfg.Validation.MaxWait())
	assert.True(t, cfg.Validation.MarkersEnabled())
}

func TestLoadExplicitValues(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
remote:
  url: http://cortex.example.com
  tenant_id: tenant-1
  timeout_sec: 5
validation:
  leading_window_ms: 100
  settle_delay_ms: 200
  max_wait_ms: 1000
  use_markers: false
history_db_path: /tmp/test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, 5, cfg.Remote.TimeoutSec)
	assert.Equal(t, 100*time.Millisecond, cfg.Validation.LeadingWindow())
	assert.False(t, cfg.Validation.MarkersEnabled())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
remote:
  url: http://cortex.example.com
  tenant_id: tenant-1
no_such_key: true
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRequiresRemoteSettings(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9090"
remote:
  url: ""
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote.url")
	assert.Contains(t, err.Error(), "remote.tenant_id")
}

func TestLoadRejectsSettleAboveMaxWait(t *testing.T) {
	path := writeConfig(t, `
remote:
  url: http://cortex.example.com
  tenant_id: tenant-1
validation:
  settle_delay_ms: 6000
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvListenAddr, ":7070")
	t.Setenv(EnvTenantID, "tenant-override")

	path := writeConfig(t, `
remote:
  url: http://cortex.example.com
  tenant_id: tenant-1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "tenant-override", cfg.Remote.TenantID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SaveSecrets(dir, "hunter2", map[string]string{
		"AMEDITOR_REMOTE_TOKEN": "tok-abc",
	}))
	assert.True(t, SecretsFileExists(dir))

	// Fresh load with the right password.
	require.NoError(t, LoadSecrets(dir, "hunter2"))
	value, err := Secret("AMEDITOR_REMOTE_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", value)
}

func TestSecretsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveSecrets(dir, "hunter2", map[string]string{"K": "v"}))

	err := LoadSecrets(dir, "wrong")
	require.Error(t, err)
}

func TestSecretFallsBackToEnv(t *testing.T) {
	t.Setenv("AMEDITOR_TEST_ONLY_SECRET", "from-env")

	value, err := Secret("AMEDITOR_TEST_ONLY_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestSecretMissing(t *testing.T) {
	_, err := Secret("AMEDITOR_DEFINITELY_MISSING")
	require.Error(t, err)
}
