package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
version = "v1"

[server]
name = "autocompleted"
environment = "dev"

[server.http]
port = 8080
read_timeout = "5s"

[log]
level = "info"
output = "stdout"

[dictionary]
terms = ["Apfel", "Apfelbrand"]
files = []

[dictionary.redis]
enabled = true
addr = "127.0.0.1:6379"
password = "hunter2"
key = "autocomplete:terms"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	var cfg Config
	require.NoError(t, Load(writeConfig(t, sample), &cfg))

	assert.Equal(t, "autocompleted", cfg.Server.Name)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.HTTP.ReadTimeout)
	assert.Equal(t, []string{"Apfel", "Apfelbrand"}, cfg.Dictionary.Terms)
	assert.True(t, cfg.Dictionary.Redis.Enabled)
	assert.Equal(t, "autocomplete:terms", cfg.Dictionary.Redis.Key)
	assert.NotNil(t, GetViper())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_SERVER_HTTP_PORT", "9090")

	var cfg Config
	require.NoError(t, Load(writeConfig(t, sample), &cfg))
	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
}

func TestLoadValidation(t *testing.T) {
	body := `
[server]
name = "autocompleted"
environment = "dev"

[server.http]
port = 8080

[dictionary.redis]
enabled = true
`
	var cfg Config
	err := Load(writeConfig(t, body), &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadMissingFile(t *testing.T) {
	var cfg Config
	err := Load(filepath.Join(t.TempDir(), "absent.toml"), &cfg)
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	m := map[string]any{
		"dictionary": map[string]any{
			"redis": map[string]any{"password": "hunter2", "addr": "127.0.0.1:6379"},
		},
		"api_token": "abc",
	}
	mask(m)

	redis := m["dictionary"].(map[string]any)["redis"].(map[string]any)
	assert.Equal(t, "******", redis["password"])
	assert.Equal(t, "127.0.0.1:6379", redis["addr"])
	assert.Equal(t, "******", m["api_token"])
}

func TestRegisterReloadHookIgnoresNil(t *testing.T) {
	before := len(reloadHooks())
	RegisterReloadHook(nil)
	assert.Len(t, reloadHooks(), before)
}
