package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/autocomplete/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "terms.txt")
	require.NoError(t, os.WriteFile(path, []byte("# fruit\nMango\nYoghurt\n"), 0o600))

	cfg := &config.Config{}
	cfg.Server.Name = "autocompleted"
	cfg.Server.Environment = "test"
	cfg.Server.HTTP.Addr = "127.0.0.1"
	cfg.Server.HTTP.Port = 18080
	cfg.Log.Level = "error"
	cfg.Metrics.Enabled = true
	cfg.Dictionary.Terms = []string{"Apfel", "Apfelbrand", "Hallo"}
	cfg.Dictionary.Files = []string{path, filepath.Join(t.TempDir(), "missing.txt")}
	return cfg
}

func TestBuildSeedsFromAllSources(t *testing.T) {
	b := New("autocompleted", "test")
	b.UseConfig(testConfig(t))

	application, err := b.Build(context.Background())
	require.NoError(t, err)
	require.NotNil(t, application)

	assert.Equal(t, 5, b.Dictionary.Len())
	assert.Equal(t, []string{"Mango"}, b.Dictionary.Lookup("Ma").Values())
}

func TestEngineServesRoutesAndMetrics(t *testing.T) {
	b := New("autocompleted", "test")
	b.UseConfig(testConfig(t))
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	srv := httptest.NewServer(b.Engine())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/completions?prefix=Apf")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body struct {
		Data struct {
			Terms []string `json:"terms"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Apfel", "Apfelbrand"}, body.Data.Terms)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestBuildFailsWhenRedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dictionary.Redis.Enabled = true
	cfg.Dictionary.Redis.Addr = "127.0.0.1:1"
	cfg.Dictionary.Redis.Key = "autocomplete:terms"
	cfg.Dictionary.Redis.DialTimeout = 100 * time.Millisecond

	b := New("autocompleted", "test")
	b.UseConfig(cfg)

	_, err := b.Build(context.Background())
	assert.Error(t, err)
}

const reloadConfigTOML = `
[server]
name = "autocompleted"
environment = "test"

[server.http]
addr = "127.0.0.1"
port = 18081

[log]
level = "error"

[dictionary]
terms = [%s]
`

func writeConfig(t *testing.T, path string, terms string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(fmt.Sprintf(reloadConfigTOML, terms)), 0o600))
	require.NoError(t, os.Rename(tmp, path))
}

func TestConfigReloadAddsInlineTerms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, `"Apfel", "Hallo"`)

	b := New("autocompleted", "test")
	require.NoError(t, b.Initialize(path))
	_, err := b.Build(context.Background())
	require.NoError(t, err)
	require.True(t, b.Dictionary.Contains("Apfel"))
	require.False(t, b.Dictionary.Contains("Mango"))

	writeConfig(t, path, `"Apfel", "Hallo", "Mango"`)

	require.Eventually(t, func() bool { return b.Dictionary.Contains("Mango") }, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, 3, b.Dictionary.Len())
}
