package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "LOG_LEVEL",
		"GENERATOR_MAX_ATTEMPTS", "EXPERIMENT_PARALLELISM", "SESSION_IDLE_TTL"} {
		t.Setenv(k, "")
	}

	assert.Equal(t, 8080, ServerPort())
	assert.Equal(t, ":8080", ServerAddr())
	assert.Equal(t, 100.0, RateLimitRPS())
	assert.Equal(t, 20, RateLimitBurst())
	assert.Equal(t, "info", LogLevel())
	assert.Equal(t, 100000, GeneratorMaxAttempts())
	assert.Equal(t, 4, ExperimentParallelism())
	assert.Equal(t, time.Hour, SessionIdleTTL())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("GENERATOR_MAX_ATTEMPTS", "500")
	t.Setenv("EXPERIMENT_PARALLELISM", "-1")
	t.Setenv("SESSION_IDLE_TTL", "90s")
	t.Setenv("API_KEY", "secret")

	assert.Equal(t, ":9090", ServerAddr())
	assert.Equal(t, 2.5, RateLimitRPS())
	assert.Equal(t, 500, GeneratorMaxAttempts())
	assert.Equal(t, 4, ExperimentParallelism())
	assert.Equal(t, 90*time.Second, SessionIdleTTL())
	assert.Equal(t, "secret", APIKey())
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("REGULA_TEST_VALUE=from-file\n"), 0o600))
	require.NoError(t, os.WriteFile(path+".secret", []byte("REGULA_TEST_SECRET=hidden\n"), 0o600))

	t.Setenv("REGULA_ENV", path)
	t.Setenv("REGULA_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("REGULA_TEST_VALUE"))
	t.Setenv("REGULA_TEST_SECRET", "")
	require.NoError(t, os.Unsetenv("REGULA_TEST_SECRET"))

	require.NoError(t, Load())
	assert.Equal(t, "from-file", os.Getenv("REGULA_TEST_VALUE"))
	assert.Equal(t, "hidden", os.Getenv("REGULA_TEST_SECRET"))
}

func TestLoadParams(t *testing.T) {
	out, err := LoadParams("")
	require.NoError(t, err)
	assert.Nil(t, out)

	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte("punish:\n  p4: 20\n  p2: 1\ndialogue:\n  p0: 4\n"), 0o600))

	out, err = LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 20.0, out["punish"]["p4"])
	assert.Equal(t, 1.0, out["punish"]["p2"])
	assert.Equal(t, 4.0, out["dialogue"]["p0"])

	_, err = LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("punish: [1, 2"), 0o600))
	_, err = LoadParams(bad)
	assert.Error(t, err)
}
