package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, DriverRod, s.Driver)
	assert.Equal(t, 10*time.Second, s.Timeout)
	assert.Equal(t, logger.Info, s.Level())
	assert.Equal(t, logger.AllInfoTypes, s.InfoTypes())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uitest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver: html
fixtures_dir: testdata/fixtures
timeout: 3s
retry_interval: 50ms
log_level: debug
log_info_types: [framework]
strict_search: true
`), 0o644))

	t.Setenv("UITEST_TIMEOUT", "7s")
	t.Setenv("UITEST_LOG_INFO_TYPES", "business,technical")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverHTML, s.Driver)
	assert.Equal(t, "testdata/fixtures", s.FixturesDir)
	assert.Equal(t, 7*time.Second, s.Timeout, "env overrides file")
	assert.Equal(t, 50*time.Millisecond, s.RetryInterval)
	assert.True(t, s.StrictSearch)
	assert.Equal(t, logger.Debug, s.Level())
	assert.Equal(t, logger.Business|logger.Technical, s.InfoTypes())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"UITEST_DRIVER":            "Selenium",
		"UITEST_REMOTE_URL":        "http://localhost:4444/wd/hub",
		"UITEST_HEADLESS":          "false",
		"UITEST_CHROMEDRIVER_PORT": "9999",
		"UITEST_RETRY_INTERVAL":    "250ms",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := Default()
	require.NoError(t, s.applyEnv(lookup))

	assert.Equal(t, DriverSelenium, s.Driver)
	assert.Equal(t, "http://localhost:4444/wd/hub", s.RemoteURL)
	assert.False(t, s.Headless)
	assert.Equal(t, 9999, s.ChromeDriverPort)
	assert.Equal(t, 250*time.Millisecond, s.RetryInterval)
	require.NoError(t, s.Validate())
}

func TestApplyEnv_BadValues(t *testing.T) {
	lookup := func(k string) (string, bool) {
		switch k {
		case "UITEST_HEADLESS":
			return "maybe", true
		case "UITEST_TIMEOUT":
			return "ten seconds", true
		}
		return "", false
	}

	s := Default()
	err := s.applyEnv(lookup)
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.ErrorContains(t, err, "UITEST_HEADLESS")
	assert.ErrorContains(t, err, "UITEST_TIMEOUT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		want   string
	}{
		{"unknown driver", func(s *Settings) { s.Driver = "webkit" }, `unknown driver "webkit"`},
		{"selenium without endpoint", func(s *Settings) { s.Driver = DriverSelenium }, "remote_url"},
		{"html without fixtures", func(s *Settings) { s.Driver = DriverHTML }, "fixtures_dir"},
		{"negative timeout", func(s *Settings) { s.Timeout = -time.Second }, "negative timeout"},
		{"zero interval", func(s *Settings) { s.RetryInterval = 0 }, "retry interval"},
		{"bad level", func(s *Settings) { s.LogLevel = "loud" }, "unknown log level"},
		{"bad info type", func(s *Settings) { s.LogInfoTypes = []string{"sales"} }, "unknown log info type"},
		{"bad format", func(s *Settings) { s.LogFormat = "xml" }, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := s.Validate()
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
