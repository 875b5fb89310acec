package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver/htmldriver"
	"github.com/grez-lucas/uitest/internal/uitest/element"
	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
)

func htmlSettings(t *testing.T) settings.Settings {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"),
		[]byte(`<title>Home</title><p id="hello">hello</p>`), 0o644))

	s := settings.Default()
	s.Driver = settings.DriverHTML
	s.FixturesDir = dir
	s.BaseURL = "https://fixtures.test/"
	s.LogLevel = "off"
	s.Timeout = 50 * time.Millisecond
	return s
}

func TestOpen_HTMLDriver(t *testing.T) {
	ctx := context.Background()
	site, closeFn, err := Open(ctx, htmlSettings(t))
	require.NoError(t, err)

	require.NoError(t, site.Open(ctx, "/"))
	text, err := element.NewElement(site, "Hello", by.NewID("hello")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	require.NoError(t, closeFn())
	assert.Error(t, site.Open(ctx, "/"), "driver is closed")
}

// recordingT stands in for the test an OpenForTest session reports to.
type recordingT struct {
	failures []string
	cleanups []func()
}

func (r *recordingT) Errorf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}
func (r *recordingT) FailNow()          {}
func (r *recordingT) Helper()           {}
func (r *recordingT) Cleanup(fn func()) { r.cleanups = append(r.cleanups, fn) }

func TestOpenForTest(t *testing.T) {
	ctx := context.Background()
	rec := &recordingT{}
	site := OpenForTest(rec, htmlSettings(t))
	require.Empty(t, rec.failures)
	require.Len(t, rec.cleanups, 1)

	require.NoError(t, site.Open(ctx, "/"))
	text, err := element.NewElement(site, "Hello", by.NewID("hello")).Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = element.NewElement(site, "Missing", by.NewID("missing")).Text(ctx)
	assert.ErrorIs(t, err, asserter.ErrAssertion)
	require.Len(t, rec.failures, 1)
	assert.Contains(t, rec.failures[0], "Missing")

	rec.cleanups[0]()
	assert.Error(t, site.Open(ctx, "/"), "driver is closed on cleanup")
}

func TestOpen_InvalidSettings(t *testing.T) {
	s := htmlSettings(t)
	s.Driver = "netscape"
	_, _, err := Open(context.Background(), s)
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)

	s = htmlSettings(t)
	s.FixturesDir = filepath.Join(s.FixturesDir, "missing")
	_, _, err = Open(context.Background(), s)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewLogger(t *testing.T) {
	s := settings.Default()
	s.LogLevel = "debug"
	s.LogInfoTypes = []string{"technical"}
	s.LogFormat = "json"

	log, err := NewLogger(s)
	require.NoError(t, err)
	assert.Equal(t, logger.Debug, log.Level())
	assert.Equal(t, logger.Technical, log.InfoTypes())
}

type screenshotDriver struct {
	*htmldriver.Driver
	png []byte
	err error
}

func (d *screenshotDriver) Screenshot(context.Context) ([]byte, error) {
	return d.png, d.err
}

func TestScreenshotOnFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core), logger.All)

	d := &screenshotDriver{Driver: htmldriver.New(), png: []byte("png")}
	a := asserter.NewErrors(log, ScreenshotOnFailure(d, dir, "run-1", log))

	_ = a.Exception("boom")
	files, err := filepath.Glob(filepath.Join(dir, "*-run-1.png"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	d.err = errors.New("browser gone")
	_ = a.Exception("boom again")
	assert.Equal(t, 1, logs.FilterMessage("take failure screenshot: browser gone").Len())
}

func TestScreenshotOnFailure_Unsupported(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	log := logger.Nop()
	a := asserter.NewErrors(log, ScreenshotOnFailure(htmldriver.New(), dir, "run-2", log))

	_ = a.Exception("boom")
	_, err := os.Stat(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
