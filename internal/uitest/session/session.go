// Package session builds a ready-to-use Site from settings: logger,
// asserter and the configured browser driver.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/driver/htmldriver"
	"github.com/grez-lucas/uitest/internal/uitest/driver/roddriver"
	"github.com/grez-lucas/uitest/internal/uitest/driver/seleniumdriver"
	"github.com/grez-lucas/uitest/internal/uitest/element"
	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
)

// CloseFunc quits the driver and flushes the logger.
type CloseFunc func() error

// TB is the part of testing.TB a test session needs.
type TB interface {
	require.TestingT
	Helper()
	Cleanup(func())
}

// Open validates s and starts a session on the configured driver. Every
// log line carries the run_id of the session.
func Open(ctx context.Context, s settings.Settings) (*element.Site, CloseFunc, error) {
	return open(ctx, s, func(log *logger.Logger, hooks ...asserter.FailureHook) asserter.Asserter {
		return asserter.NewErrors(log, hooks...)
	})
}

// OpenForTest is Open for use inside a test: every reported failure also
// fails t, and the session is closed when t ends.
func OpenForTest(t TB, s settings.Settings) *element.Site {
	t.Helper()
	site, closeFn, err := open(context.Background(), s, func(log *logger.Logger, hooks ...asserter.FailureHook) asserter.Asserter {
		return asserter.NewTesting(t, log, hooks...)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })
	return site
}

type asserterFunc func(log *logger.Logger, hooks ...asserter.FailureHook) asserter.Asserter

func open(ctx context.Context, s settings.Settings, newAsserter asserterFunc) (*element.Site, CloseFunc, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := NewLogger(s)
	if err != nil {
		return nil, nil, err
	}
	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	d, err := OpenDriver(ctx, s)
	if err != nil {
		_ = log.Sync()
		return nil, nil, err
	}
	log.Init("Session %s started on %s driver", runID, s.Driver)

	var hooks []asserter.FailureHook
	if s.ScreenshotDir != "" {
		hooks = append(hooks, ScreenshotOnFailure(d, s.ScreenshotDir, runID, log))
	}
	a := newAsserter(log, hooks...)

	site := element.NewSite(d, s, log, a)
	closeFn := func() error {
		log.Init("Session %s closed", runID)
		// Sync on a console logger fails on some terminals.
		_ = log.Sync()
		return d.Quit()
	}
	return site, closeFn, nil
}

// NewLogger builds the framework logger for s.
func NewLogger(s settings.Settings) (*logger.Logger, error) {
	var (
		log *logger.Logger
		err error
	)
	if s.LogFormat == "json" {
		log, err = logger.NewProduction(s.Level())
	} else {
		log, err = logger.NewDevelopment(s.Level())
	}
	if err != nil {
		return nil, err
	}
	return log.SetInfoTypes(s.InfoTypes()), nil
}

// OpenDriver starts the backend named by s.Driver.
func OpenDriver(ctx context.Context, s settings.Settings) (driver.Driver, error) {
	switch s.Driver {
	case settings.DriverRod:
		d, err := roddriver.Open(ctx, roddriver.Config{
			Headless:   s.Headless,
			Stealth:    s.Stealth,
			ControlURL: s.RemoteURL,
		})
		if err != nil {
			return nil, fmt.Errorf("open rod driver: %w", err)
		}
		return d, nil

	case settings.DriverSelenium:
		d, err := seleniumdriver.Open(ctx, seleniumdriver.Config{
			RemoteURL:        s.RemoteURL,
			ChromeDriverPath: s.ChromeDriverPath,
			ChromeDriverPort: s.ChromeDriverPort,
			Browser:          s.Browser,
			Headless:         s.Headless,
		})
		if err != nil {
			return nil, fmt.Errorf("open selenium driver: %w", err)
		}
		return d, nil

	case settings.DriverHTML:
		info, err := os.Stat(s.FixturesDir)
		if err != nil {
			return nil, fmt.Errorf("open html driver: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("open html driver: %s is not a directory", s.FixturesDir)
		}
		return htmldriver.New(htmldriver.WithFS(os.DirFS(s.FixturesDir), s.BaseURL)), nil
	}
	return nil, fmt.Errorf("%w: unknown driver %q", settings.ErrInvalidSettings, s.Driver)
}

// ScreenshotOnFailure saves a screenshot into dir for every reported
// failure. Drivers that cannot take screenshots are skipped silently.
func ScreenshotOnFailure(d driver.Driver, dir, runID string, log *logger.Logger) asserter.FailureHook {
	return func(*asserter.AssertionError) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		png, err := d.Screenshot(ctx)
		if errors.Is(err, driver.ErrUnsupported) {
			return
		}
		if err != nil {
			log.Warning(logger.Technical, "take failure screenshot: %v", err)
			return
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warning(logger.Technical, "create screenshot dir: %v", err)
			return
		}
		name := filepath.Join(dir, fmt.Sprintf("%s-%s.png", time.Now().Format("20060102-150405.000"), runID))
		if err := os.WriteFile(name, png, 0o644); err != nil {
			log.Warning(logger.Technical, "save failure screenshot: %v", err)
			return
		}
		log.Info("Failure screenshot saved to %s", name)
	}
}
