// Package element implements page objects: typed elements, composite
// widgets and the pages and sections that hold them. Elements resolve their
// locators lazily through a Site, polling until they appear.
package element

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
	"github.com/grez-lucas/uitest/internal/uitest/timer"
)

// Site ties page objects to a browser session.
type Site struct {
	Driver   driver.Driver
	Settings settings.Settings
	Log      *logger.Logger
	Assert   asserter.Asserter
}

// NewSite returns a site. A nil log discards output and a nil asserter
// reports failures as errors only.
func NewSite(d driver.Driver, s settings.Settings, log *logger.Logger, a asserter.Asserter) *Site {
	if log == nil {
		log = logger.Nop()
	}
	if a == nil {
		a = asserter.NewErrors(log)
	}
	return &Site{Driver: d, Settings: s, Log: log, Assert: a}
}

// Timer returns a timer with the configured timeout and retry interval.
func (s *Site) Timer() *timer.Timer {
	return timer.New(s.Settings.Timeout, s.Settings.RetryInterval)
}

// URL resolves path against the configured base URL.
func (s *Site) URL(path string) (string, error) {
	if s.Settings.BaseURL == "" {
		return path, nil
	}
	base, err := url.Parse(s.Settings.BaseURL)
	if err != nil {
		return "", fmt.Errorf("base url: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("page url %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

// Open navigates to path relative to the base URL.
func (s *Site) Open(ctx context.Context, path string) error {
	u, err := s.URL(path)
	if err != nil {
		return err
	}
	s.Log.Info("Open page %s", u)
	return s.Assert.SilentException(func() error {
		return s.Driver.Get(ctx, u)
	})
}
