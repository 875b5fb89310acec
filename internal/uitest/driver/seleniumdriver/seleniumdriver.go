// Package seleniumdriver runs page objects on a WebDriver server through
// github.com/tebeka/selenium: a Selenium grid, or a local chromedriver the
// package starts itself.
package seleniumdriver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
	"github.com/tebeka/selenium/firefox"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Config selects the WebDriver endpoint and browser.
type Config struct {
	// RemoteURL is the WebDriver endpoint. When empty a chromedriver is
	// started from ChromeDriverPath on ChromeDriverPort.
	RemoteURL        string
	ChromeDriverPath string
	ChromeDriverPort int
	Browser          string // chrome or firefox
	Headless         bool
	// Args are extra browser command line arguments.
	Args []string
}

type Driver struct {
	wd      selenium.WebDriver
	service *selenium.Service
}

var _ driver.Driver = (*Driver)(nil)

// Open starts a WebDriver session.
func Open(ctx context.Context, cfg Config) (*Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := &Driver{}
	endpoint := cfg.RemoteURL
	if endpoint == "" {
		if cfg.ChromeDriverPath == "" {
			return nil, errors.New("selenium: remote url or chromedriver path required")
		}
		svc, err := selenium.NewChromeDriverService(cfg.ChromeDriverPath, cfg.ChromeDriverPort)
		if err != nil {
			return nil, fmt.Errorf("start chromedriver: %w", err)
		}
		d.service = svc
		endpoint = fmt.Sprintf("http://localhost:%d/wd/hub", cfg.ChromeDriverPort)
	}

	caps, err := Capabilities(cfg)
	if err != nil {
		d.stopService()
		return nil, err
	}

	wd, err := selenium.NewRemote(caps, endpoint)
	if err != nil {
		d.stopService()
		return nil, fmt.Errorf("new remote session at %s: %w", endpoint, err)
	}
	d.wd = wd
	return d, nil
}

// Wrap adapts an existing session.
func Wrap(wd selenium.WebDriver) *Driver {
	return &Driver{wd: wd}
}

// Capabilities builds the session capabilities for cfg.
func Capabilities(cfg Config) (selenium.Capabilities, error) {
	browser := strings.ToLower(cfg.Browser)
	if browser == "" {
		browser = "chrome"
	}

	caps := selenium.Capabilities{"browserName": browser}
	args := append([]string(nil), cfg.Args...)

	switch browser {
	case "chrome":
		if cfg.Headless {
			args = append(args, "--headless=new", "--disable-gpu", "--no-sandbox")
		}
		caps.AddChrome(chrome.Capabilities{Args: args})
	case "firefox":
		if cfg.Headless {
			args = append(args, "-headless")
		}
		caps.AddFirefox(firefox.Capabilities{Args: args})
	default:
		return nil, fmt.Errorf("selenium: unsupported browser %q", cfg.Browser)
	}
	return caps, nil
}

// Strategy maps a locator to a WebDriver lookup strategy and value.
func Strategy(loc by.Locator) (string, string, error) {
	switch loc.Kind {
	case by.ID:
		return selenium.ByID, loc.Value, nil
	case by.CSS:
		return selenium.ByCSSSelector, loc.Value, nil
	case by.XPath:
		return selenium.ByXPATH, loc.Value, nil
	case by.Name:
		return selenium.ByName, loc.Value, nil
	case by.TagName:
		return selenium.ByTagName, loc.Value, nil
	case by.ClassName:
		return selenium.ByClassName, loc.Value, nil
	case by.LinkText:
		return selenium.ByLinkText, loc.Value, nil
	case by.PartialLinkText:
		return selenium.ByPartialLinkText, loc.Value, nil
	}
	return "", "", fmt.Errorf("locator kind %q: %w", loc.Kind, driver.ErrUnsupported)
}

// WebDriver exposes the underlying session.
func (d *Driver) WebDriver() selenium.WebDriver { return d.wd }

func (d *Driver) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	return findElements(ctx, d.wd.FindElements, loc)
}

func (d *Driver) Get(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(d.wd.Get(url))
}

func (d *Driver) Back(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(d.wd.Back())
}

func (d *Driver) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return convert(d.wd.Refresh())
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := d.wd.Title()
	return s, convert(err)
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := d.wd.CurrentURL()
	return s, convert(err)
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s, err := d.wd.PageSource()
	return s, convert(err)
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := d.wd.Screenshot()
	return b, convert(err)
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	native, err := unwrapArgs(args)
	if err != nil {
		return nil, err
	}
	v, err := d.wd.ExecuteScript(script, native)
	return v, convert(err)
}

func (d *Driver) SwitchFrame(ctx context.Context, frame driver.WebElement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if frame == nil {
		return convert(d.wd.SwitchFrame(nil))
	}
	el, ok := frame.(*Element)
	if !ok {
		return fmt.Errorf("switch frame: %T is not a selenium element", frame)
	}
	return convert(d.wd.SwitchFrame(el.we))
}

func (d *Driver) Quit() error {
	var err error
	if d.wd != nil {
		err = d.wd.Quit()
	}
	return errors.Join(err, d.stopService())
}

func (d *Driver) stopService() error {
	if d.service == nil {
		return nil
	}
	err := d.service.Stop()
	d.service = nil
	return err
}

func unwrapArgs(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *Element:
			out[i] = v.we
		case driver.WebElement:
			return nil, fmt.Errorf("argument %d: %T is not a selenium element", i, a)
		default:
			out[i] = a
		}
	}
	return out, nil
}

func findElements(ctx context.Context, find func(by, value string) ([]selenium.WebElement, error), loc by.Locator) ([]driver.WebElement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	strategy, value, err := Strategy(loc)
	if err != nil {
		return nil, err
	}
	found, err := find(strategy, value)
	if err = convert(err); err != nil {
		if errors.Is(err, driver.ErrNoSuchElement) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	out := make([]driver.WebElement, len(found))
	for i, we := range found {
		out[i] = &Element{we: we}
	}
	return out, nil
}

// convert maps WebDriver error codes onto the driver package sentinels.
// Server errors only carry their code in the message text.
func convert(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such element"):
		return fmt.Errorf("%w: %w", driver.ErrNoSuchElement, err)
	case strings.Contains(msg, "stale element reference"):
		return fmt.Errorf("%w: %w", driver.ErrStaleElement, err)
	case strings.Contains(msg, "element not interactable"),
		strings.Contains(msg, "element not visible"),
		strings.Contains(msg, "element click intercepted"),
		strings.Contains(msg, "invalid element state"):
		return fmt.Errorf("%w: %w", driver.ErrNotInteractable, err)
	}
	return err
}
