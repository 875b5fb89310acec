// Package roddriver runs page objects on Chromium through the DevTools
// protocol with go-rod.
package roddriver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Config controls how the browser is started.
type Config struct {
	Headless bool
	// Stealth opens the page with go-rod/stealth evasions.
	Stealth bool
	// Bin is the browser binary; the launcher downloads one when empty.
	Bin string
	// ControlURL connects to a running browser instead of launching one.
	ControlURL string
}

type Driver struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	router   *rod.HijackRouter

	mu  sync.Mutex
	top *rod.Page
	cur *rod.Page // top or the frame selected by SwitchFrame

	humanTyping bool
	hijack      func(*rod.Hijack)
}

var _ driver.Driver = (*Driver)(nil)

type Option func(*Driver)

// WithHijacker routes every request of the page through h, e.g. a HAR
// replayer.
func WithHijacker(h func(*rod.Hijack)) Option {
	return func(d *Driver) {
		d.hijack = h
	}
}

// WithHumanTyping types with random delays between keystrokes.
func WithHumanTyping(enabled bool) Option {
	return func(d *Driver) {
		d.humanTyping = enabled
	}
}

// Open launches or connects to a browser and opens a blank page.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Driver, error) {
	d := &Driver{}
	for _, opt := range opts {
		opt(d)
	}

	controlURL := cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(cfg.Headless)
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		d.launcher = l
		controlURL = u
	}

	d.browser = rod.New().Context(ctx).ControlURL(controlURL)
	if err := d.browser.Connect(); err != nil {
		d.killLauncher()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	var (
		page *rod.Page
		err  error
	)
	if cfg.Stealth {
		page, err = stealth.Page(d.browser)
	} else {
		page, err = d.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = d.Quit()
		return nil, fmt.Errorf("open page: %w", err)
	}
	// Calls take their context per operation.
	d.top = page.Context(context.Background())
	d.cur = d.top

	if d.hijack != nil {
		d.router = d.top.HijackRequests()
		if err := d.router.Add("*", "", d.hijack); err != nil {
			_ = d.Quit()
			return nil, fmt.Errorf("add hijack route: %w", err)
		}
		go d.router.Run()
	}

	return d, nil
}

// Page returns the top-level page.
func (d *Driver) Page() *rod.Page { return d.top }

func (d *Driver) current(ctx context.Context) *rod.Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cur.Context(ctx)
}

func (d *Driver) FindElements(ctx context.Context, loc by.Locator) ([]driver.WebElement, error) {
	p := d.current(ctx)
	return d.find(loc, false, p.Elements, p.ElementsX)
}

func (d *Driver) Get(ctx context.Context, url string) error {
	d.resetFrame()
	p := d.top.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return p.WaitLoad()
}

func (d *Driver) Back(ctx context.Context) error {
	d.resetFrame()
	p := d.top.Context(ctx)
	if err := p.NavigateBack(); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *Driver) Refresh(ctx context.Context) error {
	d.resetFrame()
	p := d.top.Context(ctx)
	if err := p.Reload(); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	info, err := d.top.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.Title, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.top.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	return d.current(ctx).HTML()
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	return d.top.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (d *Driver) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	jsArgs := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *Element:
			jsArgs[i] = v.el.Object
		case driver.WebElement:
			return nil, fmt.Errorf("argument %d: %T is not a rod element", i, a)
		default:
			jsArgs[i] = a
		}
	}

	res, err := d.current(ctx).Evaluate(rod.Eval(WrapScript(script), jsArgs...))
	if err != nil {
		return nil, convert(err)
	}
	if res == nil {
		return nil, nil
	}
	return res.Value.Val(), nil
}

// WrapScript turns a WebDriver style script body, which reads its
// parameters from arguments[i], into a function expression.
func WrapScript(script string) string {
	return "function() {\n" + strings.TrimSpace(script) + "\n}"
}

func (d *Driver) SwitchFrame(ctx context.Context, frame driver.WebElement) error {
	if frame == nil {
		d.resetFrame()
		return nil
	}
	el, ok := frame.(*Element)
	if !ok {
		return fmt.Errorf("switch frame: %T is not a rod element", frame)
	}
	p, err := el.el.Context(ctx).Frame()
	if err != nil {
		return fmt.Errorf("switch frame: %w", convert(err))
	}

	d.mu.Lock()
	d.cur = p.Context(context.Background())
	d.mu.Unlock()
	return nil
}

func (d *Driver) Quit() error {
	var errs []error
	if d.router != nil {
		errs = append(errs, d.router.Stop())
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
	}
	d.killLauncher()
	return errors.Join(errs...)
}

func (d *Driver) resetFrame() {
	d.mu.Lock()
	d.cur = d.top
	d.mu.Unlock()
}

func (d *Driver) killLauncher() {
	if d.launcher != nil {
		d.launcher.Kill()
		d.launcher.Cleanup()
		d.launcher = nil
	}
}

// find runs a lookup with the CSS form of loc when it has one and XPath
// otherwise. scoped makes converted XPath relative to the search root.
func (d *Driver) find(loc by.Locator, scoped bool, css func(string) (rod.Elements, error), xpath func(string) (rod.Elements, error)) ([]driver.WebElement, error) {
	var (
		found rod.Elements
		err   error
	)
	if sel, ok := loc.CSS(); ok {
		found, err = css(sel)
	} else {
		expr, xerr := loc.XPath()
		if xerr != nil {
			return nil, xerr
		}
		if scoped && loc.Kind != by.XPath && strings.HasPrefix(expr, "/") {
			expr = "." + expr
		}
		found, err = xpath(expr)
	}
	if err != nil {
		if errors.Is(convert(err), driver.ErrNoSuchElement) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}

	out := make([]driver.WebElement, len(found))
	for i, el := range found {
		out[i] = &Element{d: d, el: el}
	}
	return out, nil
}

// convert maps rod and CDP errors onto the driver package sentinels.
func convert(err error) error {
	if err == nil {
		return nil
	}

	var (
		notFound   *rod.ElementNotFoundError
		notInter   *rod.NotInteractableError
		invisible  *rod.InvisibleShapeError
		covered    *rod.CoveredError
		objMissing *rod.ObjectNotFoundError
	)
	switch {
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", driver.ErrNoSuchElement, err)
	case errors.As(err, &notInter), errors.As(err, &invisible), errors.As(err, &covered):
		return fmt.Errorf("%w: %w", driver.ErrNotInteractable, err)
	case errors.As(err, &objMissing),
		strings.Contains(err.Error(), "Could not find node with given id"),
		strings.Contains(err.Error(), "Cannot find context with specified id"):
		return fmt.Errorf("%w: %w", driver.ErrStaleElement, err)
	}
	return err
}
