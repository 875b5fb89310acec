package element

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/timer"
)

// Base holds what every page object shares: a name for logs, a locator,
// the locators of the sections around it and the site it runs on.
type Base struct {
	name    string
	locator by.Locator
	context []by.Locator
	site    *Site
	timeout time.Duration // 0 uses the site timeout
}

// binder is implemented by every type embedding Base.
type binder interface {
	base() *Base
}

func (b *Base) base() *Base { return b }

func (b *Base) bind(site *Site, name string, loc by.Locator, ctx []by.Locator) {
	b.site = site
	b.name = name
	b.locator = loc
	b.context = append([]by.Locator(nil), ctx...)
}

func (b *Base) Name() string          { return b.name }
func (b *Base) Locator() by.Locator   { return b.locator }
func (b *Base) Context() []by.Locator { return append([]by.Locator(nil), b.context...) }
func (b *Base) Site() *Site           { return b.site }

func (b *Base) String() string {
	if b.locator.IsZero() {
		return b.name
	}
	return fmt.Sprintf("%s (%s)", b.name, b.locator)
}

// SetContext sets the section locators searched, outermost first, before
// the element's own locator.
func (b *Base) SetContext(locs ...by.Locator) {
	b.context = append([]by.Locator(nil), locs...)
}

// SetTimeout overrides the site timeout for this element's waits.
func (b *Base) SetTimeout(d time.Duration) {
	b.timeout = d
}

func (b *Base) timer() *timer.Timer {
	t := b.site.Timer()
	if b.timeout > 0 {
		t = t.WithTimeout(b.timeout)
	}
	return t
}

// scoped reports whether lookups start below the document.
func (b *Base) scoped() bool { return len(b.context) > 0 }

// searchRoot resolves the context chain. Each context locator must match
// exactly one element.
func (b *Base) searchRoot(ctx context.Context) (driver.SearchContext, error) {
	var root driver.SearchContext = b.site.Driver
	for _, loc := range b.context {
		els, err := root.FindElements(ctx, loc)
		if err != nil {
			return nil, err
		}
		if len(els) != 1 {
			return nil, &contextCountError{n: len(els)}
		}
		root = els[0]
	}
	return root, nil
}

// lookup resolves the context chain and the locator once.
func (b *Base) lookup(ctx context.Context) ([]driver.WebElement, error) {
	root, err := b.searchRoot(ctx)
	if err != nil {
		return nil, err
	}
	return root.FindElements(ctx, b.locator)
}

// poll waits for at least one match. Running out of time without a match
// yields no elements and the last lookup error, if any, which may be a
// *contextCountError.
func (b *Base) poll(ctx context.Context, t *timer.Timer) ([]driver.WebElement, error) {
	if b.locator.IsZero() {
		return nil, b.fail("find", fmt.Errorf("%w: no locator", ErrNotConfigured))
	}
	if b.site.Settings.LogFindElementLocator {
		b.site.Log.Debug("Get Web Elements '%s'", b.locator)
	}

	var lastErr error
	els, err := timer.Result(ctx, t,
		func(ctx context.Context) ([]driver.WebElement, error) {
			found, err := b.lookup(ctx)
			lastErr = err
			return found, err
		},
		func(els []driver.WebElement) bool { return len(els) > 0 },
	)
	if err == nil {
		return els, nil
	}
	if !errors.Is(err, timer.ErrTimeout) {
		return nil, err
	}

	var count *contextCountError
	switch {
	case lastErr == nil:
		return nil, nil
	case errors.As(lastErr, &count):
		return nil, lastErr
	}
	return nil, b.fail("find", lastErr)
}

// findAll is poll with an unresolved context chain reported through the
// asserter.
func (b *Base) findAll(ctx context.Context, t *timer.Timer) ([]driver.WebElement, error) {
	els, err := b.poll(ctx, t)
	var count *contextCountError
	if errors.As(err, &count) {
		return nil, b.site.Assert.Exception("%s", count.Error())
	}
	return els, err
}

// first returns the element the locator designates. With StrictSearch set
// more than one match is an error.
func (b *Base) first(ctx context.Context) (driver.WebElement, error) {
	els, err := b.findAll(ctx, b.timer())
	if err != nil {
		return nil, err
	}
	switch {
	case len(els) == 0:
		return nil, b.fail("find", fmt.Errorf("%w: %s", ErrNotFound, b.locator))
	case len(els) > 1 && b.site.Settings.StrictSearch:
		return nil, b.fail("find", fmt.Errorf("%w: found %d", ErrAmbiguous, len(els)))
	}
	return els[0], nil
}

// probe looks the locator up once, without waiting and without reporting
// to the asserter. It runs inside polls, which report on timeout.
func (b *Base) probe(ctx context.Context) ([]driver.WebElement, error) {
	if b.locator.IsZero() {
		return nil, b.fail("find", fmt.Errorf("%w: no locator", ErrNotConfigured))
	}
	els, err := b.lookup(ctx)
	if err != nil {
		return nil, b.fail("find", err)
	}
	return els, nil
}

// probePresent is probe with an absent section counted as no match.
func (b *Base) probePresent(ctx context.Context) ([]driver.WebElement, error) {
	els, err := b.probe(ctx)
	if sectionMissing(err) {
		return nil, nil
	}
	return els, err
}

// sectionMissing reports whether err says a context locator matched
// nothing.
func sectionMissing(err error) bool {
	var count *contextCountError
	return errors.As(err, &count) && count.n == 0
}

func (b *Base) fail(op string, err error) error {
	return &Error{Element: b.String(), Op: op, Cause: err}
}

// do logs a user action and reports its failure through the asserter.
func (b *Base) do(ctx context.Context, action string, fn func(context.Context) error) error {
	b.logAction(action)
	return b.site.Assert.SilentException(func() error {
		err := fn(ctx)
		var (
			elErr     *Error
			assertErr *asserter.AssertionError
		)
		if err == nil || errors.As(err, &elErr) || errors.As(err, &assertErr) {
			return err
		}
		return b.fail(action, err)
	})
}

// invoke is do for actions that return a value.
func invoke[T any](ctx context.Context, b *Base, action string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := b.do(ctx, action, func(ctx context.Context) error {
		v, err := fn(ctx)
		out = v
		return err
	})
	return out, err
}

func (b *Base) logAction(action string) {
	b.site.Log.Info("%s for %s", capitalize(action), b)
}

// child returns an element sharing b's site and context.
func (b *Base) child(name string, loc by.Locator) *Element {
	e := &Element{}
	e.bind(b.site, name, loc, b.context)
	e.timeout = b.timeout
	return e
}

func (b *Base) children(name string, loc by.Locator) *Elements {
	e := &Elements{}
	e.bind(b.site, name, loc, b.context)
	e.timeout = b.timeout
	return e
}

// nth returns a locator for the i-th match of b's locator, relative to the
// search root when b has a context.
func (b *Base) nth(i int, tag string) (by.Locator, error) {
	loc := b.locator
	if b.scoped() && loc.Kind != by.XPath {
		x, err := loc.XPath()
		if err != nil {
			return by.Locator{}, err
		}
		if strings.HasPrefix(x, "/") {
			x = "." + x
		}
		loc = by.NewXPath(x)
	}
	if tag != "" {
		return loc.NthByTag(i, tag)
	}
	return loc.Nth(i)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fieldName turns a Go field name into words: "SubmitButton" becomes
// "Submit Button" and "URLField" becomes "URL Field".
func fieldName(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && isUpper(r) {
			prevLower := !isUpper(runes[i-1])
			nextLower := i+1 < len(runes) && !isUpper(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
