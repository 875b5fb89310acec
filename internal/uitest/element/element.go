package element

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Element is a single element on a page.
type Element struct {
	Base
}

func NewElement(site *Site, name string, loc by.Locator) *Element {
	e := &Element{}
	e.bind(site, name, loc, nil)
	return e
}

// WebElement returns the first element the locator matches, waiting for it
// to appear.
func (e *Element) WebElement(ctx context.Context) (driver.WebElement, error) {
	return e.first(ctx)
}

func (e *Element) Click(ctx context.Context) error {
	return e.do(ctx, "click", func(ctx context.Context) error {
		el, err := e.first(ctx)
		if err != nil {
			return err
		}
		return el.Click(ctx)
	})
}

// ClickJS clicks through a script, which reaches elements covered by others.
func (e *Element) ClickJS(ctx context.Context) error {
	return e.do(ctx, "click with JS", func(ctx context.Context) error {
		el, err := e.first(ctx)
		if err != nil {
			return err
		}
		_, err = e.site.Driver.ExecuteScript(ctx, driver.ScriptClick, el)
		return err
	})
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return invoke(ctx, &e.Base, "get text", func(ctx context.Context) (string, error) {
		el, err := e.first(ctx)
		if err != nil {
			return "", err
		}
		return el.Text(ctx)
	})
}

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	return invoke(ctx, &e.Base, fmt.Sprintf("get attribute '%s'", name), func(ctx context.Context) (string, error) {
		el, err := e.first(ctx)
		if err != nil {
			return "", err
		}
		return el.Attribute(ctx, name)
	})
}

// SetAttribute changes an attribute through a script, or natively when
// the driver runs no scripts.
func (e *Element) SetAttribute(ctx context.Context, name, value string) error {
	return e.do(ctx, fmt.Sprintf("set attribute '%s'='%s'", name, value), func(ctx context.Context) error {
		el, err := e.first(ctx)
		if err != nil {
			return err
		}
		_, err = e.site.Driver.ExecuteScript(ctx, driver.ScriptSetAttribute, el, name, value)
		if errors.Is(err, driver.ErrUnsupported) {
			if setter, ok := el.(driver.AttributeSetter); ok {
				return setter.SetAttribute(ctx, name, value)
			}
		}
		return err
	})
}

// IsDisplayed checks once, without waiting. A missing element is not
// displayed.
func (e *Element) IsDisplayed(ctx context.Context) (bool, error) {
	els, err := e.probePresent(ctx)
	if err != nil || len(els) == 0 {
		return false, err
	}
	return els[0].IsDisplayed(ctx)
}

// IsExists checks once, without waiting, whether the locator matches.
func (e *Element) IsExists(ctx context.Context) (bool, error) {
	els, err := e.probePresent(ctx)
	return len(els) > 0, err
}

// Wait polls cond against the element until it holds.
func (e *Element) Wait(ctx context.Context, cond func(context.Context, driver.WebElement) (bool, error)) error {
	return e.do(ctx, "wait", func(ctx context.Context) error {
		return e.waitFor(ctx, cond)
	})
}

func (e *Element) WaitDisplayed(ctx context.Context) error {
	return e.do(ctx, "wait displayed", func(ctx context.Context) error {
		return e.waitFor(ctx, func(ctx context.Context, el driver.WebElement) (bool, error) {
			return el.IsDisplayed(ctx)
		})
	})
}

// WaitVanished waits until the element is hidden or gone, or a section
// around it is gone.
func (e *Element) WaitVanished(ctx context.Context) error {
	return e.do(ctx, "wait vanished", func(ctx context.Context) error {
		return e.timer().Wait(ctx, func(ctx context.Context) (bool, error) {
			els, err := e.probePresent(ctx)
			if err != nil {
				return false, err
			}
			for _, el := range els {
				shown, err := el.IsDisplayed(ctx)
				if errors.Is(err, driver.ErrStaleElement) {
					continue
				}
				if err != nil || shown {
					return false, err
				}
			}
			return true, nil
		})
	})
}

// WaitText waits until the element text contains text and returns it.
func (e *Element) WaitText(ctx context.Context, text string) (string, error) {
	return e.waitTextMatch(ctx, fmt.Sprintf("wait text '%s'", text), func(s string) bool {
		return strings.Contains(s, text)
	})
}

// WaitMatchText waits until the element text matches pattern and returns
// it.
func (e *Element) WaitMatchText(ctx context.Context, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", e.site.Assert.SilentException(func() error { return e.fail("wait match text", err) })
	}
	return e.waitTextMatch(ctx, fmt.Sprintf("wait text matches '%s'", pattern), re.MatchString)
}

func (e *Element) WaitAttribute(ctx context.Context, name, value string) error {
	return e.do(ctx, fmt.Sprintf("wait attribute '%s'='%s'", name, value), func(ctx context.Context) error {
		return e.waitFor(ctx, func(ctx context.Context, el driver.WebElement) (bool, error) {
			v, err := el.Attribute(ctx, name)
			return v == value, err
		})
	})
}

// Focus moves the pointer to the centre of the element.
func (e *Element) Focus(ctx context.Context) error {
	return e.do(ctx, "focus", func(ctx context.Context) error {
		el, err := e.first(ctx)
		if err != nil {
			return err
		}
		return focus(ctx, el)
	})
}

func (e *Element) MouseOver(ctx context.Context) error {
	return e.do(ctx, "mouse over", func(ctx context.Context) error {
		el, err := e.first(ctx)
		if err != nil {
			return err
		}
		return el.MoveTo(ctx, 0, 0)
	})
}

func (e *Element) waitTextMatch(ctx context.Context, action string, match func(string) bool) (string, error) {
	return invoke(ctx, &e.Base, action, func(ctx context.Context) (string, error) {
		var text string
		err := e.waitFor(ctx, func(ctx context.Context, el driver.WebElement) (bool, error) {
			t, err := el.Text(ctx)
			text = t
			return err == nil && match(t), err
		})
		return text, err
	})
}

// waitFor polls cond on a fresh lookup each attempt, so the element may
// appear or be re-rendered while waiting.
func (e *Element) waitFor(ctx context.Context, cond func(context.Context, driver.WebElement) (bool, error)) error {
	return e.timer().Wait(ctx, func(ctx context.Context) (bool, error) {
		els, err := e.probe(ctx)
		if err != nil {
			return false, err
		}
		if len(els) == 0 {
			return false, fmt.Errorf("%w: %s", ErrNotFound, e.locator)
		}
		return cond(ctx, els[0])
	})
}

func focus(ctx context.Context, el driver.WebElement) error {
	size, err := el.Size(ctx)
	if err != nil {
		return err
	}
	return el.MoveTo(ctx, size.Width/2, size.Height/2)
}
