package element

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Dropdown is a Selector whose options show after clicking an expand
// element. Without an expand locator it drives a native <select>.
type Dropdown struct {
	Selector
	expand by.Locator
}

func NewDropdown(site *Site, name string, options, expand by.Locator) *Dropdown {
	d := &Dropdown{expand: expand}
	d.bind(site, name, options, nil)
	return d
}

// SetExpand sets the locator of the element that opens the list.
func (d *Dropdown) SetExpand(loc by.Locator) {
	d.expand = loc
}

func (d *Dropdown) Select(ctx context.Context, name string) error {
	return d.do(ctx, fmt.Sprintf("select '%s'", name), func(ctx context.Context) error {
		if err := d.expandFor(ctx, func(ctx context.Context) (bool, error) {
			return d.optionDisplayed(ctx, name)
		}); err != nil {
			return err
		}
		return d.selectName(ctx, name)
	})
}

func (d *Dropdown) SelectOption(ctx context.Context, o fmt.Stringer) error {
	return d.Select(ctx, o.String())
}

func (d *Dropdown) SelectIndex(ctx context.Context, i int) error {
	return d.do(ctx, fmt.Sprintf("select option %d", i), func(ctx context.Context) error {
		if err := d.expandFor(ctx, func(ctx context.Context) (bool, error) {
			return d.indexDisplayed(ctx, i)
		}); err != nil {
			return err
		}
		return d.selectIndex(ctx, i)
	})
}

// Text returns the value shown by the dropdown.
func (d *Dropdown) Text(ctx context.Context) (string, error) {
	if d.expand.IsZero() {
		return d.Selected(ctx)
	}
	return d.element().Attribute(ctx, "value")
}

// IsSelected reports whether the dropdown shows name.
func (d *Dropdown) IsSelected(ctx context.Context, name string) (bool, error) {
	if d.expand.IsZero() {
		return d.Selector.IsSelected(ctx, name)
	}
	text, err := d.Text(ctx)
	return text == name, err
}

func (d *Dropdown) WaitDisplayed(ctx context.Context) error {
	return d.element().WaitDisplayed(ctx)
}

func (d *Dropdown) WaitVanished(ctx context.Context) error {
	return d.element().WaitVanished(ctx)
}

func (d *Dropdown) Wait(ctx context.Context, cond func(context.Context, driver.WebElement) (bool, error)) error {
	return d.element().Wait(ctx, cond)
}

// WaitText waits until the shown value contains text.
func (d *Dropdown) WaitText(ctx context.Context, text string) (string, error) {
	if d.expand.IsZero() {
		return d.element().WaitText(ctx, text)
	}
	return d.waitValue(ctx, fmt.Sprintf("wait text '%s'", text), func(v string) bool {
		return strings.Contains(v, text)
	})
}

func (d *Dropdown) WaitMatchText(ctx context.Context, pattern string) (string, error) {
	if d.expand.IsZero() {
		return d.element().WaitMatchText(ctx, pattern)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", d.site.Assert.SilentException(func() error { return d.fail("wait match text", err) })
	}
	return d.waitValue(ctx, fmt.Sprintf("wait text matches '%s'", pattern), re.MatchString)
}

func (d *Dropdown) Attribute(ctx context.Context, name string) (string, error) {
	return d.element().Attribute(ctx, name)
}

func (d *Dropdown) SetAttribute(ctx context.Context, name, value string) error {
	return d.element().SetAttribute(ctx, name, value)
}

func (d *Dropdown) WaitAttribute(ctx context.Context, name, value string) error {
	return d.element().WaitAttribute(ctx, name, value)
}

// element is the expand element, or the <select> itself.
func (d *Dropdown) element() *Element {
	if d.expand.IsZero() {
		return d.child(d.name, d.locator)
	}
	return d.child(d.name+" expand", d.expand)
}

// waitValue polls the expand element's value until match accepts it.
func (d *Dropdown) waitValue(ctx context.Context, action string, match func(string) bool) (string, error) {
	e := d.element()
	return invoke(ctx, &e.Base, action, func(ctx context.Context) (string, error) {
		var value string
		err := e.waitFor(ctx, func(ctx context.Context, el driver.WebElement) (bool, error) {
			v, err := el.Attribute(ctx, "value")
			value = v
			return err == nil && match(v), err
		})
		return value, err
	})
}

// expandFor clicks the expand element unless visible reports the wanted
// option is already shown.
func (d *Dropdown) expandFor(ctx context.Context, visible func(context.Context) (bool, error)) error {
	if d.expand.IsZero() {
		return nil
	}
	shown, err := visible(ctx)
	if err != nil || shown {
		return err
	}
	return d.element().Click(ctx)
}

func (d *Dropdown) optionDisplayed(ctx context.Context, name string) (bool, error) {
	if d.locator.IsTemplate() {
		return d.option(name).IsDisplayed(ctx)
	}
	els, err := d.optionProbe(ctx)
	if err != nil {
		return false, err
	}
	i, err := indexWhere(ctx, els, textEquals(name))
	if err != nil || i < 0 {
		return false, err
	}
	return els[i].IsDisplayed(ctx)
}

func (d *Dropdown) indexDisplayed(ctx context.Context, i int) (bool, error) {
	els, err := d.optionProbe(ctx)
	if err != nil || i < 0 || i >= len(els) {
		return false, err
	}
	return els[i].IsDisplayed(ctx)
}

// optionProbe lists the options once, without waiting.
func (d *Dropdown) optionProbe(ctx context.Context) ([]driver.WebElement, error) {
	if !d.all.IsZero() {
		return d.children(d.name+" options", d.all).probePresent(ctx)
	}
	if d.locator.IsTemplate() {
		return nil, nil
	}
	return d.probePresent(ctx)
}
