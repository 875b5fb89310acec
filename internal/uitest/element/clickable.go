package element

import (
	"context"
	"fmt"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
)

// Clickable is an element whose main action is a click.
type Clickable struct {
	Element
}

func NewClickable(site *Site, name string, loc by.Locator) *Clickable {
	c := &Clickable{}
	c.bind(site, name, loc, nil)
	return c
}

type Button struct {
	Clickable
}

func NewButton(site *Site, name string, loc by.Locator) *Button {
	b := &Button{}
	b.bind(site, name, loc, nil)
	return b
}

type Link struct {
	Clickable
}

func NewLink(site *Site, name string, loc by.Locator) *Link {
	l := &Link{}
	l.bind(site, name, loc, nil)
	return l
}

// Reference returns the link target.
func (l *Link) Reference(ctx context.Context) (string, error) {
	return invoke(ctx, &l.Base, "get reference", func(ctx context.Context) (string, error) {
		el, err := l.first(ctx)
		if err != nil {
			return "", err
		}
		return el.Attribute(ctx, "href")
	})
}

// TextField is a text input or textarea.
type TextField struct {
	Element
}

func NewTextField(site *Site, name string, loc by.Locator) *TextField {
	f := &TextField{}
	f.bind(site, name, loc, nil)
	return f
}

// Input types text after whatever the field already holds.
func (f *TextField) Input(ctx context.Context, text string) error {
	return f.do(ctx, fmt.Sprintf("input '%s'", text), func(ctx context.Context) error {
		el, err := f.first(ctx)
		if err != nil {
			return err
		}
		return el.SendKeys(ctx, text)
	})
}

// NewInput replaces the field content with text.
func (f *TextField) NewInput(ctx context.Context, text string) error {
	return f.do(ctx, fmt.Sprintf("new input '%s'", text), func(ctx context.Context) error {
		el, err := f.first(ctx)
		if err != nil {
			return err
		}
		if err := el.Clear(ctx); err != nil {
			return err
		}
		return el.SendKeys(ctx, text)
	})
}

func (f *TextField) Clear(ctx context.Context) error {
	return f.do(ctx, "clear", func(ctx context.Context) error {
		el, err := f.first(ctx)
		if err != nil {
			return err
		}
		return el.Clear(ctx)
	})
}

// Value returns the current content of the field.
func (f *TextField) Value(ctx context.Context) (string, error) {
	return invoke(ctx, &f.Base, "get value", func(ctx context.Context) (string, error) {
		el, err := f.first(ctx)
		if err != nil {
			return "", err
		}
		return el.Attribute(ctx, "value")
	})
}

type CheckBox struct {
	Clickable
}

func NewCheckBox(site *Site, name string, loc by.Locator) *CheckBox {
	c := &CheckBox{}
	c.bind(site, name, loc, nil)
	return c
}

func (c *CheckBox) Check(ctx context.Context) error {
	return c.set(ctx, "check", true)
}

func (c *CheckBox) Uncheck(ctx context.Context) error {
	return c.set(ctx, "uncheck", false)
}

func (c *CheckBox) IsChecked(ctx context.Context) (bool, error) {
	return invoke(ctx, &c.Base, "is checked", func(ctx context.Context) (bool, error) {
		el, err := c.first(ctx)
		if err != nil {
			return false, err
		}
		return el.IsSelected(ctx)
	})
}

// SetValue checks or unchecks from a word: true, 1, check, checked and on
// check; false, 0, uncheck, unchecked and off uncheck.
func (c *CheckBox) SetValue(ctx context.Context, value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "check", "checked", "on":
		return c.Check(ctx)
	case "false", "0", "uncheck", "unchecked", "off":
		return c.Uncheck(ctx)
	}
	return c.site.Assert.Exception("%s: can't set value '%s', expected a checked or unchecked word", c, value)
}

func (c *CheckBox) set(ctx context.Context, action string, want bool) error {
	return c.do(ctx, action, func(ctx context.Context) error {
		el, err := c.first(ctx)
		if err != nil {
			return err
		}
		on, err := el.IsSelected(ctx)
		if err != nil || on == want {
			return err
		}
		return el.Click(ctx)
	})
}
