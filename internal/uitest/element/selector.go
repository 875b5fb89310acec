package element

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
)

// Selector picks one option out of several. Its locator is either a
// template filled with the option name, a <select> element, or a locator
// matching every option. An optional all-options locator lists the options
// when the locator is a template.
type Selector struct {
	Base
	all by.Locator
}

func NewSelector(site *Site, name string, options, all by.Locator) *Selector {
	s := &Selector{all: all}
	s.bind(site, name, options, nil)
	return s
}

// SetAllOptions sets the locator matching every option.
func (s *Selector) SetAllOptions(loc by.Locator) {
	s.all = loc
}

func (s *Selector) Select(ctx context.Context, name string) error {
	return s.do(ctx, fmt.Sprintf("select '%s'", name), func(ctx context.Context) error {
		return s.selectName(ctx, name)
	})
}

// SelectOption selects the option named by o.
func (s *Selector) SelectOption(ctx context.Context, o fmt.Stringer) error {
	return s.Select(ctx, o.String())
}

// SelectIndex selects the i-th option.
func (s *Selector) SelectIndex(ctx context.Context, i int) error {
	return s.do(ctx, fmt.Sprintf("select option %d", i), func(ctx context.Context) error {
		return s.selectIndex(ctx, i)
	})
}

// Selected returns the text of the selected option.
func (s *Selector) Selected(ctx context.Context) (string, error) {
	return invoke(ctx, &s.Base, "get selected", func(ctx context.Context) (string, error) {
		opts, _, err := s.options(ctx)
		if err != nil {
			return "", err
		}
		i, err := indexWhere(ctx, opts, optionSelected)
		if err != nil {
			return "", err
		}
		if i < 0 {
			return "", ErrNotSelected
		}
		return opts[i].Text(ctx)
	})
}

// SelectedIndex returns the position of the selected option.
func (s *Selector) SelectedIndex(ctx context.Context) (int, error) {
	return invoke(ctx, &s.Base, "get selected index", func(ctx context.Context) (int, error) {
		opts, _, err := s.options(ctx)
		if err != nil {
			return -1, err
		}
		i, err := indexWhere(ctx, opts, optionSelected)
		if err != nil {
			return -1, err
		}
		if i < 0 {
			return -1, ErrNotSelected
		}
		return i, nil
	})
}

// IsSelected reports whether the option called name is the selected one.
func (s *Selector) IsSelected(ctx context.Context, name string) (bool, error) {
	selected, err := s.Selected(ctx)
	if errors.Is(err, ErrNotSelected) {
		return false, nil
	}
	return selected == name, err
}

// Options returns the option texts.
func (s *Selector) Options(ctx context.Context) ([]string, error) {
	return invoke(ctx, &s.Base, "get options", func(ctx context.Context) ([]string, error) {
		opts, _, err := s.options(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(opts))
		for _, o := range opts {
			t, err := o.Text(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, t)
		}
		return out, nil
	})
}

func (s *Selector) selectName(ctx context.Context, name string) error {
	if s.locator.IsTemplate() {
		return s.option(name).Click(ctx)
	}
	opts, native, err := s.options(ctx)
	if err != nil {
		return err
	}
	match := textEquals(name)
	if native {
		// Native options match by value first.
		match = func(ctx context.Context, el driver.WebElement) (bool, error) {
			v, err := el.Attribute(ctx, "value")
			if err != nil || v == name {
				return err == nil, err
			}
			t, err := el.Text(ctx)
			return strings.TrimSpace(t) == name, err
		}
	}
	i, err := indexWhere(ctx, opts, match)
	if err != nil {
		return err
	}
	if i < 0 {
		return fmt.Errorf("%w: option '%s'", ErrNotFound, name)
	}
	return s.pick(ctx, opts[i], native)
}

func (s *Selector) selectIndex(ctx context.Context, i int) error {
	opts, native, err := s.options(ctx)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(opts) {
		return fmt.Errorf("%w: index %d, %d options", ErrIndexOutOfRange, i, len(opts))
	}
	return s.pick(ctx, opts[i], native)
}

func (s *Selector) pick(ctx context.Context, opt driver.WebElement, native bool) error {
	if !native {
		return opt.Click(ctx)
	}
	_, err := s.site.Driver.ExecuteScript(ctx, driver.ScriptSelectOption, opt)
	return err
}

// option returns the element for a named option of a template locator.
func (s *Selector) option(name string) *Element {
	return s.child(fmt.Sprintf("%s option '%s'", s.name, name), s.locator.Fill(name))
}

// options lists the option elements. native is set when they are the
// options of a <select>.
func (s *Selector) options(ctx context.Context) (opts []driver.WebElement, native bool, err error) {
	if !s.all.IsZero() {
		all := s.children(s.name+" options", s.all)
		opts, err := all.WebElements(ctx)
		return opts, false, err
	}
	if s.locator.IsTemplate() {
		return nil, false, fmt.Errorf("%w: a template locator can't list its options without an all-options locator", ErrNotConfigured)
	}

	els, err := s.findAll(ctx, s.timer())
	if err != nil {
		return nil, false, err
	}
	if len(els) == 1 {
		tag, err := els[0].TagName(ctx)
		if err != nil {
			return nil, false, err
		}
		if strings.EqualFold(tag, "select") {
			opts, err := els[0].FindElements(ctx, by.NewTagName("option"))
			return opts, true, err
		}
	}
	return els, false, nil
}

func optionSelected(ctx context.Context, el driver.WebElement) (bool, error) {
	on, err := el.IsSelected(ctx)
	if err != nil || on {
		return on, err
	}
	aria, err := el.Attribute(ctx, "aria-selected")
	return aria == "true", err
}
