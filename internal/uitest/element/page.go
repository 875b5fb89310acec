package element

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
)

// Section groups elements under a container. Its locator is prepended to
// the context of every element declared in it.
type Section struct {
	Element
}

func NewSection(site *Site, name string, loc by.Locator) *Section {
	s := &Section{}
	s.bind(site, name, loc, nil)
	return s
}

// scope returns the context for elements declared inside the section.
func (s *Section) scope() []by.Locator {
	if s.locator.IsZero() {
		return s.Context()
	}
	return append(s.Context(), s.locator)
}

// CheckType selects how a page URL or title is compared.
type CheckType int

const (
	CheckEqual CheckType = iota
	CheckContains
	CheckMatch
)

func (c CheckType) match(actual, expected string) (bool, error) {
	switch c {
	case CheckContains:
		return strings.Contains(actual, expected), nil
	case CheckMatch:
		return regexp.MatchString(expected, actual)
	}
	return actual == expected, nil
}

// Page is a page of the site under test.
type Page struct {
	Base
	url        string
	title      string
	urlCheck   CheckType
	titleCheck CheckType
}

func NewPage(site *Site, name, url, title string) *Page {
	p := &Page{url: url, title: title}
	p.bind(site, name, by.Locator{}, nil)
	return p
}

func (p *Page) URL() string   { return p.url }
func (p *Page) Title() string { return p.title }

// SetChecks changes how IsOpened compares the URL and the title.
func (p *Page) SetChecks(url, title CheckType) {
	p.urlCheck, p.titleCheck = url, title
}

// Open navigates to the page URL.
func (p *Page) Open(ctx context.Context) error {
	p.site.Log.Step("Open page %s", p.name)
	return p.site.Open(ctx, p.url)
}

// IsOpened reports whether the browser shows the page. Unset URL or title
// are not compared.
func (p *Page) IsOpened(ctx context.Context) (bool, error) {
	d := p.site.Driver
	if p.url != "" {
		expected := p.url
		if p.urlCheck != CheckMatch {
			u, err := p.site.URL(p.url)
			if err != nil {
				return false, err
			}
			expected = u
		}
		actual, err := d.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		ok, err := p.urlCheck.match(actual, expected)
		if err != nil || !ok {
			return false, err
		}
	}
	if p.title != "" {
		actual, err := d.Title(ctx)
		if err != nil {
			return false, err
		}
		return p.titleCheck.match(actual, p.title)
	}
	return true, nil
}

// CheckOpened waits for the page to be opened and reports it through the
// asserter when it is not.
func (p *Page) CheckOpened(ctx context.Context) error {
	return p.do(ctx, "check page opened", func(ctx context.Context) error {
		err := p.timer().Wait(ctx, p.IsOpened)
		if err != nil {
			return fmt.Errorf("page '%s' is not opened: %w", p.name, err)
		}
		return nil
	})
}

func (p *Page) Refresh(ctx context.Context) error {
	return p.do(ctx, "refresh", p.site.Driver.Refresh)
}

func (p *Page) Back(ctx context.Context) error {
	return p.do(ctx, "back", p.site.Driver.Back)
}
