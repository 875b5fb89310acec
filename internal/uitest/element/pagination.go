package element

import (
	"context"
	"fmt"
	"strings"

	"github.com/grez-lucas/uitest/internal/uitest/by"
)

// Pagination moves between the pages of a paged list. Its own locator, when
// set, is a template filled with "next", "prev", "first", "last" or a page
// number.
type Pagination struct {
	Base
	next, prev, first, last by.Locator
	clickables              []*Clickable
}

func NewPagination(site *Site, name string, template by.Locator) *Pagination {
	p := &Pagination{}
	p.bind(site, name, template, nil)
	return p
}

// PageLocators sets explicit locators for the navigation actions. Zero
// locators are left to the other ways of resolving the action.
type PageLocators struct {
	Next, Prev, First, Last by.Locator
}

func (p *Pagination) SetLocators(l PageLocators) {
	p.next, p.prev, p.first, p.last = l.Next, l.Prev, l.First, l.Last
}

// Register adds clickables the pagination may use when their name contains
// the short name of an action, like a "Next Link" for Next.
func (p *Pagination) Register(cs ...*Clickable) {
	p.clickables = append(p.clickables, cs...)
}

func (p *Pagination) Next(ctx context.Context) error {
	return p.choose(ctx, "Next", "next", p.next)
}

func (p *Pagination) Previous(ctx context.Context) error {
	return p.choose(ctx, "Previous", "prev", p.prev)
}

func (p *Pagination) First(ctx context.Context) error {
	return p.choose(ctx, "First", "first", p.first)
}

func (p *Pagination) Last(ctx context.Context) error {
	return p.choose(ctx, "Last", "last", p.last)
}

// SelectPage opens page n. The template wins over a registered "page"
// clickable here, since only the template can carry the number.
func (p *Pagination) SelectPage(ctx context.Context, n int) error {
	return p.do(ctx, fmt.Sprintf("choose '%d' page", n), func(ctx context.Context) error {
		if p.locator.IsTemplate() {
			return p.child(fmt.Sprintf("Page %d", n), p.locator.Fill(n)).Click(ctx)
		}
		if c := p.registered("page"); c != nil {
			return c.Click(ctx)
		}
		return p.cantChoose(fmt.Sprint(n), "page")
	})
}

func (p *Pagination) choose(ctx context.Context, label, short string, explicit by.Locator) error {
	return p.do(ctx, fmt.Sprintf("choose %s page", label), func(ctx context.Context) error {
		switch {
		case !explicit.IsZero():
			return p.child(label, explicit).Click(ctx)
		case p.registered(short) != nil:
			return p.registered(short).Click(ctx)
		case p.locator.IsTemplate():
			return p.child(label, p.locator.Fill(short)).Click(ctx)
		}
		return p.cantChoose(label, short)
	})
}

func (p *Pagination) registered(short string) *Clickable {
	for _, c := range p.clickables {
		if strings.Contains(strings.ToLower(c.Name()), short) {
			return c
		}
	}
	return nil
}

func (p *Pagination) cantChoose(label, short string) error {
	return p.site.Assert.Exception(
		"Can't choose %s page for %s. Set a locator for this action, add a clickable named '%sLink' or '%sButton', or use a locator template taking '%s'",
		label, p, short, short, short)
}
