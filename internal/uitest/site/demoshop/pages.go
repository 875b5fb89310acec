// Package demoshop holds the page objects and flows of the demo shop used
// to exercise the framework against captured fixtures and a live instance.
package demoshop

import (
	"context"
	"fmt"

	"github.com/grez-lucas/uitest/internal/uitest/element"
)

// LoginPage is the sign in form.
type LoginPage struct {
	element.Page `url:"/login" title:"Demo Shop - Sign in"`

	Username *element.TextField `ui:"id=username"`
	Password *element.TextField `ui:"id=password"`
	Remember *element.CheckBox  `ui:"id=remember" name:"Remember me"`
	SignIn   *element.Button    `ui:"id=sign-in" name:"Sign in"`
	Error    *LoginBanner       `ui:"id=login-error" name:"Login error"`
}

// LoginBanner is the error shown by a rejected sign in.
type LoginBanner struct {
	element.Section

	Code    *element.Element `ui:"css=.error-code"`
	Message *element.Element `ui:"css=.error-message"`
}

// Header is the account bar on top of every signed in page.
type Header struct {
	element.Section

	Account *element.Element `ui:"class=account-name" name:"Account name"`
	Logout  *element.Link    `ui:"css=a.logout"`
}

// Filters narrow and order the catalog grid.
type Filters struct {
	element.Section

	Sort    *element.Selector `ui:"id=sort" name:"Sort by"`
	Colour  *element.Dropdown `ui:"//li[@class='colour-option' and normalize-space(.)='%s']" all:"class=colour-option" expand:"id=colour-value"`
	InStock *element.CheckBox `ui:"id=in-stock" name:"In stock only"`
}

// CatalogPage lists the products of the shop.
type CatalogPage struct {
	element.Page `url:"/catalog" title:"Demo Shop - Catalog"`

	Header    *Header             `ui:"id=shop-header"`
	Filters   *Filters            `ui:"id=filters"`
	Products  *element.Elements   `ui:"css=#products > li.product"`
	AddToCart *element.Elements   `ui:"css=#products .add-to-cart" name:"Add to cart"`
	CartCount *element.Element    `ui:"id=cart-count" name:"Cart count"`
	Pages     *element.Pagination `ui:"//nav[@class='pagination']/a[normalize-space(.)='%s']"`
	NextLink  *element.Link       `ui:"css=nav.pagination a.next" name:"Next link"`
	PrevLink  *element.Link       `ui:"css=nav.pagination a.prev" name:"Prev link"`
}

// Shop is the site under test.
type Shop struct {
	Login   *LoginPage
	Catalog *CatalogPage

	site *element.Site
}

// New binds the shop pages to site.
func New(site *element.Site) (*Shop, error) {
	s := &Shop{site: site}
	if err := element.InitSite(site, s); err != nil {
		return nil, fmt.Errorf("init demo shop: %w", err)
	}
	return s, nil
}

// Site returns the site the pages are bound to.
func (s *Shop) Site() *element.Site {
	return s.site
}

// SortBy orders the grid.
func (p *CatalogPage) SortBy(ctx context.Context, order SortOrder) error {
	return p.Filters.Sort.SelectOption(ctx, order)
}

// FilterColour picks a colour from the colour dropdown.
func (p *CatalogPage) FilterColour(ctx context.Context, colour string) error {
	return p.Filters.Colour.Select(ctx, colour)
}

// AddProduct adds the product with the given SKU to the cart.
func (p *CatalogPage) AddProduct(ctx context.Context, sku string) error {
	i, err := p.Products.IndexByAttribute(ctx, "data-sku", sku)
	if err != nil {
		return err
	}
	return p.AddToCart.ClickBy(ctx, i)
}
