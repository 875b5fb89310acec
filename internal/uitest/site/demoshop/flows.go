package demoshop

import (
	"context"
	"errors"
	"fmt"
)

// maxPages stops AllProducts on a pagination that never ends.
const maxPages = 50

// SignIn fills the login form and waits for the catalog. A rejected sign
// in returns a *ShopError wrapping ErrInvalidCredentials and the
// *LoginErrorInfo shown by the page.
func (s *Shop) SignIn(ctx context.Context, creds Credentials) error {
	log := s.site.Log
	log.Step("Sign in as %s", creds.Username)

	p := s.Login
	if err := p.Open(ctx); err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "open login page"}
	}
	if err := p.CheckOpened(ctx); err != nil {
		return &ShopError{Operation: "login", Cause: err}
	}

	if err := p.Username.NewInput(ctx, creds.Username); err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "fill username"}
	}
	if err := p.Password.NewInput(ctx, creds.Password); err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "fill password"}
	}
	remember := p.Remember.Uncheck
	if creds.Remember {
		remember = p.Remember.Check
	}
	if err := remember(ctx); err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "set remember me"}
	}
	if err := p.SignIn.Click(ctx); err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "submit"}
	}

	var rejected bool
	err := s.site.Timer().Wait(ctx, func(ctx context.Context) (bool, error) {
		shown, err := p.Error.IsDisplayed(ctx)
		if err != nil {
			return false, err
		}
		if shown {
			rejected = true
			return true, nil
		}
		return s.Catalog.IsOpened(ctx)
	})
	if err != nil {
		return &ShopError{Operation: "login", Cause: err, Details: "waiting for the catalog"}
	}

	if rejected {
		src, err := s.site.Driver.PageSource(ctx)
		if err != nil {
			return &ShopError{Operation: "login", Cause: err, Details: "read login error"}
		}
		cause := ErrInvalidCredentials
		if info := DetectLoginError(src); info != nil {
			cause = fmt.Errorf("%w: %w", ErrInvalidCredentials, info)
		}
		log.Step("Sign in rejected for %s", creds.Username)
		return &ShopError{Operation: "login", Cause: cause}
	}

	log.Step("Signed in as %s", creds.Username)
	return nil
}

// SignOut follows the logout link of the catalog header.
func (s *Shop) SignOut(ctx context.Context) error {
	s.site.Log.Step("Sign out")
	if err := s.Catalog.Header.Logout.Click(ctx); err != nil {
		return &ShopError{Operation: "logout", Cause: err}
	}
	return s.Login.CheckOpened(ctx)
}

// ProductList parses the products of the current catalog page.
func (p *CatalogPage) ProductList(ctx context.Context) ([]Product, error) {
	// Waits for the grid to render; an empty grid is not an error.
	if _, err := p.Products.WebElements(ctx); err != nil {
		return nil, err
	}
	src, err := p.Site().Driver.PageSource(ctx)
	if err != nil {
		return nil, &ShopError{Operation: "list products", Cause: err}
	}
	products, err := ParseProducts(src)
	if err != nil {
		return nil, &ShopError{Operation: "list products", Cause: err}
	}
	return products, nil
}

// AllProducts walks the pagination from the current page to the last one
// and returns every product found on the way.
func (p *CatalogPage) AllProducts(ctx context.Context) ([]Product, error) {
	d := p.Site().Driver
	var all []Product

	for page := 1; ; page++ {
		if page > maxPages {
			return nil, &ShopError{
				Operation: "list all products",
				Cause:     errors.New("too many pages"),
				Details:   fmt.Sprintf("stopped after %d pages", maxPages),
			}
		}

		current, err := d.CurrentURL(ctx)
		if err != nil {
			return nil, err
		}
		products, err := p.ProductList(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, products...)
		p.Site().Log.Info("Page %d of %s has %d products", page, p.Name(), len(products))

		more, err := p.NextLink.IsExists(ctx)
		if err != nil {
			return nil, err
		}
		if !more {
			return all, nil
		}
		if err := p.Pages.Next(ctx); err != nil {
			return nil, err
		}
		err = p.Site().Timer().Wait(ctx, func(ctx context.Context) (bool, error) {
			u, err := d.CurrentURL(ctx)
			return u != current, err
		})
		if err != nil {
			return nil, &ShopError{Operation: "list all products", Cause: err, Details: "next page did not load"}
		}
	}
}
