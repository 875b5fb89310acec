package demoshop

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grez-lucas/uitest/internal/uitest/asserter"
	"github.com/grez-lucas/uitest/internal/uitest/by"
	"github.com/grez-lucas/uitest/internal/uitest/driver"
	"github.com/grez-lucas/uitest/internal/uitest/driver/htmldriver"
	"github.com/grez-lucas/uitest/internal/uitest/element"
	"github.com/grez-lucas/uitest/internal/uitest/logger"
	"github.com/grez-lucas/uitest/internal/uitest/settings"
	"github.com/grez-lucas/uitest/internal/uitest/testutil"
)

const baseURL = "https://shop.test/"

var valid = Credentials{Username: "ana", Password: "secret"}

// newShop serves the fixtures on the in-memory driver and fakes the server
// side of the sign in form.
func newShop(t *testing.T) (*htmldriver.Driver, *Shop) {
	t.Helper()
	d := htmldriver.New(htmldriver.WithFS(testutil.FixtureFS(t, "demoshop"), baseURL))

	s := settings.Default()
	s.Driver = settings.DriverHTML
	s.BaseURL = baseURL
	s.Timeout = 300 * time.Millisecond
	s.RetryInterval = 10 * time.Millisecond
	log := logger.Nop()

	shop, err := New(element.NewSite(d, s, log, asserter.NewErrors(log)))
	require.NoError(t, err)

	d.OnClick(by.NewID("sign-in"), func(d *htmldriver.Driver, _ *htmldriver.Element) error {
		ctx := context.Background()
		user, err := fieldValue(ctx, d, "username")
		if err != nil {
			return err
		}
		pass, err := fieldValue(ctx, d, "password")
		if err != nil {
			return err
		}
		if user == valid.Username && pass == valid.Password {
			return d.Get(ctx, baseURL+"catalog")
		}
		d.Mutate(func(doc *goquery.Document) {
			doc.Find("#login-error").RemoveAttr("hidden")
			doc.Find("#login-error .error-code").SetText("AUTH-401")
			doc.Find("#login-error .error-message").SetText("Wrong username or password")
		})
		return nil
	})
	return d, shop
}

func fieldValue(ctx context.Context, d *htmldriver.Driver, id string) (string, error) {
	els, err := d.FindElements(ctx, by.NewID(id))
	if err != nil || len(els) == 0 {
		return "", err
	}
	return els[0].Attribute(ctx, "value")
}

func TestNew(t *testing.T) {
	_, shop := newShop(t)

	assert.Equal(t, "Login", shop.Login.Name())
	assert.Equal(t, "/login", shop.Login.URL())
	assert.Equal(t, "Sign in", shop.Login.SignIn.Name())
	assert.Equal(t, []by.Locator{by.NewID("login-error")}, shop.Login.Error.Code.Context())

	c := shop.Catalog
	assert.Equal(t, "/catalog", c.URL())
	assert.Equal(t, "Sort by", c.Filters.Sort.Name())
	assert.Equal(t, []by.Locator{by.NewID("filters")}, c.Filters.Colour.Context())
	assert.True(t, c.Filters.Colour.Locator().IsTemplate())
	assert.Equal(t, []by.Locator{by.NewID("shop-header")}, c.Header.Logout.Context())
	assert.Empty(t, c.NextLink.Context())
}

func TestSignIn(t *testing.T) {
	d, shop := newShop(t)
	ctx := context.Background()

	require.NoError(t, shop.SignIn(ctx, Credentials{Username: "ana", Password: "secret", Remember: true}))
	require.NoError(t, shop.Catalog.CheckOpened(ctx))

	account, err := shop.Catalog.Header.Account.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", account)
	assert.Equal(t, []string{baseURL + "login", baseURL + "catalog"}, d.History())

	require.NoError(t, shop.SignOut(ctx))
	remembered, err := shop.Login.Remember.IsChecked(ctx)
	require.NoError(t, err)
	assert.False(t, remembered, "a fresh login page")
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	_, shop := newShop(t)
	ctx := context.Background()

	err := shop.SignIn(ctx, Credentials{Username: "ana", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	var shopErr *ShopError
	require.ErrorAs(t, err, &shopErr)
	assert.Equal(t, "login", shopErr.Operation)

	var info *LoginErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, "AUTH-401", info.Code)
	assert.Equal(t, "Wrong username or password", info.Message)

	msg, err := shop.Login.Error.Message.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Wrong username or password", msg)

	user, err := shop.Login.Username.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ana", user)
}

func TestCatalog_Products(t *testing.T) {
	_, shop := newShop(t)
	ctx := context.Background()
	c := shop.Catalog
	require.NoError(t, c.Open(ctx))

	products, err := c.ProductList(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Blue mug", products[2].Name)

	names, err := element.NewElements(shop.Site(), "Names", by.MustParse(LocatorProductNames)).TextList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Green tea", "Earl grey", "Blue mug"}, names)

	all, err := c.AllProducts(ctx)
	require.NoError(t, err)
	skus := make([]string, 0, len(all))
	for _, p := range all {
		skus = append(skus, p.SKU)
	}
	assert.Equal(t, []string{"TEA-001", "TEA-002", "MUG-010", "CUP-100"}, skus)

	require.NoError(t, c.Pages.Previous(ctx))
	require.NoError(t, c.CheckOpened(ctx))
	require.NoError(t, c.Pages.SelectPage(ctx, 2))
	prev, err := c.PrevLink.Reference(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/catalog", prev)
}

func TestCatalog_Filters(t *testing.T) {
	d, shop := newShop(t)
	ctx := context.Background()
	f := shop.Catalog.Filters
	require.NoError(t, shop.Catalog.Open(ctx))

	d.OnClick(by.NewID("colour-value"), func(d *htmldriver.Driver, _ *htmldriver.Element) error {
		d.Mutate(func(doc *goquery.Document) { doc.Find("#colour-options").RemoveAttr("hidden") })
		return nil
	})
	d.OnClick(by.NewClassName("colour-option"), func(d *htmldriver.Driver, el *htmldriver.Element) error {
		name, err := el.Text(context.Background())
		if err != nil {
			return err
		}
		d.Mutate(func(doc *goquery.Document) {
			doc.Find(".colour-option").RemoveAttr("aria-selected")
			doc.Find("#colour-value").SetAttr("value", name)
			doc.Find("#colour-options").SetAttr("hidden", "")
		})
		return el.SetAttribute(context.Background(), "aria-selected", "true")
	})

	sort, err := f.Sort.Selected(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Relevance", sort)

	require.NoError(t, shop.Catalog.SortBy(ctx, SortPriceAsc))
	sort, err = f.Sort.Selected(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Price: low to high", sort)

	colour, err := f.Colour.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Any colour", colour)

	require.NoError(t, shop.Catalog.FilterColour(ctx, "Green"))
	colour, err = f.Colour.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Green", colour)

	ok, err := f.Colour.IsSelected(ctx, "Green")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, f.InStock.SetValue(ctx, "on"))
	on, err := f.InStock.IsChecked(ctx)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestCatalog_AddProduct(t *testing.T) {
	d, shop := newShop(t)
	ctx := context.Background()
	c := shop.Catalog
	require.NoError(t, c.Open(ctx))

	d.OnClick(by.NewClassName("add-to-cart"), func(d *htmldriver.Driver, _ *htmldriver.Element) error {
		d.Mutate(func(doc *goquery.Document) {
			count := doc.Find("#cart-count")
			n, _ := strconv.Atoi(strings.TrimSpace(count.Text()))
			count.SetText(strconv.Itoa(n + 1))
		})
		return nil
	})

	require.NoError(t, c.AddProduct(ctx, "MUG-010"))
	count, err := c.CartCount.WaitText(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", count)

	err = c.AddProduct(ctx, "TEA-002")
	assert.ErrorIs(t, err, driver.ErrNotInteractable, "sold out")
	assert.ErrorIs(t, err, asserter.ErrAssertion)

	assert.ErrorIs(t, c.AddProduct(ctx, "NOPE-000"), element.ErrNotFound)
}
