package demoshop

// Locators for the demo shop, in by.Parse form.
const (
	// Login page
	LocatorUsernameInput = "id=username"
	LocatorPasswordInput = "id=password"
	LocatorRememberMe    = "id=remember"
	LocatorSignInButton  = "id=sign-in"

	// Login error banner
	LocatorLoginError        = "id=login-error"
	LocatorLoginErrorCode    = "css=.error-code"
	LocatorLoginErrorMessage = "css=.error-message"

	// Header
	LocatorHeader      = "id=shop-header"
	LocatorAccountName = "class=account-name"
	LocatorLogout      = "css=a.logout"

	// Filters
	LocatorFilters       = "id=filters"
	LocatorSort          = "id=sort"
	LocatorColourValue   = "id=colour-value"
	LocatorColourOption  = "//li[@class='colour-option' and normalize-space(.)='%s']"
	LocatorColourOptions = "class=colour-option"
	LocatorInStock       = "id=in-stock"

	// Product grid
	LocatorProductList  = "id=products"
	LocatorProducts     = "css=#products > li.product"
	LocatorProductNames = "css=#products .product-name"
	LocatorAddToCart    = "css=#products .add-to-cart"
	LocatorCartCount    = "id=cart-count"

	// Pagination; the template takes a page number
	LocatorPages    = "//nav[@class='pagination']/a[normalize-space(.)='%s']"
	LocatorNextPage = "css=nav.pagination a.next"
	LocatorPrevPage = "css=nav.pagination a.prev"
)

// Paths of the shop pages, relative to the base URL.
const (
	PathLogin   = "/login"
	PathCatalog = "/catalog"
)

// NamedLocator labels a locator for reports.
type NamedLocator struct {
	Name    string
	Locator string
}

// Locators lists the shop locators checked by scripts/probe-locators. Template
// locators are left out since they need a value.
var Locators = []NamedLocator{
	{"Username input", LocatorUsernameInput},
	{"Password input", LocatorPasswordInput},
	{"Remember me", LocatorRememberMe},
	{"Sign in button", LocatorSignInButton},
	{"Login error", LocatorLoginError},
	{"Login error code", LocatorLoginErrorCode},
	{"Login error message", LocatorLoginErrorMessage},
	{"Header", LocatorHeader},
	{"Account name", LocatorAccountName},
	{"Logout link", LocatorLogout},
	{"Filters", LocatorFilters},
	{"Sort selector", LocatorSort},
	{"Colour value", LocatorColourValue},
	{"Colour options", LocatorColourOptions},
	{"In stock", LocatorInStock},
	{"Product grid", LocatorProductList},
	{"Products", LocatorProducts},
	{"Product names", LocatorProductNames},
	{"Add to cart", LocatorAddToCart},
	{"Cart count", LocatorCartCount},
	{"Next page", LocatorNextPage},
	{"Previous page", LocatorPrevPage},
}
