package demoshop

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CSS selectors for the page source parsers. They match the locators in
// selectors.go.
const (
	selectorProduct      = "#products > li.product"
	selectorProductName  = ".product-name"
	selectorProductPrice = ".price"
	selectorLoginError   = "#login-error"
	selectorErrorCode    = "#login-error .error-code"
	selectorErrorMessage = "#login-error .error-message"
)

// ParseProducts reads the product grid of a catalog page.
func ParseProducts(html string) ([]Product, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if doc.Find("#products").Length() == 0 {
		return nil, fmt.Errorf("%w: product grid not found", ErrParsingFailed)
	}

	rows := doc.Find(selectorProduct)
	products := make([]Product, 0, rows.Length())

	var parseErr error
	rows.EachWithBreak(func(i int, s *goquery.Selection) bool {
		p, err := parseProduct(s)
		if err != nil {
			parseErr = fmt.Errorf("failed to parse product %d: %w", i, err)
			return false
		}
		products = append(products, p)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return products, nil
}

// DetectLoginError returns the error shown by the login banner, or nil when
// the banner is hidden or empty.
func DetectLoginError(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	banner := doc.Find(selectorLoginError)
	if banner.Length() == 0 {
		return nil
	}
	if _, hidden := banner.Attr("hidden"); hidden {
		return nil
	}

	code := strings.TrimSpace(doc.Find(selectorErrorCode).Text())
	msg := strings.TrimSpace(doc.Find(selectorErrorMessage).Text())
	if code == "" && msg == "" {
		return nil
	}

	return &LoginErrorInfo{Code: code, Message: msg}
}

func parseProduct(s *goquery.Selection) (Product, error) {
	sku, ok := s.Attr("data-sku")
	if !ok || sku == "" {
		return Product{}, fmt.Errorf("%w: missing data-sku", ErrParsingFailed)
	}

	stock, err := strconv.Atoi(strings.TrimSpace(s.AttrOr("data-stock", "0")))
	if err != nil {
		return Product{}, fmt.Errorf("%w: stock of %s: %v", ErrParsingFailed, sku, err)
	}

	price, err := ParsePrice(s.Find(selectorProductPrice).First().Text())
	if err != nil {
		return Product{}, fmt.Errorf("%w: price of %s: %v", ErrParsingFailed, sku, err)
	}

	return Product{
		SKU:   sku,
		Name:  strings.TrimSpace(s.Find(selectorProductName).First().Text()),
		Price: price,
		Stock: stock,
	}, nil
}

// ParsePrice transforms a displayed price such as "$1,012.00" into cents.
func ParsePrice(s string) (int64, error) {
	cleanStr := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleanStr == "" {
		return 0, fmt.Errorf("empty price")
	}

	floatVal, err := strconv.ParseFloat(cleanStr, 64)
	if err != nil {
		return 0, err
	}

	return int64(math.Round(floatVal * 100)), nil
}
