package demoshop

// Credentials sign a user in.
type Credentials struct {
	Username string
	Password string
	Remember bool
}

// Product is a card of the catalog grid.
type Product struct {
	SKU   string
	Name  string
	Price int64 // cents
	Stock int
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// SortOrder is an option of the catalog sort selector.
type SortOrder string

const (
	SortRelevance SortOrder = "relevance"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
	SortName      SortOrder = "name"
)

func (s SortOrder) String() string {
	return string(s)
}
