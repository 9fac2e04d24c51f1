package listing

import (
	"strings"
	"time"
)

const PageSize = 50

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	DatePosted  time.Time `json:"date_posted"`
	SellerID    string    `json:"seller_id"`
	Sold        bool      `json:"sold"`

	// Per-request view state, never persisted.
	SavedByUser   bool  `json:"saved_by_user"`
	CreatedByUser bool  `json:"created_by_user"`
	Seller        *User `json:"seller,omitempty"`
}

// User is the listing service's projection of an account: enough to show who
// sells a listing and to reference savers.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewProduct carries the caller-editable fields of a listing.
type NewProduct struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
}

type QueryParams struct {
	Search   string
	Category string
	// Page is 1-based; zero or negative means the first page.
	Page int
}

type Page struct {
	Items       []Product `json:"items"`
	Page        int       `json:"page"`
	PageSize    int       `json:"page_size"`
	HasNext     bool      `json:"has_next"`
	Description string    `json:"description"`
}

// Filter is the store-level form of a query. Stores return matches newest
// first, skipping Offset rows and returning at most Limit (0 = no limit).
type Filter struct {
	Search   string
	Category Category
	Offset   int
	Limit    int
}

// Match reports whether p passes the search and category predicates.
func (f Filter) Match(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term)
}

// dateOf truncates t to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func offsetFor(page int) int {
	return (page - 1) * PageSize
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
