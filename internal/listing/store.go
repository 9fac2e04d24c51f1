package listing

import "context"

// Store is the catalog persistence boundary. Every mutating method is atomic
// with respect to concurrent callers.
type Store interface {
	Ping(ctx context.Context) error

	Find(ctx context.Context, f Filter) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	User(ctx context.Context, id string) (User, bool, error)

	// Create records the seller projection and inserts p.
	Create(ctx context.Context, seller User, p Product) error
	// Delete loads the product, lets guard veto the deletion, then removes
	// the product together with every saved association pointing at it.
	// A missing product yields ErrNotFound.
	Delete(ctx context.Context, id string, guard func(Product) error) (Product, error)

	// Save adds (u, productID) if absent and reports whether a row was
	// created. A missing product yields ErrNotFound.
	Save(ctx context.Context, u User, productID string) (bool, error)
	Unsave(ctx context.Context, userID, productID string) (bool, error)
	IsSaved(ctx context.Context, userID, productID string) (bool, error)
	SavedBy(ctx context.Context, userID string) ([]Product, error)
}
