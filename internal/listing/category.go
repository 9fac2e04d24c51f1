package listing

import "fmt"

// Category is the internal key stored on a Product.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryVehicles    Category = "vehicles"
	CategoryRealEstate  Category = "real_estate"
	CategoryHomeGarden  Category = "home_garden"
	CategoryFashion     Category = "fashion"
	CategorySports      Category = "sports"
	CategoryKids        Category = "kids"
	CategoryPets        Category = "pets"
	CategoryMusic       Category = "music"
	CategoryBooks       Category = "books"
	CategoryJobs        Category = "jobs"
	CategoryServices    Category = "services"
	CategoryOther       Category = "other"
)

// CategoryEntry pairs a key with the label users see and filter by.
type CategoryEntry struct {
	Key  Category `json:"key"`
	Name string   `json:"name"`
}

// Registry maps category keys to display names and back. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	entries []CategoryEntry
	byKey   map[Category]string
	byName  map[string]Category
}

// NewRegistry builds a registry, rejecting empty entries and duplicate keys
// or names.
func NewRegistry(entries ...CategoryEntry) (*Registry, error) {
	r := &Registry{
		entries: make([]CategoryEntry, 0, len(entries)),
		byKey:   make(map[Category]string, len(entries)),
		byName:  make(map[string]Category, len(entries)),
	}

	for _, e := range entries {
		if e.Key == "" || e.Name == "" {
			return nil, fmt.Errorf("category entry %q/%q: key and name required", e.Key, e.Name)
		}
		if _, dup := r.byKey[e.Key]; dup {
			return nil, fmt.Errorf("duplicate category key %q", e.Key)
		}
		if _, dup := r.byName[e.Name]; dup {
			return nil, fmt.Errorf("duplicate category name %q", e.Name)
		}
		r.byKey[e.Key] = e.Name
		r.byName[e.Name] = e.Key
		r.entries = append(r.entries, e)
	}

	return r, nil
}

// MustRegistry is NewRegistry for package-level tables; it panics on error.
func MustRegistry(entries ...CategoryEntry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry is the marketplace category set.
var DefaultRegistry = MustRegistry(
	CategoryEntry{CategoryElectronics, "Electronics"},
	CategoryEntry{CategoryVehicles, "Vehicles"},
	CategoryEntry{CategoryRealEstate, "Real Estate"},
	CategoryEntry{CategoryHomeGarden, "Home & Garden"},
	CategoryEntry{CategoryFashion, "Fashion"},
	CategoryEntry{CategorySports, "Sports & Hobby"},
	CategoryEntry{CategoryKids, "Kids"},
	CategoryEntry{CategoryPets, "Pets"},
	CategoryEntry{CategoryMusic, "Music"},
	CategoryEntry{CategoryBooks, "Books"},
	CategoryEntry{CategoryJobs, "Jobs"},
	CategoryEntry{CategoryServices, "Services"},
	CategoryEntry{CategoryOther, "Other"},
)

// DisplayName returns the label for key. An unknown key is ErrUnknownCategory.
func (r *Registry) DisplayName(key Category) (string, error) {
	name, ok := r.byKey[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}
	return name, nil
}

// KeyOf resolves a display name, as shown to users, to its key. The match is
// exact.
func (r *Registry) KeyOf(name string) (Category, error) {
	key, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	}
	return key, nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key Category) bool {
	_, ok := r.byKey[key]
	return ok
}

// Entries returns the categories in declaration order.
func (r *Registry) Entries() []CategoryEntry {
	out := make([]CategoryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
