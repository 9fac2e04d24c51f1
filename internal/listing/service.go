package listing

import (
	"context"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxNameLen        = 120
	maxDescriptionLen = 4000
	publishTimeout    = 500 * time.Millisecond
	cacheTimeout      = 500 * time.Millisecond
)

// Service is the listing core: the index query pipeline, listing CRUD and the
// saved-listings relation. Cache, Events and Metrics are optional.
type Service struct {
	Store      Store
	Categories *Registry
	Cache      ProductCache
	Events     Publisher
	Metrics    *Metrics
	Log        *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// Query runs search, then category, then newest-first ordering, then paging.
func (s *Service) Query(ctx context.Context, q QueryParams) (Page, error) {
	f := Filter{Search: q.Search}
	label := q.Search

	if q.Category != "" {
		key, err := s.categories().KeyOf(q.Category)
		if err != nil {
			return Page{}, err
		}
		f.Category = key

		if label == "" {
			label = q.Category
		} else {
			label += " in category " + q.Category
		}
	}

	page := clampPage(q.Page)
	out := Page{
		Items:       []Product{},
		Page:        page,
		PageSize:    PageSize,
		Description: label,
	}
	s.Metrics.query(f)

	if page > math.MaxInt/PageSize {
		return out, nil
	}
	f.Offset = offsetFor(page)
	f.Limit = PageSize + 1

	items, err := s.Store.Find(ctx, f)
	if err != nil {
		return Page{}, err
	}
	if len(items) > PageSize {
		out.HasNext = true
		items = items[:PageSize]
	}
	out.Items = items
	return out, nil
}

// Get returns a listing for the detail view. viewer is nil for anonymous
// callers; otherwise the saved and ownership flags are computed for them.
func (s *Service) Get(ctx context.Context, id string, viewer *User) (Product, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return Product{}, err
	}

	seller, ok, err := s.Store.User(ctx, p.SellerID)
	if err != nil {
		return Product{}, err
	}
	if ok {
		p.Seller = &seller
	}

	if viewer != nil && viewer.ID != "" {
		p.CreatedByUser = viewer.ID == p.SellerID
		if p.SavedByUser, err = s.Store.IsSaved(ctx, viewer.ID, p.ID); err != nil {
			return Product{}, err
		}
	}
	return p, nil
}

// Create publishes a new listing for actor. DatePosted, SellerID and Sold are
// always set here. On failure the normalized, unpersisted draft is returned
// with the error so it can be shown back to the user.
func (s *Service) Create(ctx context.Context, actor User, in NewProduct) (Product, error) {
	draft := Product{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    Category(strings.TrimSpace(string(in.Category))),
	}
	if actor.ID == "" {
		return draft, ErrUnauthorized
	}

	if err := s.validate(&draft); err != nil {
		return draft, err
	}

	p := draft
	p.ID = s.newID()
	p.DatePosted = dateOf(s.now())
	p.SellerID = actor.ID
	p.Sold = false

	if err := s.Store.Create(ctx, actor, p); err != nil {
		s.log().Error("create listing failed", zap.Error(err), zap.String("seller_id", actor.ID))
		return draft, err
	}

	s.publish(ctx, Event{Type: EventCreated, ProductID: p.ID, UserID: actor.ID, Product: &p})
	return p, nil
}

// Delete removes a listing owned by actor, along with everyone's saves of it.
func (s *Service) Delete(ctx context.Context, actor User, id string) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}

	_, err := s.Store.Delete(ctx, id, func(p Product) error {
		if p.SellerID != actor.ID {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.publish(ctx, Event{Type: EventDeleted, ProductID: id, UserID: actor.ID})
	return nil
}

// CategoryList returns the registry entries in display order.
func (s *Service) CategoryList() []CategoryEntry {
	return s.categories().Entries()
}

func (s *Service) validate(p *Product) error {
	var verr ValidationError

	switch n := utf8.RuneCountInString(p.Name); {
	case n == 0:
		verr.add("name", "required")
	case n > maxNameLen:
		verr.add("name", "too long")
	}

	switch n := utf8.RuneCountInString(p.Description); {
	case n == 0:
		verr.add("description", "required")
	case n > maxDescriptionLen:
		verr.add("description", "too long")
	}

	reg := s.categories()
	switch {
	case p.Category == "":
		verr.add("category", "required")
	case reg.Has(p.Category):
	default:
		// Forms may post the display label instead of the key.
		key, err := reg.KeyOf(string(p.Category))
		if err != nil {
			verr.add("category", "unknown category")
			break
		}
		p.Category = key
	}

	return verr.orNil()
}

func (s *Service) load(ctx context.Context, id string) (Product, error) {
	if s.Cache != nil {
		cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
		p, ok, err := s.Cache.Get(cctx, id)
		cancel()
		if err != nil {
			s.log().Warn("cache get failed", zap.Error(err), zap.String("product_id", id))
		}
		if ok {
			return p, nil
		}
	}

	p, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if !ok {
		return Product{}, ErrNotFound
	}

	if s.Cache == nil {
		return p, nil
	}

	cctx, cancel := context.WithTimeout(ctx, cacheTimeout)
	err = s.Cache.Set(cctx, p)
	cancel()
	if err != nil {
		s.log().Warn("cache set failed", zap.Error(err), zap.String("product_id", id))
		return p, nil
	}

	// A Delete may have invalidated between the store read and the Set.
	// Seeing the row after the Set means any later Delete invalidates after it.
	if _, ok, err := s.Store.Get(ctx, id); err != nil || !ok {
		s.invalidate(ctx, id)
		if err != nil {
			return Product{}, err
		}
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.Cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheTimeout)
	defer cancel()
	if err := s.Cache.Invalidate(cctx, id); err != nil {
		s.log().Warn("cache invalidate failed", zap.Error(err), zap.String("product_id", id))
	}
}

func (s *Service) publish(ctx context.Context, e Event) {
	if s.Events == nil {
		return
	}
	e.OccurredAt = s.now().UTC()

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.Events.Publish(pctx, e); err != nil {
		s.log().Warn("publish event failed",
			zap.Error(err),
			zap.String("type", string(e.Type)),
			zap.String("product_id", e.ProductID),
		)
	}
}

func (s *Service) categories() *Registry {
	if s.Categories != nil {
		return s.Categories
	}
	return DefaultRegistry
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return "p_" + uuid.NewString()
}

func (s *Service) log() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
