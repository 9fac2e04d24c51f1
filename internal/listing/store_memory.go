package listing

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memProduct struct {
	p   Product
	seq uint64
}

// MemStore keeps the catalog in process memory. Ties on DatePosted keep
// insertion order.
type MemStore struct {
	mu       sync.RWMutex
	seq      uint64
	products map[string]memProduct
	users    map[string]User
	saved    map[string]map[string]struct{} // user id -> product ids
}

func NewMemStore() *MemStore {
	return &MemStore{
		products: make(map[string]memProduct),
		users:    make(map[string]User),
		saved:    make(map[string]map[string]struct{}),
	}
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Find(_ context.Context, f Filter) ([]Product, error) {
	s.mu.RLock()
	matches := make([]memProduct, 0, len(s.products))
	for _, mp := range s.products {
		if f.Match(mp.p) {
			matches = append(matches, mp)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matches)
	return window(matches, f.Offset, f.Limit), nil
}

func (s *MemStore) Get(_ context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mp, ok := s.products[id]
	return mp.p, ok, nil
}

func (s *MemStore) User(_ context.Context, id string) (User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemStore) Create(_ context.Context, seller User, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.products[p.ID]; dup {
		return fmt.Errorf("product %q already exists", p.ID)
	}

	s.users[seller.ID] = seller
	s.seq++
	s.products[p.ID] = memProduct{p: stored(p), seq: s.seq}
	return nil
}

func (s *MemStore) Delete(_ context.Context, id string, guard func(Product) error) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mp, ok := s.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if guard != nil {
		if err := guard(mp.p); err != nil {
			return Product{}, err
		}
	}

	delete(s.products, id)
	for uid, set := range s.saved {
		delete(set, id)
		if len(set) == 0 {
			delete(s.saved, uid)
		}
	}
	return mp.p, nil
}

func (s *MemStore) Save(_ context.Context, u User, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return false, ErrNotFound
	}

	s.users[u.ID] = u

	set, ok := s.saved[u.ID]
	if !ok {
		set = make(map[string]struct{})
		s.saved[u.ID] = set
	}
	if _, exists := set[productID]; exists {
		return false, nil
	}
	set[productID] = struct{}{}
	return true, nil
}

func (s *MemStore) Unsave(_ context.Context, userID, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.saved[userID]
	if !ok {
		return false, nil
	}
	if _, exists := set[productID]; !exists {
		return false, nil
	}
	delete(set, productID)
	if len(set) == 0 {
		delete(s.saved, userID)
	}
	return true, nil
}

func (s *MemStore) IsSaved(_ context.Context, userID, productID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.saved[userID][productID]
	return ok, nil
}

func (s *MemStore) SavedBy(_ context.Context, userID string) ([]Product, error) {
	s.mu.RLock()
	set := s.saved[userID]
	out := make([]memProduct, 0, len(set))
	for pid := range set {
		if mp, ok := s.products[pid]; ok {
			out = append(out, mp)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return window(out, 0, 0), nil
}

func sortNewestFirst(ps []memProduct) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].p.DatePosted.Equal(ps[j].p.DatePosted) {
			return ps[i].p.DatePosted.After(ps[j].p.DatePosted)
		}
		return ps[i].seq < ps[j].seq
	})
}

func window(ps []memProduct, offset, limit int) []Product {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ps) {
		return []Product{}
	}
	end := len(ps)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]Product, 0, end-offset)
	for _, mp := range ps[offset:end] {
		out = append(out, mp.p)
	}
	return out
}

// stored drops the per-request view fields before a product is persisted.
func stored(p Product) Product {
	p.SavedByUser = false
	p.CreatedByUser = false
	p.Seller = nil
	return p
}
