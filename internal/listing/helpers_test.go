package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC)

	alice = User{ID: "u_alice", Name: "Alice"}
	bob   = User{ID: "u_bob", Name: "Bob"}
)

func newTestService(t *testing.T) (*Service, *MemStore) {
	t.Helper()

	store := NewMemStore()
	var (
		mu  sync.Mutex
		seq int
	)
	svc := &Service{
		Store: store,
		Now:   func() time.Time { return testNow },
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			seq++
			return fmt.Sprintf("p_new_%d", seq)
		},
	}
	return svc, store
}

func seedProduct(t *testing.T, s Store, id, name, desc string, cat Category, posted time.Time, seller User) Product {
	t.Helper()

	p := Product{
		ID:          id,
		Name:        name,
		Description: desc,
		Category:    cat,
		DatePosted:  dateOf(posted),
		SellerID:    seller.ID,
	}
	require.NoError(t, s.Create(context.Background(), seller, p))
	return p
}

func ids(ps []Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) count(t EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type mapCache struct {
	mu   sync.Mutex
	m    map[string]Product
	hits int
}

func newMapCache() *mapCache { return &mapCache{m: map[string]Product{}} }

func (c *mapCache) Get(_ context.Context, id string) (Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.m[id]
	if ok {
		c.hits++
	}
	return p, ok, nil
}

func (c *mapCache) Set(_ context.Context, p Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[p.ID] = stored(p)
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
	return nil
}
