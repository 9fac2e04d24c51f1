package listing_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Marketplace/internal/auth"
	"Marketplace/internal/listing"
)

const testSecret = "listing-test-secret-0123456789abcdef"

type fixture struct {
	ts    *httptest.Server
	store *listing.MemStore
	tm    *auth.TokenMaker
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := listing.NewMemStore()
	tm := auth.NewTokenMaker(testSecret)
	svc := &listing.Service{Store: store, Log: zap.NewNop()}

	h := listing.NewHandler(svc, listing.HTTPDeps{
		Log:     zap.NewNop(),
		Service: "listing",
		JWT:     tm,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return fixture{ts: ts, store: store, tm: tm}
}

func (f fixture) token(t *testing.T, id, name string) string {
	t.Helper()

	tok, err := f.tm.New(auth.User{ID: id, Name: name, Role: auth.RoleUser}, time.Minute)
	require.NoError(t, err)
	return tok
}

func (f fixture) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, f.ts.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestHTTP_ListingLifecycle(t *testing.T) {
	f := newFixture(t)
	seller := f.token(t, "u_seller", "Sam")
	buyer := f.token(t, "u_buyer", "Bea")

	resp, raw := f.do(t, http.MethodPost, "/listings", seller, map[string]any{
		"name":        "Mountain bike",
		"description": "26 inch, new tyres",
		"category":    "Vehicles",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created listing.Product
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, "/listings/"+created.ID, resp.Header.Get("Location"))
	assert.Equal(t, listing.CategoryVehicles, created.Category)
	assert.Equal(t, "u_seller", created.SellerID)

	resp, raw = f.do(t, http.MethodGet, "/listings?search=BIKE&category=Vehicles", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var page listing.Page
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "BIKE in category Vehicles", page.Description)
	assert.Equal(t, 1, page.Page)
	assert.False(t, page.HasNext)

	resp, _ = f.do(t, http.MethodPost, "/listings/"+created.ID+"/save", buyer, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(t, http.MethodPost, "/listings/"+created.ID+"/save", buyer, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = f.do(t, http.MethodGet, "/listings/"+created.ID, buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var detail listing.Product
	require.NoError(t, json.Unmarshal(raw, &detail))
	assert.True(t, detail.SavedByUser)
	assert.False(t, detail.CreatedByUser)
	require.NotNil(t, detail.Seller)
	assert.Equal(t, "Sam", detail.Seller.Name)

	resp, raw = f.do(t, http.MethodGet, "/me/saved", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var saved []listing.Product
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, created.ID, saved[0].ID)

	resp, _ = f.do(t, http.MethodDelete, "/listings/"+created.ID, buyer, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodDelete, "/listings/"+created.ID, seller, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/listings/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, raw = f.do(t, http.MethodGet, "/me/saved", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestHTTP_StatusMapping(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "u_1", "One")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"unknown category", http.MethodGet, "/listings?category=Spaceships", "", nil, http.StatusNotFound},
		{"bad page", http.MethodGet, "/listings?page=two", "", nil, http.StatusBadRequest},
		{"negative page", http.MethodGet, "/listings?page=-3", "", nil, http.StatusOK},
		{"create anonymous", http.MethodPost, "/listings", "", map[string]any{"name": "x"}, http.StatusUnauthorized},
		{"create bad token", http.MethodPost, "/listings", "garbage", map[string]any{"name": "x"}, http.StatusUnauthorized},
		{"unknown field", http.MethodPost, "/listings", tok, map[string]any{"name": "x", "colour": "red"}, http.StatusBadRequest},
		{"save missing", http.MethodPost, "/listings/nope/save", tok, nil, http.StatusNotFound},
		{"unsave missing", http.MethodDelete, "/listings/nope/save", tok, nil, http.StatusNoContent},
		{"delete missing", http.MethodDelete, "/listings/nope", tok, nil, http.StatusNotFound},
		{"saved anonymous", http.MethodGet, "/me/saved", "", nil, http.StatusUnauthorized},
		{"categories", http.MethodGet, "/categories", "", nil, http.StatusOK},
		{"readyz", http.MethodGet, "/readyz", "", nil, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := f.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, resp.StatusCode, string(raw))
		})
	}
}

func TestHTTP_CreateOverridesServerOwnedFields(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "u_1", "One")

	resp, raw := f.do(t, http.MethodPost, "/listings", tok, map[string]any{
		"id":              "p_chosen",
		"name":            "Kettle",
		"description":     "1.5 l",
		"category":        "home_garden",
		"date_posted":     "1999-01-01T00:00:00Z",
		"seller_id":       "u_someone_else",
		"sold":            true,
		"saved_by_user":   true,
		"created_by_user": false,
		"seller":          map[string]any{"id": "u_someone_else", "name": "Mallory"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var p listing.Product
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.NotEqual(t, "p_chosen", p.ID)
	assert.False(t, p.Sold)
	assert.Equal(t, "u_1", p.SellerID)
	assert.WithinDuration(t, time.Now().UTC(), p.DatePosted, 24*time.Hour)

	stored, ok, err := f.store.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, stored.Sold)
	assert.Equal(t, "u_1", stored.SellerID)
}

func TestHTTP_CreateValidationEchoesSubmission(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "u_1", "One")

	resp, raw := f.do(t, http.MethodPost, "/listings", tok, map[string]any{
		"name":        "Lamp",
		"description": "",
		"category":    "Lighting",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(raw))

	var body struct {
		Error   string `json:"error"`
		Details struct {
			Fields    map[string]string `json:"fields"`
			Submitted listing.Product   `json:"submitted"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "required", body.Details.Fields["description"])
	assert.Equal(t, "unknown category", body.Details.Fields["category"])
	assert.Equal(t, "Lamp", body.Details.Submitted.Name)
	assert.Empty(t, body.Details.Submitted.ID)

	resp, raw = f.do(t, http.MethodGet, "/listings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page listing.Page
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Empty(t, page.Items)
}

func TestHTTP_Categories(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []listing.CategoryEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	assert.Equal(t, listing.DefaultRegistry.Entries(), entries)
}
