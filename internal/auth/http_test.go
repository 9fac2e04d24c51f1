package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newAuthHandler(t *testing.T) http.Handler {
	t.Helper()

	s := &Server{
		Log:      zap.NewNop(),
		Store:    newTestMemStore(),
		JWT:      NewTokenMaker("secret-secret-secret-secret-1234"),
		TokenTTL: 10 * time.Minute,
	}
	return NewHandler(s, HTTPDeps{Log: zap.NewNop(), Service: "auth"})
}

func post(t *testing.T, h http.Handler, path string, body any, ip string) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = ip + ":40000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_RegisterLoginWhoAmI(t *testing.T) {
	h := newAuthHandler(t)

	rec := post(t, h, "/auth/register", map[string]any{
		"email":    "kim@example.com",
		"password": "password123",
	}, "10.0.0.1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = post(t, h, "/auth/register", map[string]any{
		"email":    "KIM@example.com",
		"password": "password123",
	}, "10.0.0.1")
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d", rec.Code)
	}

	rec = post(t, h, "/auth/login", map[string]any{
		"email":    "kim@example.com",
		"password": "password123",
	}, "10.0.0.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}

	var lr loginResp
	if err := json.Unmarshal(rec.Body.Bytes(), &lr); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if lr.AccessToken == "" || lr.ExpiresIn != 600 {
		t.Fatalf("login=%+v", lr)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+lr.AccessToken)
	who := httptest.NewRecorder()
	h.ServeHTTP(who, req)
	if who.Code != http.StatusOK {
		t.Fatalf("whoami status=%d", who.Code)
	}

	var me map[string]string
	if err := json.Unmarshal(who.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	// Name defaults to the local part of the email.
	if me["name"] != "kim" || me["role"] != RoleUser {
		t.Fatalf("whoami=%v", me)
	}
}

func TestHTTP_LoginFailures(t *testing.T) {
	h := newAuthHandler(t)

	rec := post(t, h, "/auth/register", map[string]any{
		"email":    "kim@example.com",
		"password": "password123",
		"name":     "Kim",
	}, "10.0.0.2")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status=%d", rec.Code)
	}

	rec = post(t, h, "/auth/login", map[string]any{"email": "kim@example.com", "password": "nope-nope"}, "10.0.0.2")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status=%d", rec.Code)
	}

	rec = post(t, h, "/auth/login", map[string]any{"email": "", "password": ""}, "10.0.0.2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty status=%d", rec.Code)
	}

	rec = post(t, h, "/auth/register", map[string]any{"email": "x@example.com", "password": "short"}, "10.0.0.3")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password status=%d", rec.Code)
	}
}

func TestHTTP_LoginRateLimited(t *testing.T) {
	h := newAuthHandler(t)
	body := map[string]any{"email": "ghost@example.com", "password": "password123"}

	for i := 0; i < loginLimitPerMin; i++ {
		if rec := post(t, h, "/auth/login", body, "10.0.0.9"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status=%d", i, rec.Code)
		}
	}

	rec := post(t, h, "/auth/login", body, "10.0.0.9")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d want=%d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	if rec := post(t, h, "/auth/login", body, "10.0.0.10"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("other ip status=%d", rec.Code)
	}
}
