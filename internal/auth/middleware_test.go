package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func principalEcho(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			w.Header().Set("X-Principal", "anonymous")
		} else {
			w.Header().Set("X-Principal", p.ID+"/"+p.Name)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerMiddleware(t *testing.T) {
	tm := NewTokenMaker("secret-secret-secret-secret-1234")
	tok, err := tm.New(User{ID: "u_7", Name: "Kim"}, time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	cases := []struct {
		name      string
		required  bool
		header    string
		want      int
		principal string
	}{
		{"required missing", true, "", http.StatusUnauthorized, ""},
		{"required valid", true, "Bearer " + tok, http.StatusOK, "u_7/Kim"},
		{"required invalid", true, "Bearer nope", http.StatusUnauthorized, ""},
		{"required wrong scheme", true, "Basic " + tok, http.StatusUnauthorized, ""},
		{"optional missing", false, "", http.StatusOK, "anonymous"},
		{"optional valid", false, "Bearer " + tok, http.StatusOK, "u_7/Kim"},
		{"optional invalid", false, "Bearer nope", http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mw := OptionalJWT(tm)
			if tc.required {
				mw = RequireJWT(tm)
			}

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			mw(principalEcho(t)).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status=%d want=%d", rec.Code, tc.want)
			}
			if got := rec.Header().Get("X-Principal"); got != tc.principal {
				t.Fatalf("principal=%q want=%q", got, tc.principal)
			}
		})
	}
}
