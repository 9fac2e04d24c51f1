package listing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Marketplace/internal/auth"
	"Marketplace/pkg/kit"
)

// Server holds the listing HTTP handlers.
type Server struct {
	Svc *Service
	Log *zap.Logger
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var page int
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			kit.WriteError(w, r, http.StatusBadRequest, "bad page", map[string]any{"page": raw})
			return
		}
		page = n
	}

	res, err := s.Svc.Query(r.Context(), QueryParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     page,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	var viewer *User
	if u, ok := actor(r); ok {
		viewer = &u
	}

	p, err := s.Svc.Get(r.Context(), chi.URLParam(r, "id"), viewer)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

// createReq accepts a full Product body so clients can post back what they
// read. Server-owned fields are decoded and dropped.
type createReq struct {
	NewProduct

	ID            json.RawMessage `json:"id"`
	DatePosted    json.RawMessage `json:"date_posted"`
	SellerID      json.RawMessage `json:"seller_id"`
	Sold          json.RawMessage `json:"sold"`
	SavedByUser   json.RawMessage `json:"saved_by_user"`
	CreatedByUser json.RawMessage `json:"created_by_user"`
	Seller        json.RawMessage `json:"seller"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	var req createReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	p, err := s.Svc.Create(r.Context(), u, req.NewProduct)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "invalid listing", map[string]any{
			"fields":    verr.Fields,
			"submitted": p,
		})
		return
	case err != nil:
		kit.WriteError(w, r, http.StatusInternalServerError, "could not create listing", map[string]any{
			"submitted": p,
		})
		return
	}

	w.Header().Set("Location", "/listings/"+p.ID)
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	if err := s.Svc.Delete(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	if err := s.Svc.Save(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUnsave(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	if err := s.Svc.Unsave(r.Context(), u, chi.URLParam(r, "id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	u, ok := actor(r)
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
		return
	}

	ps, err := s.Svc.Saved(r.Context(), u)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, ps)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Svc.CategoryList())
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Svc.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "no such category", map[string]any{
			"category": r.URL.Query().Get("category"),
		})
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
	case errors.Is(err, ErrForbidden):
		kit.WriteError(w, r, http.StatusForbidden, "forbidden", nil)
	case errors.Is(err, ErrUnauthorized):
		kit.WriteError(w, r, http.StatusUnauthorized, "no user", nil)
	default:
		s.Log.Error("listing request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("route", kit.ChiRoutePatternOrPath(r)),
		)
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func actor(r *http.Request) (User, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok || p.ID == "" {
		return User{}, false
	}
	return User{ID: p.ID, Name: p.Name}, true
}
