// Package api exposes the team and the catalog over a small local JSON API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/logging"
	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

// PersistWarningHeader is set when a team change was applied in memory but
// could not be stored.
const PersistWarningHeader = "X-Persist-Warning"

// Catalog is what the API needs from the catalog service.
type Catalog interface {
	Entries(ctx context.Context) ([]catalog.Entry, error)
	Lookup(ctx context.Context, name string) (catalog.Entry, error)
}

// Server serves the API.
type Server struct {
	Team       *roster.Manager
	Catalog    Catalog
	Logger     *zap.Logger
	RandomSize int
	PageSize   int
	Language   string
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/team", func(r chi.Router) {
		r.Get("/", s.listTeam)
		r.Post("/", s.addMember)
		r.Delete("/", s.clearTeam)
		r.Delete("/last", s.removeLast)
		r.Post("/random", s.randomTeam)
	})
	r.Route("/pokemon", func(r chi.Router) {
		r.Get("/", s.browse)
		r.Get("/{name}", s.showEntry)
	})
	return r
}

type teamResponse struct {
	Team    []string        `json:"team"`
	Members []catalog.Entry `json:"members,omitempty"`
	Message string          `json:"message,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) listTeam(w http.ResponseWriter, r *http.Request) {
	names := s.Team.List()
	resp := teamResponse{Team: names, Message: roster.Summary(names)}
	if entries, err := s.Catalog.Entries(r.Context()); err == nil {
		for _, n := range names {
			if e, ok := service.Find(entries, n); ok {
				resp.Members = append(resp.Members, e)
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "corps JSON invalide")
		return
	}
	e, err := s.Catalog.Lookup(r.Context(), body.Name)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	err = s.Team.Add(r.Context(), e.Name)
	if err != nil && !roster.IsWarning(err) {
		s.writeFailure(w, err)
		return
	}
	s.warnIfPersistFailed(w, err)
	writeJSON(w, http.StatusCreated, teamResponse{Team: s.Team.List(), Message: service.AddMessage(e.Name, err)})
}

func (s *Server) removeLast(w http.ResponseWriter, r *http.Request) {
	removed, err := s.Team.RemoveLast(r.Context())
	if err != nil && !roster.IsWarning(err) {
		s.writeFailure(w, err)
		return
	}
	s.warnIfPersistFailed(w, err)
	team := s.Team.List()
	writeJSON(w, http.StatusOK, struct {
		Removed string   `json:"removed"`
		Team    []string `json:"team"`
		Message string   `json:"message"`
	}{removed, team, service.RemoveMessage(removed, len(team))})
}

func (s *Server) clearTeam(w http.ResponseWriter, r *http.Request) {
	err := s.Team.Clear(r.Context())
	if err != nil && !roster.IsWarning(err) {
		s.writeFailure(w, err)
		return
	}
	s.warnIfPersistFailed(w, err)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) randomTeam(w http.ResponseWriter, r *http.Request) {
	size := s.RandomSize
	if size <= 0 {
		size = roster.Capacity
	}
	// the body is optional, chunked requests included
	var body struct {
		Size *int `json:"size"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", "corps JSON invalide")
		return
	}
	if body.Size != nil {
		size = *body.Size
	}
	entries, err := s.Catalog.Entries(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	team, err := s.Team.GenerateRandom(r.Context(), entries, size)
	if err != nil && !roster.IsWarning(err) {
		s.writeFailure(w, err)
		return
	}
	s.warnIfPersistFailed(w, err)
	writeJSON(w, http.StatusCreated, teamResponse{Team: team, Message: roster.Summary(team)})
}

func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Catalog.Entries(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	writeJSON(w, http.StatusOK, catalog.Browse(entries, catalog.Query{
		Search:   q.Get("search"),
		Type:     q.Get("type"),
		Sort:     catalog.ParseSort(q.Get("sort")),
		Page:     page,
		PageSize: s.PageSize,
		Lang:     s.Language,
	}))
}

func (s *Server) showEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.Catalog.Lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		catalog.Entry
		InTeam bool `json:"inTeam"`
	}{e, s.Team.Contains(e.Name)})
}

func (s *Server) warnIfPersistFailed(w http.ResponseWriter, err error) {
	if err != nil {
		w.Header().Set(PersistWarningHeader, err.Error())
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= 500 {
		s.logger().Warn("request failed", zap.Error(err))
	}
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, roster.ErrDuplicate):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, roster.ErrFull):
		return http.StatusConflict, "full"
	case errors.Is(err, roster.ErrEmpty):
		return http.StatusNotFound, "empty"
	case errors.Is(err, roster.ErrInsufficientCandidates):
		return http.StatusUnprocessableEntity, "insufficient_candidates"
	case errors.Is(err, roster.ErrInvalidSize), errors.Is(err, roster.ErrInvalidName):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, roster.ErrNotLoaded):
		return http.StatusServiceUnavailable, "not_loaded"
	case errors.Is(err, service.ErrUnknownEntry), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "unknown_pokemon"
	default:
		return http.StatusBadGateway, "catalog_unavailable"
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) logger() *zap.Logger {
	return logging.OrNop(s.Logger)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
