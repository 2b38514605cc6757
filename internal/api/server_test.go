package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/roster"
	"github.com/jask/pokedex/internal/service"
)

type fakeCatalog struct {
	entries []catalog.Entry
	err     error
}

func (f *fakeCatalog) Entries(context.Context) ([]catalog.Entry, error) {
	return f.entries, f.err
}

func (f *fakeCatalog) Lookup(_ context.Context, name string) (catalog.Entry, error) {
	if f.err != nil {
		return catalog.Entry{}, f.err
	}
	if e, ok := service.Find(f.entries, name); ok {
		return e, nil
	}
	return catalog.Entry{}, service.ErrUnknownEntry
}

type mapStore struct {
	mu      sync.Mutex
	values  map[string]string
	failSet bool
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errors.New("disk full")
	}
	s.values[key] = value
	return nil
}

func (s *mapStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func testEntries() []catalog.Entry {
	names := []struct{ slug, name, typ string }{
		{"bulbasaur", "Bulbizarre", "grass"},
		{"ivysaur", "Herbizarre", "grass"},
		{"venusaur", "Florizarre", "grass"},
		{"charmander", "Salamèche", "fire"},
		{"squirtle", "Carapuce", "water"},
		{"pikachu", "Pikachu", "electric"},
		{"pidgey", "Roucool", "normal"},
	}
	out := make([]catalog.Entry, 0, len(names))
	for i, n := range names {
		out = append(out, catalog.Entry{ID: i + 1, Slug: n.slug, Name: n.name, Types: []string{n.typ}})
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *mapStore, *httptest.Server) {
	t.Helper()
	store := &mapStore{values: map[string]string{}}
	team := roster.New(store, roster.WithRand(rand.New(rand.NewPCG(1, 2))))
	_, err := team.Load(context.Background())
	require.NoError(t, err)

	s := &Server{
		Team:       team,
		Catalog:    &fakeCatalog{entries: testEntries()},
		RandomSize: 6,
		PageSize:   catalog.DefaultPageSize,
		Language:   "fr",
	}
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return s, store, ts
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestAddListAndRemoveLast(t *testing.T) {
	_, store, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/team", `{"name":"pikachu"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := decodeBody[teamResponse](t, resp)
	require.Equal(t, []string{"Pikachu"}, added.Team)

	resp = do(t, http.MethodPost, ts.URL+"/team", `{"name":"Carapuce"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `["Pikachu","Carapuce"]`, store.values[roster.StorageKey])

	resp = do(t, http.MethodGet, ts.URL+"/team/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[teamResponse](t, resp)
	require.Equal(t, []string{"Pikachu", "Carapuce"}, listed.Team)
	require.Len(t, listed.Members, 2)
	require.Equal(t, "squirtle", listed.Members[1].Slug)

	resp = do(t, http.MethodDelete, ts.URL+"/team/last", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	removed := decodeBody[struct {
		Removed string   `json:"removed"`
		Team    []string `json:"team"`
		Message string   `json:"message"`
	}](t, resp)
	require.Equal(t, "Carapuce", removed.Removed)
	require.Equal(t, []string{"Pikachu"}, removed.Team)
	require.Equal(t, "Carapuce a été supprimé de votre équipe, il vous reste 1 Pokémon.", removed.Message)
}

func TestAddConflicts(t *testing.T) {
	_, _, ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/team", `{"name":"Pikachu"}`).StatusCode)

	resp := do(t, http.MethodPost, ts.URL+"/team", `{"name":"pikachu"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "duplicate", decodeBody[errorResponse](t, resp).Error)

	for _, n := range []string{"bulbasaur", "ivysaur", "venusaur", "charmander", "squirtle"} {
		require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/team", `{"name":"`+n+`"}`).StatusCode)
	}
	resp = do(t, http.MethodPost, ts.URL+"/team", `{"name":"pidgey"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "full", decodeBody[errorResponse](t, resp).Error)
}

func TestAddUnknownAndBadBody(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/team", `{"name":"mewtwo"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "unknown_pokemon", decodeBody[errorResponse](t, resp).Error)

	resp = do(t, http.MethodPost, ts.URL+"/team", `{`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRemoveLastOnEmptyTeam(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := do(t, http.MethodDelete, ts.URL+"/team/last", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "empty", decodeBody[errorResponse](t, resp).Error)
}

func TestClearRemovesStoredTeam(t *testing.T) {
	_, store, ts := newTestServer(t)

	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/team", `{"name":"pikachu"}`).StatusCode)
	resp := do(t, http.MethodDelete, ts.URL+"/team", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := store.values[roster.StorageKey]
	require.False(t, ok)
}

func TestRandomTeam(t *testing.T) {
	s, _, ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/team/random", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decodeBody[teamResponse](t, resp)
	require.Len(t, got.Team, 6)
	require.Equal(t, s.Team.List(), got.Team)

	resp = do(t, http.MethodPost, ts.URL+"/team/random", `{"size":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, decodeBody[teamResponse](t, resp).Team, 3)

	resp = do(t, http.MethodPost, ts.URL+"/team/random", `{"size":9}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRandomTeamChunkedEmptyBodyUsesDefaultSize(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/team/random", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, s.Team.List(), 6)
}

func TestRandomTeamWithTooFewCandidates(t *testing.T) {
	s, _, ts := newTestServer(t)
	s.Catalog = &fakeCatalog{entries: testEntries()[:2]}

	resp := do(t, http.MethodPost, ts.URL+"/team/random", "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Empty(t, s.Team.List())
}

func TestPersistFailureIsAWarning(t *testing.T) {
	s, store, ts := newTestServer(t)
	store.failSet = true

	resp := do(t, http.MethodPost, ts.URL+"/team", `{"name":"pikachu"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(PersistWarningHeader))
	require.Equal(t, []string{"Pikachu"}, s.Team.List())
}

func TestBrowse(t *testing.T) {
	_, _, ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/pokemon/?type=plante&sort=asc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeBody[catalog.Page](t, resp)
	require.Equal(t, 3, page.Total)
	require.Equal(t, "Bulbizarre", page.Items[0].Name)
	require.Equal(t, "Herbizarre", page.Items[2].Name)

	resp = do(t, http.MethodGet, ts.URL+"/pokemon/?page=2", "")
	page = decodeBody[catalog.Page](t, resp)
	require.Equal(t, 2, page.Number)
	require.Len(t, page.Items, 1)

	resp = do(t, http.MethodGet, ts.URL+"/pokemon/?search=pikahcu", "")
	page = decodeBody[catalog.Page](t, resp)
	require.Empty(t, page.Items)
	require.Contains(t, page.Suggestions, "Pikachu")
}

func TestShowEntry(t *testing.T) {
	_, _, ts := newTestServer(t)
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/team", `{"name":"pikachu"}`).StatusCode)

	resp := do(t, http.MethodGet, ts.URL+"/pokemon/pikachu", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "Pikachu", got["name"])
	require.Equal(t, true, got["inTeam"])

	resp = do(t, http.MethodGet, ts.URL+"/pokemon/mewtwo", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogFailure(t *testing.T) {
	s, _, ts := newTestServer(t)
	s.Catalog = &fakeCatalog{err: errors.New("offline")}

	resp := do(t, http.MethodGet, ts.URL+"/pokemon/", "")
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
