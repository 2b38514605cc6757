// Package catalogtest serves a tiny PokeAPI fixture over httptest.
package catalogtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// Mon is one fixture pokemon.
type Mon struct {
	ID      int
	Slug    string
	FrName  string
	Types   []string
	Stats   map[string]int
	ChainID int
	Sprite  bool
}

// Chain is a first-child-only evolution chain fixture, slugs in order.
type Chain struct {
	ID    int
	Slugs []string
}

// Default fixture data: listed pokemon come first, unlisted ones (only
// reachable through chains) after.
var (
	Listed = []Mon{
		{ID: 1, Slug: "bulbasaur", FrName: "Bulbizarre", Types: []string{"grass", "poison"}, Stats: baseStats(45, 49, 49, 65, 65, 45), ChainID: 1, Sprite: true},
		{ID: 2, Slug: "ivysaur", FrName: "Herbizarre", Types: []string{"grass", "poison"}, Stats: baseStats(60, 62, 63, 80, 80, 60), ChainID: 1, Sprite: true},
		{ID: 3, Slug: "venusaur", FrName: "Florizarre", Types: []string{"grass", "poison"}, Stats: baseStats(80, 82, 83, 100, 100, 80), ChainID: 1, Sprite: true},
		{ID: 4, Slug: "charmander", FrName: "Salamèche", Types: []string{"fire"}, Stats: baseStats(39, 52, 43, 60, 50, 65), ChainID: 2, Sprite: true},
		{ID: 7, Slug: "squirtle", FrName: "Carapuce", Types: []string{"water"}, Stats: baseStats(44, 48, 65, 50, 64, 43), ChainID: 3, Sprite: true},
		{ID: 25, Slug: "pikachu", FrName: "Pikachu", Types: []string{"electric"}, Stats: baseStats(35, 55, 40, 50, 50, 90), ChainID: 10, Sprite: true},
		{ID: 16, Slug: "pidgey", FrName: "Roucool", Types: []string{"normal", "flying"}, Stats: baseStats(40, 45, 40, 35, 35, 56), ChainID: 6, Sprite: false},
	}
	Unlisted = []Mon{
		{ID: 172, Slug: "pichu", FrName: "Pichu", Types: []string{"electric"}, Stats: baseStats(20, 40, 15, 35, 35, 60), ChainID: 10, Sprite: true},
		{ID: 26, Slug: "raichu", FrName: "Raichu", Types: []string{"electric"}, Stats: baseStats(60, 90, 55, 90, 80, 110), ChainID: 10, Sprite: true},
	}
	Chains = []Chain{
		{ID: 1, Slugs: []string{"bulbasaur", "ivysaur", "venusaur"}},
		{ID: 2, Slugs: []string{"charmander"}},
		{ID: 3, Slugs: []string{"squirtle"}},
		{ID: 6, Slugs: []string{"pidgey"}},
		{ID: 10, Slugs: []string{"pichu", "pikachu", "raichu"}},
	}
	TypeFr = map[string]string{
		"grass": "Plante", "poison": "Poison", "fire": "Feu", "water": "Eau",
		"electric": "Électrik", "normal": "Normal", "flying": "Vol",
	}
)

func baseStats(hp, atk, def, spa, spd, spe int) map[string]int {
	return map[string]int{
		"hp": hp, "attack": atk, "defense": def,
		"special-attack": spa, "special-defense": spd, "speed": spe,
	}
}

// Server is a running fixture.
type Server struct {
	*httptest.Server
	Requests atomic.Int64

	mu   sync.Mutex
	fail map[string]int // path -> status
}

// BaseURL is the value to use as catalog.base_url.
func (s *Server) BaseURL() string { return s.URL }

// Fail makes path answer with status until cleared with status 0.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, path)
		return
	}
	s.fail[path] = status
}

// NewServer starts the fixture and registers its shutdown with t.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{fail: map[string]int{}}
	mons := map[string]Mon{}
	for _, m := range append(append([]Mon(nil), Listed...), Unlisted...) {
		mons[m.Slug] = m
	}
	chains := map[int]Chain{}
	for _, c := range Chains {
		chains[c.ID] = c
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pokemon", func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit > len(Listed) {
			limit = len(Listed)
		}
		var results []map[string]string
		for _, m := range Listed[:limit] {
			results = append(results, map[string]string{"name": m.Slug, "url": fmt.Sprintf("%s/pokemon/%d/", s.URL, m.ID)})
		}
		writeJSON(w, map[string]any{"count": len(Listed), "results": results})
	})
	mux.HandleFunc("GET /pokemon/{slug}", func(w http.ResponseWriter, r *http.Request) {
		m, ok := mons[r.PathValue("slug")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var types, stats []map[string]any
		for i, t := range m.Types {
			types = append(types, map[string]any{"slot": i + 1, "type": map[string]string{"name": t, "url": s.URL + "/type/" + t + "/"}})
		}
		for _, name := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
			stats = append(stats, map[string]any{"base_stat": m.Stats[name], "stat": map[string]string{"name": name}})
		}
		var sprite any
		if m.Sprite {
			sprite = fmt.Sprintf("https://img.example/%d.png", m.ID)
		}
		writeJSON(w, map[string]any{
			"id":      m.ID,
			"name":    m.Slug,
			"sprites": map[string]any{"front_default": sprite},
			"types":   types,
			"stats":   stats,
			"species": map[string]string{"name": m.Slug, "url": s.URL + "/pokemon-species/" + m.Slug + "/"},
		})
	})
	mux.HandleFunc("GET /pokemon-species/{slug}", func(w http.ResponseWriter, r *http.Request) {
		m, ok := mons[r.PathValue("slug")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{
			"name": m.Slug,
			"names": []map[string]any{
				{"language": map[string]string{"name": "en"}, "name": m.Slug},
				{"language": map[string]string{"name": "fr"}, "name": m.FrName},
			},
			"evolution_chain": map[string]string{"url": fmt.Sprintf("%s/evolution-chain/%d/", s.URL, m.ChainID)},
		})
	})
	mux.HandleFunc("GET /evolution-chain/{id}/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		c, ok := chains[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{"id": c.ID, "chain": chainJSON(s.URL, c.Slugs)})
	})
	mux.HandleFunc("GET /type/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		fr, ok := TypeFr[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{
			"name": name,
			"names": []map[string]any{
				{"language": map[string]string{"name": "fr"}, "name": fr},
			},
		})
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Requests.Add(1)
		s.mu.Lock()
		status, failing := s.fail[r.URL.Path]
		s.mu.Unlock()
		if failing {
			http.Error(w, http.StatusText(status), status)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func chainJSON(base string, slugs []string) map[string]any {
	node := map[string]any{
		"species":    map[string]string{"name": slugs[0], "url": base + "/pokemon-species/" + slugs[0] + "/"},
		"evolves_to": []any{},
	}
	if len(slugs) > 1 {
		node["evolves_to"] = []any{chainJSON(base, slugs[1:])}
	}
	return node
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
