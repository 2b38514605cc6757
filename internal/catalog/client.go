package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 4 << 20

// ClientOptions configures a Client. Zero values fall back to defaults.
type ClientOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client is a thin PokeAPI v2 client. Every call is a single GET; failures
// are returned to the caller without retry.
type Client struct {
	base    string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	mu        sync.Mutex
	typeNames map[string]string // "lang/type" -> label
}

// NewClient builds a Client.
func NewClient(opts ClientOptions) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://pokeapi.co/api/v2"
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:      base,
		http:      hc,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		typeNames: map[string]string{},
	}
}

// Pokemon is the subset of /pokemon/{id} the app uses.
type Pokemon struct {
	ID       int
	Slug     string
	ImageURL string
	Types    []string
	Stats    map[string]int
	Species  string
}

// Species is the subset of /pokemon-species/{id} the app uses.
type Species struct {
	Slug             string
	Names            map[string]string // language -> name
	EvolutionChainID int
}

// LocalizedName returns the species name in lang, falling back to the slug.
func (s Species) LocalizedName(lang string) string {
	if n, ok := s.Names[lang]; ok && n != "" {
		return n
	}
	return s.Slug
}

// List returns the first limit entries of the catalog index.
func (c *Client) List(ctx context.Context, limit int) ([]NamedRef, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	res, err := c.get(ctx, "/pokemon?"+q.Encode())
	if err != nil {
		return nil, err
	}
	results := res.Get("results")
	if !results.IsArray() {
		return nil, fmt.Errorf("%w: list has no results", ErrMalformed)
	}
	var out []NamedRef
	results.ForEach(func(_, v gjson.Result) bool {
		out = append(out, NamedRef{Name: v.Get("name").String(), URL: v.Get("url").String()})
		return true
	})
	return out, nil
}

// Pokemon fetches /pokemon/{idOrSlug}.
func (c *Client) Pokemon(ctx context.Context, idOrSlug string) (Pokemon, error) {
	res, err := c.get(ctx, "/pokemon/"+url.PathEscape(idOrSlug))
	if err != nil {
		return Pokemon{}, err
	}
	p := Pokemon{
		ID:       int(res.Get("id").Int()),
		Slug:     res.Get("name").String(),
		ImageURL: res.Get("sprites.front_default").String(),
		Species:  res.Get("species.name").String(),
		Stats:    map[string]int{},
	}
	if p.Slug == "" {
		return Pokemon{}, fmt.Errorf("%w: pokemon %s has no name", ErrMalformed, idOrSlug)
	}
	if p.Species == "" {
		p.Species = p.Slug
	}
	for _, t := range res.Get("types.#.type.name").Array() {
		p.Types = append(p.Types, t.String())
	}
	res.Get("stats").ForEach(func(_, v gjson.Result) bool {
		p.Stats[v.Get("stat.name").String()] = int(v.Get("base_stat").Int())
		return true
	})
	return p, nil
}

// Species fetches /pokemon-species/{slug}.
func (c *Client) Species(ctx context.Context, slug string) (Species, error) {
	res, err := c.get(ctx, "/pokemon-species/"+url.PathEscape(slug))
	if err != nil {
		return Species{}, err
	}
	s := Species{
		Slug:  res.Get("name").String(),
		Names: map[string]string{},
	}
	if s.Slug == "" {
		s.Slug = slug
	}
	res.Get("names").ForEach(func(_, v gjson.Result) bool {
		s.Names[v.Get("language.name").String()] = v.Get("name").String()
		return true
	})
	if u := res.Get("evolution_chain.url").String(); u != "" {
		id, err := IDFromURL(u)
		if err != nil {
			return Species{}, fmt.Errorf("%w: evolution chain url %q", ErrMalformed, u)
		}
		s.EvolutionChainID = id
	}
	return s, nil
}

// EvolutionChain fetches /evolution-chain/{id} as a linked structure.
func (c *Client) EvolutionChain(ctx context.Context, id int) (*ChainNode, error) {
	res, err := c.get(ctx, fmt.Sprintf("/evolution-chain/%d/", id))
	if err != nil {
		return nil, err
	}
	chain := res.Get("chain")
	if !chain.Exists() {
		return nil, fmt.Errorf("%w: evolution chain %d has no chain", ErrMalformed, id)
	}
	return parseChain(chain), nil
}

func parseChain(v gjson.Result) *ChainNode {
	n := &ChainNode{Species: NamedRef{
		Name: v.Get("species.name").String(),
		URL:  v.Get("species.url").String(),
	}}
	v.Get("evolves_to").ForEach(func(_, child gjson.Result) bool {
		n.EvolvesTo = append(n.EvolvesTo, parseChain(child))
		return true
	})
	return n
}

// TypeName returns the label of an API type in lang, falling back to the API
// name. Labels are memoized for the life of the client.
func (c *Client) TypeName(ctx context.Context, apiType, lang string) (string, error) {
	key := lang + "/" + apiType
	c.mu.Lock()
	if label, ok := c.typeNames[key]; ok {
		c.mu.Unlock()
		return label, nil
	}
	c.mu.Unlock()

	res, err := c.get(ctx, "/type/"+url.PathEscape(apiType))
	if err != nil {
		return apiType, err
	}
	label := res.Get(fmt.Sprintf(`names.#(language.name==%q).name`, lang)).String()
	if label == "" {
		label = apiType
	}
	c.mu.Lock()
	c.typeNames[key] = label
	c.mu.Unlock()
	return label, nil
}

// Entry combines /pokemon and /pokemon-species into a listing entry with the
// display name in lang.
func (c *Client) Entry(ctx context.Context, slug, lang string) (Entry, error) {
	p, err := c.Pokemon(ctx, slug)
	if err != nil {
		return Entry{}, err
	}
	s, err := c.Species(ctx, p.Species)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:               p.ID,
		Slug:             p.Slug,
		Name:             s.LocalizedName(lang),
		ImageURL:         p.ImageURL,
		Types:            p.Types,
		Stats:            p.Stats,
		EvolutionChainID: s.EvolutionChainID,
		EvolutionStage:   1,
	}, nil
}

// EvolutionStage fetches what the evolution strip shows for one species.
func (c *Client) EvolutionStage(ctx context.Context, slug, lang string) (EvolutionStage, error) {
	s, err := c.Species(ctx, slug)
	if err != nil {
		return EvolutionStage{}, err
	}
	p, err := c.Pokemon(ctx, slug)
	if err != nil {
		return EvolutionStage{}, err
	}
	labels, err := c.TypeLabels(ctx, p.Types, lang)
	if err != nil {
		return EvolutionStage{}, err
	}
	img := p.ImageURL
	if img == "" {
		img = DefaultImageURL
	}
	return EvolutionStage{
		Slug:     p.Slug,
		Name:     s.LocalizedName(lang),
		ImageURL: img,
		Types:    labels,
		Stats:    p.Stats,
	}, nil
}

// TypeLabels localizes a list of API type names.
func (c *Client) TypeLabels(ctx context.Context, types []string, lang string) ([]string, error) {
	out := make([]string, 0, len(types))
	for _, t := range types {
		label, err := c.TypeName(ctx, t, lang)
		if err != nil {
			return nil, err
		}
		out = append(out, label)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) (gjson.Result, error) {
	u := c.base + path
	if err := c.limiter.Wait(ctx); err != nil {
		return gjson.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("catalog request failed", zap.String("url", u), zap.Error(err))
		return gjson.Result{}, fmt.Errorf("catalog: GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Warn("catalog request rejected", zap.String("url", u), zap.Int("status", resp.StatusCode))
		return gjson.Result{}, &HTTPError{StatusCode: resp.StatusCode, URL: u}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("catalog: read %s: %w", u, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s", ErrMalformed, u)
	}
	c.logger.Debug("catalog request", zap.String("url", u))
	return gjson.ParseBytes(body), nil
}

// IDFromURL extracts the trailing numeric id of a PokeAPI resource URL such
// as https://pokeapi.co/api/v2/evolution-chain/1/.
func IDFromURL(raw string) (int, error) {
	parts := strings.Split(strings.TrimRight(raw, "/"), "/")
	return strconv.Atoi(parts[len(parts)-1])
}
