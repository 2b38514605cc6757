package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/database/repository"
	"github.com/jask/pokedex/internal/logging"
)

// ErrUnknownEntry is returned when a name matches nothing in the catalog.
var ErrUnknownEntry = errors.New("unknown pokemon")

// CatalogService keeps the local listing in sync with the remote catalog.
type CatalogService struct {
	Client      *catalog.Client
	Cache       *repository.CatalogRepo
	Logger      *zap.Logger
	Language    string
	Limit       int
	Concurrency int
	CacheTTL    time.Duration
	Now         func() time.Time
}

// Entries returns the cached listing when it is fresh enough, refreshing it
// otherwise. A failed refresh falls back to a stale cache when there is one.
func (s *CatalogService) Entries(ctx context.Context) ([]catalog.Entry, error) {
	cached, err := s.Cache.List(ctx)
	if err != nil {
		s.logger().Warn("read catalog cache", zap.Error(err))
		cached = nil
	}
	if len(cached) > 0 && s.fresh(ctx) {
		return fromRows(cached), nil
	}

	entries, err := s.Refresh(ctx)
	if err != nil {
		if len(cached) > 0 {
			s.logger().Warn("catalog refresh failed, using stale cache", zap.Error(err), zap.Int("entries", len(cached)))
			return fromRows(cached), nil
		}
		return nil, err
	}
	return entries, nil
}

// Refresh fetches the listing and each entry's detail, species and evolution
// stage, then replaces the cache.
func (s *CatalogService) Refresh(ctx context.Context) ([]catalog.Entry, error) {
	start := time.Now()
	refs, err := s.Client.List(ctx, s.limit())
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	entries := make([]catalog.Entry, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, ref := range refs {
		g.Go(func() error {
			e, err := s.Client.Entry(gctx, ref.Name, s.lang())
			if err != nil {
				return fmt.Errorf("fetch %s: %w", ref.Name, err)
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chains, err := s.fetchChains(ctx, entries)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].EvolutionStage = catalog.StageOf(chains[entries[i].EvolutionChainID], entries[i].Slug)
	}

	if err := s.Cache.ReplaceAll(ctx, toRows(entries)); err != nil {
		s.logger().Warn("write catalog cache", zap.Error(err))
	}
	s.logger().Info("catalog refreshed", zap.Int("entries", len(entries)), zap.Duration("took", time.Since(start)))
	return entries, nil
}

// fetchChains loads every distinct evolution chain once.
func (s *CatalogService) fetchChains(ctx context.Context, entries []catalog.Entry) (map[int]*catalog.ChainNode, error) {
	var mu sync.Mutex
	chains := map[int]*catalog.ChainNode{}
	seen := map[int]bool{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for _, e := range entries {
		id := e.EvolutionChainID
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			root, err := s.Client.EvolutionChain(gctx, id)
			if err != nil {
				return fmt.Errorf("fetch evolution chain %d: %w", id, err)
			}
			mu.Lock()
			chains[id] = root
			mu.Unlock()
			return nil
		})
	}
	return chains, g.Wait()
}

// Find resolves a display name or API slug, case-insensitively, against
// entries.
func Find(entries []catalog.Entry, name string) (catalog.Entry, bool) {
	name = strings.TrimSpace(name)
	for _, e := range entries {
		if strings.EqualFold(e.Name, name) || strings.EqualFold(e.Slug, name) {
			return e, true
		}
	}
	return catalog.Entry{}, false
}

// Lookup is Find over the current listing.
func (s *CatalogService) Lookup(ctx context.Context, name string) (catalog.Entry, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return catalog.Entry{}, err
	}
	e, ok := Find(entries, name)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrUnknownEntry, name)
	}
	return e, nil
}

// Detail fetches live stats, localized types and the evolution strip for e.
// When the evolution walk fails part way, the stages fetched so far are kept
// and the error is returned alongside the detail.
func (s *CatalogService) Detail(ctx context.Context, e catalog.Entry) (catalog.Detail, error) {
	p, err := s.Client.Pokemon(ctx, e.Slug)
	if err != nil {
		return catalog.Detail{}, fmt.Errorf("fetch %s: %w", e.Slug, err)
	}
	labels, err := s.Client.TypeLabels(ctx, p.Types, s.lang())
	if err != nil {
		return catalog.Detail{}, fmt.Errorf("localize types of %s: %w", e.Slug, err)
	}

	d := catalog.Detail{Entry: e, TypeLabels: labels}
	d.Stats = p.Stats
	d.ImageURL = p.ImageURL
	if d.ImageURL == "" {
		d.ImageURL = catalog.DefaultImageURL
	}

	chainID := e.EvolutionChainID
	if chainID == 0 {
		sp, err := s.Client.Species(ctx, p.Species)
		if err != nil {
			return d, fmt.Errorf("fetch species %s: %w", p.Species, err)
		}
		chainID = sp.EvolutionChainID
		d.EvolutionChainID = chainID
	}
	root, err := s.Client.EvolutionChain(ctx, chainID)
	if err != nil {
		s.logger().Warn("fetch evolution chain", zap.Int("chain", chainID), zap.Error(err))
		return d, fmt.Errorf("fetch evolution chain %d: %w", chainID, err)
	}
	d.EvolutionStage = catalog.StageOf(root, e.Slug)
	d.Evolutions, err = catalog.WalkEvolutions(ctx, root, func(ctx context.Context, slug string) (catalog.EvolutionStage, error) {
		return s.Client.EvolutionStage(ctx, slug, s.lang())
	})
	if err != nil {
		s.logger().Warn("walk evolution chain", zap.Int("chain", chainID), zap.Error(err))
		return d, fmt.Errorf("walk evolution chain %d: %w", chainID, err)
	}
	return d, nil
}

// NextEvolution returns the stage after e in d's evolution strip.
func NextEvolution(d catalog.Detail) (catalog.EvolutionStage, bool) {
	for i, st := range d.Evolutions {
		if st.Slug == d.Slug && i+1 < len(d.Evolutions) {
			return d.Evolutions[i+1], true
		}
	}
	return catalog.EvolutionStage{}, false
}

func (s *CatalogService) fresh(ctx context.Context) bool {
	if s.CacheTTL <= 0 {
		return true
	}
	oldest, ok, err := s.Cache.OldestFetch(ctx)
	if err != nil || !ok {
		return false
	}
	return s.now().Sub(oldest) < s.CacheTTL
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CatalogService) lang() string {
	if s.Language == "" {
		return "fr"
	}
	return s.Language
}

func (s *CatalogService) limit() int {
	if s.Limit <= 0 {
		return 100
	}
	return s.Limit
}

func (s *CatalogService) concurrency() int {
	if s.Concurrency <= 0 {
		return 1
	}
	return s.Concurrency
}

func (s *CatalogService) logger() *zap.Logger {
	return logging.OrNop(s.Logger)
}

func toRows(entries []catalog.Entry) []repository.CatalogEntry {
	rows := make([]repository.CatalogEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, repository.CatalogEntry{
			DexNumber:        e.ID,
			Slug:             e.Slug,
			Name:             e.Name,
			ImageURL:         e.ImageURL,
			Types:            e.Types,
			Stats:            e.Stats,
			EvolutionChainID: e.EvolutionChainID,
			EvolutionStage:   e.EvolutionStage,
		})
	}
	return rows
}

func fromRows(rows []repository.CatalogEntry) []catalog.Entry {
	out := make([]catalog.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, catalog.Entry{
			ID:               r.DexNumber,
			Slug:             r.Slug,
			Name:             r.Name,
			ImageURL:         r.ImageURL,
			Types:            r.Types,
			Stats:            r.Stats,
			EvolutionChainID: r.EvolutionChainID,
			EvolutionStage:   r.EvolutionStage,
		})
	}
	return out
}
