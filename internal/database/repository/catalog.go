package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jask/pokedex/internal/database"
)

// CatalogRepo handles the cached catalog listing.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// CatalogRowID derives a stable row id from the API slug.
func CatalogRowID(slug string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("pokeapi:pokemon:"+slug)).String()
}

// ReplaceAll swaps the whole cached listing in one transaction.
func (r *CatalogRepo) ReplaceAll(ctx context.Context, entries []CatalogEntry) error {
	fetchedAt := database.Now()
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_entries`); err != nil {
			return err
		}
		for i, e := range entries {
			types, err := json.Marshal(nonNilTypes(e.Types))
			if err != nil {
				return err
			}
			stats, err := json.Marshal(nonNilStats(e.Stats))
			if err != nil {
				return err
			}
			id := e.ID
			if id == "" {
				id = CatalogRowID(e.Slug)
			}
			stage := e.EvolutionStage
			if stage < 1 {
				stage = 1
			}
			_, err = tx.ExecContext(ctx, `
			INSERT INTO catalog_entries(
			 id, position, dex_number, slug, name, image_url, types, stats,
			 evolution_chain_id, evolution_stage, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
			`, id, i, e.DexNumber, e.Slug, e.Name, e.ImageURL, string(types), string(stats), e.EvolutionChainID, stage, fetchedAt)
			if err != nil {
				return fmt.Errorf("insert %s: %w", e.Slug, err)
			}
		}
		return nil
	})
}

func (r *CatalogRepo) List(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, position, dex_number, slug, name, image_url, types, stats,
	 evolution_chain_id, evolution_stage, fetched_at
	FROM catalog_entries ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CatalogEntry
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// BySlug returns the cached entry for slug, or nil when absent.
func (r *CatalogRepo) BySlug(ctx context.Context, slug string) (*CatalogEntry, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, position, dex_number, slug, name, image_url, types, stats,
	 evolution_chain_id, evolution_stage, fetched_at
	FROM catalog_entries WHERE slug = ?`, slug)
	e, err := scanCatalogEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// OldestFetch reports when the stalest cached row was fetched.
func (r *CatalogRepo) OldestFetch(ctx context.Context) (time.Time, bool, error) {
	var ts time.Time
	err := r.db.QueryRowContext(ctx, `SELECT fetched_at FROM catalog_entries ORDER BY fetched_at ASC LIMIT 1`).Scan(&ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return ts, true, nil
}

func (r *CatalogRepo) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM catalog_entries`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(s scanner) (CatalogEntry, error) {
	var e CatalogEntry
	var types, stats string
	if err := s.Scan(&e.ID, &e.Position, &e.DexNumber, &e.Slug, &e.Name, &e.ImageURL, &types, &stats,
		&e.EvolutionChainID, &e.EvolutionStage, &e.FetchedAt); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(types), &e.Types); err != nil {
		return e, fmt.Errorf("decode types for %s: %w", e.Slug, err)
	}
	if err := json.Unmarshal([]byte(stats), &e.Stats); err != nil {
		return e, fmt.Errorf("decode stats for %s: %w", e.Slug, err)
	}
	return e, nil
}

func nonNilTypes(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

func nonNilStats(s map[string]int) map[string]int {
	if s == nil {
		return map[string]int{}
	}
	return s
}
