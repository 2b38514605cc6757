package repository

import "time"

// KV represents a row of the scoped key/value table.
type KV struct {
	Scope     string
	Key       string
	Value     string
	Revision  string
	UpdatedAt time.Time
}

// CatalogEntry represents a cached catalog row.
type CatalogEntry struct {
	ID               string
	Position         int
	DexNumber        int
	Slug             string
	Name             string
	ImageURL         string
	Types            []string
	Stats            map[string]int
	EvolutionChainID int
	EvolutionStage   int
	FetchedAt        time.Time
}
