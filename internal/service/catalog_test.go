package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/catalog/catalogtest"
	"github.com/jask/pokedex/internal/database"
	"github.com/jask/pokedex/internal/database/repository"
	"github.com/jask/pokedex/internal/roster"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newCatalogService(t *testing.T) (*CatalogService, *catalogtest.Server, *sql.DB) {
	t.Helper()
	srv := catalogtest.NewServer(t)
	httpClient := srv.Client()
	t.Cleanup(httpClient.CloseIdleConnections)
	db := openTestDB(t)
	svc := &CatalogService{
		Client:      catalog.NewClient(catalog.ClientOptions{BaseURL: srv.BaseURL(), HTTPClient: httpClient}),
		Cache:       repository.NewCatalogRepo(db),
		Language:    "fr",
		Limit:       100,
		Concurrency: 4,
		CacheTTL:    time.Hour,
	}
	return svc, srv, db
}

func TestRefreshBuildsEntriesInCatalogOrder(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	entries, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(catalogtest.Listed))
	for i, m := range catalogtest.Listed {
		require.Equal(t, m.Slug, entries[i].Slug)
		require.Equal(t, m.FrName, entries[i].Name)
		require.Equal(t, m.ChainID, entries[i].EvolutionChainID)
	}

	byslug := map[string]catalog.Entry{}
	for _, e := range entries {
		byslug[e.Slug] = e
	}
	require.Equal(t, 1, byslug["bulbasaur"].EvolutionStage)
	require.Equal(t, 3, byslug["venusaur"].EvolutionStage)
	require.Equal(t, 2, byslug["pikachu"].EvolutionStage)

	cached, err := svc.Cache.List(ctx)
	require.NoError(t, err)
	require.Len(t, cached, len(entries))
}

func TestEntriesUsesFreshCache(t *testing.T) {
	svc, srv, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Entries(ctx)
	require.NoError(t, err)
	before := srv.Requests.Load()

	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(catalogtest.Listed))
	require.Equal(t, before, srv.Requests.Load(), "fresh cache must not hit the network")
}

func TestEntriesRefreshesStaleCache(t *testing.T) {
	svc, srv, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Entries(ctx)
	require.NoError(t, err)
	before := srv.Requests.Load()

	svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.Entries(ctx)
	require.NoError(t, err)
	require.Greater(t, srv.Requests.Load(), before)
}

func TestEntriesFallsBackToStaleCache(t *testing.T) {
	svc, srv, _ := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.Entries(ctx)
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	srv.Fail("/pokemon", 503)
	entries, err := svc.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(catalogtest.Listed))
}

func TestEntriesWithoutCacheReportsFailure(t *testing.T) {
	svc, srv, _ := newCatalogService(t)
	srv.Fail("/pokemon/pikachu", 500)

	_, err := svc.Entries(context.Background())
	require.Error(t, err)
	var httpErr *catalog.HTTPError
	require.ErrorAs(t, err, &httpErr)
}

func TestLookup(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()

	e, err := svc.Lookup(ctx, "salamèche")
	require.NoError(t, err)
	require.Equal(t, "charmander", e.Slug)

	e, err = svc.Lookup(ctx, "SQUIRTLE")
	require.NoError(t, err)
	require.Equal(t, "Carapuce", e.Name)

	_, err = svc.Lookup(ctx, "missingno")
	require.ErrorIs(t, err, ErrUnknownEntry)
}

func TestDetailWalksEvolutionChain(t *testing.T) {
	svc, _, _ := newCatalogService(t)
	ctx := context.Background()
	e, err := svc.Lookup(ctx, "pikachu")
	require.NoError(t, err)

	d, err := svc.Detail(ctx, e)
	require.NoError(t, err)
	require.Equal(t, []string{"Électrik"}, d.TypeLabels)
	require.Equal(t, 90, d.Stats["speed"])
	require.Equal(t, 2, d.EvolutionStage)
	require.Len(t, d.Evolutions, 3)
	require.Equal(t, "Pichu", d.Evolutions[0].Name)
	require.Equal(t, "Raichu", d.Evolutions[2].Name)

	next, ok := NextEvolution(d)
	require.True(t, ok)
	require.Equal(t, "raichu", next.Slug)
	deltas := catalog.CompareStats(d.Stats, next.Stats)
	require.Equal(t, "hp", deltas[0].Name)
	require.Equal(t, 25, deltas[0].Delta)
}

func TestDetailKeepsPartialEvolutions(t *testing.T) {
	svc, srv, _ := newCatalogService(t)
	ctx := context.Background()
	e, err := svc.Lookup(ctx, "bulbasaur")
	require.NoError(t, err)

	srv.Fail("/pokemon/venusaur", 500)
	d, err := svc.Detail(ctx, e)
	require.Error(t, err)
	require.Len(t, d.Evolutions, 2)
	require.Equal(t, []string{"Plante", "Poison"}, d.TypeLabels)

	_, ok := NextEvolution(catalog.Detail{Entry: catalog.Entry{Slug: "venusaur"}, Evolutions: d.Evolutions})
	require.False(t, ok)
}

func TestMaintenanceReset(t *testing.T) {
	svc, _, db := newCatalogService(t)
	ctx := context.Background()
	_, err := svc.Entries(ctx)
	require.NoError(t, err)

	store := repository.NewKVRepo(db).Scope("pokedex")
	team := roster.New(store)
	_, err = team.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, team.Add(ctx, "Pikachu"))

	m := &MaintenanceService{DB: db, Catalog: svc.Cache, Team: team}
	require.NoError(t, m.Reset(ctx))

	cached, err := svc.Cache.List(ctx)
	require.NoError(t, err)
	require.Empty(t, cached)
	require.Empty(t, team.List())
	_, ok, err := store.Get(ctx, roster.StorageKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.Error(t, (&MaintenanceService{}).Reset(ctx))
}

func TestRosterPersistsThroughSQLite(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := repository.NewKVRepo(db).Scope("pokedex")

	team := roster.New(store)
	_, err := team.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, team.Add(ctx, "Pikachu"))
	require.NoError(t, team.Add(ctx, "Bulbizarre"))

	restarted := roster.New(store)
	got, err := restarted.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Pikachu", "Bulbizarre"}, got)

	require.NoError(t, restarted.Clear(ctx))
	got, err = roster.New(store).Load(ctx)
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, store.Set(ctx, roster.StorageKey, "garbage"))
	got, err = roster.New(store).Load(ctx)
	require.True(t, errors.Is(err, roster.ErrCorruptState))
	require.Empty(t, got)
}
