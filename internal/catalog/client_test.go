package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jask/pokedex/internal/catalog"
	"github.com/jask/pokedex/internal/catalog/catalogtest"
)

func newClient(t *testing.T) (*catalog.Client, *catalogtest.Server) {
	t.Helper()
	srv := catalogtest.NewServer(t)
	return catalog.NewClient(catalog.ClientOptions{BaseURL: srv.BaseURL(), Timeout: 2 * time.Second}), srv
}

func TestClientList(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	refs, err := c.List(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, refs, 3)
	require.Equal(t, "bulbasaur", refs[0].Name)
	require.Equal(t, "venusaur", refs[2].Name)
}

func TestClientEntry(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	e, err := c.Entry(context.Background(), "charmander", "fr")
	require.NoError(t, err)
	require.Equal(t, 4, e.ID)
	require.Equal(t, "charmander", e.Slug)
	require.Equal(t, "Salamèche", e.Name)
	require.Equal(t, []string{"fire"}, e.Types)
	require.Equal(t, 39, e.Stats["hp"])
	require.Equal(t, 2, e.EvolutionChainID)
	require.Equal(t, "https://img.example/4.png", e.ImageURL)

	en, err := c.Entry(context.Background(), "charmander", "de")
	require.NoError(t, err)
	require.Equal(t, "charmander", en.Name, "falls back to slug when language is missing")
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	_, err := c.Pokemon(context.Background(), "missingno")
	require.Error(t, err)
	require.True(t, errors.Is(err, catalog.ErrNotFound))
	var httpErr *catalog.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 404, httpErr.StatusCode)
}

func TestClientServerError(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)
	srv.Fail("/pokemon-species/pikachu", 500)

	_, err := c.Entry(context.Background(), "pikachu", "fr")
	var httpErr *catalog.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 500, httpErr.StatusCode)
	require.False(t, errors.Is(err, catalog.ErrNotFound))
}

func TestClientEvolutionChain(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	root, err := c.EvolutionChain(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, "pichu", root.Species.Name)
	require.Equal(t, "pikachu", root.Next().Species.Name)
	require.Equal(t, "raichu", root.Next().Next().Species.Name)
	require.Nil(t, root.Next().Next().Next())
	require.Equal(t, 2, catalog.StageOf(root, "pikachu"))
}

func TestClientTypeNameMemoized(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)
	ctx := context.Background()

	label, err := c.TypeName(ctx, "electric", "fr")
	require.NoError(t, err)
	require.Equal(t, "Électrik", label)
	before := srv.Requests.Load()

	label, err = c.TypeName(ctx, "electric", "fr")
	require.NoError(t, err)
	require.Equal(t, "Électrik", label)
	require.Equal(t, before, srv.Requests.Load())
}

func TestClientEvolutionStageDefaultsSprite(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	st, err := c.EvolutionStage(context.Background(), "pidgey", "fr")
	require.NoError(t, err)
	require.Equal(t, "Roucool", st.Name)
	require.Equal(t, catalog.DefaultImageURL, st.ImageURL)
	require.Equal(t, []string{"Normal", "Vol"}, st.Types)
}

func TestClientEvolutionStage(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	got, err := c.EvolutionStage(context.Background(), "raichu", "fr")
	require.NoError(t, err)
	want := catalog.EvolutionStage{
		Slug:     "raichu",
		Name:     "Raichu",
		ImageURL: "https://img.example/26.png",
		Types:    []string{"Électrik"},
		Stats: map[string]int{
			"hp": 60, "attack": 90, "defense": 55,
			"special-attack": 90, "special-defense": 80, "speed": 110,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("EvolutionStage mismatch (-want +got):\n%s", diff)
	}
}

func TestClientHonoursContext(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.List(ctx, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestIDFromURL(t *testing.T) {
	t.Parallel()
	id, err := catalog.IDFromURL("https://pokeapi.co/api/v2/evolution-chain/67/")
	require.NoError(t, err)
	require.Equal(t, 67, id)

	_, err = catalog.IDFromURL("https://pokeapi.co/api/v2/evolution-chain/")
	require.Error(t, err)
}
