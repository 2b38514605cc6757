package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{Slug: "bulbasaur", Name: "Bulbizarre", Types: []string{"grass", "poison"}},
		{Slug: "charmander", Name: "Salamèche", Types: []string{"fire"}},
		{Slug: "squirtle", Name: "Carapuce", Types: []string{"water"}},
		{Slug: "pikachu", Name: "Pikachu", Types: []string{"electric"}},
		{Slug: "eevee", Name: "Évoli", Types: []string{"normal"}},
		{Slug: "pidgey", Name: "Roucool", Types: []string{"normal", "flying"}},
		{Slug: "ekans", Name: "Abo", Types: []string{"poison"}},
	}
}

func names(es []Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name)
	}
	return out
}

func TestFilterByTypeLabelAndPrefix(t *testing.T) {
	require.Equal(t, []string{"Bulbizarre", "Abo"}, names(Filter(sampleEntries(), "", "poison")))
	require.Equal(t, []string{"Pikachu"}, names(Filter(sampleEntries(), "", "électrik")))
	require.Equal(t, []string{"Évoli", "Roucool"}, names(Filter(sampleEntries(), "", "normal")))
	require.Equal(t, []string{"Pikachu"}, names(Filter(sampleEntries(), "PIK", "")))
	require.Empty(t, Filter(sampleEntries(), "pik", "feu"))
	require.Len(t, Filter(sampleEntries(), "", ""), 7)
}

func TestSortEntriesUsesCollation(t *testing.T) {
	asc := names(SortEntries(sampleEntries(), SortAsc, "fr"))
	require.Equal(t, []string{"Abo", "Bulbizarre", "Carapuce", "Évoli", "Pikachu", "Roucool", "Salamèche"}, asc)

	desc := names(SortEntries(sampleEntries(), SortDesc, "fr"))
	require.Equal(t, "Salamèche", desc[0])
	require.Equal(t, "Abo", desc[len(desc)-1])

	require.Equal(t, names(sampleEntries()), names(SortEntries(sampleEntries(), SortNone, "fr")))
}

func TestBrowsePaginates(t *testing.T) {
	entries := make([]Entry, 0, 14)
	for i := 0; i < 14; i++ {
		entries = append(entries, Entry{Name: fmt.Sprintf("Mon%02d", i)})
	}

	p := Browse(entries, Query{Page: 1})
	require.Equal(t, 3, p.TotalPages)
	require.Equal(t, 14, p.Total)
	require.Len(t, p.Items, 6)
	require.False(t, p.HasPrev())
	require.True(t, p.HasNext())

	p = Browse(entries, Query{Page: 3})
	require.Len(t, p.Items, 2)
	require.Equal(t, "Mon12", p.Items[0].Name)
	require.False(t, p.HasNext())

	p = Browse(entries, Query{Page: 99})
	require.Equal(t, 3, p.Number)

	p = Browse(entries, Query{Page: -2})
	require.Equal(t, 1, p.Number)
}

func TestBrowseEmptyResultSuggests(t *testing.T) {
	p := Browse(sampleEntries(), Query{Search: "pikatchu"})
	require.Equal(t, 0, p.Total)
	require.Equal(t, 0, p.TotalPages)
	require.Equal(t, 1, p.Number)
	require.Empty(t, p.Items)
	require.Equal(t, []string{"Pikachu"}, p.Suggestions)
}

func TestSuggest(t *testing.T) {
	require.Equal(t, []string{"Carapuce"}, Suggest(sampleEntries(), "karap", 3))
	require.Nil(t, Suggest(sampleEntries(), "", 3))
	require.Empty(t, Suggest(sampleEntries(), "z", 3))
	require.Empty(t, Suggest(sampleEntries(), "zzzzzzzzzz", 3))
}

func TestParseSort(t *testing.T) {
	require.Equal(t, SortAsc, ParseSort("ASC"))
	require.Equal(t, SortDesc, ParseSort(" desc "))
	require.Equal(t, SortNone, ParseSort("sideways"))
}

func TestTypeForLabel(t *testing.T) {
	require.Equal(t, "fire", TypeForLabel("Feu"))
	require.Equal(t, "dragon", TypeForLabel("dragon"))
	require.Len(t, TypeLabels, len(typeLabels))
}
