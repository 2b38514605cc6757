// Package catalog talks to the PokeAPI REST catalog and holds the read-only
// view of its entries: listing, filtering, evolution chains and stats.
package catalog

import "strings"

// Entry is a catalog record as shown in listings.
type Entry struct {
	ID               int            `json:"id"`
	Slug             string         `json:"slug"`
	Name             string         `json:"name"`
	ImageURL         string         `json:"imageUrl"`
	Types            []string       `json:"types"`
	Stats            map[string]int `json:"stats,omitempty"`
	EvolutionChainID int            `json:"evolutionChainId"`
	EvolutionStage   int            `json:"evolutionStage"`
}

// HasType reports whether the entry carries the API type name t.
func (e Entry) HasType(t string) bool {
	for _, have := range e.Types {
		if strings.EqualFold(have, t) {
			return true
		}
	}
	return false
}

// NamedRef is the {name, url} pair PokeAPI uses for links.
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Detail is an entry enriched for the detail screen.
type Detail struct {
	Entry
	TypeLabels []string         `json:"typeLabels"`
	Evolutions []EvolutionStage `json:"evolutions"`
}

// EvolutionStage is one step of an evolution chain, ready for display.
type EvolutionStage struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	ImageURL string         `json:"imageUrl"`
	Types    []string       `json:"types"`
	Stats    map[string]int `json:"stats,omitempty"`
}

// DefaultImageURL stands in for entries without a sprite.
const DefaultImageURL = "default-image-url.png"

// typeLabels maps the French labels offered by the type filter to API type names.
var typeLabels = map[string]string{
	"feu":      "fire",
	"eau":      "water",
	"plante":   "grass",
	"vol":      "flying",
	"insecte":  "bug",
	"poison":   "poison",
	"normal":   "normal",
	"électrik": "electric",
	"sol":      "ground",
	"fée":      "fairy",
	"combat":   "fighting",
	"psy":      "psychic",
	"roche":    "rock",
	"acier":    "steel",
	"glace":    "ice",
	"spectre":  "ghost",
}

// TypeLabels lists the filter labels in menu order.
var TypeLabels = []string{
	"feu", "eau", "plante", "vol", "insecte", "poison", "normal", "électrik",
	"sol", "fée", "combat", "psy", "roche", "acier", "glace", "spectre",
}

// TypeForLabel resolves a filter label to an API type name. Unknown labels
// are assumed to already be API names.
func TypeForLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if t, ok := typeLabels[label]; ok {
		return t
	}
	return label
}
