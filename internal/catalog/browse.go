package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the number of entries shown per page.
const DefaultPageSize = 6

// SortOrder orders listings by display name.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSort accepts "asc", "desc" or anything else as no sorting.
func ParseSort(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// Query describes one listing request.
type Query struct {
	Search   string
	Type     string // filter label, e.g. "feu"; empty for all
	Sort     SortOrder
	Page     int // 1-based
	PageSize int
	Lang     string
}

// Page is one page of a filtered, sorted listing.
type Page struct {
	Items       []Entry  `json:"items"`
	Number      int      `json:"page"`
	TotalPages  int      `json:"totalPages"`
	Total       int      `json:"total"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Filter applies the type filter and the case-insensitive name prefix search.
func Filter(entries []Entry, search, typeLabel string) []Entry {
	apiType := ""
	if strings.TrimSpace(typeLabel) != "" {
		apiType = TypeForLabel(typeLabel)
	}
	prefix := strings.ToLower(search)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if apiType != "" && !e.HasType(apiType) {
			continue
		}
		if !strings.HasPrefix(strings.ToLower(e.Name), prefix) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// SortEntries orders a copy of entries by display name using the collation
// rules of lang. SortNone keeps catalog order.
func SortEntries(entries []Entry, order SortOrder, lang string) []Entry {
	out := append([]Entry(nil), entries...)
	if order == SortNone {
		return out
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.French
	}
	c := collate.New(tag)
	sort.SliceStable(out, func(i, j int) bool {
		cmp := c.CompareString(out[i].Name, out[j].Name)
		if order == SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

// Browse filters, sorts and paginates entries. The page number is clamped to
// the available range.
func Browse(entries []Entry, q Query) Page {
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	lang := q.Lang
	if lang == "" {
		lang = "fr"
	}
	matched := SortEntries(Filter(entries, q.Search, q.Type), q.Sort, lang)

	total := len(matched)
	pages := (total + size - 1) / size
	n := q.Page
	if n < 1 {
		n = 1
	}
	if pages > 0 && n > pages {
		n = pages
	}
	p := Page{Number: n, TotalPages: pages, Total: total, Items: []Entry{}}
	if total > 0 {
		start := (n - 1) * size
		end := min(start+size, total)
		p.Items = matched[start:end]
	}
	if total == 0 && q.Search != "" {
		p.Suggestions = Suggest(Filter(entries, "", q.Type), q.Search, 3)
	}
	return p
}

// Suggest proposes up to limit names close to term, for "did you mean" hints.
// A name qualifies when the edit distance between term and either the whole
// name or its prefix of the same length is small relative to the term: at
// most 1 for three letters, 2 for five, 3 from seven on.
func Suggest(entries []Entry, term string, limit int) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || limit <= 0 {
		return nil
	}
	maxDist := min(3, (utf8.RuneCountInString(term)-1)/2)
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.Name] {
			continue
		}
		name := strings.ToLower(e.Name)
		d := levenshtein.ComputeDistance(term, name)
		if p := runePrefix(name, utf8.RuneCountInString(term)); p != name {
			d = min(d, levenshtein.ComputeDistance(term, p))
		}
		if d <= maxDist {
			seen[e.Name] = true
			hits = append(hits, scored{name: e.Name, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})
	out := make([]string, 0, limit)
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.name)
	}
	return out
}

func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
