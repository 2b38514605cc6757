package catalog

import "sort"

// statOrder is the order PokeAPI lists base stats in.
var statOrder = []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"}

// StatNames returns the stat keys of stats in display order: the six base
// stats first, anything else alphabetically after.
func StatNames(stats map[string]int) []string {
	var out []string
	seen := map[string]bool{}
	for _, name := range statOrder {
		if _, ok := stats[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range stats {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// StatBar returns value/max clamped to [0,1].
func StatBar(value, max int) float64 {
	if max <= 0 || value <= 0 {
		return 0
	}
	f := float64(value) / float64(max)
	if f > 1 {
		return 1
	}
	return f
}

// StatTotal sums all stats.
func StatTotal(stats map[string]int) int {
	total := 0
	for _, v := range stats {
		total += v
	}
	return total
}

// StatDelta compares one stat between two entries.
type StatDelta struct {
	Name  string `json:"name"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Delta int    `json:"delta"`
}

// CompareStats lists per-stat differences from -> to over the union of both
// stat maps. Missing stats count as zero.
func CompareStats(from, to map[string]int) []StatDelta {
	union := make(map[string]int, len(from)+len(to))
	for k := range from {
		union[k] = 0
	}
	for k := range to {
		union[k] = 0
	}
	var out []StatDelta
	for _, name := range StatNames(union) {
		out = append(out, StatDelta{Name: name, From: from[name], To: to[name], Delta: to[name] - from[name]})
	}
	return out
}
