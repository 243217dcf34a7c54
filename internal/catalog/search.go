package catalog

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/playperu/treesleuth/internal/treesleuth"
)

// SearchLimit is the number of results shown in the guess picker.
const SearchLimit = 8

func normalise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Search matches q against common and scientific names. Substring hits come
// first in catalog order; if there are none, names within a small edit
// distance are returned, closest first. An empty query returns the first
// limit species.
func (c *Catalog) Search(q string, limit int) []treesleuth.TreeSpecies {
	if limit <= 0 {
		limit = SearchLimit
	}
	q = normalise(q)

	var out []treesleuth.TreeSpecies
	for _, s := range c.species {
		if q == "" ||
			strings.Contains(normalise(s.CommonName), q) ||
			strings.Contains(normalise(s.ScientificName), q) {
			out = append(out, s)
			if len(out) == limit {
				return out
			}
		}
	}
	if len(out) > 0 || len(q) < 3 {
		return out
	}
	return c.fuzzy(q, limit)
}

type scored struct {
	species treesleuth.TreeSpecies
	dist    int
}

func (c *Catalog) fuzzy(q string, limit int) []treesleuth.TreeSpecies {
	var hits []scored
	for _, s := range c.species {
		best := -1
		for _, name := range []string{s.CommonName, s.ScientificName, s.ID} {
			n := normalise(strings.ReplaceAll(name, "-", " "))
			d := levenshtein.ComputeDistance(q, n)
			if d > editLimit(len(n)) {
				continue
			}
			if best < 0 || d < best {
				best = d
			}
		}
		if best >= 0 {
			hits = append(hits, scored{species: s, dist: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	out := make([]treesleuth.TreeSpecies, 0, min(limit, len(hits)))
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.species)
	}
	return out
}

func editLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// Resolve maps a typed name to a species: exact id, then exact common or
// scientific name (case-insensitive), then the single closest fuzzy match.
func (c *Catalog) Resolve(name string) (treesleuth.TreeSpecies, bool) {
	if s, ok := c.ByID(strings.TrimSpace(name)); ok {
		return s, true
	}
	q := normalise(name)
	if q == "" {
		return treesleuth.TreeSpecies{}, false
	}
	for _, s := range c.species {
		if normalise(s.CommonName) == q || normalise(s.ScientificName) == q {
			return s, true
		}
	}
	if len(q) < 3 {
		return treesleuth.TreeSpecies{}, false
	}
	hits := c.fuzzy(q, 1)
	if len(hits) == 0 {
		return treesleuth.TreeSpecies{}, false
	}
	return hits[0], true
}
