package catalog

import (
	"slices"
	"strings"

	"github.com/playperu/treesleuth/internal/treesleuth"
)

type Category struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Families []treesleuth.Family `json:"families"`
}

const CategoryAll = "all"

// Categories lists the practice categories in menu order.
var Categories = []Category{
	{ID: "oaks-maples", Name: "Oaks vs Maples", Families: []treesleuth.Family{treesleuth.FamilyOak, treesleuth.FamilyMaple}},
	{ID: "conifers", Name: "Conifers", Families: []treesleuth.Family{treesleuth.FamilyPine, treesleuth.FamilyCypress}},
	{ID: "birches-beeches", Name: "Birches & Beeches", Families: []treesleuth.Family{treesleuth.FamilyBirch, treesleuth.FamilyBeech}},
	{ID: "winter-id", Name: "Winter ID (Buds & Bark)", Families: []treesleuth.Family{}},
	{ID: "street-trees", Name: "Street Trees", Families: []treesleuth.Family{}},
	{ID: CategoryAll, Name: "All Species", Families: []treesleuth.Family{}},
}

// CategoryFilter returns the species filter for a practice category. An
// empty id means all species. ok is false for unknown ids.
func CategoryFilter(id string) (Filter, bool) {
	switch id {
	case "", CategoryAll:
		return nil, true
	case "winter-id":
		// Broadleaf trees, identified in winter by buds and bark.
		return func(s treesleuth.TreeSpecies) bool {
			return s.LeafType == treesleuth.LeafSimple || s.LeafType == treesleuth.LeafCompound
		}, true
	case "street-trees":
		return func(s treesleuth.TreeSpecies) bool {
			if s.Habitat == treesleuth.HabitatUrban {
				return true
			}
			return slices.ContainsFunc(s.Evidence.Habitat.KeyFeatures, func(f string) bool {
				return strings.Contains(strings.ToLower(f), "street tree")
			})
		}, true
	}
	for _, c := range Categories {
		if c.ID == id {
			return func(s treesleuth.TreeSpecies) bool {
				return slices.Contains(c.Families, s.Family)
			}, true
		}
	}
	return nil, false
}
