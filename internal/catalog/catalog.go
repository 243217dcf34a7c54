// Package catalog is the read-only tree encyclopedia. It is loaded once at
// startup and never modified by gameplay.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/playperu/treesleuth/internal/treesleuth"
)

//go:embed data/species.json
var speciesJSON []byte

var ErrEmpty = errors.New("no species match")

// Filter selects species. A nil Filter matches everything.
type Filter func(treesleuth.TreeSpecies) bool

type Catalog struct {
	species []treesleuth.TreeSpecies
	byID    map[string]int
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(speciesJSON)
}

// Parse builds a catalog from a JSON array of species.
func Parse(data []byte) (*Catalog, error) {
	var species []treesleuth.TreeSpecies
	if err := json.Unmarshal(data, &species); err != nil {
		return nil, fmt.Errorf("decoding species: %w", err)
	}
	return New(species)
}

// New validates species and indexes them by id. Order is preserved.
func New(species []treesleuth.TreeSpecies) (*Catalog, error) {
	c := &Catalog{
		species: slices.Clone(species),
		byID:    make(map[string]int, len(species)),
	}
	for i, s := range c.species {
		if s.ID == "" {
			return nil, fmt.Errorf("species %d: missing id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("species %q: duplicate id", s.ID)
		}
		for _, et := range treesleuth.EvidenceTypes {
			ev, _ := s.Evidence.For(et)
			switch ev.Type {
			case et:
			case "":
				return nil, fmt.Errorf("species %q: missing %s evidence", s.ID, et)
			default:
				return nil, fmt.Errorf("species %q: %s evidence has type %q", s.ID, et, ev.Type)
			}
		}
		c.byID[s.ID] = i
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.species) }

// All returns every species in catalog order.
func (c *Catalog) All() []treesleuth.TreeSpecies {
	return slices.Clone(c.species)
}

func (c *Catalog) ByID(id string) (treesleuth.TreeSpecies, bool) {
	i, ok := c.byID[id]
	if !ok {
		return treesleuth.TreeSpecies{}, false
	}
	return c.species[i], true
}

func (c *Catalog) Select(f Filter) []treesleuth.TreeSpecies {
	var out []treesleuth.TreeSpecies
	for _, s := range c.species {
		if f == nil || f(s) {
			out = append(out, s)
		}
	}
	return out
}

func (c *Catalog) ByFamily(f treesleuth.Family) []treesleuth.TreeSpecies {
	return c.Select(func(s treesleuth.TreeSpecies) bool { return s.Family == f })
}

func (c *Catalog) ByRegion(r treesleuth.Region) []treesleuth.TreeSpecies {
	return c.Select(func(s treesleuth.TreeSpecies) bool { return s.InRegion(r) })
}

// Random picks uniformly among species matching f.
func (c *Catalog) Random(rng *rand.Rand, f Filter) (treesleuth.TreeSpecies, error) {
	pool := c.Select(f)
	if len(pool) == 0 {
		return treesleuth.TreeSpecies{}, ErrEmpty
	}
	return pool[rng.IntN(len(pool))], nil
}

// Daily returns the species of the UTC calendar day containing day. Every
// player gets the same tree on the same day.
func (c *Catalog) Daily(day time.Time) (treesleuth.TreeSpecies, error) {
	if len(c.species) == 0 {
		return treesleuth.TreeSpecies{}, ErrEmpty
	}
	h := fnv.New32a()
	h.Write([]byte(day.UTC().Format("2006-01-02")))
	return c.species[int(h.Sum32()%uint32(len(c.species)))], nil
}

// Lookalikes resolves the lookalike ids of s. Unknown ids are skipped.
func (c *Catalog) Lookalikes(s treesleuth.TreeSpecies) []treesleuth.TreeSpecies {
	out := make([]treesleuth.TreeSpecies, 0, len(s.Lookalikes))
	for _, id := range s.Lookalikes {
		if l, ok := c.ByID(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// Candidates returns n guess options that always include target, followed by
// its lookalikes and then random fill, in shuffled order. n <= 0 or n larger
// than the catalog returns every species.
func (c *Catalog) Candidates(rng *rand.Rand, target treesleuth.TreeSpecies, n int) []treesleuth.TreeSpecies {
	if n <= 0 || n >= len(c.species) {
		return c.All()
	}

	picked := []treesleuth.TreeSpecies{target}
	seen := map[string]bool{target.ID: true}
	for _, l := range c.Lookalikes(target) {
		if len(picked) == n {
			break
		}
		if !seen[l.ID] {
			seen[l.ID] = true
			picked = append(picked, l)
		}
	}

	rest := c.Select(func(s treesleuth.TreeSpecies) bool { return !seen[s.ID] })
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	for _, s := range rest {
		if len(picked) == n {
			break
		}
		picked = append(picked, s)
	}

	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	return picked
}
