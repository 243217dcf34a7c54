package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/treesleuth/internal/catalog"
	"github.com/playperu/treesleuth/internal/treesleuth"
)

type SpeciesDetail struct {
	treesleuth.TreeSpecies
	ResolvedLookalikes []SpeciesSummary `json:"resolvedLookalikes"`
}

// handleListSpecies lists the field guide, optionally narrowed by family or
// region.
func handleListSpecies(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		family := treesleuth.Family(q.Get("family"))
		region := treesleuth.Region(q.Get("region"))

		species := cat.Select(func(s treesleuth.TreeSpecies) bool {
			return (family == "" || s.Family == family) && (region == "" || s.InRegion(region))
		})
		writeJSON(w, http.StatusOK, summarize(species))
	}
}

func handleGetSpecies(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := cat.ByID(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "species not found")
			return
		}
		writeJSON(w, http.StatusOK, SpeciesDetail{
			TreeSpecies:        s,
			ResolvedLookalikes: summarize(cat.Lookalikes(s)),
		})
	}
}

func handleSearchSpecies(cat *catalog.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := catalog.SearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > cat.Len() {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}
		writeJSON(w, http.StatusOK, summarize(cat.Search(r.URL.Query().Get("q"), limit)))
	}
}

func handleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Categories)
	}
}
