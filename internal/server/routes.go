package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, play *Play, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("TreeSleuth API", "/openapi.json", "/docs"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", handleCreateSession(play))

		// Field guide, public.
		r.Get("/species", handleListSpecies(play.catalog))
		r.Get("/species/search", handleSearchSpecies(play.catalog))
		r.Get("/species/{id}", handleGetSpecies(play.catalog))
		r.Get("/categories", handleCategories())
		r.Get("/leaderboard", handleLeaderboard(play))

		// Player routes, session resolved by sessionMiddleware.
		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware(play))

			r.Get("/progress", handleProgress(play))
			r.Get("/settings", handleGetSettings(play))
			r.Put("/settings", handlePutSettings(play))

			r.Route("/play", func(r chi.Router) {
				r.Get("/state", handlePlayState(play))
				r.Post("/start", handleAction(play, actionStart))
				r.Post("/reveal", handleAction(play, actionReveal))
				r.Post("/guess", handleAction(play, actionGuess))
				r.Post("/next", handleAction(play, actionNext))
				r.Post("/scene", handleAction(play, actionScene))
				r.Post("/reset", handleAction(play, actionReset))
				r.Post("/category", handleAction(play, actionCategory))
				r.Post("/complete", handleAction(play, actionComplete))
				r.Get("/events", handleEvents(play))
				r.Get("/ws", handleWS(play, logger))
			})
		})
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
