package server

import (
	"net/http"

	"github.com/playperu/treesleuth/internal/progress"
)

type ProgressResponse struct {
	progress.Progress
	History []progress.HistoryEntry `json:"history"`
}

func handleProgress(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)

		history, err := play.store.History(r.Context(), sess.ID, 0)
		if err != nil {
			play.logger.Error("loading history", "player", sess.ID, "error", err)
			history = []progress.HistoryEntry{}
		}

		writeJSON(w, http.StatusOK, ProgressResponse{
			Progress: play.store.Progress(r.Context(), sess.ID),
			History:  history,
		})
	}
}

func handleGetSettings(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, play.store.Settings(r.Context(), sessionFrom(r).ID))
	}
}

// handlePutSettings replaces the settings. Unknown difficulty or region
// values are rejected; omitted fields take their zero value.
func handlePutSettings(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req progress.Settings
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Difficulty != "" && !req.Difficulty.Valid() {
			writeError(w, http.StatusBadRequest, "difficulty must be easy, normal or hard")
			return
		}
		if req.PreferredRegion != "" && !req.PreferredRegion.Valid() {
			writeError(w, http.StatusBadRequest, "unknown region")
			return
		}

		sess := sessionFrom(r)
		st, err := play.store.SaveSettings(r.Context(), sess.ID, req)
		if err != nil {
			play.logger.Error("saving settings", "player", sess.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
