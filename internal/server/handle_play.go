package server

import (
	"net/http"

	"github.com/playperu/treesleuth/internal/game"
)

// ActionResponse is returned by every play action: the cues the action
// produced and the state after it.
type ActionResponse struct {
	Cues  []game.Cue `json:"cues"`
	State StateView  `json:"state"`
}

type StartRequest struct {
	Mode     game.Mode `json:"mode"`
	Category string    `json:"category,omitempty"`
}

type RevealRequest struct {
	EvidenceType string `json:"evidenceType"`
}

type GuessRequest struct {
	SpeciesID  string `json:"speciesId,omitempty"`
	Name       string `json:"name,omitempty"`
	Confidence int    `json:"confidence"`
}

type SceneRequest struct {
	Scene game.Scene `json:"scene"`
}

type CategoryRequest struct {
	CategoryID string `json:"categoryId"`
}

func handlePlayState(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, play.View(sessionFrom(r)))
	}
}

// handleAction decodes the request body into an ActionRequest of the given
// type and applies it. Actions without fields accept an empty body.
func handleAction(play *Play, actionType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := ActionRequest{}
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Type = actionType

		sess := sessionFrom(r)
		cues, err := play.Apply(r.Context(), sess, req)
		if err != nil {
			writePlayError(w, err)
			return
		}
		if cues == nil {
			cues = []game.Cue{}
		}

		writeJSON(w, http.StatusOK, ActionResponse{Cues: cues, State: play.View(sess)})
	}
}
