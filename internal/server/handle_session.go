package server

import (
	"net/http"
	"strings"
)

type SessionRequest struct {
	Name string `json:"name,omitempty"`
	// Resume is a player id returned by an earlier session.
	Resume string `json:"resume,omitempty"`
}

type SessionResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

func handleCreateSession(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SessionRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		name := strings.TrimSpace(req.Name)
		if len(name) > 40 {
			writeError(w, http.StatusBadRequest, "name must be at most 40 characters")
			return
		}

		sess, err := play.NewSession(name, strings.TrimSpace(req.Resume))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			Token:    sess.Token,
			PlayerID: sess.ID,
			Name:     sess.Name,
		})
	}
}
