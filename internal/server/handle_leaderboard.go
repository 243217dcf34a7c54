package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/playperu/treesleuth/internal/leaderboard"
)

type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type LeaderboardResponse struct {
	Board   leaderboard.Board  `json:"board"`
	Date    string             `json:"date,omitempty"`
	Entries []LeaderboardEntry `json:"entries"`
}

// handleLeaderboard serves a board without player ids. Daily boards default
// to the current UTC day.
func handleLeaderboard(play *Play) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		board := leaderboard.Board(q.Get("board"))
		if board == "" {
			board = leaderboard.BoardDaily
		}
		if !board.Valid() {
			writeError(w, http.StatusBadRequest, leaderboard.ErrUnknownBoard.Error())
			return
		}

		limit := leaderboard.DefaultLimit
		if raw := q.Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 100 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
				return
			}
			limit = n
		}

		day := play.now().UTC()
		if raw := q.Get("date"); raw != "" {
			d, err := time.Parse(time.DateOnly, raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
				return
			}
			day = d
		}

		top, err := play.ranker.Top(r.Context(), board, day, limit)
		if err != nil {
			play.logger.Error("reading leaderboard", "board", board, "error", err)
			writeError(w, http.StatusServiceUnavailable, "leaderboard unavailable")
			return
		}

		resp := LeaderboardResponse{Board: board, Entries: make([]LeaderboardEntry, len(top))}
		if board == leaderboard.BoardDaily {
			resp.Date = day.Format(time.DateOnly)
		}
		for i, e := range top {
			resp.Entries[i] = LeaderboardEntry{Rank: e.Rank, Name: e.Name, Score: e.Score}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
