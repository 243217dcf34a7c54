package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/playperu/treesleuth/internal/catalog"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// readOptionalJSON is readJSON for endpoints whose body may be empty.
func readOptionalJSON(r *http.Request, v any) error {
	if err := readJSON(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writePlayError maps errors returned by Play to HTTP statuses.
func writePlayError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoCase), errors.Is(err, errDailyPlayed), errors.Is(err, catalog.ErrEmpty):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errUnknownAction),
		errors.Is(err, errUnknownMode),
		errors.Is(err, errUnknownCategory),
		errors.Is(err, errUnknownEvidence),
		errors.Is(err, errUnknownScene),
		errors.Is(err, errInvalidConfidence),
		errors.Is(err, errMissingGuess):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
