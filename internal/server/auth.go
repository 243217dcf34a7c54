package server

import (
	"errors"
	"net/http"
	"strings"
)

var errNoSession = errors.New("no valid session")

// tokenFromRequest reads the session token from the Authorization header, or
// from the token query parameter for EventSource and WebSocket clients that
// cannot set headers.
func tokenFromRequest(r *http.Request) (string, error) {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found && token != "" {
		return token, nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", errNoSession
}
