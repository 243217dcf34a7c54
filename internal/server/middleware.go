package server

import (
	"context"
	"net/http"
)

type ctxKey int

const ctxKeySession ctxKey = iota

func sessionMiddleware(play *Play) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := tokenFromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			sess, ok := play.Session(token)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *Session {
	return r.Context().Value(ctxKeySession).(*Session)
}
