package middleware

import (
	"context"
	"log"
	"net/http"
)

type contextKey string

const sessionContextKey contextKey = "session"

// WithSession attaches the browser session to the request, creating one and
// setting its cookie on first visit.
func WithSession(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sm.GetSessionFromRequest(r)
			if session == nil {
				var err error
				session, err = sm.CreateSession(r.Context())
				if err != nil {
					log.Printf("creating session: %v", err)
					http.Error(w, `{"error": "failed to create session"}`, http.StatusInternalServerError)
					return
				}
				sm.SetSessionCookie(w, session)
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext retrieves the session from the request context
func GetSessionFromContext(ctx context.Context) *Session {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	if !ok {
		return nil
	}
	return session
}

// SetSessionInContext adds a session to the context.
// This is primarily for testing - use WithSession middleware in production.
func SetSessionInContext(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
