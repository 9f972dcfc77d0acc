package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/session"
)

type contextKey string

const (
	identityKey      contextKey = "identity"
	correlationIDKey contextKey = "correlationId"
	clientSessionKey contextKey = "clientSession"
	rawSessionIDKey  contextKey = "rawSessionId"
)

// CorrelationMiddleware reads X-Correlation-ID, generating one if absent,
// and attaches it to both the response and a request-scoped logger so every
// log line for this request can be tied back to the client's own traces.
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		w.Header().Set("X-Correlation-ID", correlationID)

		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		logger := log.With().Str("correlation_id", correlationID).Logger()
		ctx = logger.WithContext(ctx)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID retrieves the request's correlation ID from context.
func GetCorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// AuthMiddleware validates the request's Authorization: Bearer token
// through auth and attaches the resulting session.Identity to context.
// Requests with no or invalid token are rejected before reaching a handler.
func AuthMiddleware(auth *session.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := ""
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}

			id, err := auth.Authenticate(tok)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("token validation failed")
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			logger := log.Ctx(ctx).With().Str("subject", id.Subject()).Logger()
			ctx = logger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDMiddleware reads the X-Session-ID header and attaches the raw
// value to context. It never rejects a request by itself; SessionRequired
// is what enforces that the header resolves to a live session.
func SessionIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Session-ID")
		ctx := context.WithValue(r.Context(), rawSessionIDKey, id)
		if id != "" {
			logger := log.Ctx(ctx).With().Str("session_id", id).Logger()
			ctx = logger.WithContext(ctx)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetSessionID retrieves the raw X-Session-ID header value from context.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(rawSessionIDKey).(string); ok {
		return v
	}
	return ""
}

// IdentityFromContext retrieves the authenticated Identity set by
// AuthMiddleware. Callers past that middleware can assume it is present.
func IdentityFromContext(ctx context.Context) session.Identity {
	if id, ok := ctx.Value(identityKey).(session.Identity); ok {
		return id
	}
	return nil
}

// withClientSession attaches a resolved *clientSession to context for
// downstream handlers.
func withClientSession(ctx context.Context, cs *clientSession) context.Context {
	return context.WithValue(ctx, clientSessionKey, cs)
}

// clientSessionFromContext retrieves the *clientSession SessionRequired
// resolved for this request.
func clientSessionFromContext(ctx context.Context) *clientSession {
	cs, _ := ctx.Value(clientSessionKey).(*clientSession)
	return cs
}
