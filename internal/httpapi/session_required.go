package httpapi

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pvcore/pointstore/internal/subscription"
)

// SessionRequired enforces that a live client session is bound to the
// request and belongs to the caller's authenticated identity. It must run
// after AuthMiddleware and SessionIDMiddleware, and should be applied to
// every RPC-surface route group except /v1/sessions itself.
func SessionRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawID := GetSessionID(r.Context())
		if rawID == "" {
			log.Warn().Str("path", r.URL.Path).Str("method", r.Method).
				Msg("request without X-Session-ID header")
			writeError(w, r, http.StatusPreconditionRequired,
				"X-Session-ID header required. Call POST /v1/sessions to begin a session.")
			return
		}

		cs, ok := globalSessions.get(subscription.SessionID(rawID))
		if !ok {
			log.Warn().Str("session_id", rawID).Str("path", r.URL.Path).Msg("invalid or expired session")
			writeError(w, r, http.StatusPreconditionRequired,
				"invalid or expired session. Call POST /v1/sessions to begin a new session.")
			return
		}

		id := IdentityFromContext(r.Context())
		if id == nil || cs.Subject != id.Subject() {
			log.Warn().Str("session_id", rawID).Str("session_subject", cs.Subject).
				Str("path", r.URL.Path).Msg("session does not belong to authenticated identity")
			writeError(w, r, http.StatusForbidden, "session does not belong to authenticated identity")
			return
		}

		next.ServeHTTP(w, r.WithContext(withClientSession(r.Context(), cs)))
	})
}
