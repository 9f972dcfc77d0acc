package httpapi

import (
	"net/http"
	"time"

	"github.com/pvcore/pointstore/internal/store"
	"github.com/pvcore/pointstore/internal/subscription"
)

// ServerInfo describes the server's capabilities for client-side capability
// discovery, derived directly from the authenticated session's RPC surface
// so it always reflects what this backend actually supports.
type ServerInfo struct {
	APIVersion       string `json:"apiVersion"`
	ServerTime       string `json:"serverTime"`
	ValueTypeCodes   string `json:"valueTypeCodes"`
	SupportsCount    bool   `json:"supportsCount"`
	SupportsDelete   bool   `json:"supportsDelete"`
	SupportsDeliver  bool   `json:"supportsDeliver"`
	SupportsPull     bool   `json:"supportsPull"`
	SupportsPurge    bool   `json:"supportsPurge"`
	SupportsSubscribe bool  `json:"supportsSubscribe"`
}

// Info handles GET /v1/info. It requires an authenticated identity (to
// obtain a session handle to query) but not an active client session.
func (s *Server) Info(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if id == nil {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return
	}

	rpc := store.NewSession(s.Store, subscription.SessionID(""), id)

	info := ServerInfo{
		APIVersion:        "1.0",
		ServerTime:        time.Now().UTC().Format(time.RFC3339Nano),
		ValueTypeCodes:    rpc.SupportedValueTypeCodes(),
		SupportsCount:     rpc.SupportsCount(),
		SupportsDelete:    rpc.SupportsDelete(),
		SupportsDeliver:   rpc.SupportsDeliver(),
		SupportsPull:      rpc.SupportsPull(),
		SupportsPurge:     rpc.SupportsPurge(),
		SupportsSubscribe: rpc.SupportsSubscribe(),
	}
	writeJSON(w, http.StatusOK, info)
}
