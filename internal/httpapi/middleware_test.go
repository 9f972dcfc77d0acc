package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pvcore/pointstore/internal/session"
)

func TestCorrelationMiddlewareGeneratesIDWhenAbsent(t *testing.T) {
	var seen string
	handler := CorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == "" {
		t.Fatal("expected a generated correlation id")
	}
	if rec.Header().Get("X-Correlation-ID") != seen {
		t.Fatalf("expected response header to echo correlation id %q, got %q", seen, rec.Header().Get("X-Correlation-ID"))
	}
}

func TestCorrelationMiddlewarePreservesIncomingID(t *testing.T) {
	handler := CorrelationMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Correlation-ID", "fixed-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != "fixed-id" {
		t.Fatalf("expected incoming correlation id to be preserved, got %q", got)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	auth := session.NewAuthenticator(session.JWTConfig{HS256Secret: "shh"})
	handler := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a valid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareAcceptsValidTokenAndSetsIdentity(t *testing.T) {
	auth := session.NewAuthenticator(session.JWTConfig{HS256Secret: "shh"})

	var gotSubject string
	handler := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = IdentityFromContext(r.Context()).Subject()
	}))

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("shh"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/info", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSubject != "alice" {
		t.Fatalf("expected identity subject alice, got %q", gotSubject)
	}
}

func TestSessionIDMiddlewareReadsHeader(t *testing.T) {
	var seen string
	handler := SessionIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/select", nil)
	req.Header.Set("X-Session-ID", "sess-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "sess-123" {
		t.Fatalf("expected session id sess-123, got %q", seen)
	}
}

func TestGetSessionIDAbsentReturnsEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/select", nil)
	if got := GetSessionID(req.Context()); got != "" {
		t.Fatalf("expected empty session id, got %q", got)
	}
}
