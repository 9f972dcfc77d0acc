package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pvcore/pointstore/internal/session"
)

func newTestClientSession(t *testing.T, subject string) *clientSession {
	t.Helper()
	cs := globalSessions.begin(session.NewIdentity(subject), nil)
	t.Cleanup(func() { globalSessions.end(cs.ID) })
	return cs
}

func requestWith(method, path, sessionID, subject string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	ctx := context.WithValue(r.Context(), rawSessionIDKey, sessionID)
	if subject != "" {
		ctx = context.WithValue(ctx, identityKey, session.Identity(session.NewIdentity(subject)))
	}
	return r.WithContext(ctx)
}

func TestSessionRequiredRejectsMissingHeader(t *testing.T) {
	handler := SessionRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run without a session id")
	}))

	req := requestWith(http.MethodPost, "/v1/select", "", "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d", rec.Code)
	}
}

func TestSessionRequiredRejectsUnknownSession(t *testing.T) {
	handler := SessionRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run for an unknown session")
	}))

	req := requestWith(http.MethodPost, "/v1/select", "nope", "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusPreconditionRequired {
		t.Fatalf("expected 428, got %d", rec.Code)
	}
}

func TestSessionRequiredRejectsMismatchedSubject(t *testing.T) {
	cs := newTestClientSession(t, "alice")

	handler := SessionRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run when session belongs to a different subject")
	}))

	req := requestWith(http.MethodPost, "/v1/select", string(cs.ID), "mallory")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSessionRequiredAttachesClientSession(t *testing.T) {
	cs := newTestClientSession(t, "alice")

	var attached *clientSession
	handler := SessionRequired(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attached = clientSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := requestWith(http.MethodPost, "/v1/select", string(cs.ID), "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if attached == nil || attached.ID != cs.ID {
		t.Fatal("expected the resolved client session to be attached to context")
	}
}
