package backend

import "errors"

// ErrNoSuchPoint is returned by Store.Responder/Writer when the backend has
// never seen the given point UUID.
var ErrNoSuchPoint = errors.New("backend: no such point")

// ErrClosed is returned by any Responder/Writer/Store method called after
// Close.
var ErrClosed = errors.New("backend: closed")
