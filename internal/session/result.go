// Package session defines the RPC surface a transport adapter (httpapi)
// calls into: parallel-array batch operations returning one
// Result per input element, modeled as Result[T] rather than matching
// response/exception arrays (spec.md §9's redesign guidance).
package session

import "github.com/pvcore/pointstore/internal/apperr"

// Result is one element of a batch operation's response: either a value or
// an error, never both. A nil Exception means success.
type Result[T any] struct {
	Value     T             `json:"value,omitempty"`
	Exception *apperr.Error `json:"exception,omitempty"`
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Err wraps a failed element.
func Err[T any](err *apperr.Error) Result[T] { return Result[T]{Exception: err} }

// Failed reports whether this element carries an exception.
func (r Result[T]) Failed() bool { return r.Exception != nil }
