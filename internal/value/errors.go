package value

import "errors"

// ErrInvalidUUID is returned when a binary or textual UUID form cannot be parsed.
var ErrInvalidUUID = errors.New("value: invalid point uuid")

// ErrUnknownTypeCode is returned when a wire value carries a type code this
// build does not recognize. Per spec.md's design notes, unknown type codes
// must error out rather than silently deserialize into an opaque blob.
var ErrUnknownTypeCode = errors.New("value: unknown value type code")
