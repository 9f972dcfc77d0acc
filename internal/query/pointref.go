package query

import "github.com/pvcore/pointstore/internal/value"

// Identity is the minimal authenticated-identity contract the query/cursor
// layer needs for permission checks. session.Identity satisfies it; this
// package does not depend on internal/session to avoid an import cycle
// (session depends on query for the StoreValues response shape).
type Identity interface {
	Subject() string
}

// Permissions gates read/write access to a point. A nil Permissions means
// unrestricted access.
type Permissions interface {
	CheckRead(Identity) bool
	CheckWrite(Identity) bool
}

// PointHandle is a resolved reference to a point: everything the cursor,
// updater, and polator need without re-resolving through the binding index
// on every step.
type PointHandle interface {
	UUID() value.PointUUID
	SyncCapable() bool
	Sync() Sync
	Permissions() Permissions
}
