package updater

import (
	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/value"
)

// Result is one update's outcome: the committed versioned value, or an
// exception. Kept separate from session.Result so this package has no
// dependency on the session RPC surface; Store adapts between the two.
type Result struct {
	Value     value.VersionedValue
	Exception *apperr.Error
}
