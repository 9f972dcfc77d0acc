package store

import (
	"fmt"

	"github.com/pvcore/pointstore/internal/config"
	"github.com/pvcore/pointstore/internal/query"
	"github.com/pvcore/pointstore/internal/value"
)

// allowAll is the default Permissions for a point whose metadata doesn't
// carry its own access control list, granting every identity read and
// write access.
type allowAll struct{}

func (allowAll) CheckRead(query.Identity) bool  { return true }
func (allowAll) CheckWrite(query.Identity) bool { return true }

// LoadCatalog builds a Catalog from a file-loaded list of point parameters,
// the shape config.LoadPoints parses from POINTS_FILE. Points carry no sync
// schedule yet (SyncCapable stays false); wiring a concrete query.Sync per
// point is a config.PointParams.Polator follow-up.
func LoadCatalog(points []config.PointParams) (*Catalog, error) {
	cat := NewCatalog()
	for _, p := range points {
		u, err := value.ParsePointUUID(p.UUID)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", p.UUID, err)
		}
		cat.Put(&PointMeta{
			Point:           u.Undeleted(),
			Perms:           allowAll{},
			Group:           p.States,
			Replicated:      p.Replicated,
			NullRemovesFlag: p.NullRemoves,
			LifeTime:        p.LifeTime(),
		})
	}
	return cat, nil
}
