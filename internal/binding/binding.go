// Package binding implements the point binding index: the name/UUID/
// server-UUID lookup table a session uses to resolve a query's point_name or
// point_uuid into a concrete PointHandle, plus the bind() operation that
// associates a new client-facing name/UUID with an existing server point.
package binding

import (
	"regexp"
	"sort"
	"sync"

	"github.com/pvcore/pointstore/internal/value"
)

// Binding is one name/UUID association. ServerUUID is transient: it is never
// serialized to a client, only used to key the index and detect rebinds.
type Binding struct {
	Name       string
	ClientUUID value.PointUUID
	ServerUUID value.PointUUID
}

// Request asks the index to resolve or create a Binding. Exactly one of
// Name or ClientUUID should be set for a lookup (patterns go through
// CompilePattern and Select instead); ServerUUID plus
// Name/ClientUUID requests a bind (an association of a new name/UUID with an
// existing server point).
type Request struct {
	Name       string
	ClientUUID *value.PointUUID
	ServerUUID *value.PointUUID
	Rebind     bool
}

// Index is the point binding table: name/UUID/server-UUID lookups plus an
// ordered set (by server_uuid bytes, then client_uuid bytes) for range
// iteration.
type Index struct {
	mu         sync.RWMutex
	byName     map[string]*Binding
	byClient   map[value.PointUUID]*Binding
	byServer   map[value.PointUUID][]*Binding // every name bound to one server point
	ordered    []*Binding
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byName:   make(map[string]*Binding),
		byClient: make(map[value.PointUUID]*Binding),
		byServer: make(map[value.PointUUID][]*Binding),
	}
}

func (idx *Index) insertLocked(b *Binding) {
	idx.byName[b.Name] = b
	idx.byClient[b.ClientUUID] = b
	idx.byServer[b.ServerUUID] = append(idx.byServer[b.ServerUUID], b)

	i := sort.Search(len(idx.ordered), func(i int) bool {
		return !lessBinding(idx.ordered[i], b)
	})
	idx.ordered = append(idx.ordered, nil)
	copy(idx.ordered[i+1:], idx.ordered[i:])
	idx.ordered[i] = b
}

func lessBinding(a, b *Binding) bool {
	if c := a.ServerUUID.Compare(b.ServerUUID); c != 0 {
		return c < 0
	}
	return a.ClientUUID.Compare(b.ClientUUID) < 0
}

func (idx *Index) removeFromOrderedLocked(b *Binding) {
	for i, e := range idx.ordered {
		if e == b {
			idx.ordered = append(idx.ordered[:i], idx.ordered[i+1:]...)
			return
		}
	}
}

// ByName resolves an exact-name lookup.
func (idx *Index) ByName(name string) (*Binding, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.byName[name]
	return b, ok
}

// ByClientUUID resolves a client-facing UUID lookup.
func (idx *Index) ByClientUUID(u value.PointUUID) (*Binding, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.byClient[u]
	return b, ok
}

// ByServerUUID returns every name currently bound to a server point.
func (idx *Index) ByServerUUID(u value.PointUUID) []*Binding {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*Binding, len(idx.byServer[u]))
	copy(out, idx.byServer[u])
	return out
}

// Pattern compiles a name-pattern selector for range iteration via Select.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern compiles a regular expression against binding names.
func CompilePattern(expr string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{re: re}, nil
}

// Select returns every binding (in server_uuid, client_uuid order) whose
// name matches p.
func (idx *Index) Select(p Pattern) []*Binding {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []*Binding
	for _, b := range idx.ordered {
		if p.re.MatchString(b.Name) {
			out = append(out, b)
		}
	}
	return out
}

// All returns every binding in ordered (server_uuid, client_uuid) order.
func (idx *Index) All() []*Binding {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*Binding, len(idx.ordered))
	copy(out, idx.ordered)
	return out
}

// Bind resolves or creates bindings for each request, atomically replacing
// the server<->client mapping when Rebind is set on a request that already
// has one.
func (idx *Index) Bind(requests []Request) []*Binding {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]*Binding, len(requests))
	for i, req := range requests {
		out[i] = idx.bindOneLocked(req)
	}
	return out
}

// bindOneLocked resolves req against the index by name (when given) or,
// failing that, by client uuid, then creates or replaces the mapping.
func (idx *Index) bindOneLocked(req Request) *Binding {
	var existing *Binding
	switch {
	case req.Name != "":
		existing = idx.byName[req.Name]
	case req.ClientUUID != nil:
		existing = idx.byClient[*req.ClientUUID]
	}

	if existing != nil && !req.Rebind {
		return existing
	}
	if existing != nil {
		idx.removeBindingLocked(existing)
	}

	b := &Binding{Name: req.Name}
	if b.Name == "" && existing != nil {
		b.Name = existing.Name
	}
	switch {
	case req.ClientUUID != nil:
		b.ClientUUID = *req.ClientUUID
	case existing != nil:
		b.ClientUUID = existing.ClientUUID
	}
	switch {
	case req.ServerUUID != nil:
		b.ServerUUID = *req.ServerUUID
	case existing != nil:
		b.ServerUUID = existing.ServerUUID
	}
	idx.insertLocked(b)
	return b
}

func (idx *Index) removeBindingLocked(b *Binding) {
	delete(idx.byName, b.Name)
	delete(idx.byClient, b.ClientUUID)
	idx.removeFromOrderedLocked(b)

	names := idx.byServer[b.ServerUUID]
	for i, e := range names {
		if e == b {
			idx.byServer[b.ServerUUID] = append(names[:i], names[i+1:]...)
			break
		}
	}
	if len(idx.byServer[b.ServerUUID]) == 0 {
		delete(idx.byServer, b.ServerUUID)
	}
}

// Remove drops the binding for name, returning true only when no other name
// remains bound to the same server UUID.
func (idx *Index) Remove(name string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	b, ok := idx.byName[name]
	if !ok {
		return false
	}
	idx.removeBindingLocked(b)
	_, stillBound := idx.byServer[b.ServerUUID]
	return !stillBound
}
