// Package stategroup resolves a point value's State{code, name} pair
// against the named, ordered state group a point's parameters select, with
// fallback to the global (empty-named) group.
package stategroup

import (
	"github.com/pvcore/pointstore/internal/apperr"
	"github.com/pvcore/pointstore/internal/value"
)

// globalGroup is the fallback group name: the empty string.
const globalGroup = ""

// Group is a named, ordered set of states, indexed both by code and by name
// for O(1) resolution in either direction.
type Group struct {
	name    string
	byCode  map[int]string
	byName  map[string]int
	ordered []value.State
}

// NewGroup builds a Group from an ordered list of states. Later duplicates
// of a code or name win, matching a config file's last-definition-wins
// convention.
func NewGroup(name string, states []value.State) *Group {
	g := &Group{name: name, byCode: make(map[int]string), byName: make(map[string]int), ordered: states}
	for _, s := range states {
		g.byCode[s.Code] = s.Name
		g.byName[s.Name] = s.Code
	}
	return g
}

// Name returns the group's name (empty for the global group).
func (g *Group) Name() string { return g.name }

// States returns the group's states in definition order.
func (g *Group) States() []value.State { return append([]value.State(nil), g.ordered...) }

// Resolver resolves a point's state group parameter, falling back to the
// global group when the point's own group can't resolve a code or name.
type Resolver struct {
	groups map[string]*Group
}

// NewResolver builds a Resolver from the configured groups. A group named
// "" is the global fallback group; it need not be present.
func NewResolver(groups []*Group) *Resolver {
	r := &Resolver{groups: make(map[string]*Group, len(groups))}
	for _, g := range groups {
		r.groups[g.name] = g
	}
	return r
}

func (r *Resolver) group(name string) *Group { return r.groups[name] }

// GroupNames returns every configured group's name, including the global
// group if one was registered.
func (r *Resolver) GroupNames() []string {
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	return names
}

// ResolveName fills in s.Name from s.Code, searching groupName then falling
// back to the global group. Returns UnresolvedState if neither resolves it.
func (r *Resolver) ResolveName(groupName string, s *value.State) error {
	if name, ok := r.lookupName(groupName, s.Code); ok {
		s.Name = name
		return nil
	}
	return apperr.New(apperr.UnresolvedState, "no state name for code in group")
}

// ResolveCode fills in s.Code from s.Name, searching groupName then falling
// back to the global group. Returns UnresolvedState if neither resolves it.
func (r *Resolver) ResolveCode(groupName string, s *value.State) error {
	if code, ok := r.lookupCode(groupName, s.Name); ok {
		s.Code = code
		return nil
	}
	return apperr.New(apperr.UnresolvedState, "no state code for name in group")
}

func (r *Resolver) lookupName(groupName string, code int) (string, bool) {
	if g := r.group(groupName); g != nil {
		if name, ok := g.byCode[code]; ok {
			return name, true
		}
	}
	if groupName != globalGroup {
		if g := r.group(globalGroup); g != nil {
			if name, ok := g.byCode[code]; ok {
				return name, true
			}
		}
	}
	return "", false
}

func (r *Resolver) lookupCode(groupName string, name string) (int, bool) {
	if g := r.group(groupName); g != nil {
		if code, ok := g.byName[name]; ok {
			return code, true
		}
	}
	if groupName != globalGroup {
		if g := r.group(globalGroup); g != nil {
			if code, ok := g.byName[name]; ok {
				return code, true
			}
		}
	}
	return 0, false
}
