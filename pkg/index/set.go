// Package index maintains the query indexes for one storage tier:
// label, property (exact + numeric range), and relationship/adjacency.
//
// Indexes are maintained incrementally. The contract with the owning
// storage layer is strict symmetry: AddNode/AddEdge and
// RemoveNode/RemoveEdge are called exactly once per logical insert and
// delete, and a removal fully reverses every index update the insertion
// performed — including deleting now-empty buckets so that churn does
// not accumulate empty map entries.
//
// Nothing in this package is synchronized. The owning store serializes
// access (see pkg/stratum's locking model).
package index

// IDSet is a set of entity ids. Lookup methods return copies so callers
// can intersect and mutate results freely without leaking writes back
// into index internals.
type IDSet map[string]struct{}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// IntersectWith narrows s to ids also present in other, in place, and
// returns s for chaining.
func (s IDSet) IntersectWith(other IDSet) IDSet {
	for id := range s {
		if _, ok := other[id]; !ok {
			delete(s, id)
		}
	}
	return s
}

// UnionWith adds every id from other to s and returns s.
func (s IDSet) UnionWith(other IDSet) IDSet {
	for id := range other {
		s[id] = struct{}{}
	}
	return s
}
