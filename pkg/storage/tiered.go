// Package storage implements the three-tier entity store for stratum.
//
// Entities live in exactly one of three temperature tiers — Runtime
// (hot), Store (warm), Cold — each an independent container with its
// own id→Node map, id→Edge map, and index.Manager. Tier assignment is a
// runtime attribute of the container, never a field on the entity:
// moving an entity between tiers changes no part of its value.
//
// TieredStorage is NOT internally synchronized. It is owned by a single
// store handle (pkg/stratum's KB) whose lock serializes every mutation
// and gates reads; each exported method here is one step of a composite
// operation performed under that lock. This matches the single-writer
// model the store exposes and keeps tier moves atomic from the caller's
// point of view: an entity is never observable in two tiers, or in
// none, mid-move.
package storage

import (
	"time"

	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/index"
)

// Tier names one of the three storage temperatures.
type Tier string

const (
	// TierRuntime is hot in-memory storage for actively used entities.
	TierRuntime Tier = "runtime"
	// TierStore is warm storage for indexed but less active data.
	TierStore Tier = "store"
	// TierCold is archival storage for rarely touched data.
	TierCold Tier = "cold"
)

// Tiers returns the three tiers in lookup order, hottest first. The
// ordering is a performance contract: cross-tier lookups check Runtime
// before Store before Cold so hot data dominates lookup cost.
func Tiers() [3]Tier {
	return [3]Tier{TierRuntime, TierStore, TierCold}
}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierRuntime, TierStore, TierCold:
		return true
	}
	return false
}

// TieredStorage owns the per-tier entity maps and index managers. All
// state is reachable only through this handle — there is no package
// level state.
type TieredStorage struct {
	nodes   map[Tier]map[graph.NodeID]*graph.Node
	edges   map[Tier]map[graph.EdgeID]*graph.Edge
	indexes map[Tier]*index.Manager
}

// NewTieredStorage creates three empty tiers with empty indexes.
func NewTieredStorage() *TieredStorage {
	s := &TieredStorage{
		nodes:   make(map[Tier]map[graph.NodeID]*graph.Node, 3),
		edges:   make(map[Tier]map[graph.EdgeID]*graph.Edge, 3),
		indexes: make(map[Tier]*index.Manager, 3),
	}
	for _, t := range Tiers() {
		s.nodes[t] = make(map[graph.NodeID]*graph.Node)
		s.edges[t] = make(map[graph.EdgeID]*graph.Edge)
		s.indexes[t] = index.NewManager()
	}
	return s
}

// CountNodes returns the number of nodes in one tier.
func (s *TieredStorage) CountNodes(tier Tier) int { return len(s.nodes[tier]) }

// CountEdges returns the number of edges in one tier.
func (s *TieredStorage) CountEdges(tier Tier) int { return len(s.edges[tier]) }

// AddNode inserts the node into the tier's entity map and index. If an
// entity with the same id already exists in that tier it is replaced
// and its index entries are reversed first, keeping map and index in
// lockstep.
func (s *TieredStorage) AddNode(n *graph.Node, tier Tier) {
	if prev, ok := s.nodes[tier][n.ID]; ok {
		s.indexes[tier].RemoveNode(prev)
	}
	s.nodes[tier][n.ID] = n
	s.indexes[tier].AddNode(n)
}

// AddEdge inserts the edge into the tier's entity map and index, with
// the same replace semantics as AddNode.
func (s *TieredStorage) AddEdge(e *graph.Edge, tier Tier) {
	if prev, ok := s.edges[tier][e.ID]; ok {
		s.indexes[tier].RemoveEdge(prev)
	}
	s.edges[tier][e.ID] = e
	s.indexes[tier].AddEdge(e)
}

// GetNode returns the node from one specific tier, or nil.
func (s *TieredStorage) GetNode(id graph.NodeID, tier Tier) *graph.Node {
	return s.nodes[tier][id]
}

// GetEdge returns the edge from one specific tier, or nil.
func (s *TieredStorage) GetEdge(id graph.EdgeID, tier Tier) *graph.Edge {
	return s.edges[tier][id]
}

// RemoveNode deletes the node from the tier's map and index. Absence is
// a normal outcome in a multi-tier structure, reported as false.
func (s *TieredStorage) RemoveNode(id graph.NodeID, tier Tier) bool {
	n, ok := s.nodes[tier][id]
	if !ok {
		return false
	}
	s.indexes[tier].RemoveNode(n)
	delete(s.nodes[tier], id)
	return true
}

// RemoveEdge deletes the edge from the tier's map and index; false when
// absent.
func (s *TieredStorage) RemoveEdge(id graph.EdgeID, tier Tier) bool {
	e, ok := s.edges[tier][id]
	if !ok {
		return false
	}
	s.indexes[tier].RemoveEdge(e)
	delete(s.edges[tier], id)
	return true
}

// MoveNode relocates a node between tiers without changing its value:
// add to the target, then remove from the source. Under the owner's
// lock the two steps are one atomic mutation — the node is never
// un-indexed mid-move and never indexed in two tiers when the move
// completes. Returns false (no-op) when the node is not in from.
func (s *TieredStorage) MoveNode(id graph.NodeID, from, to Tier) bool {
	n, ok := s.nodes[from][id]
	if !ok {
		return false
	}
	s.AddNode(n, to)
	s.RemoveNode(id, from)
	return true
}

// MoveEdge relocates an edge between tiers; same contract as MoveNode.
func (s *TieredStorage) MoveEdge(id graph.EdgeID, from, to Tier) bool {
	e, ok := s.edges[from][id]
	if !ok {
		return false
	}
	s.AddEdge(e, to)
	s.RemoveEdge(id, from)
	return true
}

// FindNode searches the tiers in hot→warm→cold order and returns the
// first hit plus the tier it was found in. A miss returns (nil, "").
func (s *TieredStorage) FindNode(id graph.NodeID) (*graph.Node, Tier) {
	for _, t := range Tiers() {
		if n, ok := s.nodes[t][id]; ok {
			return n, t
		}
	}
	return nil, ""
}

// FindEdge searches the tiers in hot→warm→cold order.
func (s *TieredStorage) FindEdge(id graph.EdgeID) (*graph.Edge, Tier) {
	for _, t := range Tiers() {
		if e, ok := s.edges[t][id]; ok {
			return e, t
		}
	}
	return nil, ""
}

// RefreshNode replaces the stored instance of a node whose indexed
// fields (id, label, properties) are unchanged — an access-tracking
// refresh. The indexes are left untouched, so this must not be used
// for value changes that affect indexing. Returns false if the node is
// not in the tier.
func (s *TieredStorage) RefreshNode(n *graph.Node, tier Tier) bool {
	if _, ok := s.nodes[tier][n.ID]; !ok {
		return false
	}
	s.nodes[tier][n.ID] = n
	return true
}

// RefreshEdge is the edge counterpart of RefreshNode.
func (s *TieredStorage) RefreshEdge(e *graph.Edge, tier Tier) bool {
	if _, ok := s.edges[tier][e.ID]; !ok {
		return false
	}
	s.edges[tier][e.ID] = e
	return true
}

// AllNodes returns the nodes of one tier. This is the explicit full
// scan path — indexed queries never fall back to it.
func (s *TieredStorage) AllNodes(tier Tier) []*graph.Node {
	out := make([]*graph.Node, 0, len(s.nodes[tier]))
	for _, n := range s.nodes[tier] {
		out = append(out, n)
	}
	return out
}

// AllEdges returns the edges of one tier.
func (s *TieredStorage) AllEdges(tier Tier) []*graph.Edge {
	out := make([]*graph.Edge, 0, len(s.edges[tier]))
	for _, e := range s.edges[tier] {
		out = append(out, e)
	}
	return out
}

// Index exposes the tier's index manager for read-side composition by
// the query engine.
func (s *TieredStorage) Index(tier Tier) *index.Manager {
	return s.indexes[tier]
}

// QueryNodesIndexed answers a tier-scoped node query through the tier's
// indexes and resolves ids back to values. With zero filters it returns
// nil: a full listing must go through AllNodes explicitly. This is a
// deliberate anti-footgun — "query everything" is almost always an
// accident, and when it isn't, the raw scan spells the cost out.
func (s *TieredStorage) QueryNodesIndexed(tier Tier, label string, props graph.Properties) []*graph.Node {
	if label == "" && len(props) == 0 {
		return nil
	}
	ids := s.indexes[tier].QueryNodes(label, props)
	out := make([]*graph.Node, 0, len(ids))
	for id := range ids {
		if n, ok := s.nodes[tier][graph.NodeID(id)]; ok {
			out = append(out, n)
		}
	}
	return out
}

// QueryEdgesIndexed answers a tier-scoped edge query; same zero-filter
// policy as QueryNodesIndexed.
func (s *TieredStorage) QueryEdgesIndexed(tier Tier, relationship string, sourceID, targetID graph.NodeID, props graph.Properties) []*graph.Edge {
	if relationship == "" && sourceID == "" && targetID == "" && len(props) == 0 {
		return nil
	}
	ids := s.indexes[tier].QueryEdges(relationship, string(sourceID), string(targetID), props)
	out := make([]*graph.Edge, 0, len(ids))
	for id := range ids {
		if e, ok := s.edges[tier][graph.EdgeID(id)]; ok {
			out = append(out, e)
		}
	}
	return out
}

// QueryConnectedIndexed walks the tier's adjacency maps and resolves
// the connected node ids to values. Ids whose nodes live in another
// tier (or nowhere — dangling edge endpoints) are skipped here; the
// cross-tier query engine unions results over every tier.
func (s *TieredStorage) QueryConnectedIndexed(tier Tier, startID graph.NodeID, relationship string, dir index.Direction) []*graph.Node {
	ids := s.indexes[tier].ConnectedNodes(string(startID), relationship, dir)
	out := make([]*graph.Node, 0, len(ids))
	for id := range ids {
		if n, ok := s.nodes[tier][graph.NodeID(id)]; ok {
			out = append(out, n)
		}
	}
	return out
}

// oldestFirst is the combined node+edge ranking used by the size-limit
// policy: every entity of a tier ordered by last-accessed ascending.
type rankedEntity struct {
	nodeID       graph.NodeID
	edgeID       graph.EdgeID
	isNode       bool
	lastAccessed time.Time
}
