package index

import "github.com/vellumlabs/stratum/pkg/graph"

// Direction selects which adjacency a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// pairKey keys the composite adjacency maps.
type pairKey struct {
	nodeID       string
	relationship string
}

// RelationshipIndex gives O(1) adjacency traversal without scanning the
// edge set. It maintains five maps per tier:
//
//	relationship          → edge ids
//	source node id        → edge ids
//	target node id        → edge ids
//	(source, relationship) → target node ids
//	(target, relationship) → source node ids
//
// The composite maps hold node-id sets, so two parallel edges with the
// same endpoints and relationship collapse to one adjacency entry;
// removing either edge removes the entry. Callers that need per-edge
// granularity use the edge-id maps.
type RelationshipIndex struct {
	byRelationship map[string]IDSet
	bySource       map[string]IDSet
	byTarget       map[string]IDSet
	outgoing       map[pairKey]IDSet
	incoming       map[pairKey]IDSet
}

// NewRelationshipIndex creates an empty relationship index.
func NewRelationshipIndex() *RelationshipIndex {
	return &RelationshipIndex{
		byRelationship: make(map[string]IDSet),
		bySource:       make(map[string]IDSet),
		byTarget:       make(map[string]IDSet),
		outgoing:       make(map[pairKey]IDSet),
		incoming:       make(map[pairKey]IDSet),
	}
}

func addTo(m map[string]IDSet, key, id string) {
	bucket := m[key]
	if bucket == nil {
		bucket = make(IDSet)
		m[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removeFrom(m map[string]IDSet, key, id string) {
	if bucket := m[key]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(m, key)
		}
	}
}

func addPair(m map[pairKey]IDSet, key pairKey, id string) {
	bucket := m[key]
	if bucket == nil {
		bucket = make(IDSet)
		m[key] = bucket
	}
	bucket[id] = struct{}{}
}

func removePair(m map[pairKey]IDSet, key pairKey, id string) {
	if bucket := m[key]; bucket != nil {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(m, key)
		}
	}
}

// AddEdge records the edge in all five maps.
func (ix *RelationshipIndex) AddEdge(e *graph.Edge) {
	id := string(e.ID)
	src := string(e.SourceID)
	tgt := string(e.TargetID)

	addTo(ix.byRelationship, e.Relationship, id)
	addTo(ix.bySource, src, id)
	addTo(ix.byTarget, tgt, id)
	addPair(ix.outgoing, pairKey{src, e.Relationship}, tgt)
	addPair(ix.incoming, pairKey{tgt, e.Relationship}, src)
}

// RemoveEdge reverses AddEdge, pruning buckets that become empty.
func (ix *RelationshipIndex) RemoveEdge(e *graph.Edge) {
	id := string(e.ID)
	src := string(e.SourceID)
	tgt := string(e.TargetID)

	removeFrom(ix.byRelationship, e.Relationship, id)
	removeFrom(ix.bySource, src, id)
	removeFrom(ix.byTarget, tgt, id)
	removePair(ix.outgoing, pairKey{src, e.Relationship}, tgt)
	removePair(ix.incoming, pairKey{tgt, e.Relationship}, src)
}

// ByRelationship returns a copy of the edge ids carrying relationship.
func (ix *RelationshipIndex) ByRelationship(relationship string) IDSet {
	return ix.byRelationship[relationship].Clone()
}

// BySource returns a copy of the edge ids leaving the given node.
func (ix *RelationshipIndex) BySource(sourceID string) IDSet {
	return ix.bySource[sourceID].Clone()
}

// ByTarget returns a copy of the edge ids entering the given node.
func (ix *RelationshipIndex) ByTarget(targetID string) IDSet {
	return ix.byTarget[targetID].Clone()
}

// ConnectedNodes returns the node ids adjacent to nodeID through
// relationship in the given direction, straight from the composite
// maps — no edge scan. DirectionBoth is the union of both maps. An
// unknown direction yields an empty set.
func (ix *RelationshipIndex) ConnectedNodes(nodeID, relationship string, dir Direction) IDSet {
	switch dir {
	case DirectionOutgoing:
		return ix.outgoing[pairKey{nodeID, relationship}].Clone()
	case DirectionIncoming:
		return ix.incoming[pairKey{nodeID, relationship}].Clone()
	case DirectionBoth:
		out := ix.outgoing[pairKey{nodeID, relationship}].Clone()
		return out.UnionWith(ix.incoming[pairKey{nodeID, relationship}])
	}
	return make(IDSet)
}
