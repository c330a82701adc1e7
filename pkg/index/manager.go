package index

import "github.com/vellumlabs/stratum/pkg/graph"

// Manager owns the full index family for one storage tier: label and
// property indexes for each entity kind, plus the relationship index
// for edges. The tiered storage layer keeps one Manager per tier and
// calls Add/Remove exactly once per logical insert/delete.
//
// Query methods resolve filters to candidate id sets and intersect
// them. A query with no filters at all returns an empty set rather than
// the whole tier: an accidental O(n) scan must be an explicit caller
// choice (iterate the tier's entity map), never a silent default of a
// filterless query.
type Manager struct {
	nodeLabels *LabelIndex
	nodeProps  *PropertyIndex
	edgeLabels *LabelIndex
	edgeProps  *PropertyIndex
	rels       *RelationshipIndex
}

// NewManager creates an empty index family.
func NewManager() *Manager {
	return &Manager{
		nodeLabels: NewLabelIndex(),
		nodeProps:  NewPropertyIndex(),
		edgeLabels: NewLabelIndex(),
		edgeProps:  NewPropertyIndex(),
		rels:       NewRelationshipIndex(),
	}
}

// AddNode indexes the node's label and properties.
func (m *Manager) AddNode(n *graph.Node) {
	m.nodeLabels.Add(string(n.ID), n.Label)
	m.nodeProps.Add(string(n.ID), n.Properties)
}

// RemoveNode reverses AddNode for the same node value.
func (m *Manager) RemoveNode(n *graph.Node) {
	m.nodeLabels.Remove(string(n.ID), n.Label)
	m.nodeProps.Remove(string(n.ID), n.Properties)
}

// AddEdge indexes the edge's relationship label, properties, and
// adjacency.
func (m *Manager) AddEdge(e *graph.Edge) {
	m.edgeLabels.Add(string(e.ID), e.Relationship)
	m.edgeProps.Add(string(e.ID), e.Properties)
	m.rels.AddEdge(e)
}

// RemoveEdge reverses AddEdge for the same edge value.
func (m *Manager) RemoveEdge(e *graph.Edge) {
	m.edgeLabels.Remove(string(e.ID), e.Relationship)
	m.edgeProps.Remove(string(e.ID), e.Properties)
	m.rels.RemoveEdge(e)
}

// QueryNodes resolves the supplied filters to node ids. An empty label
// string means no label filter; nil or empty properties means no
// property filter. With zero filters the result is empty (see the
// Manager docs).
func (m *Manager) QueryNodes(label string, props graph.Properties) IDSet {
	var result IDSet
	narrowed := false

	if label != "" {
		result = m.nodeLabels.Find(label)
		narrowed = true
	}
	if len(props) > 0 {
		propIDs := m.nodeProps.FindMultiple(props)
		if narrowed {
			result.IntersectWith(propIDs)
		} else {
			result = propIDs
			narrowed = true
		}
	}
	if !narrowed {
		return make(IDSet)
	}
	return result
}

// QueryEdges resolves up to four filters — relationship, source id,
// target id, properties — and intersects their candidate sets. Empty
// strings and empty property maps mean "no filter"; zero filters yields
// an empty set.
func (m *Manager) QueryEdges(relationship, sourceID, targetID string, props graph.Properties) IDSet {
	var result IDSet
	narrowed := false

	narrow := func(ids IDSet) {
		if narrowed {
			result.IntersectWith(ids)
		} else {
			result = ids
			narrowed = true
		}
	}

	if relationship != "" {
		narrow(m.rels.ByRelationship(relationship))
	}
	if sourceID != "" {
		narrow(m.rels.BySource(sourceID))
	}
	if targetID != "" {
		narrow(m.rels.ByTarget(targetID))
	}
	if len(props) > 0 {
		narrow(m.edgeProps.FindMultiple(props))
	}
	if !narrowed {
		return make(IDSet)
	}
	return result
}

// ConnectedNodes answers adjacency queries from the relationship
// index's composite maps.
func (m *Manager) ConnectedNodes(startID, relationship string, dir Direction) IDSet {
	return m.rels.ConnectedNodes(startID, relationship, dir)
}

// NodeRange exposes numeric range queries over node properties.
func (m *Manager) NodeRange(property string, min, max *float64) IDSet {
	return m.nodeProps.FindRange(property, min, max)
}

// EdgeRange exposes numeric range queries over edge properties.
func (m *Manager) EdgeRange(property string, min, max *float64) IDSet {
	return m.edgeProps.FindRange(property, min, max)
}

// NodeLabels lists the labels currently present in the tier.
func (m *Manager) NodeLabels() []string { return m.nodeLabels.Labels() }

// Relationships lists the relationship labels currently present.
func (m *Manager) Relationships() []string { return m.edgeLabels.Labels() }
