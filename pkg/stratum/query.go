package stratum

import (
	"time"

	"go.uber.org/zap"

	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/index"
	"github.com/vellumlabs/stratum/pkg/storage"
)

// Direction re-exports the adjacency directions so callers do not need
// to import pkg/index for a traversal.
const (
	DirectionOutgoing = index.DirectionOutgoing
	DirectionIncoming = index.DirectionIncoming
	DirectionBoth     = index.DirectionBoth
)

// QueryResult is the annotated outcome of one query. Exactly one of
// Nodes or Edges is populated depending on the query kind. Tier names
// the hottest tier that contributed a result, empty when nothing
// matched.
type QueryResult struct {
	Nodes   []*graph.Node `json:"nodes,omitempty"`
	Edges   []*graph.Edge `json:"edges,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
	Tier    storage.Tier  `json:"tier,omitempty"`
}

// QueryNodes finds nodes matching the label and property filters across
// every tier, hottest first. Matching is pure intersection: a node must
// satisfy every filter given. Zero filters return an empty result and a
// warn log, never a full scan; listing everything is an explicit
// operation, not a degenerate query. Each returned node has its access
// tracking refreshed.
//
// Queries take the write lock because of that refresh; a query is a
// mutation of access metadata.
func (kb *KB) QueryNodes(label string, props graph.Properties) (QueryResult, error) {
	start := time.Now()
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return QueryResult{}, graph.ErrClosed
	}
	if label == "" && len(props) == 0 {
		kb.log.Warn("node query with zero filters returns nothing")
		return QueryResult{Elapsed: time.Since(start)}, nil
	}

	res := QueryResult{}
	for _, tier := range storage.Tiers() {
		hits := kb.tiers.QueryNodesIndexed(tier, label, props)
		if len(hits) > 0 && res.Tier == "" {
			res.Tier = tier
		}
		for _, n := range hits {
			touched := n.WithAccess()
			kb.tiers.RefreshNode(touched, tier)
			res.Nodes = append(res.Nodes, touched)
		}
	}
	res.Elapsed = time.Since(start)

	kb.log.Debug("node query",
		zap.String("label", label),
		zap.Int("filters", len(props)),
		zap.Int("hits", len(res.Nodes)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// QueryEdges finds edges matching the relationship, endpoint, and
// property filters across every tier. Empty string / empty map filters
// are treated as absent; zero filters return an empty result with a
// warn log. Each returned edge has its access tracking refreshed.
func (kb *KB) QueryEdges(relationship string, source, target graph.NodeID, props graph.Properties) (QueryResult, error) {
	start := time.Now()
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return QueryResult{}, graph.ErrClosed
	}
	if relationship == "" && source == "" && target == "" && len(props) == 0 {
		kb.log.Warn("edge query with zero filters returns nothing")
		return QueryResult{Elapsed: time.Since(start)}, nil
	}

	res := QueryResult{}
	for _, tier := range storage.Tiers() {
		hits := kb.tiers.QueryEdgesIndexed(tier, relationship, source, target, props)
		if len(hits) > 0 && res.Tier == "" {
			res.Tier = tier
		}
		for _, e := range hits {
			touched := e.WithAccess()
			kb.tiers.RefreshEdge(touched, tier)
			res.Edges = append(res.Edges, touched)
		}
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// QueryConnectedNodes walks edges from start and returns the nodes on
// the other end. relationship narrows to one edge kind ("" for any);
// dir selects outgoing targets, incoming sources, or both unioned.
// Because the adjacency maps live per tier, the walk runs in every tier
// and unions the results; an endpoint node may be resolved from a
// different tier than the edge that reached it. Dangling endpoints are
// skipped silently. Returned nodes have their access tracking
// refreshed.
func (kb *KB) QueryConnectedNodes(start graph.NodeID, relationship string, dir index.Direction) (QueryResult, error) {
	began := time.Now()
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return QueryResult{}, graph.ErrClosed
	}
	if start == "" {
		kb.log.Warn("connectivity query without a start node returns nothing")
		return QueryResult{Elapsed: time.Since(began)}, nil
	}

	// Collect candidate ids from every tier's adjacency maps first,
	// deduplicated, then resolve each id across tiers.
	candidates := make(map[graph.NodeID]struct{})
	for _, tier := range storage.Tiers() {
		ids := kb.tiers.Index(tier).ConnectedNodes(string(start), relationship, dir)
		for id := range ids {
			candidates[graph.NodeID(id)] = struct{}{}
		}
	}

	res := QueryResult{}
	for id := range candidates {
		n, tier := kb.tiers.FindNode(id)
		if n == nil {
			continue // dangling endpoint
		}
		if res.Tier == "" || hotter(tier, res.Tier) {
			res.Tier = tier
		}
		touched := n.WithAccess()
		kb.tiers.RefreshNode(touched, tier)
		res.Nodes = append(res.Nodes, touched)
	}
	res.Elapsed = time.Since(began)
	return res, nil
}

// QueryNodesByRange finds nodes whose numeric property falls within
// [min, max] across every tier. Nil bounds are unbounded on that side.
// Both bounds nil is the zero-filter case and returns nothing.
func (kb *KB) QueryNodesByRange(property string, min, max *float64) (QueryResult, error) {
	start := time.Now()
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return QueryResult{}, graph.ErrClosed
	}
	if min == nil && max == nil {
		kb.log.Warn("range query without bounds returns nothing")
		return QueryResult{Elapsed: time.Since(start)}, nil
	}

	res := QueryResult{}
	for _, tier := range storage.Tiers() {
		ids := kb.tiers.Index(tier).NodeRange(property, min, max)
		if len(ids) > 0 && res.Tier == "" {
			res.Tier = tier
		}
		for id := range ids {
			n := kb.tiers.GetNode(graph.NodeID(id), tier)
			if n == nil {
				continue
			}
			touched := n.WithAccess()
			kb.tiers.RefreshNode(touched, tier)
			res.Nodes = append(res.Nodes, touched)
		}
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// tierRank orders tiers hottest first for Tier annotation.
var tierRank = map[storage.Tier]int{
	storage.TierRuntime: 0,
	storage.TierStore:   1,
	storage.TierCold:    2,
}

func hotter(a, b storage.Tier) bool {
	return tierRank[a] < tierRank[b]
}
