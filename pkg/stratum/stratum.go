// Package stratum exposes the tiered graph store behind a single
// concurrency-safe handle, KB.
//
// KB owns a storage.TieredStorage, the append-only diff log, and one
// RWMutex that serializes everything: mutations and queries take the
// write lock (queries refresh access tracking on every hit, so they are
// writers too), pure inspection methods take the read lock, and
// rollback and pruning are stop-the-world like any other mutation.
// There are no partially applied operations observable from another
// goroutine.
//
// Edges are permissive about endpoints: InsertEdge records the source
// and target ids as given without checking that the nodes exist. A
// graph with dangling edges is queryable; traversals simply skip ids
// that resolve to nothing. Callers that want strict integrity validate
// before inserting.
//
// Example Usage:
//
//	kb, _ := stratum.New(stratum.Options{})
//	defer kb.Close()
//
//	alice, _ := kb.InsertNode("Person", graph.Properties{
//		"name": graph.String("Alice"),
//		"dept": graph.String("Engineering"),
//	})
//
//	res, _ := kb.QueryNodes("Person", graph.Properties{
//		"dept": graph.String("Engineering"),
//	})
//	fmt.Println(len(res.Nodes), res.Elapsed)
//
//	undone, _ := kb.Rollback(1) // alice is gone again
//	_ = undone
//	_ = alice
package stratum

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/storage"
)

// Options configures a new store handle. The zero value is usable.
type Options struct {
	// Logger receives structured operational logs. Nil means no
	// logging (zap.NewNop).
	Logger *zap.Logger
}

// KB is the knowledge-base store handle. All access to the underlying
// tiered storage and diff log goes through its methods.
type KB struct {
	mu      sync.RWMutex
	tiers   *storage.TieredStorage
	history []*graph.Diff
	log     *zap.Logger
	closed  bool
}

// New creates an empty store.
func New(opts Options) (*KB, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &KB{
		tiers: storage.NewTieredStorage(),
		log:   log,
	}, nil
}

// Close marks the store closed. Subsequent operations fail with
// graph.ErrClosed. Close is idempotent.
func (kb *KB) Close() error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.closed = true
	return nil
}

// mutation carries per-call options for the write operations.
type mutation struct {
	agentID   string
	sessionID string
}

// MutationOption annotates a single insert or delete.
type MutationOption func(*mutation)

// Attribution tags the resulting diff with the agent and session that
// caused the mutation, for multi-agent callers auditing the log.
func Attribution(agentID, sessionID string) MutationOption {
	return func(m *mutation) {
		m.agentID = agentID
		m.sessionID = sessionID
	}
}

func applyOptions(opts []MutationOption) mutation {
	var m mutation
	for _, o := range opts {
		o(&m)
	}
	return m
}

func (kb *KB) record(d *graph.Diff, m mutation) {
	if m.agentID != "" || m.sessionID != "" {
		d = d.WithAttribution(m.agentID, m.sessionID)
	}
	kb.history = append(kb.history, d)
}

// InsertNode creates a node in the runtime tier and appends an insert
// diff to the log.
func (kb *KB) InsertNode(label string, props graph.Properties, opts ...MutationOption) (*graph.Node, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}

	n := graph.NewNode(label, props)
	kb.tiers.AddNode(n, storage.TierRuntime)
	kb.record(graph.NewNodeDiff(graph.OpInsertNode, n), applyOptions(opts))

	kb.log.Debug("node inserted",
		zap.String("node_id", string(n.ID)),
		zap.String("label", label))
	return n, nil
}

// InsertEdge creates a directed edge in the runtime tier and appends an
// insert diff. Endpoint ids are not validated.
func (kb *KB) InsertEdge(source, target graph.NodeID, relationship string, props graph.Properties, opts ...MutationOption) (*graph.Edge, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}
	if source == "" || target == "" {
		return nil, fmt.Errorf("insert edge: %w", graph.ErrInvalidID)
	}

	e := graph.NewEdge(source, target, relationship, props)
	kb.tiers.AddEdge(e, storage.TierRuntime)
	kb.record(graph.NewEdgeDiff(graph.OpInsertEdge, e), applyOptions(opts))

	kb.log.Debug("edge inserted",
		zap.String("edge_id", string(e.ID)),
		zap.String("relationship", relationship))
	return e, nil
}

// DeleteNode removes a node from whichever tier holds it and appends a
// delete diff recording the removed snapshot. Absent ids return
// graph.ErrNotFound; edges referencing the node are left in place.
func (kb *KB) DeleteNode(id graph.NodeID, opts ...MutationOption) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return graph.ErrClosed
	}

	n, tier := kb.tiers.FindNode(id)
	if n == nil {
		return fmt.Errorf("delete node %s: %w", id, graph.ErrNotFound)
	}
	kb.tiers.RemoveNode(id, tier)
	kb.record(graph.NewNodeDiff(graph.OpDeleteNode, n), applyOptions(opts))

	kb.log.Debug("node deleted",
		zap.String("node_id", string(id)),
		zap.String("tier", string(tier)))
	return nil
}

// DeleteEdge removes an edge from whichever tier holds it and appends a
// delete diff. Absent ids return graph.ErrNotFound.
func (kb *KB) DeleteEdge(id graph.EdgeID, opts ...MutationOption) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return graph.ErrClosed
	}

	e, tier := kb.tiers.FindEdge(id)
	if e == nil {
		return fmt.Errorf("delete edge %s: %w", id, graph.ErrNotFound)
	}
	kb.tiers.RemoveEdge(id, tier)
	kb.record(graph.NewEdgeDiff(graph.OpDeleteEdge, e), applyOptions(opts))
	return nil
}

// GetNode returns the node by id, searching hot to cold, and refreshes
// its access tracking.
func (kb *KB) GetNode(id graph.NodeID) (*graph.Node, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}

	n, tier := kb.tiers.FindNode(id)
	if n == nil {
		return nil, fmt.Errorf("get node %s: %w", id, graph.ErrNotFound)
	}
	touched := n.WithAccess()
	kb.tiers.RefreshNode(touched, tier)
	return touched, nil
}

// GetEdge returns the edge by id, searching hot to cold, and refreshes
// its access tracking.
func (kb *KB) GetEdge(id graph.EdgeID) (*graph.Edge, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}

	e, tier := kb.tiers.FindEdge(id)
	if e == nil {
		return nil, fmt.Errorf("get edge %s: %w", id, graph.ErrNotFound)
	}
	touched := e.WithAccess()
	kb.tiers.RefreshEdge(touched, tier)
	return touched, nil
}

// AttachEmbedding stores an externally computed vector on a node. The
// store never computes embeddings; it only records what a collaborator
// hands it. The node's indexed fields are unchanged, so this is a
// refresh, not a re-index.
func (kb *KB) AttachEmbedding(id graph.NodeID, vec []float32, model string) (*graph.Node, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}

	n, tier := kb.tiers.FindNode(id)
	if n == nil {
		return nil, fmt.Errorf("attach embedding to %s: %w", id, graph.ErrNotFound)
	}
	embedded := n.WithEmbedding(vec, model)
	kb.tiers.RefreshNode(embedded, tier)
	return embedded, nil
}

// Rollback undoes the most recent diffs, newest first, and removes them
// from the history. Asking for more steps than the log holds truncates
// to the available history; the return value is the number of
// operations actually undone. Rollback restores identity and core
// fields only: tier placement and access-tracking refreshes that
// happened after the original mutation are not replayed.
func (kb *KB) Rollback(steps int) (int, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return 0, graph.ErrClosed
	}
	if steps < 0 {
		return 0, fmt.Errorf("rollback: negative step count %d", steps)
	}
	return kb.rollbackLocked(steps), nil
}

// RollbackToTimestamp undoes every diff strictly newer than t.
func (kb *KB) RollbackToTimestamp(t time.Time) (int, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return 0, graph.ErrClosed
	}

	steps := 0
	for i := len(kb.history) - 1; i >= 0; i-- {
		if !kb.history[i].Timestamp.After(t) {
			break
		}
		steps++
	}
	return kb.rollbackLocked(steps), nil
}

func (kb *KB) rollbackLocked(steps int) int {
	if steps > len(kb.history) {
		steps = len(kb.history)
	}
	undone := 0
	for i := 0; i < steps; i++ {
		last := kb.history[len(kb.history)-1]
		kb.history = kb.history[:len(kb.history)-1]
		kb.applyReverse(last)
		undone++
	}
	if undone > 0 {
		kb.log.Info("rollback applied",
			zap.Int("steps", undone),
			zap.Int("history_remaining", len(kb.history)))
	}
	return undone
}

// applyReverse applies the inverse of a logged diff to the tiers.
// Reversed inserts delete from whichever tier holds the entity now;
// reversed deletes re-insert into the runtime tier.
func (kb *KB) applyReverse(d *graph.Diff) {
	r := d.Reverse()
	switch r.Op {
	case graph.OpDeleteNode:
		if _, tier := kb.tiers.FindNode(r.Node.ID); tier != "" {
			kb.tiers.RemoveNode(r.Node.ID, tier)
		}
	case graph.OpInsertNode:
		kb.tiers.AddNode(r.Node, storage.TierRuntime)
	case graph.OpDeleteEdge:
		if _, tier := kb.tiers.FindEdge(r.Edge.ID); tier != "" {
			kb.tiers.RemoveEdge(r.Edge.ID, tier)
		}
	case graph.OpInsertEdge:
		kb.tiers.AddEdge(r.Edge, storage.TierRuntime)
	}
}

// History returns a copy of the diff log in append order.
func (kb *KB) History() []*graph.Diff {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	out := make([]*graph.Diff, len(kb.history))
	copy(out, kb.history)
	return out
}

// HistorySize returns the current length of the diff log.
func (kb *KB) HistorySize() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.history)
}

// PruneByAccessCount demotes entities in tier with access count below
// threshold into dest and returns the number moved.
func (kb *KB) PruneByAccessCount(tier, dest storage.Tier, threshold int64) (storage.PruneStats, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return storage.PruneStats{}, graph.ErrClosed
	}
	if err := checkTiers(tier, dest); err != nil {
		return storage.PruneStats{}, err
	}
	stats := kb.tiers.PruneByAccessCount(tier, dest, threshold)
	kb.logPrune("access_count", tier, dest, stats)
	return stats, nil
}

// PruneByAge demotes entities in tier last accessed more than maxAge
// ago into dest.
func (kb *KB) PruneByAge(tier, dest storage.Tier, maxAge time.Duration) (storage.PruneStats, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return storage.PruneStats{}, graph.ErrClosed
	}
	if err := checkTiers(tier, dest); err != nil {
		return storage.PruneStats{}, err
	}
	stats := kb.tiers.PruneByAge(tier, dest, maxAge, time.Now().UTC())
	kb.logPrune("age", tier, dest, stats)
	return stats, nil
}

// PruneBySizeLimit demotes least-recently-accessed entities out of tier
// until at most maxEntities remain.
func (kb *KB) PruneBySizeLimit(tier, dest storage.Tier, maxEntities int) (storage.PruneStats, error) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return storage.PruneStats{}, graph.ErrClosed
	}
	if err := checkTiers(tier, dest); err != nil {
		return storage.PruneStats{}, err
	}
	stats := kb.tiers.PruneBySizeLimit(tier, dest, maxEntities)
	kb.logPrune("size_limit", tier, dest, stats)
	return stats, nil
}

func checkTiers(tiers ...storage.Tier) error {
	for _, t := range tiers {
		if !t.Valid() {
			return fmt.Errorf("unknown tier %q: %w", t, graph.ErrInvalidID)
		}
	}
	return nil
}

func (kb *KB) logPrune(policy string, tier, dest storage.Tier, stats storage.PruneStats) {
	if stats.Total() == 0 {
		return
	}
	kb.log.Info("prune pass",
		zap.String("policy", policy),
		zap.String("from", string(tier)),
		zap.String("to", string(dest)),
		zap.Int("nodes", stats.NodesAffected),
		zap.Int("edges", stats.EdgesAffected))
}

// CountNodes returns the node count of one tier.
func (kb *KB) CountNodes(tier storage.Tier) int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.tiers.CountNodes(tier)
}

// CountEdges returns the edge count of one tier.
func (kb *KB) CountEdges(tier storage.Tier) int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.tiers.CountEdges(tier)
}

// TierStats holds the entity counts of a single tier.
type TierStats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Tiers       map[storage.Tier]TierStats `json:"tiers"`
	TotalNodes  int                        `json:"total_nodes"`
	TotalEdges  int                        `json:"total_edges"`
	HistorySize int                        `json:"history_size"`
}

// Stats returns entity counts per tier plus totals and the diff log
// length, consistent as of a single lock acquisition.
func (kb *KB) Stats() Stats {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	s := Stats{
		Tiers:       make(map[storage.Tier]TierStats, 3),
		HistorySize: len(kb.history),
	}
	for _, t := range storage.Tiers() {
		ts := TierStats{
			Nodes: kb.tiers.CountNodes(t),
			Edges: kb.tiers.CountEdges(t),
		}
		s.Tiers[t] = ts
		s.TotalNodes += ts.Nodes
		s.TotalEdges += ts.Edges
	}
	return s
}
