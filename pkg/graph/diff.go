package graph

import (
	"time"

	"github.com/google/uuid"
)

// Op is the kind of mutation a Diff records.
type Op string

const (
	OpInsertNode Op = "insert_node"
	OpDeleteNode Op = "delete_node"
	OpInsertEdge Op = "insert_edge"
	OpDeleteEdge Op = "delete_edge"
)

// reverseOps maps each operation to its inverse.
var reverseOps = map[Op]Op{
	OpInsertNode: OpDeleteNode,
	OpDeleteNode: OpInsertNode,
	OpInsertEdge: OpDeleteEdge,
	OpDeleteEdge: OpInsertEdge,
}

// Diff is an immutable record of one insert or delete. Exactly one of
// Node or Edge is set, matching the operation kind. Diffs form an
// append-only, strictly ordered log which is the sole source of truth
// for rollback: reversing a diff and applying it undoes the original
// mutation over identity and core fields. Tier placement and
// access-tracking refreshes that happened after the original mutation
// are not captured, so rollback is a best-effort undo, not a
// point-in-time snapshot restore.
type Diff struct {
	ID        DiffID    `json:"id"`
	Op        Op        `json:"operation"`
	Timestamp time.Time `json:"timestamp"`

	Node *Node `json:"node,omitempty"`
	Edge *Edge `json:"edge,omitempty"`

	// Optional attribution for multi-agent callers.
	AgentID   string `json:"agent_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewNodeDiff records a node operation. The node payload is held as a
// snapshot; because nodes are immutable this needs no defensive copy.
func NewNodeDiff(op Op, n *Node) *Diff {
	return &Diff{
		ID:        DiffID(uuid.NewString()),
		Op:        op,
		Timestamp: time.Now().UTC(),
		Node:      n,
	}
}

// NewEdgeDiff records an edge operation.
func NewEdgeDiff(op Op, e *Edge) *Diff {
	return &Diff{
		ID:        DiffID(uuid.NewString()),
		Op:        op,
		Timestamp: time.Now().UTC(),
		Edge:      e,
	}
}

// WithAttribution returns a copy of the diff tagged with the agent and
// session that caused it.
func (d *Diff) WithAttribution(agentID, sessionID string) *Diff {
	c := *d
	c.AgentID = agentID
	c.SessionID = sessionID
	return &c
}

// Reverse produces the inverse diff: InsertNode↔DeleteNode,
// InsertEdge↔DeleteEdge. The result carries a fresh id and timestamp
// and the same payload, so applying it undoes the original operation.
func (d *Diff) Reverse() *Diff {
	c := *d
	c.ID = DiffID(uuid.NewString())
	c.Op = reverseOps[d.Op]
	c.Timestamp = time.Now().UTC()
	return &c
}
