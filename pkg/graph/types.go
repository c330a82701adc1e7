// Package graph defines the immutable entity model for stratum: nodes,
// edges, property values, and the diff records that describe mutations.
//
// All entity types are value snapshots. Nothing in this package mutates
// an existing Node or Edge; "updates" are expressed as copy-on-write
// constructors (WithAccess, WithEmbedding) that return a new value
// sharing the same id. The owning store discards the old value. This
// discipline is what makes the append-only diff log a faithful history:
// every Diff payload is a by-value snapshot that can be re-applied or
// reversed without worrying about aliasing.
//
// Example Usage:
//
//	node := graph.NewNode("Person", graph.Properties{
//		"name": graph.String("Alice"),
//		"age":  graph.Int(30),
//	})
//
//	// Reads refresh access tracking by replacement, never in place.
//	touched := node.WithAccess()
//	fmt.Println(touched.ID == node.ID)            // true
//	fmt.Println(touched.AccessCount)              // node.AccessCount + 1
//
//	diff := graph.NewNodeDiff(graph.OpInsertNode, node)
//	undo := diff.Reverse() // OpDeleteNode, same payload, fresh identity
package graph

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors surfaced by the store layers built on this model.
var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
	ErrClosed    = errors.New("store closed")

	// ErrCorrupted indicates an index/entity-map desync. It is never
	// expected under correct mutation discipline and is escalated as a
	// hard failure rather than an empty result.
	ErrCorrupted = errors.New("index corrupted")
)

// NodeID is a strongly-typed unique identifier for graph nodes.
// Using a distinct type keeps node and edge ids from being mixed up at
// compile time.
type NodeID string

// EdgeID is a strongly-typed unique identifier for graph edges.
type EdgeID string

// DiffID is a strongly-typed unique identifier for diff records.
type DiffID string

// Node is an immutable graph node.
//
// Core fields:
//   - ID: unique identifier, assigned at creation
//   - Label: category tag, e.g. "Person"
//   - Properties: key → tagged Value (see Value for indexability rules)
//
// Access tracking:
//   - AccessCount / LastAccessed drive the eviction policies. They are
//     refreshed by replacement: WithAccess returns a new Node and the
//     store swaps it in.
//
// Embedding fields are populated by an external embedding collaborator
// via WithEmbedding; the store never computes vectors itself.
//
// Thread safety: a Node is an immutable snapshot and safe to share
// across goroutines. Never modify a Node's maps or slices after it has
// been handed to a store.
type Node struct {
	ID         NodeID     `json:"id"`
	Label      string     `json:"label"`
	Properties Properties `json:"properties"`
	CreatedAt  time.Time  `json:"created_at"`

	// Usage tracking for eviction.
	AccessCount  int64     `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`

	// Optional semantic-search payload, attached externally.
	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	EmbeddedAt     time.Time `json:"embedded_at,omitempty"`
}

// NewNode creates a node with a fresh id, zero access count, and
// creation/access timestamps set to now.
func NewNode(label string, props Properties) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:           NodeID(uuid.NewString()),
		Label:        label,
		Properties:   props.Clone(),
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// WithAccess returns a copy of the node with the access counter
// incremented and the last-accessed timestamp refreshed. The id and all
// other fields are unchanged.
func (n *Node) WithAccess() *Node {
	c := n.clone()
	c.AccessCount++
	c.LastAccessed = time.Now().UTC()
	return c
}

// WithEmbedding returns a copy of the node carrying the given embedding
// vector and model tag, stamped with the attach time. Vectors are
// produced by an external collaborator; this method only records them.
func (n *Node) WithEmbedding(vec []float32, model string) *Node {
	c := n.clone()
	c.Embedding = make([]float32, len(vec))
	copy(c.Embedding, vec)
	c.EmbeddingModel = model
	c.EmbeddedAt = time.Now().UTC()
	return c
}

// clone produces a deep copy. Callers outside the constructor methods
// should not need it: a Node is already safe to share as-is.
func (n *Node) clone() *Node {
	c := *n
	c.Properties = n.Properties.Clone()
	if n.Embedding != nil {
		c.Embedding = make([]float32, len(n.Embedding))
		copy(c.Embedding, n.Embedding)
	}
	return &c
}

// Edge is an immutable directed relationship between two node ids.
//
// Edges reference node ids by value only. The model layer does not
// enforce referential integrity: an Edge may name a source or target id
// that is absent from any tier, or that was deleted afterwards. Whether
// to validate endpoints is the caller's decision; the store preserves
// the permissive behavior (see the package-level docs in pkg/stratum).
type Edge struct {
	ID           EdgeID     `json:"id"`
	SourceID     NodeID     `json:"source_id"`
	TargetID     NodeID     `json:"target_id"`
	Relationship string     `json:"relationship"`
	Properties   Properties `json:"properties"`
	CreatedAt    time.Time  `json:"created_at"`

	// Usage tracking for eviction.
	AccessCount  int64     `json:"access_count"`
	LastAccessed time.Time `json:"last_accessed"`
}

// NewEdge creates an edge with a fresh id, zero access count, and
// creation/access timestamps set to now. Endpoint ids are recorded
// as given; they are not checked for existence.
func NewEdge(source, target NodeID, relationship string, props Properties) *Edge {
	now := time.Now().UTC()
	return &Edge{
		ID:           EdgeID(uuid.NewString()),
		SourceID:     source,
		TargetID:     target,
		Relationship: relationship,
		Properties:   props.Clone(),
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// WithAccess returns a copy of the edge with refreshed access tracking.
func (e *Edge) WithAccess() *Edge {
	c := *e
	c.Properties = e.Properties.Clone()
	c.AccessCount++
	c.LastAccessed = time.Now().UTC()
	return &c
}
