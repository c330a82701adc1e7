package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	n := NewNode("Person", Properties{
		"name": String("Alice"),
		"age":  Int(34),
	})

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Person", n.Label)
	assert.Equal(t, int64(0), n.AccessCount)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, n.CreatedAt, n.LastAccessed)

	t.Run("ids are unique", func(t *testing.T) {
		other := NewNode("Person", nil)
		assert.NotEqual(t, n.ID, other.ID)
	})

	t.Run("properties are copied in", func(t *testing.T) {
		props := Properties{"k": String("v")}
		node := NewNode("Thing", props)
		props["k"] = String("changed")
		assert.True(t, String("v").Equal(node.Properties["k"]))
	})
}

func TestNodeWithAccess(t *testing.T) {
	n := NewNode("Person", Properties{"name": String("Alice")})

	touched := n.WithAccess()

	assert.Equal(t, n.ID, touched.ID)
	assert.Equal(t, int64(1), touched.AccessCount)
	assert.False(t, touched.LastAccessed.Before(n.LastAccessed))

	t.Run("original is untouched", func(t *testing.T) {
		assert.Equal(t, int64(0), n.AccessCount)
	})

	t.Run("counts accumulate", func(t *testing.T) {
		again := touched.WithAccess().WithAccess()
		assert.Equal(t, int64(3), again.AccessCount)
	})
}

func TestNodeWithEmbedding(t *testing.T) {
	n := NewNode("Doc", nil)
	vec := []float32{0.1, 0.2, 0.3}

	embedded := n.WithEmbedding(vec, "test-model")

	require.Len(t, embedded.Embedding, 3)
	assert.Equal(t, "test-model", embedded.EmbeddingModel)
	assert.False(t, embedded.EmbeddedAt.IsZero())

	t.Run("vector is copied, not aliased", func(t *testing.T) {
		vec[0] = 99
		assert.Equal(t, float32(0.1), embedded.Embedding[0])
	})

	t.Run("original carries no embedding", func(t *testing.T) {
		assert.Nil(t, n.Embedding)
	})
}

func TestNewEdge(t *testing.T) {
	a := NewNode("Person", nil)
	b := NewNode("Person", nil)
	e := NewEdge(a.ID, b.ID, "mentors", Properties{"since": Int(2020)})

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, a.ID, e.SourceID)
	assert.Equal(t, b.ID, e.TargetID)
	assert.Equal(t, "mentors", e.Relationship)

	t.Run("dangling endpoints are accepted", func(t *testing.T) {
		dangling := NewEdge("no-such-node", "also-missing", "knows", nil)
		assert.Equal(t, NodeID("no-such-node"), dangling.SourceID)
	})
}

func TestEdgeWithAccess(t *testing.T) {
	e := NewEdge("a", "b", "knows", nil)
	touched := e.WithAccess()

	assert.Equal(t, e.ID, touched.ID)
	assert.Equal(t, int64(1), touched.AccessCount)
	assert.Equal(t, int64(0), e.AccessCount)
}
