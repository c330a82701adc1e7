package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumlabs/stratum/pkg/graph"
)

func TestPropertyIndexExact(t *testing.T) {
	ix := NewPropertyIndex()
	ix.Add("n1", graph.Properties{"dept": graph.String("eng")})
	ix.Add("n2", graph.Properties{"dept": graph.String("eng")})
	ix.Add("n3", graph.Properties{"dept": graph.String("sales")})

	hits := ix.FindExact("dept", graph.String("eng"))
	assert.Len(t, hits, 2)
	assert.True(t, hits.Contains("n1"))
	assert.True(t, hits.Contains("n2"))

	t.Run("unknown value is an empty set", func(t *testing.T) {
		assert.Empty(t, ix.FindExact("dept", graph.String("hr")))
	})

	t.Run("unknown property is an empty set", func(t *testing.T) {
		assert.Empty(t, ix.FindExact("nope", graph.String("eng")))
	})

	t.Run("int and float do not collide", func(t *testing.T) {
		ix.Add("n4", graph.Properties{"level": graph.Int(1)})
		ix.Add("n5", graph.Properties{"level": graph.Float(1.0)})
		assert.Len(t, ix.FindExact("level", graph.Int(1)), 1)
		assert.Len(t, ix.FindExact("level", graph.Float(1.0)), 1)
	})
}

func TestPropertyIndexOpaqueSkipped(t *testing.T) {
	ix := NewPropertyIndex()
	props := graph.Properties{
		"name": graph.String("Alice"),
		"blob": graph.Opaque(map[string]int{"a": 1}),
	}
	ix.Add("n1", props)

	assert.Len(t, ix.FindExact("name", graph.String("Alice")), 1)
	assert.Empty(t, ix.FindExact("blob", graph.Opaque(map[string]int{"a": 1})))

	// Removal with the same opaque value must not panic or desync.
	ix.Remove("n1", props)
	assert.Empty(t, ix.FindExact("name", graph.String("Alice")))
}

func TestPropertyIndexRange(t *testing.T) {
	ix := NewPropertyIndex()
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		ix.Add(id, graph.Properties{"age": graph.Int(int64(20 + i*5))}) // 20,25,30,35,40
	}

	f := func(v float64) *float64 { return &v }

	t.Run("closed interval", func(t *testing.T) {
		hits := ix.FindRange("age", f(25), f(35))
		assert.Len(t, hits, 3)
		assert.True(t, hits.Contains("b"))
		assert.True(t, hits.Contains("d"))
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		hits := ix.FindRange("age", f(20), f(20))
		require.Len(t, hits, 1)
		assert.True(t, hits.Contains("a"))
	})

	t.Run("nil min is unbounded below", func(t *testing.T) {
		assert.Len(t, ix.FindRange("age", nil, f(29)), 2)
	})

	t.Run("nil max is unbounded above", func(t *testing.T) {
		assert.Len(t, ix.FindRange("age", f(31), nil), 2)
	})

	t.Run("empty interval", func(t *testing.T) {
		assert.Empty(t, ix.FindRange("age", f(41), f(50)))
	})

	t.Run("removal shrinks the range", func(t *testing.T) {
		ix.Remove("c", graph.Properties{"age": graph.Int(30)})
		assert.Empty(t, ix.FindRange("age", f(28), f(32)))
	})
}

func TestPropertyIndexFindMultiple(t *testing.T) {
	ix := NewPropertyIndex()
	ix.Add("n1", graph.Properties{"dept": graph.String("eng"), "city": graph.String("oslo")})
	ix.Add("n2", graph.Properties{"dept": graph.String("eng"), "city": graph.String("bergen")})
	ix.Add("n3", graph.Properties{"dept": graph.String("sales"), "city": graph.String("oslo")})

	t.Run("intersection of all filters", func(t *testing.T) {
		hits := ix.FindMultiple(graph.Properties{
			"dept": graph.String("eng"),
			"city": graph.String("oslo"),
		})
		require.Len(t, hits, 1)
		assert.True(t, hits.Contains("n1"))
	})

	t.Run("one impossible filter empties the result", func(t *testing.T) {
		hits := ix.FindMultiple(graph.Properties{
			"dept": graph.String("eng"),
			"city": graph.String("nowhere"),
		})
		assert.Empty(t, hits)
	})

	t.Run("zero filters is an empty set", func(t *testing.T) {
		assert.Empty(t, ix.FindMultiple(nil))
	})
}

func TestPropertyIndexRemoveSymmetry(t *testing.T) {
	ix := NewPropertyIndex()
	props := graph.Properties{
		"dept": graph.String("eng"),
		"age":  graph.Int(30),
	}
	ix.Add("n1", props)
	ix.Remove("n1", props)

	assert.Empty(t, ix.FindExact("dept", graph.String("eng")))
	f := 30.0
	assert.Empty(t, ix.FindRange("age", &f, &f))
}
