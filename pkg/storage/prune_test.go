package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumlabs/stratum/pkg/graph"
)

// nodeWithAccess builds a node with controlled usage metadata.
func nodeWithAccess(label string, count int64, last time.Time) *graph.Node {
	n := graph.NewNode(label, nil)
	n.AccessCount = count
	n.LastAccessed = last
	return n
}

func TestPruneByAccessCount(t *testing.T) {
	s := NewTieredStorage()
	now := time.Now().UTC()
	s.AddNode(nodeWithAccess("Person", 0, now), TierRuntime)
	s.AddNode(nodeWithAccess("Person", 2, now), TierRuntime)
	s.AddNode(nodeWithAccess("Person", 5, now), TierRuntime)

	stats := s.PruneByAccessCount(TierRuntime, TierStore, 3)

	assert.Equal(t, 2, stats.NodesAffected)
	assert.Equal(t, 1, s.CountNodes(TierRuntime))
	assert.Equal(t, 2, s.CountNodes(TierStore))

	t.Run("threshold is exclusive", func(t *testing.T) {
		again := s.PruneByAccessCount(TierRuntime, TierStore, 5)
		assert.Equal(t, 0, again.Total())
		assert.Equal(t, 1, s.CountNodes(TierRuntime))
	})

	t.Run("pruning is idempotent", func(t *testing.T) {
		again := s.PruneByAccessCount(TierStore, TierCold, 3)
		assert.Equal(t, 2, again.NodesAffected)
		third := s.PruneByAccessCount(TierStore, TierCold, 3)
		assert.Equal(t, 0, third.Total())
	})

	t.Run("edges are pruned too", func(t *testing.T) {
		e := graph.NewEdge("a", "b", "knows", nil)
		s.AddEdge(e, TierRuntime)
		stats := s.PruneByAccessCount(TierRuntime, TierStore, 1)
		assert.Equal(t, 1, stats.EdgesAffected)
	})
}

func TestPruneByAge(t *testing.T) {
	s := NewTieredStorage()
	now := time.Now().UTC()
	fresh := nodeWithAccess("Person", 0, now.Add(-time.Minute))
	stale := nodeWithAccess("Person", 0, now.Add(-2*time.Hour))
	s.AddNode(fresh, TierRuntime)
	s.AddNode(stale, TierRuntime)

	stats := s.PruneByAge(TierRuntime, TierCold, time.Hour, now)

	assert.Equal(t, 1, stats.NodesAffected)
	assert.NotNil(t, s.GetNode(fresh.ID, TierRuntime))
	assert.NotNil(t, s.GetNode(stale.ID, TierCold))

	t.Run("entity exactly at the cutoff stays", func(t *testing.T) {
		edge := nodeWithAccess("Person", 0, now.Add(-time.Hour))
		s.AddNode(edge, TierRuntime)
		stats := s.PruneByAge(TierRuntime, TierCold, time.Hour, now)
		assert.Equal(t, 0, stats.Total())
	})
}

func TestPruneBySizeLimit(t *testing.T) {
	s := NewTieredStorage()
	now := time.Now().UTC()

	// 1000 nodes with strictly increasing recency. The 500 most
	// recently accessed must survive in the runtime tier.
	ids := make([]graph.NodeID, 1000)
	for i := 0; i < 1000; i++ {
		n := nodeWithAccess("Item", 0, now.Add(time.Duration(i)*time.Second))
		ids[i] = n.ID
		s.AddNode(n, TierRuntime)
	}

	stats := s.PruneBySizeLimit(TierRuntime, TierStore, 500)

	assert.Equal(t, 500, stats.NodesAffected)
	assert.Equal(t, 500, s.CountNodes(TierRuntime))
	assert.Equal(t, 500, s.CountNodes(TierStore))

	for i, id := range ids {
		want := TierStore
		if i >= 500 {
			want = TierRuntime
		}
		_, tier := s.FindNode(id)
		require.Equal(t, want, tier, fmt.Sprintf("node %d", i))
	}

	t.Run("no entities are lost", func(t *testing.T) {
		total := 0
		for _, tier := range Tiers() {
			total += s.CountNodes(tier)
		}
		assert.Equal(t, 1000, total)
	})

	t.Run("under the limit is a no-op", func(t *testing.T) {
		again := s.PruneBySizeLimit(TierRuntime, TierStore, 500)
		assert.Equal(t, 0, again.Total())
	})

	t.Run("nodes and edges share one ranking", func(t *testing.T) {
		s := NewTieredStorage()
		old := graph.NewEdge("a", "b", "knows", nil)
		old.LastAccessed = now.Add(-time.Hour)
		s.AddEdge(old, TierRuntime)
		s.AddNode(nodeWithAccess("Item", 0, now), TierRuntime)

		stats := s.PruneBySizeLimit(TierRuntime, TierStore, 1)
		assert.Equal(t, 0, stats.NodesAffected)
		assert.Equal(t, 1, stats.EdgesAffected)
	})
}
