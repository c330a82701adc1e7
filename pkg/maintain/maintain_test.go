package maintain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellumlabs/stratum/pkg/config"
	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/storage"
	"github.com/vellumlabs/stratum/pkg/stratum"
)

func TestPrunerDemotesOverLimit(t *testing.T) {
	kb, err := stratum.New(stratum.Options{})
	require.NoError(t, err)
	defer kb.Close()

	for i := 0; i < 30; i++ {
		_, err := kb.InsertNode("Item", graph.Properties{"i": graph.Int(int64(i))})
		require.NoError(t, err)
	}

	p := New(kb, config.MaintenanceConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
		Policy:   "size_limit",
	}, config.TiersConfig{
		RuntimeMaxEntities: 10,
		StoreMaxEntities:   10,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	stats := kb.Stats()
	assert.Equal(t, 30, stats.TotalNodes)
	assert.Equal(t, 10, stats.Tiers[storage.TierRuntime].Nodes)
	assert.Equal(t, 10, stats.Tiers[storage.TierStore].Nodes)
	assert.Equal(t, 10, stats.Tiers[storage.TierCold].Nodes)
}

func TestPrunerAccessCountPolicy(t *testing.T) {
	kb, err := stratum.New(stratum.Options{})
	require.NoError(t, err)
	defer kb.Close()

	cold, err := kb.InsertNode("Item", nil)
	require.NoError(t, err)
	hot, err := kb.InsertNode("Item", nil)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := kb.GetNode(hot.ID)
		require.NoError(t, err)
	}

	p := New(kb, config.MaintenanceConfig{
		Enabled:         true,
		Interval:        10 * time.Millisecond,
		Policy:          "access_count",
		AccessThreshold: 2,
	}, config.TiersConfig{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	_, tierOfCold := findTier(t, kb, cold.ID)
	assert.NotEqual(t, storage.TierRuntime, tierOfCold)

	_, tierOfHot := findTier(t, kb, hot.ID)
	assert.Equal(t, storage.TierRuntime, tierOfHot)
}

func TestPrunerStopsOnCancel(t *testing.T) {
	kb, err := stratum.New(stratum.Options{})
	require.NoError(t, err)
	defer kb.Close()

	p := New(kb, config.MaintenanceConfig{
		Enabled:  true,
		Interval: time.Hour,
		Policy:   "size_limit",
	}, config.TiersConfig{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pruner did not stop on cancel")
	}
}

// findTier locates a node's tier through the exported state image.
func findTier(t *testing.T, kb *stratum.KB, id graph.NodeID) (*graph.Node, storage.Tier) {
	t.Helper()
	st, err := kb.ExportState()
	require.NoError(t, err)
	for tier, dump := range st.Tiers {
		for _, n := range dump.Nodes {
			if n.ID == id {
				return n, tier
			}
		}
	}
	t.Fatalf("node %s not found in any tier", id)
	return nil, ""
}
