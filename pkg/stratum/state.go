package stratum

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vellumlabs/stratum/pkg/graph"
	"github.com/vellumlabs/stratum/pkg/storage"
)

// TierDump is the serialized content of one tier.
type TierDump struct {
	Nodes []*graph.Node `json:"nodes"`
	Edges []*graph.Edge `json:"edges"`
}

// State is a complete serializable image of the store: every tier's
// entities plus the diff history. It is the unit of exchange for
// ExportJSON/ImportJSON and for the persistence collaborator in
// pkg/snapshot. Indexes are not part of a State; they are derived data
// and are rebuilt on load.
type State struct {
	ExportedAt time.Time                 `json:"exported_at"`
	Tiers      map[storage.Tier]TierDump `json:"tiers"`
	History    []*graph.Diff             `json:"history"`
}

// ExportState captures the full store under one lock acquisition.
func (kb *KB) ExportState() (*State, error) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	if kb.closed {
		return nil, graph.ErrClosed
	}

	st := &State{
		ExportedAt: time.Now().UTC(),
		Tiers:      make(map[storage.Tier]TierDump, 3),
		History:    make([]*graph.Diff, len(kb.history)),
	}
	copy(st.History, kb.history)
	for _, t := range storage.Tiers() {
		st.Tiers[t] = TierDump{
			Nodes: kb.tiers.AllNodes(t),
			Edges: kb.tiers.AllEdges(t),
		}
	}
	return st, nil
}

// ImportState replaces the store's entire content with the given image,
// rebuilding every tier's indexes from the entities. The previous
// content is discarded.
func (kb *KB) ImportState(st *State) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return graph.ErrClosed
	}

	for tier := range st.Tiers {
		if !tier.Valid() {
			return fmt.Errorf("import: unknown tier %q: %w", tier, graph.ErrInvalidID)
		}
	}

	fresh := storage.NewTieredStorage()
	for tier, dump := range st.Tiers {
		for _, n := range dump.Nodes {
			fresh.AddNode(n, tier)
		}
		for _, e := range dump.Edges {
			fresh.AddEdge(e, tier)
		}
	}
	kb.tiers = fresh
	kb.history = make([]*graph.Diff, len(st.History))
	copy(kb.history, st.History)

	kb.log.Info("state imported",
		zap.Int("history_size", len(kb.history)))
	return nil
}
