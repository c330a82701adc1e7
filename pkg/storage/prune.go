package storage

import (
	"sort"
	"time"
)

// PruneStats reports what a single pruning pass moved or removed.
type PruneStats struct {
	NodesAffected int `json:"nodes_affected"`
	EdgesAffected int `json:"edges_affected"`
}

// Total returns the combined entity count of a pass.
func (p PruneStats) Total() int { return p.NodesAffected + p.EdgesAffected }

// PruneByAccessCount demotes every entity of tier whose access count is
// strictly below threshold into dest. Entities exactly at the threshold
// stay. Pruning is movement, not deletion: demoted entities remain
// findable through cross-tier lookup and pruning the same tier twice
// with the same threshold is a no-op the second time.
func (s *TieredStorage) PruneByAccessCount(tier, dest Tier, threshold int64) PruneStats {
	var stats PruneStats
	for _, n := range s.AllNodes(tier) {
		if n.AccessCount < threshold {
			s.MoveNode(n.ID, tier, dest)
			stats.NodesAffected++
		}
	}
	for _, e := range s.AllEdges(tier) {
		if e.AccessCount < threshold {
			s.MoveEdge(e.ID, tier, dest)
			stats.EdgesAffected++
		}
	}
	return stats
}

// PruneByAge demotes every entity whose last access is older than
// maxAge relative to now. An entity accessed exactly maxAge ago stays.
func (s *TieredStorage) PruneByAge(tier, dest Tier, maxAge time.Duration, now time.Time) PruneStats {
	cutoff := now.Add(-maxAge)
	var stats PruneStats
	for _, n := range s.AllNodes(tier) {
		if n.LastAccessed.Before(cutoff) {
			s.MoveNode(n.ID, tier, dest)
			stats.NodesAffected++
		}
	}
	for _, e := range s.AllEdges(tier) {
		if e.LastAccessed.Before(cutoff) {
			s.MoveEdge(e.ID, tier, dest)
			stats.EdgesAffected++
		}
	}
	return stats
}

// PruneBySizeLimit demotes least-recently-accessed entities out of tier
// until at most maxEntities (nodes plus edges combined) remain. Nodes
// and edges compete in one ranking ordered by last-accessed ascending,
// with id as the tiebreaker so repeated runs over identical state make
// identical choices.
func (s *TieredStorage) PruneBySizeLimit(tier, dest Tier, maxEntities int) PruneStats {
	var stats PruneStats
	total := s.CountNodes(tier) + s.CountEdges(tier)
	excess := total - maxEntities
	if excess <= 0 {
		return stats
	}

	ranked := make([]rankedEntity, 0, total)
	for _, n := range s.AllNodes(tier) {
		ranked = append(ranked, rankedEntity{nodeID: n.ID, isNode: true, lastAccessed: n.LastAccessed})
	}
	for _, e := range s.AllEdges(tier) {
		ranked = append(ranked, rankedEntity{edgeID: e.ID, lastAccessed: e.LastAccessed})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].lastAccessed.Equal(ranked[j].lastAccessed) {
			return ranked[i].lastAccessed.Before(ranked[j].lastAccessed)
		}
		return rankedID(ranked[i]) < rankedID(ranked[j])
	})

	for _, r := range ranked[:excess] {
		if r.isNode {
			s.MoveNode(r.nodeID, tier, dest)
			stats.NodesAffected++
		} else {
			s.MoveEdge(r.edgeID, tier, dest)
			stats.EdgesAffected++
		}
	}
	return stats
}

func rankedID(r rankedEntity) string {
	if r.isNode {
		return string(r.nodeID)
	}
	return string(r.edgeID)
}
