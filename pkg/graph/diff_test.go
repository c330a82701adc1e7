package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffReverse(t *testing.T) {
	tests := []struct {
		op   Op
		want Op
	}{
		{OpInsertNode, OpDeleteNode},
		{OpDeleteNode, OpInsertNode},
		{OpInsertEdge, OpDeleteEdge},
		{OpDeleteEdge, OpInsertEdge},
	}

	n := NewNode("Person", nil)
	e := NewEdge("a", "b", "knows", nil)

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			var d *Diff
			switch tt.op {
			case OpInsertNode, OpDeleteNode:
				d = NewNodeDiff(tt.op, n)
			default:
				d = NewEdgeDiff(tt.op, e)
			}

			r := d.Reverse()
			assert.Equal(t, tt.want, r.Op)
			assert.NotEqual(t, d.ID, r.ID)

			// Payload is shared, not duplicated.
			assert.Same(t, d.Node, r.Node)
			assert.Same(t, d.Edge, r.Edge)
		})
	}

	t.Run("double reverse restores the operation", func(t *testing.T) {
		d := NewNodeDiff(OpInsertNode, n)
		assert.Equal(t, d.Op, d.Reverse().Reverse().Op)
	})
}

func TestDiffAttribution(t *testing.T) {
	n := NewNode("Person", nil)
	d := NewNodeDiff(OpInsertNode, n)

	tagged := d.WithAttribution("agent-7", "session-1")
	require.Equal(t, "agent-7", tagged.AgentID)
	require.Equal(t, "session-1", tagged.SessionID)

	t.Run("original stays untagged", func(t *testing.T) {
		assert.Empty(t, d.AgentID)
		assert.Empty(t, d.SessionID)
	})

	t.Run("reverse keeps attribution", func(t *testing.T) {
		assert.Equal(t, "agent-7", tagged.Reverse().AgentID)
	})
}
