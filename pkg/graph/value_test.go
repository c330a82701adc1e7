package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name      string
		value     Value
		kind      Kind
		indexable bool
	}{
		{"string", String("hello"), KindString, true},
		{"int", Int(42), KindInt, true},
		{"float", Float(3.14), KindFloat, true},
		{"bool", Bool(true), KindBool, true},
		{"opaque", Opaque(map[string]int{"a": 1}), KindOpaque, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, tt.indexable, tt.value.Indexable())
		})
	}
}

func TestValueNumeric(t *testing.T) {
	t.Run("int feeds the numeric axis", func(t *testing.T) {
		f, ok := Int(7).Numeric()
		require.True(t, ok)
		assert.Equal(t, 7.0, f)
	})

	t.Run("float feeds the numeric axis", func(t *testing.T) {
		f, ok := Float(2.5).Numeric()
		require.True(t, ok)
		assert.Equal(t, 2.5, f)
	})

	t.Run("string does not", func(t *testing.T) {
		_, ok := String("7").Numeric()
		assert.False(t, ok)
	})
}

func TestValueMapKey(t *testing.T) {
	t.Run("equal scalars share a key", func(t *testing.T) {
		k1, ok1 := String("x").MapKey()
		k2, ok2 := String("x").MapKey()
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, k1, k2)
	})

	t.Run("int and float with the same magnitude stay distinct", func(t *testing.T) {
		k1, _ := Int(1).MapKey()
		k2, _ := Float(1.0).MapKey()
		assert.NotEqual(t, k1, k2)
	})

	t.Run("opaque has no key", func(t *testing.T) {
		_, ok := Opaque([]int{1, 2}).MapKey()
		assert.False(t, ok)
	})
}

func TestValueJSONRoundTrip(t *testing.T) {
	// The union tag must survive serialization so imported graphs
	// index the same way they did before export.
	props := Properties{
		"name":   String("Alice"),
		"age":    Int(34),
		"score":  Float(0.75),
		"active": Bool(true),
	}

	data, err := json.Marshal(props)
	require.NoError(t, err)

	var decoded Properties
	require.NoError(t, json.Unmarshal(data, &decoded))

	for key, want := range props {
		got, ok := decoded[key]
		require.True(t, ok, key)
		assert.Equal(t, want.Kind(), got.Kind(), key)
		assert.True(t, want.Equal(got), key)
	}
}

func TestPropertiesClone(t *testing.T) {
	p := Properties{"k": String("v")}
	c := p.Clone()
	c["k"] = String("changed")

	assert.True(t, String("v").Equal(p["k"]))

	t.Run("nil clones to an empty map", func(t *testing.T) {
		var none Properties
		cloned := none.Clone()
		assert.NotNil(t, cloned)
		assert.Empty(t, cloned)
	})
}
