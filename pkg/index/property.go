package index

import (
	"sort"

	"github.com/vellumlabs/stratum/pkg/graph"
)

// PropertyIndex indexes entity properties two ways:
//
//   - Exact match: property name → value key → set(ids), for every
//     scalar (indexable) value.
//   - Range: property name → slice of (value, id) pairs kept sorted by
//     value then id, for every numeric value, answering
//     FindRange(name, min, max) by binary search.
//
// Opaque values are skipped by both structures. They stay fully
// retrievable on the entity itself; callers wanting to filter on them
// must scan — making that cost explicit is the point.
type PropertyIndex struct {
	exact  map[string]map[graph.ValueKey]IDSet
	ranges map[string][]rangeEntry
}

type rangeEntry struct {
	value float64
	id    string
}

// NewPropertyIndex creates an empty property index.
func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{
		exact:  make(map[string]map[graph.ValueKey]IDSet),
		ranges: make(map[string][]rangeEntry),
	}
}

// Add indexes every indexable property of the entity. Numeric values
// are additionally inserted into the sorted range structure.
func (ix *PropertyIndex) Add(id string, props graph.Properties) {
	for name, v := range props {
		if key, ok := v.MapKey(); ok {
			byValue := ix.exact[name]
			if byValue == nil {
				byValue = make(map[graph.ValueKey]IDSet)
				ix.exact[name] = byValue
			}
			bucket := byValue[key]
			if bucket == nil {
				bucket = make(IDSet)
				byValue[key] = bucket
			}
			bucket[id] = struct{}{}
		}
		if f, ok := v.Numeric(); ok {
			ix.insertRange(name, f, id)
		}
	}
}

// Remove reverses Add for the same id and properties, pruning buckets
// and range slices that become empty.
func (ix *PropertyIndex) Remove(id string, props graph.Properties) {
	for name, v := range props {
		if key, ok := v.MapKey(); ok {
			if byValue := ix.exact[name]; byValue != nil {
				if bucket := byValue[key]; bucket != nil {
					delete(bucket, id)
					if len(bucket) == 0 {
						delete(byValue, key)
					}
				}
				if len(byValue) == 0 {
					delete(ix.exact, name)
				}
			}
		}
		if f, ok := v.Numeric(); ok {
			ix.removeRange(name, f, id)
		}
	}
}

// FindExact returns a copy of the ids whose property name equals value.
// Unknown names, unknown values, and non-indexable filter values all
// yield an empty set.
func (ix *PropertyIndex) FindExact(name string, value graph.Value) IDSet {
	key, ok := value.MapKey()
	if !ok {
		return make(IDSet)
	}
	byValue := ix.exact[name]
	if byValue == nil {
		return make(IDSet)
	}
	return byValue[key].Clone()
}

// FindRange returns ids whose numeric property name lies in
// [min, max]. A nil bound is unbounded on that side. Properties that
// never held a numeric value yield an empty set.
func (ix *PropertyIndex) FindRange(name string, min, max *float64) IDSet {
	entries := ix.ranges[name]
	result := make(IDSet)
	if len(entries) == 0 {
		return result
	}

	lo := 0
	if min != nil {
		lo = sort.Search(len(entries), func(i int) bool {
			return entries[i].value >= *min
		})
	}
	hi := len(entries)
	if max != nil {
		hi = sort.Search(len(entries), func(i int) bool {
			return entries[i].value > *max
		})
	}
	for i := lo; i < hi; i++ {
		result[entries[i].id] = struct{}{}
	}
	return result
}

// FindMultiple intersects the exact-match sets of every filter entry
// (AND semantics), short-circuiting to empty the moment any
// intersection step drains the candidate set.
func (ix *PropertyIndex) FindMultiple(filters graph.Properties) IDSet {
	result := make(IDSet)
	first := true
	for name, value := range filters {
		if first {
			result = ix.FindExact(name, value)
			first = false
		} else {
			result.IntersectWith(ix.FindExact(name, value))
		}
		if len(result) == 0 {
			return make(IDSet)
		}
	}
	return result
}

// insertRange places (value, id) into the sorted slice for name,
// keeping (value, id) order so removal can locate the exact pair.
func (ix *PropertyIndex) insertRange(name string, value float64, id string) {
	entries := ix.ranges[name]
	pos := sort.Search(len(entries), func(i int) bool {
		if entries[i].value != value {
			return entries[i].value > value
		}
		return entries[i].id >= id
	})
	entries = append(entries, rangeEntry{})
	copy(entries[pos+1:], entries[pos:])
	entries[pos] = rangeEntry{value: value, id: id}
	ix.ranges[name] = entries
}

// removeRange deletes the exact (value, id) pair if present.
func (ix *PropertyIndex) removeRange(name string, value float64, id string) {
	entries := ix.ranges[name]
	pos := sort.Search(len(entries), func(i int) bool {
		if entries[i].value != value {
			return entries[i].value > value
		}
		return entries[i].id >= id
	})
	if pos >= len(entries) || entries[pos].value != value || entries[pos].id != id {
		return
	}
	entries = append(entries[:pos], entries[pos+1:]...)
	if len(entries) == 0 {
		delete(ix.ranges, name)
	} else {
		ix.ranges[name] = entries
	}
}
