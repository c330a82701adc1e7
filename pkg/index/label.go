package index

// LabelIndex maps a category tag to the set of entity ids carrying it.
// Add and remove are O(1) amortized. It serves both node labels and
// edge relationship labels; the Manager keeps one instance per kind.
type LabelIndex struct {
	byLabel map[string]IDSet
}

// NewLabelIndex creates an empty label index.
func NewLabelIndex() *LabelIndex {
	return &LabelIndex{byLabel: make(map[string]IDSet)}
}

// Add records id under label.
func (ix *LabelIndex) Add(id, label string) {
	bucket := ix.byLabel[label]
	if bucket == nil {
		bucket = make(IDSet)
		ix.byLabel[label] = bucket
	}
	bucket[id] = struct{}{}
}

// Remove drops id from label's bucket, deleting the bucket when it
// becomes empty.
func (ix *LabelIndex) Remove(id, label string) {
	bucket := ix.byLabel[label]
	if bucket == nil {
		return
	}
	delete(bucket, id)
	if len(bucket) == 0 {
		delete(ix.byLabel, label)
	}
}

// Find returns a copy of the id set for label. An unknown label yields
// an empty set, never an error.
func (ix *LabelIndex) Find(label string) IDSet {
	return ix.byLabel[label].Clone()
}

// Labels lists every label currently carrying at least one entity.
func (ix *LabelIndex) Labels() []string {
	out := make([]string, 0, len(ix.byLabel))
	for l := range ix.byLabel {
		out = append(out, l)
	}
	return out
}
