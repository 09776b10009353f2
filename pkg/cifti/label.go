package cifti

import "sort"

// UnassignedLabelName is the name conventionally given to the background label.
const UnassignedLabelName = "???"

// Label is one entry of a label table.
type Label struct {
	Name                   string
	Red, Green, Blue, Alpha float64
}

// LabelTable maps integer keys to labels.
type LabelTable struct {
	labels map[int32]Label
}

// NewLabelTable creates a table holding only the unassigned label at key 0.
func NewLabelTable() *LabelTable {
	return &LabelTable{labels: map[int32]Label{0: {Name: UnassignedLabelName}}}
}

// Set adds or replaces the label stored at key.
func (t *LabelTable) Set(key int32, l Label) {
	if t.labels == nil {
		t.labels = make(map[int32]Label)
	}
	t.labels[key] = l
}

// Get returns the label at key.
func (t *LabelTable) Get(key int32) (Label, bool) {
	l, ok := t.labels[key]
	return l, ok
}

// Keys returns the keys in ascending order.
func (t *LabelTable) Keys() []int32 {
	keys := make([]int32, 0, len(t.labels))
	for k := range t.labels {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// UnassignedKey returns the key of the background label. When no label is
// named "???" the conventional key 0 is returned.
func (t *LabelTable) UnassignedKey() int32 {
	for _, k := range t.Keys() {
		if t.labels[k].Name == UnassignedLabelName {
			return k
		}
	}
	return 0
}

// Equal reports whether both tables hold the same labels.
func (t *LabelTable) Equal(o *LabelTable) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.labels) != len(o.labels) {
		return false
	}
	for k, l := range t.labels {
		if ol, ok := o.labels[k]; !ok || ol != l {
			return false
		}
	}
	return true
}
