// Package taxonomy maps categorical label values to dense integer keys and
// back.
package taxonomy

// Taxonomy is a value↔key dictionary. Keys are assigned 0..Len()-1 in order
// of first occurrence.
type Taxonomy struct {
	values []string
	keys   map[string]int
}

// Fit builds a Taxonomy from the observed label values.
func Fit(values []string) *Taxonomy {
	t := &Taxonomy{keys: make(map[string]int)}
	for _, v := range values {
		if _, ok := t.keys[v]; ok {
			continue
		}
		t.keys[v] = len(t.values)
		t.values = append(t.values, v)
	}
	return t
}

// FromValues rebuilds a Taxonomy from a key-ordered value list, as produced
// by Values.
func FromValues(values []string) *Taxonomy {
	return Fit(values)
}

// Key returns the key of value. ok is false for values never seen by Fit.
func (t *Taxonomy) Key(value string) (key int, ok bool) {
	key, ok = t.keys[value]
	return key, ok
}

// Value returns the label value of key.
func (t *Taxonomy) Value(key int) (string, bool) {
	if key < 0 || key >= len(t.values) {
		return "", false
	}
	return t.values[key], true
}

// Len returns the number of distinct labels.
func (t *Taxonomy) Len() int { return len(t.values) }

// Values returns the labels in key order.
func (t *Taxonomy) Values() []string {
	out := make([]string, len(t.values))
	copy(out, t.values)
	return out
}
