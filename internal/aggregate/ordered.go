package aggregate

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Ordered is a string-keyed map that remembers first-insertion order.
// The zero value is ready to use.
type Ordered[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

// Len returns the number of keys.
func (o *Ordered[V]) Len() int {
	if o == nil || o.m == nil {
		return 0
	}
	return o.m.Len()
}

// Keys returns keys in first-insertion order.
func (o *Ordered[V]) Keys() []string {
	out := make([]string, 0, o.Len())
	if o == nil || o.m == nil {
		return out
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func (o *Ordered[V]) Get(key string) (V, bool) {
	if o == nil || o.m == nil {
		var zero V
		return zero, false
	}
	return o.m.Get(key)
}

// Set stores v under key; an existing key keeps its position.
func (o *Ordered[V]) Set(key string, v V) {
	if o.m == nil {
		o.m = orderedmap.New[string, V]()
	}
	o.m.Set(key, v)
}

// Values returns values in key order.
func (o *Ordered[V]) Values() []V {
	out := make([]V, 0, o.Len())
	if o == nil || o.m == nil {
		return out
	}
	for pair := o.m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// MarshalJSON emits a JSON object whose members follow key order.
func (o *Ordered[V]) MarshalJSON() ([]byte, error) {
	if o == nil || o.m == nil {
		return []byte("{}"), nil
	}
	return o.m.MarshalJSON()
}
