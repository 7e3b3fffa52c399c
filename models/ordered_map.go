package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Keys returns the keys of m in insertion order.
func Keys[V any](m *orderedmap.OrderedMap[string, V]) []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, m.Len())
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Has reports whether key is present in m.
func Has[V any](m *orderedmap.OrderedMap[string, V], key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.Get(key)
	return ok
}

// Equal reports whether both maps hold the same keys in the same order with
// equal values under eq. A nil map equals an empty one.
func Equal[V any](a, b *orderedmap.OrderedMap[string, V], eq func(x, y V) bool) bool {
	if size(a) != size(b) {
		return false
	}
	if size(a) == 0 {
		return true
	}
	pb := b.Oldest()
	for pa := a.Oldest(); pa != nil; pa = pa.Next() {
		if pa.Key != pb.Key || !eq(pa.Value, pb.Value) {
			return false
		}
		pb = pb.Next()
	}
	return true
}

func size[V any](m *orderedmap.OrderedMap[string, V]) int {
	if m == nil {
		return 0
	}
	return m.Len()
}
