package complete

import "iter"

// orderedMap is a map that iterates in first-insertion order.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any]() *orderedMap[K, V] {
	return &orderedMap[K, V]{values: make(map[K]V)}
}

// Set stores v under k. Overwriting keeps the key's original position.
func (m *orderedMap[K, V]) Set(k K, v V) {
	if _, ok := m.values[k]; !ok {
		m.keys = append(m.keys, k)
	}

	m.values[k] = v
}

// SetIfAbsent stores v under k unless k is present, and reports whether it stored.
func (m *orderedMap[K, V]) SetIfAbsent(k K, v V) bool {
	if _, ok := m.values[k]; ok {
		return false
	}

	m.keys = append(m.keys, k)
	m.values[k] = v

	return true
}

func (m *orderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]

	return v, ok
}

func (m *orderedMap[K, V]) Len() int {
	return len(m.keys)
}

// All iterates entries in insertion order.
func (m *orderedMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}
