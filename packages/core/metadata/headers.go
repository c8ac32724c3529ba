package metadata

import "strings"

// Headers is a case-insensitive, insertion ordered header map. The most
// recently set spelling of a name is the one reported by Keys and Map.
type Headers struct {
	order  []string
	names  map[string]string
	values map[string]string
}

// NewHeaders returns an empty case-insensitive header map.
func NewHeaders() *Headers {
	return &Headers{
		names:  make(map[string]string),
		values: make(map[string]string),
	}
}

// HeadersFrom builds Headers from a plain map.
func HeadersFrom(m map[string]string) *Headers {
	h := NewHeaders()
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

// Set replaces the value under name regardless of case.
func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		h.order = append(h.order, key)
	}
	h.names[key] = name
	h.values[key] = value
}

func (h *Headers) Get(name string) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[strings.ToLower(name)]
	return v, ok
}

func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	if _, ok := h.values[key]; !ok {
		return
	}
	delete(h.values, key)
	delete(h.names, key)
	for i, k := range h.order {
		if k == key {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Keys returns header names in insertion order.
func (h *Headers) Keys() []string {
	if h == nil {
		return nil
	}
	keys := make([]string, 0, len(h.order))
	for _, k := range h.order {
		keys = append(keys, h.names[k])
	}
	return keys
}

func (h *Headers) Map() map[string]string {
	out := make(map[string]string, h.Len())
	if h == nil {
		return out
	}
	for _, k := range h.order {
		out[h.names[k]] = h.values[k]
	}
	return out
}

// Clone returns an independent copy.
func (h *Headers) Clone() *Headers {
	out := NewHeaders()
	if h == nil {
		return out
	}
	for _, k := range h.order {
		out.Set(h.names[k], h.values[k])
	}
	return out
}

// Merge returns a new map holding h overlaid with other. Either side may be nil.
func (h *Headers) Merge(other *Headers) *Headers {
	out := h.Clone()
	if other == nil {
		return out
	}
	for _, k := range other.order {
		out.Set(other.names[k], other.values[k])
	}
	return out
}
