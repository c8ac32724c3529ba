package binder

import "sort"

// Arguments is the ordered name to value mapping of one call.
type Arguments struct {
	names  []string
	values map[string]any
}

func NewArguments() *Arguments {
	return &Arguments{values: make(map[string]any)}
}

func (a *Arguments) Set(name string, value any) {
	if _, ok := a.values[name]; !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = value
}

// Get returns the value bound to name. A parameter bound to nil is present.
func (a *Arguments) Get(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.values[name]
	return v, ok
}

func (a *Arguments) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Names returns bound parameter names in signature order.
func (a *Arguments) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string(nil), a.names...)
}

func (a *Arguments) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

func (a *Arguments) Map() map[string]any {
	out := make(map[string]any, a.Len())
	if a == nil {
		return out
	}
	for _, n := range a.names {
		out[n] = a.values[n]
	}
	return out
}

// ordered reorders the bound names to follow the signature.
func (a *Arguments) ordered(sig Signature) *Arguments {
	out := NewArguments()
	for _, p := range sig.Params {
		if v, ok := a.values[p]; ok {
			out.Set(p, v)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
