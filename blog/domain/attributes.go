package domain

// Attributes is a string-keyed map of typed values that remembers insertion
// order. Setting an existing key replaces its value in place.
type Attributes struct {
	keys   []string
	values map[string]Value
}

func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]Value)}
}

func (a *Attributes) Set(key string, v Value) {
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

func (a *Attributes) Get(key string) (Value, bool) {
	if a == nil {
		return Value{}, false
	}
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Each calls fn for every attribute in insertion order.
func (a *Attributes) Each(fn func(key string, v Value)) {
	if a == nil {
		return
	}
	for _, k := range a.keys {
		fn(k, a.values[k])
	}
}
