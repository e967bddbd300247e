package common

// UnquotedString is a scalar literal that appeared without surrounding
// quotes. It behaves as its plain text; the distinct type is a lint signal,
// never an error.
type UnquotedString string

// AsString extracts the text of a scalar value (quoted or unquoted).
func AsString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case UnquotedString:
		return string(s), true
	}
	return "", false
}

// Object is a JSON-like object literal. Keys are ordered and carry their
// load context; lookup is by the plain key text. Values are one of: string,
// UnquotedString, bool, nil, float64 (NaN), []any, or *Object.
type Object struct {
	keys  []StringWithContext
	items map[string]any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{items: make(map[string]any)}
}

// Set inserts or updates a key. A duplicate key keeps its original position
// and context; the value is overwritten.
func (o *Object) Set(key StringWithContext, value any) {
	if _, ok := o.items[key.Value]; !ok {
		o.keys = append(o.keys, key)
	}
	o.items[key.Value] = value
}

// Get returns the value stored under the plain key text.
func (o *Object) Get(name string) (any, bool) {
	v, ok := o.items[name]
	return v, ok
}

// Pop removes and returns the value stored under name.
func (o *Object) Pop(name string) (any, bool) {
	v, ok := o.items[name]
	if !ok {
		return nil, false
	}

	delete(o.items, name)
	for i, k := range o.keys {
		if k.Value == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Keys returns the ordered, context-carrying keys.
func (o *Object) Keys() []StringWithContext {
	return o.keys
}

// KeyContext returns the load context of a key, or nil if absent.
func (o *Object) KeyContext(name string) FullLoadContext {
	for _, k := range o.keys {
		if k.Value == name {
			return k.Context
		}
	}
	return nil
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}
