package common

import (
	"bytes"
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the object as a mapping with keys in declaration
// order.
func (o *Object) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range o.keys {
		var key yaml.Node
		key.SetString(k.Value)
		var val yaml.Node
		if err := val.Encode(o.items[k.Value]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &key, &val)
	}
	return node, nil
}

// MarshalJSON renders the object with keys in declaration order. A NaN
// value, which JSON cannot carry, degrades to the string "NaN".
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalJSONValue(o.items[k.Value])
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalJSONValue(v any) ([]byte, error) {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return json.Marshal("NaN")
	}
	return json.Marshal(v)
}

// MarshalYAML renders only the textual value; contexts are diagnostic
// side-channel data.
func (s StringWithContext) MarshalYAML() (any, error) {
	return s.Value, nil
}

// MarshalJSON renders only the textual value.
func (s StringWithContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}
