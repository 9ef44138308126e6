package problem

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is a cost that survives JSON. Finite values encode as numbers;
// infinities and NaN encode as the strings "inf", "-inf" and "nan".
// Decoding also accepts those spellings in any case, plus "infinity".
type Value float64

// Float returns v as a float64.
func (v Value) Float() float64 { return float64(v) }

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	switch {
	case math.IsNaN(f):
		return []byte(`"nan"`), nil
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return v.parse(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid cost %s", data)
	}
	*v = Value(f)
	return nil
}

// MarshalYAML implements yaml.Marshaler. YAML has native .inf and .nan.
func (v Value) MarshalYAML() (any, error) {
	return float64(v), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var f float64
	if err := node.Decode(&f); err == nil {
		*v = Value(f)
		return nil
	}
	return v.parse(node.Value)
}

func (v *Value) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid cost %q", s)
	}
	*v = Value(f)
	return nil
}

func values(fs []float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Value(f)
	}
	return out
}
