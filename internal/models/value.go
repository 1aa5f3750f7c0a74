package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Value is the number-or-boolean payload of conditions and effects.
// The zero Value is the number 0.
type Value struct {
	isBool bool
	b      bool
	n      int
}

// Number returns a numeric Value.
func Number(n int) Value { return Value{n: n} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{isBool: true, b: b} }

func (v Value) IsBool() bool { return v.isBool }

// Int returns the numeric reading of v. true reads as 1, false as 0.
func (v Value) Int() int {
	if v.isBool {
		if v.b {
			return 1
		}
		return 0
	}
	return v.n
}

// Truth returns the boolean reading of v. Numbers are true when non-zero.
func (v Value) Truth() bool {
	if v.isBool {
		return v.b
	}
	return v.n != 0
}

// Equal is strict: a boolean never equals a number.
func (v Value) Equal(o Value) bool {
	if v.isBool != o.isBool {
		return false
	}
	if v.isBool {
		return v.b == o.b
	}
	return v.n == o.n
}

func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return strconv.Itoa(v.n)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isBool {
		return json.Marshal(v.b)
	}
	return json.Marshal(v.n)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "true":
		*v = Bool(true)
		return nil
	case "false":
		*v = Bool(false)
		return nil
	case "null":
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value must be a number or boolean: %s", data)
	}
	n, err := roundInt(f)
	if err != nil {
		return err
	}
	*v = Number(n)
	return nil
}

// roundInt rounds f to the nearest int, rejecting values int cannot hold.
func roundInt(f float64) (int, error) {
	r := math.Round(f)
	if math.IsNaN(r) || r >= float64(math.MaxInt) || r < float64(math.MinInt) {
		return 0, fmt.Errorf("value %v is out of range", f)
	}
	return int(r), nil
}

func (v Value) MarshalYAML() (interface{}, error) {
	if v.isBool {
		return v.b, nil
	}
	return v.n, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: value must be a number or boolean", node.Line)
	}
	switch node.Tag {
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return err
		}
		n, err := roundInt(f)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*v = Number(n)
	case "!!null":
		*v = Value{}
	default:
		return fmt.Errorf("line %d: value must be a number or boolean, got %q", node.Line, node.Value)
	}
	return nil
}
