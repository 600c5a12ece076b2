// Package compare implements partial structural matching of decoded YAML or
// JSON values, as used by the session assertions.
package compare

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

const floatTolerance = 0.00001

// EllipsisType is the type of the Ellipsis wildcard.
type EllipsisType struct{}

// Ellipsis matches any value, written as a plain `...` in expected YAML.
var Ellipsis = EllipsisType{}

func (EllipsisType) String() string { return "..." }

const ellipsisTag = "!ellipsis"

// MismatchError describes the first place where actual and expected differ.
type MismatchError struct {
	Path   string
	Reason string
}

func (e *MismatchError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("mismatch at %s: %s", path, e.Reason)
}

// ParseExpected decodes a YAML document, turning `...` scalars (or any scalar
// tagged !ellipsis) into Ellipsis.
func ParseExpected(text string) (interface{}, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse expected YAML: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	return fromNode(&doc)
}

func fromNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.ScalarNode:
		if n.Tag == ellipsisTag || (n.Style == 0 && n.Value == "...") {
			return Ellipsis, nil
		}
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars: %w", n.Content[i].Line, err)
			}
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

// Partial reports whether actual matches expected. Maps in expected only need
// to be a subset of the actual map, lists must match element by element, and
// Ellipsis matches anything. It returns nil on match.
func Partial(actual, expected interface{}) error {
	return partial(actual, expected, "")
}

func partial(actual, expected interface{}, path string) error {
	if _, ok := expected.(EllipsisType); ok {
		return nil
	}

	switch exp := expected.(type) {
	case map[string]interface{}:
		act, ok := toStringMap(actual)
		if !ok {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("expected a mapping, got %T", actual)}
		}
		for key, expVal := range exp {
			actVal, present := act[key]
			if !present {
				return &MismatchError{Path: join(path, key), Reason: "key missing"}
			}
			if err := partial(actVal, expVal, join(path, key)); err != nil {
				return err
			}
		}
		return nil

	case []interface{}:
		act, ok := actual.([]interface{})
		if !ok {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("expected a list, got %T", actual)}
		}
		if len(act) != len(exp) {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("expected %d items, got %d", len(exp), len(act))}
		}
		for i := range exp {
			if err := partial(act[i], exp[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case float64:
		act, ok := toFloat(actual)
		if !ok || math.Abs(act-exp) >= floatTolerance {
			return &MismatchError{Path: path, Reason: fmt.Sprintf("expected %v, got %v", exp, actual)}
		}
		return nil
	}

	if expNum, ok := toFloat(expected); ok {
		if actNum, ok := toFloat(actual); ok && actNum == expNum {
			return nil
		}
	}

	if !reflect.DeepEqual(actual, expected) {
		return &MismatchError{Path: path, Reason: fmt.Sprintf("expected %#v, got %#v", expected, actual)}
	}
	return nil
}

// Diff renders a readable difference for failure messages.
func Diff(actual, expected interface{}) string {
	return cmp.Diff(expected, actual, cmp.Comparer(func(a, b EllipsisType) bool { return true }))
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func toStringMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// String renders a value the way it would appear in YAML, for messages.
func String(v interface{}) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSpace(string(out))
}
