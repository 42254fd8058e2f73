package syntax

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func (r *reader) scalar(n *yaml.Node) (*yaml.Node, error) {
	n = deref(n)
	if n.Kind != yaml.ScalarNode {
		return nil, r.errorf(n, "expected a scalar value")
	}
	return n, nil
}

func (r *reader) str(n *yaml.Node) (string, error) {
	s, err := r.scalar(n)
	if err != nil {
		return "", err
	}
	if isNull(s) {
		return "", nil
	}
	return s.Value, nil
}

func (r *reader) nonEmptyString(n *yaml.Node) (string, error) {
	v, err := r.str(n)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", r.errorf(deref(n), "expected a non-empty string value")
	}
	return v, nil
}

func (r *reader) boolean(n *yaml.Node) (bool, error) {
	s, err := r.scalar(n)
	if err != nil {
		return false, err
	}
	switch strings.ToUpper(s.Value) {
	case "TRUE", "Y", "YES", "ON":
		return true, nil
	case "FALSE", "N", "NO", "OFF":
		return false, nil
	default:
		return false, r.errorf(s, "expected a boolean value, actual: '%s'", s.Value)
	}
}

func (r *reader) boolPtr(n *yaml.Node) (*bool, error) {
	v, err := r.boolean(n)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// int32 accepts an optional leading sign and ',' group separators.
func (r *reader) int32(n *yaml.Node) (int, error) {
	s, err := r.scalar(n)
	if err != nil {
		return 0, err
	}
	v, ok := parseInt32(s.Value)
	if !ok {
		return 0, r.errorf(s, "expected an integer value, actual: '%s'", s.Value)
	}
	return v, nil
}

func (r *reader) int32Ptr(n *yaml.Node) (*int, error) {
	v, err := r.int32(n)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt32(s string) (int, bool) {
	sign := ""
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign, s = s[:1], s[1:]
	}
	if s == "" || s[0] == ',' {
		return 0, false
	}
	digits := strings.ReplaceAll(s, ",", "")
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(sign+digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// mapping reads an arbitrary mapping. Scalars become strings, nulls nil,
// sequences []any and nested mappings map[string]any.
func (r *reader) mapping(n *yaml.Node) (map[string]any, error) {
	ps, err := r.pairs(n, "mapping")
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(ps))
	for _, p := range ps {
		v, err := r.value(p.value)
		if err != nil {
			return nil, err
		}
		out[p.key.Value] = v
	}
	return out, nil
}

func (r *reader) value(n *yaml.Node) (any, error) {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return nil, nil
		}
		return r.str(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := r.value(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return r.mapping(n)
	}
}

// stringMapping reads a mapping of scalars. With foldCase set, keys that
// differ only in case are rejected as duplicates.
func (r *reader) stringMapping(n *yaml.Node, foldCase bool) (map[string]string, error) {
	ps, err := r.pairs(n, "mapping")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(ps))
	seen := make(map[string]bool, len(ps))
	for _, p := range ps {
		folded := p.key.Value
		if foldCase {
			folded = strings.ToLower(folded)
		}
		if seen[folded] {
			return nil, r.errorf(p.key, "an item with the same key has already been added: '%s'", p.key.Value)
		}
		seen[folded] = true
		v, err := r.str(p.value)
		if err != nil {
			return nil, err
		}
		out[p.key.Value] = v
	}
	return out, nil
}
