package mk

import (
	"strings"

	"github.com/vk/sscpack/internal/notedata"
)

// Shape helpers over generic decoded data (what yaml.v3 produces for an
// untyped target: map[string]any, []any, int, string, ...). Every helper
// carries the structural path so failures name their exact location.

func asMapping(node any, path IndexPath) (map[string]any, *ParseError) {
	m, ok := node.(map[string]any)
	if !ok {
		return nil, parseErrorf(path, "expected a mapping, got %T", node)
	}
	return m, nil
}

func asList(node any, path IndexPath) ([]any, *ParseError) {
	l, ok := node.([]any)
	if !ok {
		return nil, parseErrorf(path, "expected a list, got %T", node)
	}
	return l, nil
}

func asString(node any, path IndexPath) (string, *ParseError) {
	s, ok := node.(string)
	if !ok {
		return "", parseErrorf(path, "expected a string, got %T", node)
	}
	return s, nil
}

func asInt(node any, path IndexPath) (int64, *ParseError) {
	switch n := node.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	}
	return 0, parseErrorf(path, "expected an integer, got %T", node)
}

// requireField returns m[key] or a missing-field error naming the key.
func requireField(m map[string]any, key string, path IndexPath) (any, *ParseError) {
	v, ok := m[key]
	if !ok {
		return nil, parseErrorf(path, "missing required field %q", key)
	}
	return v, nil
}

// varMarker starts a variable reference in a value position.
const varMarker = "$"

// varName extracts the referenced name if node has the reference shape.
func varName(node any) (string, bool) {
	s, ok := node.(string)
	if !ok || !strings.HasPrefix(s, varMarker) {
		return "", false
	}
	return strings.TrimPrefix(s, varMarker), true
}

// parseVarRef validates a reference against the names currently in scope.
func (p *Parser) parseVarRef(name string, path IndexPath) (*VarRef, *ParseError) {
	if name == "" {
		return nil, parseErrorf(path, "empty variable name")
	}
	if !p.inScope(name) {
		return nil, parseErrorf(path, "variable $%s is not bound here", name)
	}
	return &VarRef{Name: name}, nil
}

// parseIntOrVar reads an integer value position.
func (p *Parser) parseIntOrVar(node any, path IndexPath) (IntOrVar, *ParseError) {
	if name, ok := varName(node); ok {
		ref, err := p.parseVarRef(name, path)
		if err != nil {
			return IntOrVar{}, err
		}
		return IntOrVar{Ref: ref}, nil
	}
	n, err := asInt(node, path)
	if err != nil {
		return IntOrVar{}, err
	}
	return LitInt(n), nil
}

// parsePosOrVar reads a position value position: an integer beat, a "n/d"
// fraction string, or a reference.
func (p *Parser) parsePosOrVar(node any, path IndexPath) (PosOrVar, *ParseError) {
	if name, ok := varName(node); ok {
		ref, err := p.parseVarRef(name, path)
		if err != nil {
			return PosOrVar{}, err
		}
		return PosOrVar{Ref: ref}, nil
	}
	switch n := node.(type) {
	case int:
		return LitPos(notedata.PositionFromInt(int64(n))), nil
	case int64:
		return LitPos(notedata.PositionFromInt(n)), nil
	case string:
		pos, err := notedata.ParsePosition(n)
		if err != nil {
			return PosOrVar{}, parseErrorf(path, "bad position literal: %v", err)
		}
		return LitPos(pos), nil
	}
	return PosOrVar{}, parseErrorf(path, "expected a position, got %T", node)
}

// parseScalar reads a literal scalar for let values and for lists. Strings
// containing "/" are position fractions; a leading "$" is reserved for
// references, which are not literals.
func parseScalar(node any, path IndexPath) (any, *ParseError) {
	switch n := node.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		if strings.HasPrefix(n, varMarker) {
			return nil, parseErrorf(path, "literal expected, got reference %q", n)
		}
		if strings.Contains(n, "/") {
			pos, err := notedata.ParsePosition(n)
			if err != nil {
				return nil, parseErrorf(path, "bad position literal: %v", err)
			}
			return pos, nil
		}
		return n, nil
	}
	return nil, parseErrorf(path, "expected an integer, position or string, got %T", node)
}
