package mk

import (
	"strings"
)

// Parser turns generic decoded data into a validated command tree. All shape
// and type checking happens here; the Manager only ever fails on semantic
// conditions (unresolved variables, out-of-range regions). Parsing a block is
// atomic: one malformed command fails the whole block.
type Parser struct {
	// scopes tracks which variable names are bound at the current parse
	// point, so `$name` syntax is only accepted where a binding exists.
	scopes []map[string]bool
}

// NewParser returns a parser with an empty top-level scope.
func NewParser() *Parser {
	return &Parser{scopes: []map[string]bool{{}}}
}

// ParseCommands parses a whole make block: a list of commands.
func (p *Parser) ParseCommands(raw any) ([]Command, error) {
	list, perr := asList(raw, nil)
	if perr != nil {
		return nil, perr
	}
	cmds, perr := p.parseSequence(list, nil)
	if perr != nil {
		return nil, perr
	}
	return cmds, nil
}

func (p *Parser) parseSequence(list []any, path IndexPath) ([]Command, *ParseError) {
	cmds := make([]Command, 0, len(list))
	for i, node := range list {
		cmd, err := p.parseCommand(node, path.child(i))
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// parseCommand parses a single command node of any supported shape.
func (p *Parser) parseCommand(node any, path IndexPath) (Command, *ParseError) {
	switch n := node.(type) {
	case map[string]any:
		return p.parseMapping(n, path)
	case string:
		return p.parseStringCommand(n, path)
	case []any:
		return p.parseGroup(n, path)
	}
	return nil, parseErrorf(path, "a command must be a mapping, string or list, got %T", node)
}

// commandKeys is the dispatch order for mapping commands. Fixed order keeps
// "two command keys in one mapping" deterministic to detect.
var commandKeys = []string{"copy", "erase", "mirror", "let", "for", "def", "call", "pragma"}

func (p *Parser) parseMapping(m map[string]any, path IndexPath) (Command, *ParseError) {
	var found []string
	for _, k := range commandKeys {
		if _, ok := m[k]; ok {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return nil, parseErrorf(path, "unknown command mapping (no key of %s)", strings.Join(commandKeys, "/"))
	}
	if len(found) > 1 {
		return nil, parseErrorf(path, "ambiguous command mapping with keys %s", strings.Join(found, " and "))
	}

	key := found[0]
	switch key {
	case "copy":
		return p.parseCopy(m[key], path.child(key))
	case "erase":
		return p.parseErase(m[key], path.child(key))
	case "mirror":
		return p.parseMirror(m[key], path.child(key))
	case "let":
		return p.parseLet(m, path.child(key))
	case "for":
		return p.parseFor(m, path.child(key))
	case "def":
		return p.parseDef(m, path.child(key))
	case "call":
		return p.parseCall(m[key], path.child(key))
	default: // pragma
		return p.parsePragma(m, path.child(key))
	}
}

// parseStringCommand handles the compact `name % arg % arg` string form.
// Only pragma supports it.
func (p *Parser) parseStringCommand(s string, path IndexPath) (Command, *ParseError) {
	parts := strings.Split(s, "%")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	if name != "pragma" {
		return nil, parseErrorf(path, "unknown string command %q", s)
	}
	if len(args) < 1 {
		return nil, parseErrorf(path, "pragma name missing in %q", s)
	}
	data := make([]any, len(args)-1)
	for i, a := range args[1:] {
		data[i] = a
	}
	var dataAny any
	if len(data) > 0 {
		dataAny = data
	}
	return Pragma{Name: args[0], Data: dataAny}, nil
}

func (p *Parser) parseGroup(list []any, path IndexPath) (Command, *ParseError) {
	p.pushScope()
	defer p.popScope()
	cmds, err := p.parseSequence(list, path)
	if err != nil {
		return nil, err
	}
	return Group{Commands: cmds}, nil
}

// parsePoint parses a chart point mapping: {chart, offset, base?}.
func (p *Parser) parsePoint(node any, path IndexPath) (ChartPoint, *ParseError) {
	m, err := asMapping(node, path)
	if err != nil {
		return ChartPoint{}, err
	}
	rawChart, err := requireField(m, "chart", path)
	if err != nil {
		return ChartPoint{}, err
	}
	chart, err := p.parseIntOrVar(rawChart, path.child("chart"))
	if err != nil {
		return ChartPoint{}, err
	}
	rawOffset, err := requireField(m, "offset", path)
	if err != nil {
		return ChartPoint{}, err
	}
	offset, err := p.parsePosOrVar(rawOffset, path.child("offset"))
	if err != nil {
		return ChartPoint{}, err
	}

	point := ChartPoint{Chart: chart, Offset: offset}
	if rawBase, ok := m["base"]; ok {
		name, isRef := varName(rawBase)
		if !isRef {
			return ChartPoint{}, parseErrorf(path.child("base"), "base must be a $variable reference, got %v", rawBase)
		}
		ref, err := p.parseVarRef(name, path.child("base"))
		if err != nil {
			return ChartPoint{}, err
		}
		point.Base = ref
	}
	return point, nil
}

// parseRegion parses a chart region mapping: a point plus {len}.
func (p *Parser) parseRegion(node any, path IndexPath) (ChartRegion, *ParseError) {
	start, err := p.parsePoint(node, path)
	if err != nil {
		return ChartRegion{}, err
	}
	m, _ := asMapping(node, path) // parsePoint proved the shape
	rawLen, err := requireField(m, "len", path)
	if err != nil {
		return ChartRegion{}, err
	}
	length, err := p.parsePosOrVar(rawLen, path.child("len"))
	if err != nil {
		return ChartRegion{}, err
	}
	return ChartRegion{Start: start, Length: length}, nil
}

func (p *Parser) parseCopy(node any, path IndexPath) (Command, *ParseError) {
	m, err := asMapping(node, path)
	if err != nil {
		return nil, err
	}
	rawSrc, err := requireField(m, "src", path)
	if err != nil {
		return nil, err
	}
	src, err := p.parseRegion(rawSrc, path.child("src"))
	if err != nil {
		return nil, err
	}
	rawTo, err := requireField(m, "to", path)
	if err != nil {
		return nil, err
	}
	toList, err := asList(rawTo, path.child("to"))
	if err != nil {
		return nil, err
	}
	if len(toList) == 0 {
		return nil, parseErrorf(path.child("to"), "copy needs at least one target")
	}
	targets := make([]ChartPoint, len(toList))
	for i, rawPoint := range toList {
		pt, err := p.parsePoint(rawPoint, path.child("to", i))
		if err != nil {
			return nil, err
		}
		targets[i] = pt
	}

	mode := CopyOverwrite
	if rawMode, ok := m["mode"]; ok {
		s, err := asString(rawMode, path.child("mode"))
		if err != nil {
			return nil, err
		}
		mode, ok = copyModeNames[s]
		if !ok {
			return nil, parseErrorf(path.child("mode"), "unknown copy mode %q", s)
		}
	}
	return Copy{Targets: targets, Source: src, Mode: mode}, nil
}

func (p *Parser) parseErase(node any, path IndexPath) (Command, *ParseError) {
	region, err := p.parseRegion(node, path)
	if err != nil {
		return nil, err
	}
	erase := Erase{Region: region}
	m, _ := asMapping(node, path)
	if rawCols, ok := m["columns"]; ok {
		list, err := asList(rawCols, path.child("columns"))
		if err != nil {
			return nil, err
		}
		for i, rawCol := range list {
			col, err := asInt(rawCol, path.child("columns", i))
			if err != nil {
				return nil, err
			}
			if col < 0 {
				return nil, parseErrorf(path.child("columns", i), "negative column %d", col)
			}
			erase.Columns = append(erase.Columns, int(col))
		}
	}
	return erase, nil
}

func (p *Parser) parseMirror(node any, path IndexPath) (Command, *ParseError) {
	region, err := p.parseRegion(node, path)
	if err != nil {
		return nil, err
	}
	return Mirror{Region: region}, nil
}

func (p *Parser) parseLet(m map[string]any, path IndexPath) (Command, *ParseError) {
	name, err := asString(m["let"], path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, parseErrorf(path, "empty variable name")
	}
	rawValue, err := requireField(m, "value", path)
	if err != nil {
		return nil, err
	}
	value, err := p.parseLetValue(rawValue, path.child("value"))
	if err != nil {
		return nil, err
	}
	p.bind(name)
	return Let{Name: name, Value: value}, nil
}

func (p *Parser) parseLetValue(node any, path IndexPath) (any, *ParseError) {
	if list, ok := node.([]any); ok {
		values := make([]any, len(list))
		for i, raw := range list {
			v, err := parseScalar(raw, path.child(i))
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	}
	return parseScalar(node, path)
}

func (p *Parser) parseFor(m map[string]any, path IndexPath) (Command, *ParseError) {
	name, err := asString(m["for"], path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, parseErrorf(path, "empty loop variable name")
	}
	rawIn, err := requireField(m, "in", path)
	if err != nil {
		return nil, err
	}
	iterable, err := p.parseIterable(rawIn, path.child("in"))
	if err != nil {
		return nil, err
	}
	rawBody, err := requireField(m, "do", path)
	if err != nil {
		return nil, err
	}
	bodyList, err := asList(rawBody, path.child("do"))
	if err != nil {
		return nil, err
	}

	// the loop variable is visible only within the body
	p.pushScope()
	p.bind(name)
	defer p.popScope()

	body, err := p.parseGroup(bodyList, path.child("do"))
	if err != nil {
		return nil, err
	}
	return For{Name: name, In: iterable, Body: body.(Group)}, nil
}

func (p *Parser) parseIterable(node any, path IndexPath) (Iterable, *ParseError) {
	switch n := node.(type) {
	case []any:
		values := make([]any, len(n))
		for i, raw := range n {
			v, err := parseScalar(raw, path.child(i))
			if err != nil {
				return Iterable{}, err
			}
			values[i] = v
		}
		return Iterable{List: values}, nil
	case map[string]any:
		rawFrom, err := requireField(n, "from", path)
		if err != nil {
			return Iterable{}, err
		}
		from, err := asInt(rawFrom, path.child("from"))
		if err != nil {
			return Iterable{}, err
		}
		rawTo, err := requireField(n, "to", path)
		if err != nil {
			return Iterable{}, err
		}
		to, err := asInt(rawTo, path.child("to"))
		if err != nil {
			return Iterable{}, err
		}
		step := int64(1)
		if rawStep, ok := n["step"]; ok {
			step, err = asInt(rawStep, path.child("step"))
			if err != nil {
				return Iterable{}, err
			}
			if step == 0 {
				return Iterable{}, parseErrorf(path.child("step"), "zero step")
			}
		}
		return Iterable{Range: &Range{From: from, To: to, Step: step}}, nil
	}
	return Iterable{}, parseErrorf(path, "expected a list or a range mapping, got %T", node)
}

func (p *Parser) parseDef(m map[string]any, path IndexPath) (Command, *ParseError) {
	name, err := asString(m["def"], path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, parseErrorf(path, "empty function name")
	}
	rawBody, err := requireField(m, "is", path)
	if err != nil {
		return nil, err
	}
	bodyList, err := asList(rawBody, path.child("is"))
	if err != nil {
		return nil, err
	}

	// bind before parsing the body so the definition may call itself
	p.bind(name)
	body, err := p.parseGroup(bodyList, path.child("is"))
	if err != nil {
		return nil, err
	}
	return Def{Name: name, Body: body.(Group)}, nil
}

func (p *Parser) parseCall(node any, path IndexPath) (Command, *ParseError) {
	name, err := asString(node, path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, parseErrorf(path, "empty function name")
	}
	return Call{Name: name}, nil
}

func (p *Parser) parsePragma(m map[string]any, path IndexPath) (Command, *ParseError) {
	name, err := asString(m["pragma"], path)
	if err != nil {
		return nil, err
	}
	return Pragma{Name: name, Data: m["data"]}, nil
}

// scope bookkeeping

func (p *Parser) pushScope() { p.scopes = append(p.scopes, map[string]bool{}) }
func (p *Parser) popScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) bind(name string) { p.scopes[len(p.scopes)-1][name] = true }

func (p *Parser) inScope(name string) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if p.scopes[i][name] {
			return true
		}
	}
	return false
}
