package mk

import (
	"errors"
	"fmt"
	"strings"
)

// IndexPath locates a command or field inside the raw make block. Elements
// are either int (sequence index) or string (mapping key / command kind), so
// "[2].for[1][0].copy.src" reads straight back into the user's YAML.
type IndexPath []any

func (p IndexPath) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range p {
		switch v := e.(type) {
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		default:
			fmt.Fprintf(&b, ".%v", v)
		}
	}
	return b.String()
}

// child returns a copy of p extended with more elements. Paths are shared up
// the call stack, so the copy keeps siblings from clobbering each other.
func (p IndexPath) child(elems ...any) IndexPath {
	out := make(IndexPath, 0, len(p)+len(elems))
	out = append(out, p...)
	out = append(out, elems...)
	return out
}

// ParseError reports malformed make block structure: wrong shape, unknown
// command, missing or mistyped field, bad literal. It always carries the
// structural path to the offense.
type ParseError struct {
	Path IndexPath
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if s := e.Path.String(); s != "" {
		b.WriteString(" at ")
		b.WriteString(s)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(path IndexPath, format string, args ...any) *ParseError {
	var wrapped error
	for _, a := range args {
		if err, ok := a.(error); ok {
			wrapped = err
		}
	}
	return &ParseError{Path: path, Msg: fmt.Sprintf(format, args...), Err: wrapped}
}

// CommandError reports a runtime command failure: unresolved or mistyped
// variable, out-of-range region, missing chart. The path addresses the
// failing command, including loop iteration indices.
type CommandError struct {
	Path IndexPath
	Err  error
}

func (e *CommandError) Error() string {
	if s := e.Path.String(); s != "" {
		return fmt.Sprintf("command at %s: %v", s, e.Err)
	}
	return fmt.Sprintf("command: %v", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func commandErrorf(path IndexPath, format string, args ...any) *CommandError {
	return &CommandError{Path: path, Err: fmt.Errorf(format, args...)}
}

// ErrHalted marks a run aborted by the stop_all policy; callers that drive
// multiple make runs must stop scheduling new ones when they see it.
var ErrHalted = errors.New("make run halted")
