// Package mk implements the make DSL: commands authored as structured data
// (typically the `make:` block of a simfile's metadata file) that build or
// edit a chart programmatically. The Parser produces an immutable command
// tree; the Manager executes it against an in-memory simfile, strictly
// sequentially, maintaining variable bindings and applying the configured
// failure policy.
package mk

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/sscpack/internal/ctxlog"
	"github.com/vk/sscpack/internal/notedata"
	"github.com/vk/sscpack/internal/simfile"
)

// maxCallDepth bounds def/call recursion; the DSL has no conditionals, so
// deep recursion can only be a runaway loop.
const maxCallDepth = 64

// Failure is one recorded runtime failure.
type Failure struct {
	Path IndexPath
	Err  error
}

// Result accumulates what went wrong during a run. Under PolicySkip the run
// still "succeeds" and the caller decides what a non-empty failure list
// means; under the stop policies the aborting failure is recorded here too.
type Result struct {
	Failures []Failure
}

// Failed reports whether any command failed.
func (r Result) Failed() bool { return len(r.Failures) > 0 }

// frame is one level of variable bindings. Values are int64,
// notedata.Position, string, []any of those, or Def for functions.
type frame map[string]any

// Manager executes command trees against a simfile. One Manager owns one run;
// it is not safe for concurrent use and never needs to be, since commands
// must observe each other's chart mutations in order.
type Manager struct {
	policy    Policy
	frames    []frame
	callDepth int
}

// NewManager returns a manager with an empty global frame.
func NewManager(policy Policy) *Manager {
	return &Manager{policy: policy, frames: []frame{{}}}
}

// Lookup finds a variable in the frame stack, innermost first.
func (m *Manager) Lookup(name string) (any, error) {
	for i := len(m.frames) - 1; i >= 0; i-- {
		if v, ok := m.frames[i][name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("variable %q is not defined", name)
}

func (m *Manager) pushFrame() { m.frames = append(m.frames, frame{}) }
func (m *Manager) popFrame()  { m.frames = m.frames[:len(m.frames)-1] }

func (m *Manager) define(name string, value any) {
	m.frames[len(m.frames)-1][name] = value
}

// lookupInt resolves a name that must hold an integer.
func (m *Manager) lookupInt(name string) (int64, error) {
	v, err := m.Lookup(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("variable %q is %T, not an integer", name, v)
	}
	return n, nil
}

// lookupPos resolves a name that must hold a position. Integers promote to
// whole-beat positions.
func (m *Manager) lookupPos(name string) (notedata.Position, error) {
	v, err := m.Lookup(name)
	if err != nil {
		return notedata.Position{}, err
	}
	switch p := v.(type) {
	case notedata.Position:
		return p, nil
	case int64:
		return notedata.PositionFromInt(p), nil
	}
	return notedata.Position{}, fmt.Errorf("variable %q is %T, not a position", name, v)
}

func (m *Manager) resolveInt(v IntOrVar) (int64, error) {
	if v.Ref != nil {
		return m.lookupInt(v.Ref.Name)
	}
	return v.Int, nil
}

func (m *Manager) resolvePos(v PosOrVar) (notedata.Position, error) {
	if v.Ref != nil {
		return m.lookupPos(v.Ref.Name)
	}
	return v.Pos, nil
}

// resolvePoint reduces a ChartPoint to concrete chart index and position.
func (m *Manager) resolvePoint(pt ChartPoint) (concretePoint, error) {
	chart, err := m.resolveInt(pt.Chart)
	if err != nil {
		return concretePoint{}, err
	}
	offset, err := m.resolvePos(pt.Offset)
	if err != nil {
		return concretePoint{}, err
	}
	if pt.Base != nil {
		base, err := m.lookupPos(pt.Base.Name)
		if err != nil {
			return concretePoint{}, err
		}
		offset = base.Add(offset)
	}
	return concretePoint{chart: int(chart), position: offset}, nil
}

// resolveRegion reduces a ChartRegion and validates it: charts begin at beat
// 0, and a negative length is never meaningful. Spans past the last row are
// allowed (charts grow by being written past their end).
func (m *Manager) resolveRegion(r ChartRegion) (concreteRegion, error) {
	start, err := m.resolvePoint(r.Start)
	if err != nil {
		return concreteRegion{}, err
	}
	length, err := m.resolvePos(r.Length)
	if err != nil {
		return concreteRegion{}, err
	}
	if start.position.Sign() < 0 {
		return concreteRegion{}, fmt.Errorf("region starts before beat 0 (at %v)", start.position)
	}
	if length.Sign() < 0 {
		return concreteRegion{}, fmt.Errorf("region has negative length %v", length)
	}
	return concreteRegion{start: start, length: length}, nil
}

func chartAt(sf *simfile.Simfile, index int) (*simfile.Chart, error) {
	if index < 0 || index >= len(sf.Charts) {
		return nil, fmt.Errorf("no chart at index %d (simfile has %d)", index, len(sf.Charts))
	}
	return sf.Charts[index], nil
}

// RunAll executes a top-level command sequence against sf. The returned
// Result lists every recorded failure; the error is non-nil when the run
// aborted (PolicyStop, or PolicyStopAll in which case it matches ErrHalted).
func (m *Manager) RunAll(ctx context.Context, cmds []Command, sf *simfile.Simfile) (Result, error) {
	var res Result
	err := m.runMany(ctx, cmds, sf, nil, &res)
	return res, err
}

// Run executes a single command under the configured policy.
func (m *Manager) Run(ctx context.Context, cmd Command, sf *simfile.Simfile) (Result, error) {
	return m.RunAll(ctx, []Command{cmd}, sf)
}

// abortError marks a failure that was already recorded and judged by the
// policy at the point it happened; outer sequence levels keep unwinding
// instead of recording it again.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// runMany runs sibling commands in order, applying the failure policy at
// each: skip records and continues, the stop policies unwind.
func (m *Manager) runMany(ctx context.Context, cmds []Command, sf *simfile.Simfile, path IndexPath, res *Result) error {
	for i, cmd := range cmds {
		err := m.run(ctx, cmd, sf, path.child(i), res)
		if err == nil {
			continue
		}
		var abort *abortError
		if errors.As(err, &abort) {
			return err
		}
		if fail := m.handleFailure(ctx, err, res); fail != nil {
			return fail
		}
	}
	return nil
}

// handleFailure is the policy dispatch: (failure, policy) -> control action.
func (m *Manager) handleFailure(ctx context.Context, err error, res *Result) error {
	var cmdErr *CommandError
	var path IndexPath
	if errors.As(err, &cmdErr) {
		path = cmdErr.Path
	}
	res.Failures = append(res.Failures, Failure{Path: path, Err: err})

	switch m.policy {
	case PolicySkip:
		ctxlog.FromContext(ctx).Warn("command failed, skipping", "error", err)
		return nil
	case PolicyStopAll:
		return &abortError{err: fmt.Errorf("%w: %w", ErrHalted, err)}
	default:
		return &abortError{err: err}
	}
}

// run executes one command. Returned errors carry the command's path.
func (m *Manager) run(ctx context.Context, cmd Command, sf *simfile.Simfile, path IndexPath, res *Result) error {
	kindPath := path.child(cmd.Kind())
	switch c := cmd.(type) {
	case Copy:
		return m.runCopy(c, sf, kindPath)
	case Erase:
		return m.runErase(c, sf, kindPath)
	case Mirror:
		return m.runMirror(c, sf, kindPath)
	case Let:
		m.define(c.Name, c.Value)
		return nil
	case For:
		return m.runFor(ctx, c, sf, kindPath, res)
	case Group:
		return m.runGroup(ctx, c, sf, path, res)
	case Def:
		m.define(c.Name, c)
		return nil
	case Call:
		return m.runCall(ctx, c, sf, kindPath, res)
	case Pragma:
		return m.runPragma(ctx, c, kindPath)
	}
	return commandErrorf(kindPath, "unhandled command type %T", cmd)
}

func (m *Manager) runGroup(ctx context.Context, g Group, sf *simfile.Simfile, path IndexPath, res *Result) error {
	m.pushFrame()
	defer m.popFrame()
	return m.runMany(ctx, g.Commands, sf, path, res)
}

func (m *Manager) runFor(ctx context.Context, c For, sf *simfile.Simfile, path IndexPath, res *Result) error {
	for i, value := range c.In.values() {
		iterPath := path.child(i)
		m.pushFrame()
		m.define(c.Name, value)
		err := m.runMany(ctx, c.Body.Commands, sf, iterPath, res)
		m.popFrame()
		if err != nil {
			return fmt.Errorf("%s := %s: %w", c.Name, scalarString(value), err)
		}
	}
	return nil
}

func (m *Manager) runCall(ctx context.Context, c Call, sf *simfile.Simfile, path IndexPath, res *Result) error {
	v, err := m.Lookup(c.Name)
	if err != nil {
		return commandErrorf(path, "function %q does not exist", c.Name)
	}
	def, ok := v.(Def)
	if !ok {
		return commandErrorf(path, "variable %q is %T, not a function", c.Name, v)
	}
	if m.callDepth >= maxCallDepth {
		return commandErrorf(path, "call depth limit (%d) exceeded calling %q", maxCallDepth, c.Name)
	}
	m.callDepth++
	defer func() { m.callDepth-- }()
	return m.runGroup(ctx, def.Body, sf, path.child(c.Name), res)
}

func (m *Manager) runPragma(ctx context.Context, c Pragma, path IndexPath) error {
	logger := ctxlog.FromContext(ctx)
	switch c.Name {
	case "echo":
		logger.Info(fmt.Sprintf("%v", c.Data))
	case "vars":
		for name, value := range m.frames[len(m.frames)-1] {
			logger.Info(fmt.Sprintf("%s = %s", name, scalarString(value)))
		}
	case "raise":
		return commandErrorf(path, "unconditional raise: %v", c.Data)
	default:
		return commandErrorf(path, "unknown pragma %q", c.Name)
	}
	return nil
}

func (m *Manager) runCopy(c Copy, sf *simfile.Simfile, path IndexPath) error {
	src, err := m.resolveRegion(c.Source)
	if err != nil {
		return &CommandError{Path: path.child("src"), Err: err}
	}
	srcChart, err := chartAt(sf, src.start.chart)
	if err != nil {
		return &CommandError{Path: path.child("src"), Err: err}
	}
	source := srcChart.Notes.Slice(src.start.position, src.end())

	for i, target := range c.Targets {
		targetPath := path.child("to", i)
		dest, err := m.resolvePoint(target)
		if err != nil {
			return &CommandError{Path: targetPath, Err: err}
		}
		if dest.position.Sign() < 0 {
			return commandErrorf(targetPath, "target before beat 0 (at %v)", dest.position)
		}
		destChart, err := chartAt(sf, dest.chart)
		if err != nil {
			return &CommandError{Path: targetPath, Err: err}
		}

		shifted := source.Shift(dest.position.Sub(src.start.position))
		base := destChart.Notes
		mode := notedata.OverlayStrict
		switch c.Mode {
		case CopyOverwrite:
			base = base.ClearRange(dest.position, dest.position.Add(src.length))
		case CopyKeepSelf:
			mode = notedata.OverlayKeepSelf
		case CopyKeepOther:
			mode = notedata.OverlayKeepOther
		}
		merged, err := base.Overlay(shifted, mode)
		if err != nil {
			return &CommandError{Path: targetPath, Err: err}
		}
		destChart.Notes = merged
	}
	return nil
}

func (m *Manager) runErase(c Erase, sf *simfile.Simfile, path IndexPath) error {
	region, err := m.resolveRegion(c.Region)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}
	chart, err := chartAt(sf, region.start.chart)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}
	if len(c.Columns) == 0 {
		chart.Notes = chart.Notes.ClearRange(region.start.position, region.end())
		return nil
	}
	cleared, err := chart.Notes.ClearColumns(region.start.position, region.end(), c.Columns)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}
	chart.Notes = cleared
	return nil
}

func (m *Manager) runMirror(c Mirror, sf *simfile.Simfile, path IndexPath) error {
	region, err := m.resolveRegion(c.Region)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}
	chart, err := chartAt(sf, region.start.chart)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}

	mirrored := chart.Notes.Slice(region.start.position, region.end()).Mirror()
	cleared := chart.Notes.ClearRange(region.start.position, region.end())
	merged, err := cleared.Overlay(mirrored, notedata.OverlayStrict)
	if err != nil {
		return &CommandError{Path: path, Err: err}
	}
	chart.Notes = merged
	return nil
}
