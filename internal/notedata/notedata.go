// Package notedata holds the raw note contents of a single chart: an ordered,
// immutable set of rows addressed by rational beat positions. It stores one
// character per column and carries no semantic information about what the
// characters mean.
package notedata

import (
	"fmt"
	"sort"
	"strings"
)

// Row is one line of simultaneous notes at a beat position. Notes holds one
// character per column; '0' means no note in that column.
type Row struct {
	Position Position
	Notes    string
}

func (r Row) empty() bool {
	return strings.Trim(r.Notes, "0") == ""
}

// NoteData is an immutable collection of note rows sorted by position.
// All mutating operations return a new NoteData; the zero value is an empty
// chart of unknown width.
type NoteData struct {
	rows []Row
}

// New builds a NoteData from rows in any order. Rows must share one width and
// no two rows may occupy the same position.
func New(rows ...Row) (NoteData, error) {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	for i := range sorted {
		sorted[i].Position = sorted[i].Position.norm()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position.Less(sorted[j].Position)
	})
	for i := range sorted {
		if i == 0 {
			continue
		}
		if len(sorted[i].Notes) != len(sorted[0].Notes) {
			return NoteData{}, fmt.Errorf(
				"row at %v has width %d, want %d",
				sorted[i].Position, len(sorted[i].Notes), len(sorted[0].Notes))
		}
		if sorted[i].Position == sorted[i-1].Position {
			return NoteData{}, fmt.Errorf("duplicate row position %v", sorted[i].Position)
		}
	}
	return NoteData{rows: sorted}, nil
}

// Len returns the number of note rows.
func (nd NoteData) Len() int { return len(nd.rows) }

// Width returns the column count, or 0 if the chart holds no rows.
func (nd NoteData) Width() int {
	if len(nd.rows) == 0 {
		return 0
	}
	return len(nd.rows[0].Notes)
}

// Rows returns a copy of the rows in position order.
func (nd NoteData) Rows() []Row {
	out := make([]Row, len(nd.rows))
	copy(out, nd.rows)
	return out
}

// At returns the notes at an exact position.
func (nd NoteData) At(pos Position) (string, bool) {
	pos = pos.norm()
	i := nd.searchRow(pos)
	if i < len(nd.rows) && nd.rows[i].Position == pos {
		return nd.rows[i].Notes, true
	}
	return "", false
}

// searchRow returns the index of the first row at or after pos.
func (nd NoteData) searchRow(pos Position) int {
	return sort.Search(len(nd.rows), func(i int) bool {
		return !nd.rows[i].Position.Less(pos)
	})
}

// Slice returns the rows in the half-open range [start, stop).
func (nd NoteData) Slice(start, stop Position) NoteData {
	lo, hi := nd.searchRow(start), nd.searchRow(stop)
	if lo >= hi {
		return NoteData{}
	}
	return NoteData{rows: nd.rows[lo:hi]}
}

// Shift moves every row by amount.
func (nd NoteData) Shift(amount Position) NoteData {
	rows := make([]Row, len(nd.rows))
	for i, r := range nd.rows {
		rows[i] = Row{Position: r.Position.Add(amount), Notes: r.Notes}
	}
	return NoteData{rows: rows}
}

// ClearRange removes every row in the half-open range [start, stop). The
// space is left empty; later rows keep their positions.
func (nd NoteData) ClearRange(start, stop Position) NoteData {
	lo, hi := nd.searchRow(start), nd.searchRow(stop)
	if lo >= hi {
		return nd
	}
	rows := make([]Row, 0, len(nd.rows)-(hi-lo))
	rows = append(rows, nd.rows[:lo]...)
	rows = append(rows, nd.rows[hi:]...)
	return NoteData{rows: rows}
}

// ClearColumns blanks the given columns within [start, stop), dropping any
// row left without notes.
func (nd NoteData) ClearColumns(start, stop Position, cols []int) (NoteData, error) {
	for _, c := range cols {
		if c < 0 || c >= nd.Width() {
			return NoteData{}, fmt.Errorf("column %d out of range [0, %d)", c, nd.Width())
		}
	}
	rows := make([]Row, 0, len(nd.rows))
	for _, r := range nd.rows {
		if !r.Position.Less(start) && r.Position.Less(stop) {
			b := []byte(r.Notes)
			for _, c := range cols {
				b[c] = '0'
			}
			r.Notes = string(b)
			if r.empty() {
				continue
			}
		}
		rows = append(rows, r)
	}
	return NoteData{rows: rows}, nil
}

// OverlayMode selects what happens when both charts hold a row at the same
// position during Overlay.
type OverlayMode int

const (
	// OverlayStrict fails on any position collision.
	OverlayStrict OverlayMode = iota
	// OverlayKeepSelf keeps the receiver's row on collision.
	OverlayKeepSelf
	// OverlayKeepOther keeps the incoming row on collision.
	OverlayKeepOther
)

var overlayModeNames = map[string]OverlayMode{
	"strict":     OverlayStrict,
	"keep_self":  OverlayKeepSelf,
	"keep_other": OverlayKeepOther,
}

// ParseOverlayMode maps the textual mode names used in make blocks.
func ParseOverlayMode(s string) (OverlayMode, error) {
	if m, ok := overlayModeNames[s]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown overlay mode %q", s)
}

func (m OverlayMode) String() string {
	for name, mode := range overlayModeNames {
		if mode == m {
			return name
		}
	}
	return fmt.Sprintf("OverlayMode(%d)", int(m))
}

// Overlay merges other's rows into the receiver's. Both charts must have the
// same width unless one is empty.
func (nd NoteData) Overlay(other NoteData, mode OverlayMode) (NoteData, error) {
	if nd.Len() == 0 {
		return other, nil
	}
	if other.Len() == 0 {
		return nd, nil
	}
	if nd.Width() != other.Width() {
		return NoteData{}, fmt.Errorf("overlay width mismatch: %d vs %d", nd.Width(), other.Width())
	}

	rows := make([]Row, 0, len(nd.rows)+len(other.rows))
	i, j := 0, 0
	for i < len(nd.rows) && j < len(other.rows) {
		switch nd.rows[i].Position.Cmp(other.rows[j].Position) {
		case -1:
			rows = append(rows, nd.rows[i])
			i++
		case 1:
			rows = append(rows, other.rows[j])
			j++
		default:
			switch mode {
			case OverlayKeepSelf:
				rows = append(rows, nd.rows[i])
			case OverlayKeepOther:
				rows = append(rows, other.rows[j])
			default:
				return NoteData{}, fmt.Errorf("overlay collision at %v", nd.rows[i].Position)
			}
			i++
			j++
		}
	}
	rows = append(rows, nd.rows[i:]...)
	rows = append(rows, other.rows[j:]...)
	return NoteData{rows: rows}, nil
}

// ColumnSwap rearranges columns: output column i takes its notes from input
// column perm[i]. perm must cover the full width.
func (nd NoteData) ColumnSwap(perm []int) (NoteData, error) {
	if nd.Len() == 0 {
		return nd, nil
	}
	if len(perm) != nd.Width() {
		return NoteData{}, fmt.Errorf("column swap wants %d indices, got %d", nd.Width(), len(perm))
	}
	for _, c := range perm {
		if c < 0 || c >= nd.Width() {
			return NoteData{}, fmt.Errorf("column %d out of range [0, %d)", c, nd.Width())
		}
	}

	// identical rows are common, so transform each distinct row once
	cache := make(map[string]string)
	rows := make([]Row, len(nd.rows))
	for i, r := range nd.rows {
		swapped, ok := cache[r.Notes]
		if !ok {
			var b strings.Builder
			for _, c := range perm {
				b.WriteByte(r.Notes[c])
			}
			swapped = b.String()
			cache[r.Notes] = swapped
		}
		rows[i] = Row{Position: r.Position, Notes: swapped}
	}
	return NoteData{rows: rows}, nil
}

// Mirror reflects columns about the chart's center: column i swaps with
// column width-1-i. Applying it twice is the identity.
func (nd NoteData) Mirror() NoteData {
	if nd.Len() == 0 {
		return nd
	}
	perm := make([]int, nd.Width())
	for i := range perm {
		perm[i] = nd.Width() - 1 - i
	}
	out, _ := nd.ColumnSwap(perm) // a reversal is always a valid permutation
	return out
}
