package notedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNotes(t *testing.T, rows ...Row) NoteData {
	t.Helper()
	nd, err := New(rows...)
	require.NoError(t, err)
	return nd
}

func row(t *testing.T, pos string, notes string) Row {
	t.Helper()
	p, err := ParsePosition(pos)
	require.NoError(t, err)
	return Row{Position: p, Notes: notes}
}

func TestNew(t *testing.T) {
	t.Run("sorts rows", func(t *testing.T) {
		nd := mustNotes(t,
			row(t, "4", "0100"),
			row(t, "0", "1000"),
			row(t, "1/2", "0010"),
		)
		rows := nd.Rows()
		require.Len(t, rows, 3)
		assert.Equal(t, "1000", rows[0].Notes)
		assert.Equal(t, "0010", rows[1].Notes)
		assert.Equal(t, "0100", rows[2].Notes)
	})

	t.Run("rejects mixed widths", func(t *testing.T) {
		_, err := New(row(t, "0", "1000"), row(t, "1", "100"))
		assert.ErrorContains(t, err, "width")
	})

	t.Run("rejects duplicate positions", func(t *testing.T) {
		_, err := New(row(t, "1/2", "1000"), row(t, "2/4", "0100"))
		assert.ErrorContains(t, err, "duplicate row position")
	})

	t.Run("zero value is empty", func(t *testing.T) {
		var nd NoteData
		assert.Zero(t, nd.Len())
		assert.Zero(t, nd.Width())
	})
}

func TestSliceShift(t *testing.T) {
	nd := mustNotes(t,
		row(t, "0", "1000"),
		row(t, "1", "0100"),
		row(t, "2", "0010"),
		row(t, "3", "0001"),
	)

	t.Run("slice is half open", func(t *testing.T) {
		s := nd.Slice(PositionFromInt(1), PositionFromInt(3))
		require.Equal(t, 2, s.Len())
		assert.Equal(t, "0100", s.Rows()[0].Notes)
		assert.Equal(t, "0010", s.Rows()[1].Notes)
	})

	t.Run("slice does not mutate source", func(t *testing.T) {
		_ = nd.Slice(PositionFromInt(0), PositionFromInt(4))
		assert.Equal(t, 4, nd.Len())
	})

	t.Run("empty slice", func(t *testing.T) {
		assert.Zero(t, nd.Slice(PositionFromInt(10), PositionFromInt(20)).Len())
		assert.Zero(t, nd.Slice(PositionFromInt(3), PositionFromInt(1)).Len())
	})

	t.Run("shift", func(t *testing.T) {
		s := nd.Shift(PositionFromInt(8))
		assert.Equal(t, PositionFromInt(8), s.Rows()[0].Position)
		assert.Equal(t, PositionFromInt(11), s.Rows()[3].Position)
		// original untouched
		assert.Equal(t, PositionFromInt(0), nd.Rows()[0].Position)
	})
}

func TestClearRange(t *testing.T) {
	nd := mustNotes(t,
		row(t, "0", "1000"),
		row(t, "1", "0100"),
		row(t, "2", "0010"),
	)

	cleared := nd.ClearRange(PositionFromInt(1), PositionFromInt(2))
	require.Equal(t, 2, cleared.Len())
	assert.Equal(t, PositionFromInt(0), cleared.Rows()[0].Position)
	// later rows keep their positions, no gap closing
	assert.Equal(t, PositionFromInt(2), cleared.Rows()[1].Position)

	assert.Equal(t, 3, nd.Len(), "source unchanged")
}

func TestClearColumns(t *testing.T) {
	nd := mustNotes(t,
		row(t, "0", "1100"),
		row(t, "1", "1000"),
		row(t, "2", "0011"),
	)

	t.Run("blanks columns and drops empty rows", func(t *testing.T) {
		out, err := nd.ClearColumns(PositionFromInt(0), PositionFromInt(2), []int{0, 1})
		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, "0100", out.Rows()[0].Notes) // column 0 blanked
		assert.Equal(t, "0011", out.Rows()[1].Notes) // outside range, untouched
	})

	t.Run("rejects out of range column", func(t *testing.T) {
		_, err := nd.ClearColumns(PositionFromInt(0), PositionFromInt(2), []int{4})
		assert.ErrorContains(t, err, "out of range")
	})
}

func TestOverlay(t *testing.T) {
	base := mustNotes(t, row(t, "0", "1000"), row(t, "2", "0100"))
	incoming := mustNotes(t, row(t, "1", "0010"), row(t, "2", "0001"))

	t.Run("merges disjoint rows", func(t *testing.T) {
		out, err := base.Overlay(mustNotes(t, row(t, "1", "0010")), OverlayStrict)
		require.NoError(t, err)
		assert.Equal(t, 3, out.Len())
	})

	t.Run("strict fails on collision", func(t *testing.T) {
		_, err := base.Overlay(incoming, OverlayStrict)
		assert.ErrorContains(t, err, "collision")
	})

	t.Run("keep self", func(t *testing.T) {
		out, err := base.Overlay(incoming, OverlayKeepSelf)
		require.NoError(t, err)
		notes, ok := out.At(PositionFromInt(2))
		require.True(t, ok)
		assert.Equal(t, "0100", notes)
	})

	t.Run("keep other", func(t *testing.T) {
		out, err := base.Overlay(incoming, OverlayKeepOther)
		require.NoError(t, err)
		notes, ok := out.At(PositionFromInt(2))
		require.True(t, ok)
		assert.Equal(t, "0001", notes)
	})

	t.Run("empty operands", func(t *testing.T) {
		out, err := NoteData{}.Overlay(base, OverlayStrict)
		require.NoError(t, err)
		assert.Equal(t, base.Rows(), out.Rows())

		out, err = base.Overlay(NoteData{}, OverlayStrict)
		require.NoError(t, err)
		assert.Equal(t, base.Rows(), out.Rows())
	})

	t.Run("width mismatch", func(t *testing.T) {
		_, err := base.Overlay(mustNotes(t, row(t, "0", "10000")), OverlayKeepOther)
		assert.ErrorContains(t, err, "width mismatch")
	})
}

func TestParseOverlayMode(t *testing.T) {
	m, err := ParseOverlayMode("keep_other")
	require.NoError(t, err)
	assert.Equal(t, OverlayKeepOther, m)

	_, err = ParseOverlayMode("merge")
	assert.ErrorContains(t, err, "unknown overlay mode")
}

func TestColumnSwapMirror(t *testing.T) {
	nd := mustNotes(t, row(t, "0", "1200"), row(t, "1", "0030"))

	t.Run("swap", func(t *testing.T) {
		out, err := nd.ColumnSwap([]int{3, 2, 1, 0})
		require.NoError(t, err)
		assert.Equal(t, "0021", out.Rows()[0].Notes)
		assert.Equal(t, "0300", out.Rows()[1].Notes)
	})

	t.Run("bad permutation length", func(t *testing.T) {
		_, err := nd.ColumnSwap([]int{0, 1})
		assert.ErrorContains(t, err, "4 indices")
	})

	t.Run("mirror twice is identity", func(t *testing.T) {
		assert.Equal(t, nd.Rows(), nd.Mirror().Mirror().Rows())
	})

	t.Run("mirror preserves timing", func(t *testing.T) {
		m := nd.Mirror()
		assert.Equal(t, nd.Rows()[0].Position, m.Rows()[0].Position)
		assert.Equal(t, "0021", m.Rows()[0].Notes)
	})
}
