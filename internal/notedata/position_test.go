package notedata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	t.Run("reduces", func(t *testing.T) {
		p, err := NewPosition(6, 8)
		require.NoError(t, err)
		assert.Equal(t, int64(3), p.Num())
		assert.Equal(t, int64(4), p.Den())
	})

	t.Run("normalizes sign to numerator", func(t *testing.T) {
		p, err := NewPosition(1, -2)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), p.Num())
		assert.Equal(t, int64(2), p.Den())
	})

	t.Run("rejects zero denominator", func(t *testing.T) {
		_, err := NewPosition(1, 0)
		assert.ErrorContains(t, err, "zero denominator")
	})

	t.Run("equal values compare equal with ==", func(t *testing.T) {
		a, _ := NewPosition(2, 4)
		b, _ := NewPosition(1, 2)
		assert.Equal(t, a, b)
	})
}

func TestParsePosition(t *testing.T) {
	cases := []struct {
		in       string
		num, den int64
	}{
		{"7", 7, 1},
		{"-3", -3, 1},
		{" 3/4 ", 3, 4},
		{"10/4", 5, 2},
		{"-1/2", -1, 2},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := ParsePosition(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.num, p.Num())
			assert.Equal(t, tc.den, p.Den())
		})
	}

	for _, bad := range []string{"", "x", "1/0", "1/2/3", "1.5"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParsePosition(bad)
			assert.Error(t, err)
		})
	}
}

func TestPositionArithmetic(t *testing.T) {
	half, _ := NewPosition(1, 2)
	third, _ := NewPosition(1, 3)

	sum := half.Add(third)
	assert.Equal(t, int64(5), sum.Num())
	assert.Equal(t, int64(6), sum.Den())

	diff := half.Sub(third)
	assert.Equal(t, int64(1), diff.Num())
	assert.Equal(t, int64(6), diff.Den())

	assert.True(t, third.Less(half))
	assert.False(t, half.Less(third))
	assert.Equal(t, 0, half.Cmp(half))

	assert.Equal(t, int64(2), half.MulInt(4).Num())
	assert.Equal(t, -1, half.Neg().Sign())
}

func TestPositionZeroValue(t *testing.T) {
	var zero Position
	assert.Equal(t, int64(0), zero.Num())
	assert.Equal(t, int64(1), zero.Den())
	assert.Equal(t, 0, zero.Cmp(PositionFromInt(0)))
	assert.Equal(t, "0", zero.String())

	half, _ := NewPosition(1, 2)
	assert.Equal(t, half, zero.Add(half))
}

func TestPositionString(t *testing.T) {
	p, _ := NewPosition(3, 4)
	assert.Equal(t, "3/4", p.String())
	assert.Equal(t, "5", PositionFromInt(5).String())
}
