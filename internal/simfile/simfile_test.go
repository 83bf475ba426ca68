package simfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sscpack/internal/notedata"
)

const sscFixture = `#VERSION:0.83;
#TITLE:Example Song;
#ARTIST:Somebody;
#MUSIC:music.ogg;
#OFFSET:-1.000;
#SAMPLESTART:32.000;
#NOTEDATA:;
#STEPSTYPE:dance-single;
#DIFFICULTY:Challenge;
#METER:12;
#RADARVALUES:0,0,0,0,0;
#NOTES:
1000
0100
0010
0001
;
`

func TestParse(t *testing.T) {
	sf, err := Parse(strings.NewReader(sscFixture))
	require.NoError(t, err)

	assert.Equal(t, "Example Song", sf.Title)
	assert.Equal(t, "Somebody", sf.Artist)
	assert.Equal(t, "music.ogg", sf.Music)
	assert.Equal(t, "-1.000", sf.Offset)

	// uninterpreted header tags survive
	require.Len(t, sf.Extra, 1)
	assert.Equal(t, "SAMPLESTART", sf.Extra[0].Tag)

	require.Len(t, sf.Charts, 1)
	chart := sf.Charts[0]
	assert.Equal(t, "dance-single", chart.GameType)
	assert.Equal(t, "Challenge", chart.Difficulty)
	assert.Equal(t, 12, chart.Meter)
	assert.Equal(t, 4, chart.Notes.Len())
	require.Len(t, chart.Extra, 1)
	assert.Equal(t, "RADARVALUES", chart.Extra[0].Tag)
}

func TestParseErrors(t *testing.T) {
	t.Run("content in NOTEDATA", func(t *testing.T) {
		_, err := Parse(strings.NewReader("#NOTEDATA:junk;\n"))
		assert.ErrorContains(t, err, "NOTEDATA")
	})

	t.Run("non-integer meter", func(t *testing.T) {
		_, err := Parse(strings.NewReader("#NOTEDATA:;\n#METER:easy;\n"))
		assert.ErrorContains(t, err, "METER")
	})
}

func TestRoundTrip(t *testing.T) {
	sf, err := Parse(strings.NewReader(sscFixture))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, sf.Write(&sb))

	back, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)

	assert.Equal(t, sf.Title, back.Title)
	assert.Equal(t, sf.Offset, back.Offset)
	assert.Equal(t, sf.Extra, back.Extra)
	require.Len(t, back.Charts, 1)
	assert.Equal(t, sf.Charts[0].Meter, back.Charts[0].Meter)
	assert.Equal(t, sf.Charts[0].Notes.Rows(), back.Charts[0].Notes.Rows())
}

func TestWriteDefaults(t *testing.T) {
	sf := &Simfile{Title: "T"}
	var sb strings.Builder
	require.NoError(t, sf.Write(&sb))
	assert.Contains(t, sb.String(), "#VERSION:"+DefaultVersion+";")
}

func TestDisplayTitle(t *testing.T) {
	sf := &Simfile{Title: "曲名", TitleTranslit: "Song"}
	assert.Equal(t, "Song", sf.DisplayTitle())
	sf.TitleTranslit = ""
	assert.Equal(t, "曲名", sf.DisplayTitle())
}

func TestChartMutation(t *testing.T) {
	sf, err := Parse(strings.NewReader(sscFixture))
	require.NoError(t, err)

	chart := sf.Charts[0]
	chart.Notes = chart.Notes.ClearRange(notedata.PositionFromInt(0), notedata.PositionFromInt(2))
	assert.Equal(t, 2, chart.Notes.Len())

	var sb strings.Builder
	require.NoError(t, sf.Write(&sb))
	back, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, 2, back.Charts[0].Notes.Len())
}
