package transform

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/sscpack/internal/ctxlog"
	"github.com/vk/sscpack/internal/mk"
	"github.com/vk/sscpack/internal/notedata"
	"github.com/vk/sscpack/internal/simfile"
)

func testSimfile(t *testing.T) *simfile.Simfile {
	t.Helper()
	nd, err := notedata.FromSM("1000\n0100\n0010\n0001")
	require.NoError(t, err)
	return &simfile.Simfile{
		Title:  "song",
		Offset: "-1.000000",
		Charts: []*simfile.Chart{{GameType: "dance-single", Notes: nd}},
	}
}

// captureCtx returns a context whose logger writes to the returned buffer.
func captureCtx(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger), &buf
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"Make", "NameRegex", "NeatOffset", "Nothing", "OggConvert"}, Names())

	for _, name := range Names() {
		tr, err := New(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, tr.Name())
	}

	_, err := New("Frobnicate", Options{})
	assert.ErrorContains(t, err, `unknown transform "Frobnicate"`)
}

func TestNothing(t *testing.T) {
	ctx, _ := captureCtx(t)
	sf := testSimfile(t)
	changed, err := Apply(ctx, Nothing{}, sf, "/tmp/song.ssc", "/tmp/song.ssc")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestNeatOffset(t *testing.T) {
	t.Run("whole-second offset passes silently", func(t *testing.T) {
		ctx, buf := captureCtx(t)
		changed, err := NeatOffset{}.Apply(ctx, testSimfile(t))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.NotContains(t, buf.String(), "messy")
	})

	t.Run("fractional offset warns", func(t *testing.T) {
		ctx, buf := captureCtx(t)
		sf := testSimfile(t)
		sf.Offset = "-0.009000"
		changed, err := NeatOffset{}.Apply(ctx, sf)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Contains(t, buf.String(), "messy")
	})

	t.Run("chart-level offset is checked too", func(t *testing.T) {
		ctx, buf := captureCtx(t)
		sf := testSimfile(t)
		sf.Charts[0].Extra = append(sf.Charts[0].Extra, simfile.Item{Tag: "OFFSET", Value: "0.500000"})
		_, err := NeatOffset{}.Apply(ctx, sf)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "messy")
	})

	t.Run("unparseable offset is an error", func(t *testing.T) {
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)
		sf.Offset = "pi"
		_, err := NeatOffset{}.Apply(ctx, sf)
		assert.ErrorContains(t, err, "unparseable offset")
	})
}

func TestNameRegex(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"song.ssc", "audio.ogg", "Jacket Art.PNG"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	ctx, buf := captureCtx(t)
	changed, err := NameRegex{}.ApplyFile(ctx, testSimfile(t), filepath.Join(dir, "song.ssc"))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Contains(t, buf.String(), "Jacket Art.PNG")
	assert.NotContains(t, buf.String(), "audio.ogg")
}

func TestOggConvert(t *testing.T) {
	t.Run("no music declared", func(t *testing.T) {
		ctx, buf := captureCtx(t)
		sf := testSimfile(t)
		changed, err := OggConvert{}.ApplyFile(ctx, sf, filepath.Join(t.TempDir(), "song.ssc"))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Contains(t, buf.String(), "no audio file")
	})

	t.Run("missing music file", func(t *testing.T) {
		ctx, buf := captureCtx(t)
		sf := testSimfile(t)
		sf.Music = "audio.wav"
		changed, err := OggConvert{}.ApplyFile(ctx, sf, filepath.Join(t.TempDir(), "song.ssc"))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Contains(t, buf.String(), "nonexistent music")
	})

	t.Run("already ogg", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.ogg"), nil, 0o644))
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)
		sf.Music = "audio.ogg"
		changed, err := OggConvert{}.ApplyFile(ctx, sf, filepath.Join(dir, "song.ssc"))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, "audio.ogg", sf.Music)
	})
}

const makeMetadata = `
title: irrelevant
make:
  - erase:
      chart: 0
      offset: 0
      len: 2
`

func writeMetadata(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, metadataFile), []byte(content), 0o644))
}

func TestMake(t *testing.T) {
	t.Run("runs commands from metadata", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, makeMetadata)
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)
		target := filepath.Join(dir, "song.ssc")

		changed, err := Apply(ctx, Make{}, sf, target, target)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 2, sf.Charts[0].Notes.Len())
	})

	t.Run("metadata next to the original is found", func(t *testing.T) {
		outDir, inDir := t.TempDir(), t.TempDir()
		writeMetadata(t, inDir, makeMetadata)
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)

		changed, err := Apply(ctx, Make{}, sf,
			filepath.Join(outDir, "song.ssc"), filepath.Join(inDir, "song.ssc"))
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 2, sf.Charts[0].Notes.Len())
	})

	t.Run("no metadata file means no change", func(t *testing.T) {
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)
		target := filepath.Join(t.TempDir(), "song.ssc")
		changed, err := Apply(ctx, Make{}, sf, target, target)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 4, sf.Charts[0].Notes.Len())
	})

	t.Run("metadata without a make key means no change", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "title: only\n")
		ctx, _ := captureCtx(t)
		sf := testSimfile(t)
		target := filepath.Join(dir, "song.ssc")
		changed, err := Apply(ctx, Make{}, sf, target, target)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("parse errors surface", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "make:\n  - frobnicate: 1\n")
		ctx, _ := captureCtx(t)
		target := filepath.Join(dir, "song.ssc")
		_, err := Apply(ctx, Make{}, testSimfile(t), target, target)
		require.Error(t, err)
		var parseErr *mk.ParseError
		assert.ErrorAs(t, err, &parseErr)
	})

	t.Run("skip policy records failures but succeeds", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, `
make:
  - erase:
      chart: 9
      offset: 0
      len: 1
  - erase:
      chart: 0
      offset: 0
      len: 1
`)
		ctx, buf := captureCtx(t)
		sf := testSimfile(t)
		target := filepath.Join(dir, "song.ssc")

		changed, err := Apply(ctx, Make{Policy: mk.PolicySkip}, sf, target, target)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Contains(t, buf.String(), "skipped commands")
		assert.Equal(t, 3, sf.Charts[0].Notes.Len())
	})

	t.Run("stop_all surfaces the halt sentinel", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "make:\n  - erase:\n      chart: 9\n      offset: 0\n      len: 1\n")
		ctx, _ := captureCtx(t)
		target := filepath.Join(dir, "song.ssc")
		_, err := Apply(ctx, Make{Policy: mk.PolicyStopAll}, testSimfile(t), target, target)
		assert.ErrorIs(t, err, mk.ErrHalted)
	})
}
