package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func relPaths(entries []Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, filepath.ToSlash(e.Rel))
	}
	sort.Strings(out)
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"pack/song.ssc":        "#VERSION:0.83;\n",
		"pack/audio.old":       "",
		"__private/secret.ssc": "",
		"notes.txt":            "",
	})

	t.Run("no ignores lists everything", func(t *testing.T) {
		entries, err := Walk(context.Background(), root, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"__private", "__private/secret.ssc", "notes.txt",
			"pack", "pack/audio.old", "pack/song.ssc",
		}, relPaths(entries))
	})

	t.Run("ignore patterns prune files and whole directories", func(t *testing.T) {
		ignore := []*regexp.Regexp{
			regexp.MustCompile(`^__`),
			regexp.MustCompile(`.*\.old$`),
		}
		entries, err := Walk(context.Background(), root, ignore)
		require.NoError(t, err)
		assert.Equal(t, []string{"notes.txt", "pack", "pack/song.ssc"}, relPaths(entries))
	})

	t.Run("missing root is an error", func(t *testing.T) {
		_, err := Walk(context.Background(), filepath.Join(root, "nope"), nil)
		assert.Error(t, err)
	})
}

func TestFilesWithExtension(t *testing.T) {
	entries := []Entry{
		{Rel: "pack", Dir: true},
		{Rel: filepath.Join("pack", "song.ssc")},
		{Rel: filepath.Join("pack", "audio.ogg")},
		{Rel: "weird.ssc", Dir: true},
	}
	assert.Equal(t, []string{filepath.Join("pack", "song.ssc")}, FilesWithExtension(entries, ".ssc"))
	assert.Panics(t, func() { FilesWithExtension(entries, "") })
}

func TestCopyEntries(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"pack/song.ssc": "content",
		"top.txt":       "hi",
	})
	entries, err := Walk(context.Background(), src, nil)
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyEntries(src, dst, entries))

	got, err := os.ReadFile(filepath.Join(dst, "pack", "song.ssc"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
	got, err = os.ReadFile(filepath.Join(dst, "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.ssc")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, WriteFileAtomic(path, []byte("new")))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	_, err = os.Stat(path + transformedSuffix)
	assert.True(t, os.IsNotExist(err))
}
