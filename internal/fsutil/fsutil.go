// Package fsutil provides file system utility functions.
package fsutil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vk/sscpack/internal/ctxlog"
)

// Entry is one object discovered under a walk root.
type Entry struct {
	// Rel is the path relative to the walk root, in the platform's separator.
	Rel string
	Dir bool
}

// Walk lists every file and directory under root, skipping any object whose
// base name matches one of the ignore patterns. Ignoring a directory prunes
// its whole subtree. The root itself is not listed and never ignored.
func Walk(ctx context.Context, root string, ignore []*regexp.Regexp) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		for _, pattern := range ignore {
			if pattern.MatchString(d.Name()) {
				ctxlog.FromContext(ctx).Debug("ignored by pattern",
					"path", path, "pattern", pattern.String())
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Rel: rel, Dir: d.IsDir()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", root, err)
	}
	return entries, nil
}

// FilesWithExtension returns the Rel paths of non-directory entries whose
// name ends in ext.
func FilesWithExtension(entries []Entry, ext string) []string {
	if ext == "" {
		panic("extension must not be empty")
	}
	var files []string
	for _, e := range entries {
		if !e.Dir && strings.HasSuffix(e.Rel, ext) {
			files = append(files, e.Rel)
		}
	}
	return files
}

// CopyFile copies a regular file, creating or truncating dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %q to %q: %w", src, dst, err)
	}
	return out.Close()
}

// CopyEntries mirrors walked entries from srcRoot into dstRoot, creating
// directories and copying files. dstRoot itself is created if needed.
func CopyEntries(srcRoot, dstRoot string, entries []Entry) error {
	if err := os.MkdirAll(dstRoot, 0o755); err != nil {
		return err
	}
	for _, e := range entries {
		dst := filepath.Join(dstRoot, e.Rel)
		if e.Dir {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := CopyFile(filepath.Join(srcRoot, e.Rel), dst); err != nil {
			return err
		}
	}
	return nil
}

// transformedSuffix names the staging file used while swapping new content
// over an existing file.
const transformedSuffix = ".transformed"

// WriteFileAtomic stages data next to path and renames it over the target,
// so readers never observe a half-written file.
func WriteFileAtomic(path string, data []byte) error {
	staged := path + transformedSuffix
	if err := os.WriteFile(staged, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(staged, path); err != nil {
		os.Remove(staged)
		return fmt.Errorf("replacing %q: %w", path, err)
	}
	return nil
}
