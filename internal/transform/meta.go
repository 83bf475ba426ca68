package transform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// maxKeyDepth bounds DataPath key paths; anything deeper is a transform bug.
const maxKeyDepth = 8

// loadMetaData locates and loads the metadata a MetaTransform asked for. The
// file is searched next to the copied simfile first, then next to the
// original, so authors may keep metadata out of the distributed tree. A
// missing file or key path is not an error: the transform sees nil data.
func loadMetaData(ctx context.Context, t MetaTransform, target, original string) (any, error) {
	file, keys := t.DataPath()
	if len(keys) > maxKeyDepth {
		return nil, fmt.Errorf("transform %q requested a key path deeper than %d", t.Name(), maxKeyDepth)
	}

	candidates := []string{
		filepath.Join(filepath.Dir(target), file),
		filepath.Join(filepath.Dir(original), file),
	}
	var raw []byte
	var path string
	for _, p := range candidates {
		b, err := os.ReadFile(p)
		if err == nil {
			raw, path = b, p
			break
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading metadata %q: %w", p, err)
		}
	}
	if path == "" {
		logger(ctx).Debug("no metadata file", "file", file, "searched", candidates)
		return nil, nil
	}
	logger(ctx).Debug("using metadata file", "path", path)

	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing metadata %q: %w", path, err)
	}

	for i, k := range keys {
		m, ok := data.(map[string]any)
		if !ok {
			logger(ctx).Debug("metadata key path hit a non-mapping", "path", path, "key", k)
			return nil, nil
		}
		data, ok = m[k]
		if !ok {
			logger(ctx).Debug("metadata key missing", "path", path, "key", k, "depth", i)
			return nil, nil
		}
	}
	return data, nil
}
