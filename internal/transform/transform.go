// Package transform defines the pipeline stages that run over each packaged
// simfile. A transform is one of three kinds, dispatched by interface:
//
//   - SimfileTransform works on the parsed simfile alone.
//   - FileTransform additionally sees the file's location on disk.
//   - MetaTransform additionally receives configuration data loaded from a
//     metadata file next to the simfile.
//
// Transforms report whether they changed the simfile; the caller is
// responsible for writing changed simfiles back to disk.
package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/sscpack/internal/ctxlog"
	"github.com/vk/sscpack/internal/simfile"
)

// Transform is the common surface of all pipeline stages. Concrete behavior
// lives in the kind interfaces below; Apply dispatches on them.
type Transform interface {
	Name() string
}

// SimfileTransform operates on the in-memory simfile only.
type SimfileTransform interface {
	Transform
	Apply(ctx context.Context, sf *simfile.Simfile) (changed bool, err error)
}

// FileTransform operates on the simfile and its on-disk location. target is
// the path of the copied simfile inside the output tree.
type FileTransform interface {
	Transform
	ApplyFile(ctx context.Context, sf *simfile.Simfile, target string) (changed bool, err error)
}

// MetaTransform operates on the simfile plus data loaded from a metadata file
// in the simfile's directory. data is nil when no metadata was found, and the
// transform must treat that as "nothing to do".
type MetaTransform interface {
	Transform
	// DataPath names the metadata file (relative to the simfile directory)
	// and the key path to follow inside it.
	DataPath() (file string, keys []string)
	ApplyMeta(ctx context.Context, sf *simfile.Simfile, target string, data any) (changed bool, err error)
}

// Apply runs one transform against the parsed simfile at target. original is
// the pre-copy path of the same simfile in the input tree; metadata files are
// looked up next to both. The returned flag reports whether sf was modified
// and needs to be written back.
func Apply(ctx context.Context, t Transform, sf *simfile.Simfile, target, original string) (bool, error) {
	ctx = ctxlog.With(ctx, "transform", t.Name())
	switch impl := t.(type) {
	case SimfileTransform:
		return impl.Apply(ctx, sf)
	case FileTransform:
		return impl.ApplyFile(ctx, sf, target)
	case MetaTransform:
		data, err := loadMetaData(ctx, impl, target, original)
		if err != nil {
			return false, err
		}
		return impl.ApplyMeta(ctx, sf, target, data)
	}
	return false, fmt.Errorf("transform %q implements no known kind", t.Name())
}

func logger(ctx context.Context) *slog.Logger {
	return ctxlog.FromContext(ctx)
}
