package transform

import (
	"context"
	"fmt"

	"github.com/vk/sscpack/internal/mk"
	"github.com/vk/sscpack/internal/simfile"
)

// metadataFile is where transforms expect per-simfile configuration,
// relative to the simfile's directory.
const metadataFile = "__metadata.yaml"

// Make runs the make DSL found under the `make` key of the simfile's
// metadata file. No metadata, or metadata without that key, means no work.
type Make struct {
	// Policy decides what a failing command does to the rest of the block
	// and, under mk.PolicyStopAll, to the rest of the pipeline.
	Policy mk.Policy
}

func (Make) Name() string { return "Make" }

func (Make) DataPath() (string, []string) { return metadataFile, []string{"make"} }

func (t Make) ApplyMeta(ctx context.Context, sf *simfile.Simfile, target string, data any) (bool, error) {
	if data == nil {
		return false, nil
	}
	res, err := mk.Execute(ctx, data, sf, t.Policy)
	if err != nil {
		return false, fmt.Errorf("make on %q: %w", target, err)
	}
	if res.Failed() {
		logger(ctx).Warn("make finished with skipped commands",
			"target", target, "failures", len(res.Failures))
	}
	return true, nil
}
