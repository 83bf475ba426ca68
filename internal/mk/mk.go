package mk

import (
	"context"

	"github.com/vk/sscpack/internal/simfile"
)

// Execute parses a raw make block and runs it against sf under the given
// policy. This is the single entry point callers outside the package need;
// ParseCommands remains available for parse-only validation.
func Execute(ctx context.Context, raw any, sf *simfile.Simfile, policy Policy) (Result, error) {
	cmds, err := NewParser().ParseCommands(raw)
	if err != nil {
		return Result{}, err
	}
	return NewManager(policy).RunAll(ctx, cmds, sf)
}
