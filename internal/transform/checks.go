package transform

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/vk/sscpack/internal/simfile"
)

// Nothing inspects the simfile and does nothing. Useful as a pipeline smoke
// test: it proves parsing, dispatch and (absence of) write-back all work.
type Nothing struct{}

func (Nothing) Name() string { return "Nothing" }

func (Nothing) Apply(ctx context.Context, sf *simfile.Simfile) (bool, error) {
	logger(ctx).Debug("nothing happened", "title", sf.DisplayTitle())
	return false, nil
}

// NeatOffset warns when an offset is not a whole number of seconds. A clean
// offset makes it obvious at a glance whether a global sync adjustment has
// been applied yet. It never modifies the simfile.
type NeatOffset struct{}

func (NeatOffset) Name() string { return "NeatOffset" }

func (NeatOffset) Apply(ctx context.Context, sf *simfile.Simfile) (bool, error) {
	if err := checkOffset(ctx, sf, "", sf.Offset); err != nil {
		return false, err
	}
	for _, c := range sf.Charts {
		for _, item := range c.Extra {
			if item.Tag != "OFFSET" {
				continue
			}
			where := fmt.Sprintf("%s %s %d", c.GameType, c.Difficulty, c.Meter)
			if err := checkOffset(ctx, sf, where, item.Value); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

func checkOffset(ctx context.Context, sf *simfile.Simfile, chart, value string) error {
	if value == "" {
		return nil
	}
	offset, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("simfile %q has unparseable offset %q: %w", sf.DisplayTitle(), value, err)
	}
	if math.Mod(offset, 1) != 0 {
		logger(ctx).Warn("offset is messy",
			"title", sf.DisplayTitle(), "chart", chart, "offset", value)
	}
	return nil
}

// fileNamePattern is what portable simfile content should restrict itself to:
// some rhythm game installs still choke on spaces, uppercase or non-ASCII.
var fileNamePattern = regexp.MustCompile(`^[a-z0-9\-_.]*$`)

// NameRegex warns about files in the simfile's directory whose names fall
// outside fileNamePattern. It never modifies anything.
type NameRegex struct{}

func (NameRegex) Name() string { return "NameRegex" }

func (NameRegex) ApplyFile(ctx context.Context, sf *simfile.Simfile, target string) (bool, error) {
	dir := filepath.Dir(target)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("listing %q: %w", dir, err)
	}
	for _, entry := range entries {
		if !fileNamePattern.MatchString(entry.Name()) {
			logger(ctx).Warn("file name is not portable",
				"name", entry.Name(), "dir", dir, "pattern", fileNamePattern.String())
		}
	}
	return false, nil
}
