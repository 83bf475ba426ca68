package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/vk/sscpack/internal/ctxlog"
	"github.com/vk/sscpack/internal/fsutil"
	"github.com/vk/sscpack/internal/mk"
	"github.com/vk/sscpack/internal/transform"
)

// simfileExt is the StepMania 5 simfile extension this tool packages.
const simfileExt = ".ssc"

// Run executes the pipeline: walk the input tree, copy it into the output
// tree, then run every configured transform over every copied simfile.
//
// A failing transform stops work on that simfile and the pipeline moves to
// the next one; Run then reports the failure count. The one exception is the
// make DSL's stop_all policy, which aborts the whole run via mk.ErrHalted.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if err := a.checkPaths(); err != nil {
		return err
	}

	entries, err := fsutil.Walk(ctx, a.cfg.InputDir, a.cfg.Ignore)
	if err != nil {
		return err
	}

	simfiles := fsutil.FilesWithExtension(entries, simfileExt)
	a.logger.Info("found simfiles", "count", len(simfiles), "dirs", simfileDirs(simfiles))

	if a.cfg.ListOnly {
		return nil
	}

	start := time.Now()
	if err := fsutil.CopyEntries(a.cfg.InputDir, a.cfg.OutputDir, entries); err != nil {
		return err
	}
	a.logger.Info("copied input tree",
		"objects", len(entries), "elapsed", time.Since(start).Round(time.Millisecond))

	start = time.Now()
	failed := 0
	for _, rel := range simfiles {
		target := filepath.Join(a.cfg.OutputDir, rel)
		original := filepath.Join(a.cfg.InputDir, rel)
		if err := a.transformSimfile(ctx, target, original); err != nil {
			if errors.Is(err, mk.ErrHalted) {
				a.logger.Error("run halted", "target", target, "error", err)
				return err
			}
			a.logger.Error("simfile failed", "target", target, "error", err)
			failed++
		}
	}
	a.logger.Info("transformed simfiles",
		"count", len(simfiles)-failed, "failed", failed,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d simfiles failed", failed, len(simfiles))
	}
	a.logger.Info("finished")
	return nil
}

// transformSimfile runs the whole transform list over one simfile, writing
// the file back after every stage that changed it.
func (a *App) transformSimfile(ctx context.Context, target, original string) error {
	for _, t := range a.transforms {
		sf, err := a.loadSimfile(target)
		if err != nil {
			return err
		}

		stageStart := time.Now()
		changed, err := transform.Apply(ctx, t, sf, target, original)
		if err != nil {
			// the in-memory state may be half-transformed now
			a.cache.Remove(target)
			return fmt.Errorf("transform %q: %w", t.Name(), err)
		}
		if changed {
			var buf bytes.Buffer
			if err := sf.Write(&buf); err != nil {
				a.cache.Remove(target)
				return fmt.Errorf("serializing after %q: %w", t.Name(), err)
			}
			if err := fsutil.WriteFileAtomic(target, buf.Bytes()); err != nil {
				a.cache.Remove(target)
				return err
			}
		}
		a.logger.Debug("transform done", "transform", t.Name(), "target", target,
			"changed", changed, "elapsed", time.Since(stageStart).Round(time.Millisecond))
	}
	return nil
}

// simfileDirs lists the directories containing simfiles, for the discovery log.
func simfileDirs(simfiles []string) []string {
	dirs := make([]string, len(simfiles))
	for i, s := range simfiles {
		dirs[i] = filepath.Dir(s)
	}
	return dirs
}
