package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/sscpack/internal/simfile"
)

// OggConvert re-encodes the referenced audio file to Ogg Vorbis, the format
// StepMania handles best, and points the simfile at the new file. Requires
// the oggenc binary on PATH; when it is missing the transform logs and
// leaves the simfile alone.
type OggConvert struct{}

func (OggConvert) Name() string { return "OggConvert" }

func (OggConvert) ApplyFile(ctx context.Context, sf *simfile.Simfile, target string) (bool, error) {
	log := logger(ctx)
	if sf.Music == "" {
		log.Warn("simfile specifies no audio file", "target", target)
		return false, nil
	}

	music := filepath.Join(filepath.Dir(target), filepath.FromSlash(sf.Music))
	if _, err := os.Stat(music); err != nil {
		log.Error("simfile references nonexistent music", "target", target, "music", sf.Music)
		return false, nil
	}
	if strings.EqualFold(filepath.Ext(music), ".ogg") {
		log.Info("audio is already Ogg Vorbis, doing nothing", "music", sf.Music)
		return false, nil
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "oggenc", "--quality=8", music)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			log.Error("oggenc unavailable")
			return false, nil
		}
		return false, fmt.Errorf("oggenc on %q: %w\n%s", music, err, stderr.String())
	}

	ext := filepath.Ext(sf.Music)
	sf.Music = strings.TrimSuffix(sf.Music, ext) + ".ogg"
	if err := os.Remove(music); err != nil {
		return true, fmt.Errorf("removing replaced audio %q: %w", music, err)
	}
	return true, nil
}
