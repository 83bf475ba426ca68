package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/sscpack/internal/config"
	"github.com/vk/sscpack/internal/simfile"
	"github.com/vk/sscpack/internal/transform"
)

// simfileCacheSize bounds the parsed-simfile cache. Packs rarely hold more
// than a few dozen simfiles, so this mostly exists to cap memory on
// pathological input trees.
const simfileCacheSize = 64

// Config holds everything an App instance needs to run.
type Config struct {
	*config.Config

	InputDir  string
	OutputDir string
	// ListOnly stops after reporting the discovered simfiles.
	ListOnly bool
}

// App encapsulates the pipeline's dependencies, configuration and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	cfg        *Config
	transforms []transform.Transform
	// cache keeps parsed simfiles across transform steps so each stage on
	// the same target skips re-parsing.
	cache *lru.Cache[string, *simfile.Simfile]
}

// New is the constructor for the pipeline. It validates the configuration,
// resolves the transform list against the registry, and sets up an isolated
// logger writing to outW.
func New(outW io.Writer, cfg *Config) (*App, error) {
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return nil, errors.New("input and output directories are required")
	}
	if cfg.Config == nil {
		cfg.Config = config.Default()
	}

	transforms := make([]transform.Transform, 0, len(cfg.Transforms))
	for _, name := range cfg.Transforms {
		t, err := transform.New(name, transform.Options{Policy: cfg.Policy})
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}

	cache, err := lru.New[string, *simfile.Simfile](simfileCacheSize)
	if err != nil {
		return nil, err
	}

	return &App{
		outW:       outW,
		logger:     newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		cfg:        cfg,
		transforms: transforms,
		cache:      cache,
	}, nil
}

// checkPaths rejects directory layouts that would make the copy step eat its
// own input.
func (a *App) checkPaths() error {
	if _, err := os.Stat(a.cfg.InputDir); err != nil {
		return fmt.Errorf("input directory: %w", err)
	}
	in, err := filepath.Abs(a.cfg.InputDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(a.cfg.OutputDir)
	if err != nil {
		return err
	}
	if in == out {
		return fmt.Errorf("input and output both resolve to %q, which would overwrite files", in)
	}
	sep := string(filepath.Separator)
	if strings.HasPrefix(out, in+sep) {
		return errors.New("output directory is inside the input directory, which could overwrite files")
	}
	if strings.HasPrefix(in, out+sep) {
		return errors.New("input directory is inside the output directory, which could overwrite files")
	}
	return nil
}

// loadSimfile parses the simfile at path, consulting the cache first.
func (a *App) loadSimfile(path string) (*simfile.Simfile, error) {
	if sf, ok := a.cache.Get(path); ok {
		return sf, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sf, err := simfile.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	a.cache.Add(path, sf)
	return sf, nil
}
