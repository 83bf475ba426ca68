package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/vk/sscpack/internal/app"
	"github.com/vk/sscpack/internal/config"
	"github.com/vk/sscpack/internal/mk"
	"github.com/vk/sscpack/internal/transform"
)

// defaultConfigFile is loaded from the working directory when --config is
// not given and the file exists.
const defaultConfigFile = "pack.hcl"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// counter counts the occurrences of a boolean flag.
type counter int

func (c *counter) String() string { return strconv.Itoa(int(*c)) }

func (c *counter) Set(string) error {
	*c++
	return nil
}

func (c *counter) IsBoolFlag() bool { return true }

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("sscpack", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
sscpack - package StepMania simfiles for distribution.

Usage:
  sscpack [options] INPUT_DIR OUTPUT_DIR

Copies INPUT_DIR into OUTPUT_DIR, skipping ignored files, then runs the
configured transforms over every .ssc simfile in the copy.

Options:
`)
		flagSet.PrintDefaults()
	}

	var ignore, transforms stringList
	var verbose, quiet counter
	flagSet.Var(&ignore, "ignore", "Skip objects whose base name matches this regex. Repeatable; replaces the default set.")
	flagSet.Var(&transforms, "transforms", fmt.Sprintf("Transform to run, in order. Repeatable. Available: %s.", strings.Join(transform.Names(), ", ")))
	onFailure := flagSet.String("on-failure", "", "Make DSL failure policy. Options: 'stop', 'stop_all' or 'skip'.")
	listOnly := flagSet.Bool("list-only", false, "List discovered simfile directories and stop.")
	configFile := flagSet.String("config", "", fmt.Sprintf("Path to the configuration file (default: %s if present).", defaultConfigFile))
	logLevel := flagSet.String("log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormat := flagSet.String("log-format", "", "Log output format. Options: 'auto', 'text' or 'json'.")
	flagSet.Var(&verbose, "v", "Output more detail (stacks).")
	flagSet.Var(&quiet, "q", "Output less detail (stacks).")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() != 2 {
		return nil, false, &ExitError{Code: 2, Message: "expected exactly two arguments: INPUT_DIR OUTPUT_DIR"}
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	// SSCPACK_* environment variables fill flags that were not given
	fromEnv(onFailure, "SSCPACK_ON_FAILURE")
	fromEnv(logLevel, "SSCPACK_LOG_LEVEL")
	fromEnv(logFormat, "SSCPACK_LOG_FORMAT")
	if len(transforms) == 0 {
		if v := os.Getenv("SSCPACK_TRANSFORMS"); v != "" {
			transforms = strings.Split(v, ",")
		}
	}

	if len(ignore) > 0 {
		if err := cfg.SetIgnore(ignore); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if len(transforms) > 0 {
		cfg.Transforms = transforms
	}
	if *onFailure != "" {
		policy, err := mk.ParsePolicy(*onFailure)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.Policy = policy
	}
	if *logLevel != "" {
		level, err := config.ParseLevel(*logLevel)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.LogLevel = level
	}
	if *logFormat != "" {
		format, err := config.ParseFormat(*logFormat)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg.LogFormat = format
	}
	cfg.LogLevel = adjustLevel(cfg.LogLevel, int(verbose), int(quiet))

	return &app.Config{
		Config:    cfg,
		InputDir:  flagSet.Arg(0),
		OutputDir: flagSet.Arg(1),
		ListOnly:  *listOnly,
	}, false, nil
}

// fromEnv fills an unset flag value from the environment.
func fromEnv(target *string, name string) {
	if *target == "" {
		*target = os.Getenv(name)
	}
}

// loadConfig resolves the configuration file: an explicit path must exist,
// the default path is used only when present.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return config.Load(defaultConfigFile)
}

// adjustLevel applies -v/-q counts on top of the configured level. Each -v
// is one step noisier, each -q one step quieter; steps are the 4-point gaps
// between the standard slog levels.
func adjustLevel(level slog.Level, verbose, quiet int) slog.Level {
	adjusted := level + slog.Level(4*(quiet-verbose))
	return min(max(adjusted, slog.LevelDebug), slog.LevelError)
}
