package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/sscpack/internal/mk"
)

// Options carries the configuration transforms may need at construction.
type Options struct {
	// Policy is the make DSL failure policy.
	Policy mk.Policy
}

var factories = map[string]func(Options) Transform{
	"Nothing":    func(Options) Transform { return Nothing{} },
	"NeatOffset": func(Options) Transform { return NeatOffset{} },
	"NameRegex":  func(Options) Transform { return NameRegex{} },
	"OggConvert": func(Options) Transform { return OggConvert{} },
	"Make":       func(o Options) Transform { return Make{Policy: o.Policy} },
}

// New constructs the named transform. Names are the exported type names;
// unknown names list the available set in the error.
func New(name string, opts Options) (Transform, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return factory(opts), nil
}

// Names returns every registered transform name, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
