package mk

import "fmt"

// Policy decides what a runtime command failure does to the rest of the run.
// It is pure dispatch: no retries, no backoff.
type Policy int

const (
	// PolicyStop aborts the current block; other blocks may still run.
	PolicyStop Policy = iota
	// PolicyStopAll aborts the block and tells the caller to run no further
	// blocks (the returned error matches ErrHalted).
	PolicyStopAll
	// PolicySkip records the failure, skips the failing command or loop
	// iteration only, and continues.
	PolicySkip
)

var policyNames = map[string]Policy{
	"stop":     PolicyStop,
	"stop_all": PolicyStopAll,
	"skip":     PolicySkip,
}

// ParsePolicy maps configuration names to policies.
func ParsePolicy(s string) (Policy, error) {
	if p, ok := policyNames[s]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("unknown failure policy %q (want stop, stop_all or skip)", s)
}

func (p Policy) String() string {
	for name, policy := range policyNames {
		if policy == p {
			return name
		}
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}
