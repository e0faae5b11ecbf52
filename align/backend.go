package align

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Backend describes a matcher implementation that may or may not be usable
// on the current host.
type Backend struct {
	Name string
	// Probe returns nil if the backend can run here.
	Probe func() error
	// New constructs the matcher. It is only called after a successful
	// probe.
	New func() Matcher
	// Fallback names the backend to use when the probe fails.
	Fallback string
}

// Selection records which backend was asked for and which one runs.
type Selection struct {
	Requested string `json:"requested"`
	Actual    string `json:"actual"`
	Fallback  bool   `json:"fallback"`
	// Reason is the probe failure that caused the fallback.
	Reason string `json:"reason,omitempty"`
}

// String implements fmt.Stringer.
func (s Selection) String() string {
	if !s.Fallback {
		return s.Actual
	}
	return fmt.Sprintf("%s (fallback from %s: %s)", s.Actual, s.Requested, s.Reason)
}

var errNotLinked = errors.E(errors.NotSupported, "native library not linked into this binary")

var (
	mu       sync.Mutex
	backends = map[string]Backend{}
	// probes caches probe results so that each backend is probed once per
	// process.
	probes = map[string]error{}
)

func init() {
	Register(Backend{Name: "myers", New: func() Matcher { return Myers{} }})
	Register(Backend{Name: "sw", New: func() Matcher { return NewGotoh() }})
	// edlib and parasail are C libraries. A cgo build registers working
	// backends under these names; otherwise they fall back to the Go
	// implementations of the same algorithms.
	Register(Backend{Name: "edlib", Probe: func() error { return errNotLinked }, Fallback: "myers"})
	Register(Backend{Name: "parasail", Probe: func() error { return errNotLinked }, Fallback: "sw"})
}

// Register adds or replaces a backend.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	backends[b.Name] = b
	delete(probes, b.Name)
}

// Backends returns the sorted names of registered backends.
func Backends() []string {
	mu.Lock()
	defer mu.Unlock()
	var names []string
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func probeLocked(b Backend) error {
	err, ok := probes[b.Name]
	if !ok {
		if b.Probe != nil {
			err = b.Probe()
		}
		if err == nil && b.New == nil {
			err = errNotLinked
		}
		probes[b.Name] = err
	}
	return err
}

// Select returns a matcher for the named backend. If the backend is
// unavailable, its fallback chain is followed and the substitution is
// recorded in the returned Selection. Unknown names are an error.
func Select(name string) (Matcher, Selection, error) {
	mu.Lock()
	defer mu.Unlock()
	sel := Selection{Requested: name}
	seen := map[string]bool{}
	for cur := strings.ToLower(name); ; {
		b, ok := backends[cur]
		if !ok {
			return nil, sel, errors.E(errors.Invalid, fmt.Sprintf("unknown alignment backend %q", cur))
		}
		if seen[cur] {
			return nil, sel, errors.E(errors.Invalid, fmt.Sprintf("fallback cycle at backend %q", cur))
		}
		seen[cur] = true
		err := probeLocked(b)
		if err == nil {
			sel.Actual = cur
			if sel.Fallback {
				log.Printf("align: backend %s unavailable (%s), using %s", name, sel.Reason, cur)
			}
			return b.New(), sel, nil
		}
		if b.Fallback == "" {
			return nil, sel, errors.E(errors.Unavailable, err, fmt.Sprintf("alignment backend %q", cur))
		}
		if !sel.Fallback {
			sel.Fallback, sel.Reason = true, err.Error()
		}
		cur = b.Fallback
	}
}
