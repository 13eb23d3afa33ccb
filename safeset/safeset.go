/* ============================================================= *\
   safeset.go

   Mutex-protected counters accumulated across concurrent block
   workers. Ported from the teacher's root safeset.go (a generic
   map[string]interface{} set/dump type used there for traceroute
   diagnostics) and specialized to named integer counters (what
   blocks.Run and rovpp.Run use) plus a string set, both safe to
   update from many goroutines at once.
\* ============================================================= */

package safeset

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Counters is a set of named counters, each independently
// incrementable from multiple goroutines.
type Counters struct {
	mux  sync.Mutex
	vals map[string]int64
}

// NewCounters returns an empty Counters.
func NewCounters() *Counters {
	return &Counters{vals: make(map[string]int64)}
}

// Add increments name by delta.
func (c *Counters) Add(name string, delta int64) {
	c.mux.Lock()
	c.vals[name] += delta
	c.mux.Unlock()
}

// Get returns the current value of name.
func (c *Counters) Get(name string) int64 {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.vals[name]
}

// String renders every counter, sorted by name, one per line --
// matching the teacher's SafeSet.String dump format.
func (c *Counters) String() string {
	c.mux.Lock()
	defer c.mux.Unlock()

	names := make([]string, 0, len(c.vals))
	for name := range c.vals {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(c.vals[name], 10))
		b.WriteByte('\n')
	}
	return b.String()
}

// Set is a mutex-protected string set, for collecting e.g. the
// distinct ASNs seen as bad neighbors across blocks.
type Set struct {
	mux sync.Mutex
	m   map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{m: make(map[string]struct{})}
}

// Add inserts key.
func (s *Set) Add(key string) {
	s.mux.Lock()
	s.m[key] = struct{}{}
	s.mux.Unlock()
}

// Contains reports whether key is present.
func (s *Set) Contains(key string) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	_, ok := s.m[key]
	return ok
}

// Len returns the number of distinct keys.
func (s *Set) Len() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.m)
}

// Keys returns every key currently in the set, in no particular order.
func (s *Set) Keys() []string {
	s.mux.Lock()
	defer s.mux.Unlock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}
