package chunker

import (
	"fmt"
	"sort"
	"sync"
)

// Strategy names.
const (
	StrategyWindow    = "window"
	StrategyRecursive = "recursive"
)

// Registry maps strategy names to chunkers.
type Registry struct {
	mu       sync.RWMutex
	chunkers map[string]Chunker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chunkers: make(map[string]Chunker)}
}

// DefaultRegistry registers the word window chunker with the given
// parameters and the recursive chunker with its length-dependent sizing.
func DefaultRegistry(windowSize, windowOverlap int) (*Registry, error) {
	w, err := NewWindowChunker(windowSize, windowOverlap)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	r.Register(StrategyWindow, w)
	r.Register(StrategyRecursive, NewRecursiveChunker())
	return r, nil
}

// Register adds a chunker under the given name, replacing any previous one.
func (r *Registry) Register(name string, c Chunker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunkers[name] = c
}

// Lookup returns the chunker registered under name.
func (r *Registry) Lookup(name string) (Chunker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.chunkers[name]
	if !ok {
		return nil, fmt.Errorf("unknown chunking strategy %q (available: %v)", name, r.namesLocked())
	}
	return c, nil
}

// Names returns the registered strategy names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.chunkers))
	for name := range r.chunkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
