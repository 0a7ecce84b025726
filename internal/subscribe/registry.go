// Package subscribe tracks which teams the match forwarder reports on.
package subscribe

import (
	"sort"
	"strings"
	"sync"
)

// Registry is a concurrency-safe set of team names. Names compare
// case-insensitively and keep the spelling they were first followed with.
type Registry struct {
	mu    sync.RWMutex
	teams map[string]string // folded -> display
}

func NewRegistry(teams ...string) *Registry {
	r := &Registry{teams: map[string]string{}}
	r.Replace(teams)
	return r
}

func fold(name string) string { return strings.ToLower(strings.Join(strings.Fields(name), " ")) }

// Follow adds name and reports whether it was new.
func (r *Registry) Follow(name string) bool {
	key := fold(name)
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[key]; ok {
		return false
	}
	r.teams[key] = strings.Join(strings.Fields(name), " ")
	return true
}

// Unfollow removes name and reports whether it was present.
func (r *Registry) Unfollow(name string) bool {
	key := fold(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.teams[key]; !ok {
		return false
	}
	delete(r.teams, key)
	return true
}

func (r *Registry) Has(name string) bool {
	key := fold(name)
	if key == "" {
		return false
	}
	r.mu.RLock()
	_, ok := r.teams[key]
	r.mu.RUnlock()
	return ok
}

// HasAny reports whether any of names is followed.
func (r *Registry) HasAny(names ...string) bool {
	for _, n := range names {
		if r.Has(n) {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teams)
}

// List returns the followed teams sorted case-insensitively.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.teams))
	for k := range r.teams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.teams[k]
	}
	return out
}

// Replace swaps the whole set, used when the config is reloaded.
func (r *Registry) Replace(teams []string) {
	next := make(map[string]string, len(teams))
	for _, t := range teams {
		if k := fold(t); k != "" {
			if _, dup := next[k]; !dup {
				next[k] = strings.Join(strings.Fields(t), " ")
			}
		}
	}
	r.mu.Lock()
	r.teams = next
	r.mu.Unlock()
}
