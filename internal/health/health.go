// Package health aggregates readiness checks for the crogentx API.
package health

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one named check
type Status struct {
	Name      string `json:"name"`
	Healthy   bool   `json:"healthy"`
	Detail    string `json:"detail,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

// Checker probes one dependency. It should honour ctx.
type Checker func(ctx context.Context) Status

// Registry runs a set of named checkers. Registering a name twice replaces
// the earlier checker while keeping its position.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	byName map[string]Checker
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Checker)}
}

func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		r.names = append(r.names, name)
	}
	r.byName[name] = check
}

// Names returns the registered check names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// CheckAll runs every checker concurrently. Results keep registration order
// and the aggregate is healthy only when each check is.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	names := slices.Clone(r.names)
	checks := make([]Checker, len(names))
	for i, name := range names {
		checks[i] = r.byName[name]
	}
	r.mu.RUnlock()

	statuses = make([]Status, len(names))
	var g errgroup.Group
	for i := range checks {
		g.Go(func() error {
			start := time.Now()
			st := checks[i](ctx)
			if st.Name == "" {
				st.Name = names[i]
			}
			st.LatencyMS = time.Since(start).Milliseconds()
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	healthy = true
	for _, st := range statuses {
		if !st.Healthy {
			healthy = false
		}
	}
	return healthy, statuses
}
