package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry is the startup-time map from short plugin name to Descriptor.
// Descriptors are registered once at process
// start and are immutable thereafter — there is no running lifecycle state
// to track beyond whether InitialSetup has fired.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]Descriptor
	setup  map[string]bool
	order  []string // registration order, for deterministic List()
	logger *slog.Logger
}

// NewRegistry creates an empty Plugin Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byID:   make(map[string]Descriptor),
		setup:  make(map[string]bool),
		logger: logger,
	}
}

// Register validates and adds a descriptor. Two descriptors sharing an ID
// fail with ErrDuplicatePlugin.
func (r *Registry) Register(d Descriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[d.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, d.ID)
	}
	r.byID[d.ID] = d
	r.order = append(r.order, d.ID)
	r.logger.Info("registered plugin", "id", d.ID, "tools", len(d.Tools))
	return nil
}

// Get returns a registered descriptor by id.
func (r *Registry) Get(id string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// List returns every registered descriptor, in registration order.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Enabled resolves a configuration's enabledPlugins list into descriptors,
// in priority order (core first), failing fast on any unknown name.
func (r *Registry) Enabled(names []string) ([]Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		d, ok := r.byID[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out, nil
}

// RunInitialSetup invokes a plugin's InitialSetup hook exactly once.
// Subsequent calls are no-ops; descriptors load once and stay immutable.
func (r *Registry) RunInitialSetup(ctx context.Context, id string) error {
	r.mu.Lock()
	d, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	if r.setup[id] || d.InitialSetup == nil {
		r.mu.Unlock()
		return nil
	}
	r.setup[id] = true
	r.mu.Unlock()

	return d.InitialSetup(ctx)
}
