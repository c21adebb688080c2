package capability

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownCapability is returned by Resolve for unregistered names.
var ErrUnknownCapability = errors.New("unknown capability")

// Registry maps capability names to tool instances. It is constructed
// explicitly and passed into the engine at session start, so parallel test
// sessions can carry different tool sets.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, failing when the name is taken.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("capability %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Unregister removes a tool by name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Resolve returns the tool for a capability name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, name)
	}
	return t, nil
}

// Names returns all registered capability names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptions returns capability name → description for every registered tool.
func (r *Registry) Descriptions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descs := make(map[string]string, len(r.tools))
	for name, t := range r.tools {
		descs[name] = t.Description()
	}
	return descs
}

// Describe renders the registered tools as a prompt section so the planner
// can enumerate available capabilities without hard-coding them.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		t := r.tools[name]
		sb.WriteString(fmt.Sprintf("- %s: %s\n", name, t.Description()))

		params := t.Params()
		pnames := make([]string, 0, len(params))
		for p := range params {
			pnames = append(pnames, p)
		}
		sort.Strings(pnames)
		for _, p := range pnames {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", p, params[p]))
		}
	}
	return sb.String()
}
