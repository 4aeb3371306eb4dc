package target

import (
	"sort"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/config"
	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

// Registry holds the configured targets in configuration order.
type Registry struct {
	targets []Target
	byName  map[string]int
}

// New creates a registry from targets. Names must be unique.
func New(targets []Target) (*Registry, error) {
	r := &Registry{
		targets: make([]Target, 0, len(targets)),
		byName:  make(map[string]int, len(targets)),
	}
	for _, t := range targets {
		if t.Name == "" {
			t.Name = t.Address()
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, errors.Configf("duplicate target name %q", t.Name)
		}
		r.byName[t.Name] = len(r.targets)
		r.targets = append(r.targets, t)
	}
	return r, nil
}

// NewRegistry creates a registry from configuration.
// Returns error if a password_env variable is unset or names collide.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	targets := make([]Target, 0, len(cfg.Servers))
	for i, s := range cfg.Servers {
		t := Target{
			Name: s.Name,
			Host: s.Host,
			Port: s.Port,
		}
		if s.Credentials != nil {
			password, err := s.Credentials.ResolvePassword()
			if err != nil {
				return nil, errors.Wrapf(err, "servers[%d]", i)
			}
			t.Credentials = &Credentials{User: s.Credentials.User, Password: password}
		}
		targets = append(targets, t)
	}
	return New(targets)
}

// Get retrieves a target by name.
func (r *Registry) Get(name string) (Target, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Target{}, false
	}
	return r.targets[i], true
}

// All returns all targets in configuration order.
func (r *Registry) All() []Target {
	out := make([]Target, len(r.targets))
	copy(out, r.targets)
	return out
}

// Len returns the number of targets.
func (r *Registry) Len() int {
	return len(r.targets)
}

// Names returns all target names sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the named targets in configuration order.
// An empty selection returns every target. Unknown names are a config error.
func (r *Registry) Select(names []string) ([]Target, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	want := make(map[string]bool, len(names))
	var unknown []string
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		want[name] = true
	}
	if len(unknown) > 0 {
		return nil, errors.Configf("unknown target(s): %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}

	var selected []Target
	for _, t := range r.targets {
		if want[t.Name] {
			selected = append(selected, t)
		}
	}
	return selected, nil
}
