package oauth

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps provider names to authenticators. Lookups are safe for
// concurrent use; registration is expected at startup.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Authenticator
	opts  []Option
}

// NewRegistry creates a registry whose authenticators share opts.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{items: make(map[string]*Authenticator), opts: opts}
}

// DefaultRegistry returns a registry with every built-in strategy.
func DefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	for _, s := range BuiltinStrategies() {
		r.Register(s)
	}
	return r
}

// BuiltinStrategies lists the strategies shipped with this package.
func BuiltinStrategies() []Strategy {
	return []Strategy{
		Basecamp{},
		Discord{},
		Facebook{},
		GitHub{},
		GitLab{},
		Google{},
		Instagram{},
		NewOIDC(),
		VK{},
	}
}

// Register adds or replaces the strategy under its name.
func (r *Registry) Register(s Strategy) {
	r.RegisterAs(s.Name(), s)
}

// RegisterAs adds or replaces s under name, so one strategy can back several
// providers, e.g. two OpenID Connect issuers.
func (r *Registry) RegisterAs(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[name] = NewAuthenticator(s, r.opts...)
}

// Builtin returns a fresh built-in strategy called name.
func Builtin(name string) (Strategy, bool) {
	for _, s := range BuiltinStrategies() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Get returns the authenticator for name or ErrUnknownProvider.
func (r *Registry) Get(name string) (*Authenticator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.items[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return a, nil
}

// Names returns registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
