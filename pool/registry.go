package pool

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/satishbabariya/zorm/internal/debug"
)

// Registry holds every opened pool, preserving declaration order. Several
// pools may share a name; lookup prefers the first available one.
type Registry struct {
	mu     sync.RWMutex
	pools  []*Pool
	byName map[string][]*Pool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string][]*Pool{}}
}

// OpenRegistry opens one pool per config and registers them all. Opening
// is lazy, so a declared-but-unreachable database does not fail startup.
func OpenRegistry(configs ...*Config) (*Registry, error) {
	r := NewRegistry()
	for _, c := range configs {
		p, err := Open(c)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.Add(p)
	}
	return r, nil
}

// LoadRegistry reads every pool declaration for the dialect from the viper
// configuration and opens them.
func LoadRegistry(v *viper.Viper, name string, secretKey []byte) (*Registry, error) {
	configs, err := LoadConfigs(v, name, secretKey)
	if err != nil {
		return nil, err
	}
	return OpenRegistry(configs...)
}

// Add registers a pool under its configured name.
func (r *Registry) Add(p *Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools = append(r.pools, p)
	r.byName[p.Name()] = append(r.byName[p.Name()], p)
	debug.Debug("pool registered", "pool", p.Name(), "database", p.Config().Database)
}

// Get returns the first available pool registered under the name. When
// every candidate is marked unavailable the most recently registered one
// is returned anyway: a stale health verdict should degrade service, not
// remove it. Get returns nil when no pool carries the name.
func (r *Registry) Get(name string) *Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	candidates := r.byName[name]
	for _, p := range candidates {
		if p.Available() {
			return p
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[len(candidates)-1]
}

// Default returns the pool registered under the default name.
func (r *Registry) Default() *Pool {
	return r.Get("main")
}

// All returns every registered pool in registration order.
func (r *Registry) All() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Close shuts every pool down, collecting errors instead of stopping at
// the first one.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result *multierror.Error
	for _, p := range r.pools {
		if err := p.Close(); err != nil {
			result = multierror.Append(result,
				fmt.Errorf("close pool %q: %w", p.Name(), err))
		}
	}
	r.pools = nil
	r.byName = map[string][]*Pool{}
	return result.ErrorOrNil()
}
