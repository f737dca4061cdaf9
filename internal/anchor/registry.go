package anchor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/klingon-exchange/forwarding-address/internal/errs"
)

// Registry is an immutable environment -> trust anchor table.
type Registry struct {
	anchors map[Environment]*TrustAnchor
}

// NewRegistry parses every source up front so a malformed anchor is reported
// at construction rather than at request time.
func NewRegistry(sources map[Environment]Source) (*Registry, error) {
	anchors := make(map[Environment]*TrustAnchor, len(sources))
	for env, src := range sources {
		if !env.Valid() {
			return nil, fmt.Errorf("%w: anchor for unknown %s", errs.ErrConfiguration, env)
		}
		a, err := ParseTrustAnchor(env, src)
		if err != nil {
			return nil, err
		}
		anchors[env] = a
	}
	return &Registry{anchors: anchors}, nil
}

var builtinRegistry = sync.OnceValues(func() (*Registry, error) {
	return NewRegistry(BuiltinSources())
})

// DefaultRegistry returns the registry of compiled-in anchors. It is parsed
// once per process.
func DefaultRegistry() (*Registry, error) {
	return builtinRegistry()
}

// Resolve returns the anchor for env.
func (r *Registry) Resolve(env Environment) (*TrustAnchor, error) {
	if !env.Valid() {
		return nil, fmt.Errorf("%w: unknown environment id %d", errs.ErrInvalidInput, uint8(env))
	}
	a, ok := r.anchors[env]
	if !ok {
		return nil, fmt.Errorf("%w: no trust anchor for %s", errs.ErrConfiguration, env)
	}
	return a, nil
}

// Environments lists the environments this registry can resolve, in ID order.
func (r *Registry) Environments() []Environment {
	envs := make([]Environment, 0, len(r.anchors))
	for env := range r.anchors {
		envs = append(envs, env)
	}
	sort.Slice(envs, func(i, j int) bool { return envs[i] < envs[j] })
	return envs
}

// Resolve looks env up in the default registry.
func Resolve(env Environment) (*TrustAnchor, error) {
	r, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	return r.Resolve(env)
}
