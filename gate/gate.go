// Package gate is the authorization checkpoint of the API. Policies are
// registered per resource type and consulted by services before a loaded
// resource is returned or mutated.
//
// The subject type is generic; the CRM uses Gate[uint] keyed by owner id.
package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Gate maps resource types to the policy guarding them.
type Gate[U comparable] struct {
	mu       sync.RWMutex
	policies map[string]Policy[U]
}

func New[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register installs p for resourceType, replacing any previous policy.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies[resourceType] = p
}

// Authorize returns nil when subject may perform action on resource.
// A zero subject is always denied.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthorized
	}
	g.mu.RLock()
	p, ok := g.policies[resourceType]
	g.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPolicyDefined, resourceType)
	}
	if !p.Can(ctx, subject, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}

// ResourceTypes lists the registered resource types, sorted.
func (g *Gate[U]) ResourceTypes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.policies))
	for k := range g.policies {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
