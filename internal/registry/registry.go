// Package registry maps transporter names to the factories building them.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/frankli0324/go-transporter/internal/config"
	"github.com/frankli0324/go-transporter/internal/model"
)

type Factory func(cfg *config.Config, log *zap.Logger) (model.Transporter, error)

type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func New() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds f under name. Registering a name twice keeps the first
// factory and reports false. Empty names and nil factories are ignored.
func (r *Registry) Register(name string, f Factory) bool {
	if name == "" || f == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return false
	}
	r.factories[name] = f
	return true
}

func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Build looks up name and calls its factory.
func (r *Registry) Build(name string, cfg *config.Config, log *zap.Logger) (model.Transporter, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown transporter %q (registered: %v)", name, r.Names())
	}
	return f(cfg, log)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
