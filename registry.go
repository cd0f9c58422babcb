// Copyright 2025 The lbkit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lbkit

import "sync"

// Registry maps policy names to factories. Channels consult it when
// parsing config envelopes and when instantiating the selected policy.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	mu sync.RWMutex
	// +checklocks:mu
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds f under its Name. Registering the same name again
// replaces the previous factory.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.Name()] = f
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Contains reports whether a factory is registered under name.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// DefaultRegistry is the registry used by the package-level Register and
// Get functions, and by ParseConfig when called with a nil registry.
//
//nolint:gochecknoglobals
var DefaultRegistry = NewRegistry()

// Register adds f to DefaultRegistry. Typically called from a policy
// package's init function.
func Register(f Factory) {
	DefaultRegistry.Register(f)
}

// Get returns the factory registered in DefaultRegistry under name.
func Get(name string) (Factory, bool) {
	return DefaultRegistry.Get(name)
}
