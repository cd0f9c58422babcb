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

// Package chanargs implements the channel-argument bag delivered to a
// policy with every update. The bag is a keyed property bundle with value
// semantics: copying a bag yields independent storage, and values that
// represent real resources are cloned and released through explicit hooks,
// exactly once each. This isolates policies from the manual lifetime
// management of the resources a channel threads through its arguments
// (connection factories, stats sinks, and the like).
package chanargs

import "io"

// Resource is implemented by argument values that carry their own
// lifetime. Clone is invoked when the owning bag is copied; Close is
// invoked exactly once when the owning bag is released.
type Resource interface {
	io.Closer
	// Clone returns an independent handle to the resource. The clone's
	// Close releases only the clone.
	Clone() Resource
}

// Args is a bag of channel arguments. A nil *Args behaves as an empty,
// already-released bag: Clone returns nil and Close is a no-op.
type Args struct {
	vals   map[string]any
	closed bool
}

// New creates an empty bag.
func New() *Args {
	return &Args{vals: make(map[string]any)}
}

// Set stores a value under key and returns the bag for chaining. Plain
// values are stored as-is; values implementing Resource participate in the
// bag's clone/close lifecycle. Setting over an existing Resource value
// closes the old value.
//
// Set on a nil or released bag stores nothing; the caller keeps ownership
// of val and must release it itself if it is a Resource.
func (a *Args) Set(key string, val any) *Args {
	if a == nil || a.closed {
		return a
	}
	if old, ok := a.vals[key].(Resource); ok {
		_ = old.Close()
	}
	a.vals[key] = val
	return a
}

// Get returns the value stored under key.
func (a *Args) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	val, ok := a.vals[key]
	return val, ok
}

// GetString returns the string stored under key, or def if the key is
// absent or holds a non-string.
func (a *Args) GetString(key, def string) string {
	if val, ok := a.Get(key); ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return def
}

// GetInt returns the int stored under key, or def if the key is absent or
// holds a non-int.
func (a *Args) GetInt(key string, def int) int {
	if val, ok := a.Get(key); ok {
		if n, ok := val.(int); ok {
			return n
		}
	}
	return def
}

// Len returns the number of arguments in the bag.
func (a *Args) Len() int {
	if a == nil {
		return 0
	}
	return len(a.vals)
}

// Clone returns a deep copy of the bag. Resource values are cloned through
// their Clone hook; everything else is copied by assignment. Cloning a nil
// or released bag returns nil.
func (a *Args) Clone() *Args {
	if a == nil || a.closed {
		return nil
	}
	vals := make(map[string]any, len(a.vals))
	for key, val := range a.vals {
		if res, ok := val.(Resource); ok {
			vals[key] = res.Clone()
			continue
		}
		vals[key] = val
	}
	return &Args{vals: vals}
}

// Close releases the bag, closing every Resource value exactly once. The
// first error encountered is returned. Close is idempotent and safe on a
// nil bag.
func (a *Args) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true
	var firstErr error
	for key, val := range a.vals {
		if res, ok := val.(Resource); ok {
			if err := res.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(a.vals, key)
	}
	return firstErr
}
