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

// Package interest implements the interest set: the bundle of I/O-readiness
// registrations a policy accumulates so the channel can service them
// together. Registrations are anything with a teardown edge (watch tasks,
// probe loops, a child policy's own set), represented as io.Closer.
//
// The set owns its registrations: destroying the set closes everything
// still registered. A policy's interest set lives for the policy's entire
// lifetime and is destroyed exactly once, when the policy is destroyed.
package interest

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Set is an owned bundle of readiness registrations.
type Set struct {
	mu      sync.Mutex
	members map[Closer]struct{}
	closed  bool
}

// Closer is the registration handle stored in a Set.
type Closer interface {
	Close() error
}

// New creates an empty set.
func New() *Set {
	return &Set{members: make(map[Closer]struct{})}
}

// Add registers c with the set. It returns false, without closing c, if
// the set has already been destroyed or c is already present.
func (s *Set) Add(c Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if _, ok := s.members[c]; ok {
		return false
	}
	s.members[c] = struct{}{}
	return true
}

// Remove unregisters c without closing it, returning whether it was
// present. Policies remove registrations they hand off elsewhere before
// the set is destroyed.
func (s *Set) Remove(c Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[c]; !ok {
		return false
	}
	delete(s.members, c)
	return true
}

// Len returns the number of registrations currently in the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Close destroys the set, closing every remaining registration
// concurrently and returning the first error observed. Close is
// idempotent.
func (s *Set) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	members := s.members
	s.members = nil
	s.mu.Unlock()

	grp := errgroup.Group{}
	for member := range members {
		grp.Go(member.Close)
	}
	return grp.Wait()
}
