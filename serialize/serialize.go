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

// Package serialize implements the serialization domain: a single-threaded
// cooperative executor that serializes scheduled work. Entering the domain
// means scheduling a closure on it; the domain guarantees that no two
// scheduled closures run concurrently and that closures run in schedule
// order. It is the analogue of a lock that is entered by scheduling rather
// than by blocking.
//
// A Serializer is shared between the channel that created it and every
// policy attached to it; sharing is tracked with Ref and Unref. When the
// last reference is released the domain stops accepting work, drains
// everything already queued, and exits.
package serialize

import (
	"sync"
	"sync/atomic"
)

// Serializer is a reference-counted single-goroutine work queue.
//
// Schedule never blocks and may be called from any goroutine, including
// from inside a closure the serializer is currently running.
type Serializer struct {
	refs atomic.Int32

	// wake has capacity 1; a send hints that queue or stopping changed.
	wake chan struct{}
	done chan struct{}

	mu sync.Mutex
	// +checklocks:mu
	queue []func()
	// +checklocks:mu
	stopping bool
}

// New creates a serializer and starts its goroutine. The caller holds the
// initial reference.
func New() *Serializer {
	s := &Serializer{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.refs.Store(1)
	go s.run()
	return s
}

// Schedule appends fn to the queue and returns true. It returns false,
// dropping fn, if the serializer has already begun stopping; callers that
// transferred resources into fn must release them on a false return.
func (s *Serializer) Schedule(fn func()) bool {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()
	s.notify()
	return true
}

// Ref acquires an additional reference on the serializer.
func (s *Serializer) Ref() {
	s.refs.Add(1)
}

// Unref releases a reference. When the count reaches zero the serializer
// rejects further Schedule calls, runs everything already queued (in
// order), and exits.
func (s *Serializer) Unref() {
	if s.refs.Add(-1) > 0 {
		return
	}
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()
	s.notify()
}

// Done returns a channel that is closed once the serializer goroutine has
// drained its queue and exited.
func (s *Serializer) Done() <-chan struct{} {
	return s.done
}

func (s *Serializer) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Serializer) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		stopping := s.stopping
		s.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if stopping {
			// Schedule rejects once stopping is set, so the queue only
			// holds work scheduled before the final Unref; loop until it
			// is empty.
			s.mu.Lock()
			empty := len(s.queue) == 0
			s.mu.Unlock()
			if empty {
				return
			}
			continue
		}

		if len(batch) > 0 {
			// More work may have arrived while the batch ran; re-check the
			// queue before sleeping so a coalesced wake is not lost.
			continue
		}
		<-s.wake
	}
}
