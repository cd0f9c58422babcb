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

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lbkit/lbkit/interest"
	"github.com/lbkit/lbkit/logger"
	"github.com/lbkit/lbkit/serialize"
	"golang.org/x/time/rate"
)

// defaultReresolveMinInterval bounds how often a policy can push the
// channel into re-resolution; storms of unusable subchannels otherwise
// translate directly into resolver load.
const defaultReresolveMinInterval = 5 * time.Second

// Args carries the construction inputs for a policy.
type Args struct {
	// Serializer is the channel's control-plane domain, shared by the
	// channel and every policy attached to it. Required.
	Serializer *serialize.Serializer
	// Controller is the channel control interface. The policy takes
	// ownership; shutdown releases it. Required.
	Controller Controller
	// Logger receives refcount traces and lifecycle diagnostics. Defaults
	// to a nop logger.
	Logger logger.Logger
	// InitialRefs is the starting reference count. Defaults to 1: the
	// channel's orphan reference. Parent policies creating children that
	// immediately hand out extra references may pass a higher count.
	InitialRefs int32
	// ReresolveMinInterval throttles RequestReresolution. Zero selects
	// the 5s default; a negative value disables the throttle.
	ReresolveMinInterval time.Duration
}

// Base carries the state and lifecycle every policy shares. Concrete
// policies embed *Base and implement the *Locked operations of [Policy].
//
// Construction does not enter the serialization domain; callers invoking
// any *Locked operation right after construction are responsible for being
// on it.
type Base struct {
	name       string
	id         string
	serializer *serialize.Serializer
	interests  *interest.Set
	log        logger.Logger
	shutdown   func()
	reresolve  *rate.Limiter

	// controller is owned until shutdown releases it. Accessed only from
	// the serialization domain.
	controller Controller

	refs        atomic.Int32
	destroyOnce sync.Once
	destroyed   chan struct{}
}

// NewBase constructs the shared base of a policy named name. shutdown is
// the concrete policy's ShutdownLocked hook: it runs on the serialization
// domain, exactly once, when the policy is orphaned, and must cancel
// pending work and tear down children so that any closures still queued
// behind it become no-ops.
//
// NewBase acquires an additional reference on the serializer (released at
// destruction), creates a fresh interest set, and takes ownership of the
// controller. It panics if Serializer or Controller is nil; that is a
// programming error, not a recoverable condition.
func NewBase(name string, args Args, shutdown func()) *Base {
	if args.Serializer == nil {
		panic("lbkit: NewBase called without a serializer")
	}
	if args.Controller == nil {
		panic("lbkit: NewBase called without a controller")
	}
	log := args.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	refs := args.InitialRefs
	if refs <= 0 {
		refs = 1
	}
	interval := args.ReresolveMinInterval
	if interval == 0 {
		interval = defaultReresolveMinInterval
	}
	var limiter *rate.Limiter
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	args.Serializer.Ref()
	b := &Base{
		name:       name,
		serializer: args.Serializer,
		interests:  interest.New(),
		log:        log,
		shutdown:   shutdown,
		reresolve:  limiter,
		controller: args.Controller,
		destroyed:  make(chan struct{}),
	}
	b.id = fmt.Sprintf("%s policy %p", name, b)
	b.refs.Store(refs)
	log.Debugf("%s: created with %d refs", b.id, refs)
	return b
}

// Name returns the policy name passed to NewBase.
func (b *Base) Name() string {
	return b.name
}

// Serializer returns the policy's serialization domain.
func (b *Base) Serializer() *serialize.Serializer {
	return b.serializer
}

// InterestSet returns the policy's interest set. It exists for the entire
// lifetime of the policy and is destroyed with it.
func (b *Base) InterestSet() *interest.Set {
	return b.interests
}

// Controller returns the channel control interface, or nil once shutdown
// has released it. Must only be called from the serialization domain.
func (b *Base) Controller() Controller {
	return b.controller
}

// Logger returns the policy's logger.
func (b *Base) Logger() logger.Logger {
	return b.log
}

// Ref acquires a reference on the policy. The reason appears in refcount
// traces.
func (b *Base) Ref(reason string) {
	refs := b.refs.Add(1)
	b.log.Debugf("%s: ref %d -> %d (%s)", b.id, refs-1, refs, reason)
}

// Unref releases a reference. When the count reaches zero the policy is
// destroyed: the interest set is closed and the serializer reference is
// released. By then the shutdown hook has already run and the controller
// has been released; see Orphan.
func (b *Base) Unref(reason string) {
	refs := b.refs.Add(-1)
	b.log.Debugf("%s: ref %d -> %d (%s)", b.id, refs+1, refs, reason)
	if refs == 0 {
		b.destroyOnce.Do(b.destroy)
	}
}

// Orphan is called by the channel when it releases its reference to the
// policy. It schedules a single closure on the serialization domain that
// runs the shutdown hook, releases the controller (closing it if it
// implements io.Closer), and drops the orphan reference.
//
// Shutdown is funneled through the domain even when the caller is already
// on it: destruction must be strictly ordered after every closure already
// scheduled for this policy, and scheduling makes that hold uniformly
// instead of at some call sites.
func (b *Base) Orphan() {
	b.log.Debugf("%s: orphaned", b.id)
	// The base's own serializer reference keeps the domain accepting work
	// until after destruction, so this cannot be rejected.
	b.serializer.Schedule(func() {
		if b.shutdown != nil {
			b.shutdown()
		}
		if closer, ok := b.controller.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				b.log.Warnf("%s: closing controller: %v", b.id, err)
			}
		}
		b.controller = nil
		b.Unref("orphan")
	})
}

// Done returns a channel closed when the policy has been destroyed, i.e.
// after shutdown completed and the last reference was released.
func (b *Base) Done() <-chan struct{} {
	return b.destroyed
}

// RequestReresolution asks the channel to re-run name resolution, subject
// to the policy's re-resolution throttle. Must only be called from the
// serialization domain; after shutdown it is a no-op.
func (b *Base) RequestReresolution() {
	if b.controller == nil {
		return
	}
	if b.reresolve != nil && !b.reresolve.Allow() {
		return
	}
	b.controller.RequestReresolution()
}

// FillChildRefs implements the default for leaf policies: no children.
// Policies that manage subchannels or delegate to child policies override
// it.
func (b *Base) FillChildRefs(*ChildRefs) {}

func (b *Base) policyBase() *Base { return b }

func (b *Base) destroy() {
	if err := b.interests.Close(); err != nil {
		b.log.Warnf("%s: closing interest set: %v", b.id, err)
	}
	b.serializer.Unref()
	b.log.Debugf("%s: destroyed", b.id)
	close(b.destroyed)
}
