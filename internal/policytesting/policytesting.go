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

// Package policytesting provides fakes and helpers for testing policies
// built on the lbkit base: a fake channel controller, fake subchannels, a
// recording stub policy, and a checker that detects concurrent entry into
// code that is supposed to be serialized.
package policytesting

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lbkit/lbkit"
	"github.com/lbkit/lbkit/attribute"
	"github.com/lbkit/lbkit/chanargs"
	"github.com/lbkit/lbkit/conn"
	"github.com/lbkit/lbkit/connectivity"
	"github.com/lbkit/lbkit/picker"
	"github.com/lbkit/lbkit/resolver"
	"github.com/lbkit/lbkit/serialize"
	"golang.org/x/sync/errgroup"
)

// FakeConn is a conn.Conn for tests. It records Connect and Close calls
// and is otherwise inert. To create instances, use a FakeController.
type FakeConn struct {
	// Index is the 1-based creation order within the controller; it
	// doubles as the subchannel's diagnostic ID.
	Index int

	addr atomic.Pointer[resolver.Address]
	// +checkatomic
	connects atomic.Int32
	// +checkatomic
	closed atomic.Bool
}

// ID implements conn.Conn.
func (c *FakeConn) ID() int64 {
	return int64(c.Index)
}

// Connect implements conn.Conn. It only counts the call.
func (c *FakeConn) Connect() {
	c.connects.Add(1)
}

// Address implements conn.Conn.
func (c *FakeConn) Address() resolver.Address {
	return *c.addr.Load()
}

// UpdateAttributes implements conn.Conn.
func (c *FakeConn) UpdateAttributes(values attribute.Values) {
	addr := c.Address()
	addr.Attributes = values
	c.addr.Store(&addr)
}

// Close implements conn.Conn.
func (c *FakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

// Connects returns how many times Connect was called.
func (c *FakeConn) Connects() int {
	return int(c.connects.Load())
}

// IsClosed reports whether Close was called.
func (c *FakeConn) IsClosed() bool {
	return c.closed.Load()
}

// StateUpdate is one (state, picker) publication observed by a
// FakeController.
type StateUpdate struct {
	State  connectivity.State
	Picker picker.Picker
}

// TraceEvent is one event recorded through AddTraceEvent.
type TraceEvent struct {
	Severity lbkit.TraceSeverity
	Desc     string
}

// FakeController implements lbkit.Controller (and io.Closer) for tests.
// Subchannels it creates are *FakeConn values marked with a sequential
// Index, starting at 1.
type FakeController struct {
	pickerUpdate chan struct{}

	mu sync.Mutex
	// +checklocks:mu
	index int
	// +checklocks:mu
	conns []*FakeConn
	// +checklocks:mu
	states []StateUpdate
	// +checklocks:mu
	resolveNow int
	// +checklocks:mu
	traces []TraceEvent
	// +checklocks:mu
	closed bool
}

// NewFakeController constructs a FakeController.
func NewFakeController() *FakeController {
	return &FakeController{pickerUpdate: make(chan struct{}, 1)}
}

// NewSubchannel implements lbkit.Controller.
func (f *FakeController) NewSubchannel(addr resolver.Address, _ *chanargs.Args) (conn.Conn, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	f.index++
	newConn := &FakeConn{Index: f.index}
	newConn.addr.Store(&addr)
	f.conns = append(f.conns, newConn)
	return newConn, true
}

// UpdateState implements lbkit.Controller. Test code can await a
// publication with AwaitStateUpdate.
func (f *FakeController) UpdateState(state connectivity.State, p picker.Picker) {
	f.mu.Lock()
	f.states = append(f.states, StateUpdate{State: state, Picker: p})
	f.mu.Unlock()
	select {
	case f.pickerUpdate <- struct{}{}:
	default:
	}
}

// RequestReresolution implements lbkit.Controller.
func (f *FakeController) RequestReresolution() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveNow++
}

// AddTraceEvent implements lbkit.Controller.
func (f *FakeController) AddTraceEvent(severity lbkit.TraceSeverity, desc string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traces = append(f.traces, TraceEvent{Severity: severity, Desc: desc})
}

// Close marks the controller released. The policy base closes its
// controller during shutdown when it implements io.Closer.
func (f *FakeController) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (f *FakeController) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Conns returns the subchannels created so far.
func (f *FakeController) Conns() []*FakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeConn, len(f.conns))
	copy(out, f.conns)
	return out
}

// States returns every (state, picker) publication so far, oldest first.
func (f *FakeController) States() []StateUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]StateUpdate, len(f.states))
	copy(out, f.states)
	return out
}

// LatestState returns the most recent publication, if any.
func (f *FakeController) LatestState() (StateUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return StateUpdate{}, false
	}
	return f.states[len(f.states)-1], true
}

// ResolveNowCount returns how many re-resolution requests got through.
func (f *FakeController) ResolveNowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resolveNow
}

// TraceEvents returns the events recorded so far.
func (f *FakeController) TraceEvents() []TraceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TraceEvent, len(f.traces))
	copy(out, f.traces)
	return out
}

// AwaitStateUpdate blocks until some UpdateState call has happened since
// the last await (or before the first one), or until ctx is done.
func (f *FakeController) AwaitStateUpdate(ctx context.Context) error {
	select {
	case <-f.pickerUpdate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EntryChecker detects concurrent entry into code that must be mutually
// exclusive. Every serialized operation brackets itself with Enter:
//
//	defer checker.Enter()()
//
// Violations counts the times two brackets overlapped.
type EntryChecker struct {
	// +checkatomic
	active atomic.Int32
	// +checkatomic
	violations atomic.Int32
}

// Enter marks entry and returns the corresponding exit function.
func (c *EntryChecker) Enter() func() {
	if c.active.Add(1) != 1 {
		c.violations.Add(1)
	}
	return func() {
		c.active.Add(-1)
	}
}

// Violations returns the number of concurrent entries observed.
func (c *EntryChecker) Violations() int {
	return int(c.violations.Load())
}

// StubPolicy is a minimal concrete policy for exercising the base: it
// records every operation, checks serialized entry, and turns into a
// no-op once its shutdown hook has run.
type StubPolicy struct {
	*lbkit.Base

	// Entry flags concurrent entry into the *Locked operations.
	Entry EntryChecker

	// Optional hooks, invoked on the serialization domain after the
	// corresponding operation is recorded.
	OnUpdate       func(lbkit.UpdateArgs)
	OnExitIdle     func()
	OnShutdown     func()

	// +checkatomic
	updates atomic.Int32
	// +checkatomic
	exitIdle atomic.Int32
	// +checkatomic
	resetBackoff atomic.Int32
	// +checkatomic
	shutdown atomic.Bool
}

// NewStubPolicy constructs a stub policy on the given base args.
func NewStubPolicy(name string, args lbkit.Args) *StubPolicy {
	p := &StubPolicy{}
	p.Base = lbkit.NewBase(name, args, p.shutdownLocked)
	return p
}

// UpdateLocked implements lbkit.Policy.
func (p *StubPolicy) UpdateLocked(args lbkit.UpdateArgs) {
	defer p.Entry.Enter()()
	if p.shutdown.Load() {
		return
	}
	p.updates.Add(1)
	if p.OnUpdate != nil {
		p.OnUpdate(args)
	}
}

// ExitIdleLocked implements lbkit.Policy.
func (p *StubPolicy) ExitIdleLocked() {
	defer p.Entry.Enter()()
	if p.shutdown.Load() {
		return
	}
	p.exitIdle.Add(1)
	if p.OnExitIdle != nil {
		p.OnExitIdle()
	}
}

// ResetBackoffLocked implements lbkit.Policy.
func (p *StubPolicy) ResetBackoffLocked() {
	defer p.Entry.Enter()()
	p.resetBackoff.Add(1)
}

func (p *StubPolicy) shutdownLocked() {
	defer p.Entry.Enter()()
	p.shutdown.Store(true)
	if p.OnShutdown != nil {
		p.OnShutdown()
	}
}

// Updates returns how many UpdateLocked calls were recorded.
func (p *StubPolicy) Updates() int {
	return int(p.updates.Load())
}

// ExitIdleCalls returns how many ExitIdleLocked calls were recorded.
func (p *StubPolicy) ExitIdleCalls() int {
	return int(p.exitIdle.Load())
}

// ResetBackoffCalls returns how many ResetBackoffLocked calls were
// recorded.
func (p *StubPolicy) ResetBackoffCalls() int {
	return int(p.resetBackoff.Load())
}

// ShutdownCalled reports whether the shutdown hook has run.
func (p *StubPolicy) ShutdownCalled() bool {
	return p.shutdown.Load()
}

var _ lbkit.Policy = (*StubPolicy)(nil)

// PickConcurrently evaluates p from n goroutines at once, simulating a
// data-plane pick storm, and returns the n results.
func PickConcurrently(p picker.Picker, n int) []picker.Result {
	results := make([]picker.Result, n)
	start := make(chan struct{})
	var grp errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		grp.Go(func() error {
			<-start
			results[i] = p.Pick(&picker.Request{
				Ctx:    context.Background(),
				Method: "/test.v1.Test/Call",
			})
			return nil
		})
	}
	close(start)
	_ = grp.Wait()
	return results
}

// FlushSerializer waits until everything scheduled on s before the call
// has run, or until ctx is done.
func FlushSerializer(ctx context.Context, s *serialize.Serializer) error {
	ran := make(chan struct{})
	if !s.Schedule(func() { close(ran) }) {
		// Already stopping; pending work drains before Done is closed.
		select {
		case <-s.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case <-ran:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
