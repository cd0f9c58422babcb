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

// Package backoff provides the connection-backoff machinery concrete
// policies build their retry behavior on. Exponential computes delays; a
// Timer arms one pending attempt at a time and delivers it as a closure on
// the policy's serialization domain, so the attempt runs with the same
// mutual exclusion as every other policy operation. Timer.Reset is the
// mechanism ResetBackoffLocked implementations use to cut short an
// in-progress backoff.
package backoff

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lbkit/lbkit/internal"
	"github.com/lbkit/lbkit/serialize"
)

// Config holds the parameters for exponential backoff.
type Config struct {
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// Multiplier is the factor by which the delay grows per retry.
	Multiplier float64
	// Jitter is the proportional randomization applied to each delay,
	// e.g. 0.2 for +/-20%.
	Jitter float64
	// MaxDelay is the cap applied before jitter.
	MaxDelay time.Duration
}

// DefaultConfig matches the customary client-channel reconnection curve.
var DefaultConfig = Config{
	BaseDelay:  1 * time.Second,
	Multiplier: 1.6,
	Jitter:     0.2,
	MaxDelay:   120 * time.Second,
}

// Exponential computes exponentially growing, jittered delays. The zero
// value uses DefaultConfig.
type Exponential struct {
	Config Config
}

// Duration returns the delay to apply before attempt number retries
// (zero-based). The first attempt waits BaseDelay; each subsequent attempt
// grows by Multiplier up to MaxDelay, with Jitter applied last.
func (e Exponential) Duration(retries int) time.Duration {
	cfg := e.Config
	if cfg == (Config{}) {
		cfg = DefaultConfig
	}
	backoff := float64(cfg.BaseDelay)
	maxDelay := float64(cfg.MaxDelay)
	for backoff < maxDelay && retries > 0 {
		backoff *= cfg.Multiplier
		retries--
	}
	if backoff > maxDelay {
		backoff = maxDelay
	}
	backoff *= 1 + cfg.Jitter*(randFloat()*2-1)
	if backoff < 0 {
		return 0
	}
	return time.Duration(backoff)
}

var rng = struct {
	sync.Mutex
	*rand.Rand
}{Rand: internal.NewRand()}

func randFloat() float64 {
	rng.Lock()
	defer rng.Unlock()
	return rng.Float64()
}

// Timer arms at most one pending retry attempt at a time and runs it on
// the given serialization domain. It is safe for concurrent use, but the
// expected callers are closures already running on the domain.
type Timer struct {
	serializer *serialize.Serializer
	strategy   Exponential
	clock      internal.Clock

	mu sync.Mutex
	// +checklocks:mu
	pending internal.Timer
	// +checklocks:mu
	pendingFn func()
	// +checklocks:mu
	retries int
}

// NewTimer creates a Timer that schedules attempts onto s using the given
// backoff strategy.
func NewTimer(s *serialize.Serializer, strategy Exponential) *Timer {
	return &Timer{
		serializer: s,
		strategy:   strategy,
		clock:      internal.NewRealClock(),
	}
}

// SetTimerClock replaces the timer's clock. Only for tests.
func SetTimerClock(t *Timer, clock internal.Clock) {
	t.clock = clock
}

// AfterNext arms the next attempt: fn will run on the serialization domain
// after the current backoff delay, which AfterNext returns. Any previously
// pending attempt is replaced. Each call advances the retry count.
func (t *Timer) AfterNext(fn func()) time.Duration {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
	}
	delay := t.strategy.Duration(t.retries)
	t.retries++
	t.pendingFn = fn
	t.pending = t.clock.AfterFunc(delay, t.fire)
	t.mu.Unlock()
	return delay
}

// Retries returns the number of attempts armed since the last Reset.
func (t *Timer) Retries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.retries
}

// Reset zeroes the retry count and, if an attempt is pending, fires it
// immediately instead of waiting out its delay.
func (t *Timer) Reset() {
	t.mu.Lock()
	t.retries = 0
	timer, fn := t.pending, t.pendingFn
	t.pending, t.pendingFn = nil, nil
	t.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
	// Exactly one of Reset and fire observes the non-nil fn, so the
	// attempt cannot run twice.
	if fn != nil {
		t.serializer.Schedule(fn)
	}
}

// Stop cancels any pending attempt without running it. The retry count is
// preserved.
func (t *Timer) Stop() {
	t.mu.Lock()
	timer := t.pending
	t.pending, t.pendingFn = nil, nil
	t.mu.Unlock()
	if timer != nil {
		timer.Stop()
	}
}

func (t *Timer) fire() {
	t.mu.Lock()
	fn := t.pendingFn
	t.pending, t.pendingFn = nil, nil
	t.mu.Unlock()
	if fn != nil {
		t.serializer.Schedule(fn)
	}
}
