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

// Package picker defines how a policy publishes pick decisions to the
// data plane.
//
// A Picker is a short-lived, immutable decision function. The policy
// publishes a new one through its channel whenever its state changes; the
// data plane evaluates whichever picker is current, possibly long after the
// policy has moved on or shut down. Pickers therefore carry everything they
// need and never reach back into mutable policy state. Any control-plane
// side effect a picker needs (such as waking an idle policy) must be
// expressed as a closure scheduled onto the policy's serialization domain.
package picker

import (
	"context"

	"github.com/lbkit/lbkit/attribute"
	"github.com/lbkit/lbkit/conn"
)

// Picker maps a pick request to a pick result. Implementations must be
// safe for concurrent use: picks for independent calls may be evaluated in
// parallel, on goroutines unrelated to the owning policy's domain.
type Picker interface {
	Pick(req *Request) Result
}

// Request carries the per-call metadata a picker may inspect. It is opaque
// to the policy base.
type Request struct {
	// Ctx is the context of the call being picked for.
	Ctx context.Context
	// Method is the full method name of the call, e.g.
	// "/acme.inventory.v1.Inventory/ListParts".
	Method string
	// Metadata holds additional call attributes set by the channel.
	Metadata attribute.Values
}

// Kind discriminates the variants of a Result.
type Kind int

const (
	// KindComplete means a subchannel was chosen and the call may proceed.
	KindComplete Kind = iota
	// KindQueue means the pick should be retried after the next picker
	// update.
	KindQueue
	// KindTransientFailure means the pick fails with the carried error.
	KindTransientFailure
)

func (k Kind) String() string {
	switch k {
	case KindComplete:
		return "COMPLETE"
	case KindQueue:
		return "QUEUE"
	case KindTransientFailure:
		return "TRANSIENT_FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of a pick: a tagged value holding exactly one of a
// chosen subchannel, a queue directive, or a transient failure.
type Result struct {
	// Kind selects the variant.
	Kind Kind
	// Conn is the chosen subchannel. Set only for KindComplete.
	Conn conn.Conn
	// Done, if non-nil, is invoked when the call completes, with the
	// call's final error. Pickers use it to track in-flight load.
	// Set only for KindComplete.
	Done func(error)
	// Err is the failure to report. Set only for KindTransientFailure.
	Err error
}

// Complete returns a Result that selects the given subchannel. done may be
// nil if the picker does not track call completion.
func Complete(c conn.Conn, done func(error)) Result {
	return Result{Kind: KindComplete, Conn: c, Done: done}
}

// Queue returns a Result instructing the data plane to retry the pick
// after the next picker update.
func Queue() Result {
	return Result{Kind: KindQueue}
}

// TransientFailure returns a Result that fails the pick with err.
func TransientFailure(err error) Result {
	return Result{Kind: KindTransientFailure, Err: err}
}

// ErrorPicker returns a picker that always fails with the given error.
// Policies publish it together with a TRANSIENT_FAILURE state when they
// have nothing usable to offer.
func ErrorPicker(err error) Picker {
	return errorPicker{err}
}

type errorPicker struct {
	err error
}

func (p errorPicker) Pick(_ *Request) Result {
	return TransientFailure(p.err)
}
