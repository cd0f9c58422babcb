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
	"encoding/json"
	"fmt"

	"github.com/lbkit/lbkit/chanargs"
	"github.com/lbkit/lbkit/conn"
	"github.com/lbkit/lbkit/connectivity"
	"github.com/lbkit/lbkit/picker"
	"github.com/lbkit/lbkit/resolver"
)

// Policy is a load-balancing policy attached to a channel. Methods
// suffixed "Locked" must only be invoked from the policy's serialization
// domain; Orphan may be invoked from anywhere.
//
// Implementations must embed [*Base], which supplies Name, Orphan,
// FillChildRefs, and the lifecycle plumbing.
type Policy interface {
	// Name returns the stable identifier of the concrete policy, e.g.
	// "round_robin".
	Name() string
	// UpdateLocked ingests a new update payload and reconciles internal
	// state with it. It may publish a new picker and state through the
	// policy's Controller.
	UpdateLocked(args UpdateArgs)
	// ExitIdleLocked transitions the policy out of an idle state,
	// typically by initiating subchannel connection attempts. It is
	// idempotent when the policy is not idle.
	ExitIdleLocked()
	// ResetBackoffLocked resets any internal connection-backoff timers so
	// the next attempt happens promptly.
	ResetBackoffLocked()
	// FillChildRefs appends the policy's child policies and subchannels
	// to refs, for diagnostic output.
	FillChildRefs(refs *ChildRefs)
	// Orphan declares that the channel no longer needs the policy and
	// begins the shutdown sequence.
	Orphan()

	policyBase() *Base
}

// Factory creates Policy instances. One factory is registered per policy
// name; see Registry.
type Factory interface {
	// Name returns the policy name this factory builds, as it appears in
	// config envelopes.
	Name() string
	// New creates a policy. The returned policy is idle; the channel
	// drives it with UpdateLocked from the serialization domain in args.
	New(args Args) Policy
}

// ConfigParser is optionally implemented by factories that accept
// policy-specific configuration. The channel calls it with the config
// subtree selected by [ParseConfig].
type ConfigParser interface {
	ParseConfig(raw json.RawMessage) (PolicyConfig, error)
}

// PolicyConfig is a parsed, immutable policy-specific configuration
// object, produced by a [ConfigParser] and delivered back to the policy
// inside [UpdateArgs].
type PolicyConfig interface {
	// PolicyName returns the name of the policy this config is for.
	PolicyName() string
}

// Controller is the channel control interface: the upward callbacks a
// policy uses to act on its channel. The policy owns its Controller from
// construction until shutdown releases it; all calls happen on the
// policy's serialization domain.
type Controller interface {
	// NewSubchannel creates a subchannel to the given address, carrying
	// the given channel arguments. The second return is false if the
	// channel is shutting down and no subchannel could be created.
	NewSubchannel(addr resolver.Address, args *chanargs.Args) (conn.Conn, bool)
	// UpdateState publishes the policy's connectivity state together with
	// the picker the data plane should use from now on.
	UpdateState(state connectivity.State, p picker.Picker)
	// RequestReresolution asks the channel to re-run name resolution.
	RequestReresolution()
	// AddTraceEvent records a trace event against the channel's
	// diagnostic node.
	AddTraceEvent(severity TraceSeverity, desc string)
}

// TraceSeverity classifies trace events reported through
// [Controller.AddTraceEvent].
type TraceSeverity int

const (
	TraceInfo TraceSeverity = iota
	TraceWarning
	TraceError
)

func (s TraceSeverity) String() string {
	switch s {
	case TraceInfo:
		return "INFO"
	case TraceWarning:
		return "WARNING"
	case TraceError:
		return "ERROR"
	default:
		return fmt.Sprintf("TraceSeverity(%d)", int(s))
	}
}

// ChannelzRef identifies one node in the channel's diagnostic tree.
type ChannelzRef struct {
	ID   int64
	Name string
}

// ChildRefs collects the diagnostic children of a policy: the policies it
// delegates to and the subchannels it manages.
type ChildRefs struct {
	Policies    []ChannelzRef
	Subchannels []ChannelzRef
}
