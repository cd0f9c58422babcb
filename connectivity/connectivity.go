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

// Package connectivity defines the aggregate connectivity states a policy
// reports to its channel alongside each published picker.
package connectivity

import "fmt"

// State is the aggregate connectivity state of a policy.
type State int

const (
	// Idle means the policy has no connection activity and is waiting for
	// picks (or an explicit exit-idle request) before connecting.
	Idle State = iota
	// Connecting means at least one subchannel is attempting to connect and
	// none is ready.
	Connecting
	// Ready means at least one subchannel is usable for picks.
	Ready
	// TransientFailure means all connection attempts have failed; the policy
	// is backing off before retrying.
	TransientFailure
	// Shutdown means the policy has been orphaned and will publish no
	// further state.
	Shutdown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Connecting:
		return "CONNECTING"
	case Ready:
		return "READY"
	case TransientFailure:
		return "TRANSIENT_FAILURE"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}
