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

// Package resolver defines the resolved endpoint descriptors a channel
// delivers to its load-balancing policy. Name resolution itself is
// channel-side machinery; policies only consume its results.
package resolver

import "github.com/lbkit/lbkit/attribute"

// Address is a single resolved endpoint: an address plus whatever opaque
// metadata the resolution layer attached to it.
type Address struct {
	// HostPort stores the host:port pair of the resolved address.
	HostPort string

	// Attributes is a collection of arbitrary key/value pairs attached by
	// the resolution layer. See the attribute package for typed access.
	Attributes attribute.Values
}

// CloneAddresses returns an independent copy of the given address list.
// Policies that retain a resolver result beyond the call that delivered it
// should copy it first; the channel may reuse the backing slice.
func CloneAddresses(addrs []Address) []Address {
	if addrs == nil {
		return nil
	}
	clone := make([]Address, len(addrs))
	copy(clone, addrs)
	return clone
}
