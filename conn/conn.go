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

// Package conn provides the representation of a subchannel: the logical
// connection to one resolved address that a policy creates through its
// channel and hands out through pickers. A subchannel is *logical*; the
// channel may back it with zero or more physical connections.
package conn

import (
	"github.com/lbkit/lbkit/attribute"
	"github.com/lbkit/lbkit/resolver"
)

// Conn is a subchannel handle. Policies obtain them from the channel,
// direct them to connect, and publish them through pickers. The channel
// owns the transport behind the handle.
type Conn interface {
	// ID returns a channel-unique identifier for this subchannel, for use
	// in diagnostic output.
	ID() int64
	// Connect begins establishing the underlying transport if it is not
	// already connecting or connected. It does not block.
	Connect()
	// Address returns the resolved address this subchannel was created for.
	Address() resolver.Address
	// UpdateAttributes replaces the attributes on this subchannel's address
	// with new values from the resolution layer.
	UpdateAttributes(attributes attribute.Values)
	// Close tears down the subchannel. After Close the handle must not be
	// published in new pickers.
	Close() error
}

// Conns represents a read-only set of subchannels.
type Conns interface {
	// Len returns the total number of subchannels in the set.
	Len() int
	// Get returns the subchannel at index i.
	Get(i int) Conn
}

// FromSlice returns a Conns view backed by the given slice. The slice must
// not be modified while the view is in use.
func FromSlice(conns []Conn) Conns {
	return connSlice(conns)
}

type connSlice []Conn

func (c connSlice) Len() int {
	return len(c)
}

func (c connSlice) Get(i int) Conn {
	return c[i]
}
