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
	"github.com/lbkit/lbkit/chanargs"
	"github.com/lbkit/lbkit/resolver"
)

// UpdateArgs is the update payload the channel delivers to a policy on
// each refresh: the resolved endpoint list, the policy-specific parsed
// config, and the channel-argument bag.
//
// Addresses and Config are immutable and shared across copies. The bag is
// owned: Clone deep-copies it, Take transfers it, Close releases it
// exactly once. Policies that hold on to a payload past UpdateLocked must
// take or clone it.
type UpdateArgs struct {
	// Addresses is the ordered list of resolved endpoint descriptors.
	Addresses []resolver.Address
	// Config is the policy-specific parsed configuration, or nil.
	Config PolicyConfig

	bag *chanargs.Args
}

// NewUpdateArgs assembles a payload, taking ownership of bag. A nil bag is
// valid and behaves as empty.
func NewUpdateArgs(addrs []resolver.Address, cfg PolicyConfig, bag *chanargs.Args) UpdateArgs {
	return UpdateArgs{Addresses: addrs, Config: cfg, bag: bag}
}

// Args borrows the channel-argument bag without transferring ownership.
// It returns nil if the payload's bag has been moved away or released.
func (u *UpdateArgs) Args() *chanargs.Args {
	return u.bag
}

// Clone returns a copy of the payload with an independent deep copy of
// the channel-argument bag. Addresses and Config are shared.
func (u *UpdateArgs) Clone() UpdateArgs {
	return UpdateArgs{
		Addresses: u.Addresses,
		Config:    u.Config,
		bag:       u.bag.Clone(),
	}
}

// Take moves the payload: the result owns the bag and the source is left
// without one, so closing the source afterwards is a no-op.
func (u *UpdateArgs) Take() UpdateArgs {
	out := UpdateArgs{Addresses: u.Addresses, Config: u.Config, bag: u.bag}
	u.bag = nil
	return out
}

// CopyFrom replaces the payload with a copy of src. The destination's
// existing bag is released exactly once before the new copy is installed.
func (u *UpdateArgs) CopyFrom(src *UpdateArgs) {
	if u == src {
		return
	}
	u.Addresses = src.Addresses
	u.Config = src.Config
	_ = u.bag.Close()
	u.bag = src.bag.Clone()
}

// MoveFrom replaces the payload with src, transferring the bag. The
// destination's existing bag is released exactly once; src is left
// without a bag.
func (u *UpdateArgs) MoveFrom(src *UpdateArgs) {
	if u == src {
		return
	}
	u.Addresses = src.Addresses
	u.Config = src.Config
	_ = u.bag.Close()
	u.bag = src.bag
	src.bag = nil
}

// Close releases the channel-argument bag if the payload still owns one.
// It is idempotent and safe after Take.
func (u *UpdateArgs) Close() error {
	err := u.bag.Close()
	u.bag = nil
	return err
}
