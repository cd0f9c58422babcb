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

// Package lbkit is the base layer for load-balancing policy plugins inside
// an RPC client channel.
//
// A policy decides which subchannel each call uses. The channel constructs
// a policy through a [Factory], pushes address updates into it with
// UpdateLocked, and receives (connectivity state, picker) publications back
// through the [Controller] it supplied. The data plane evaluates the
// current [picker.Picker] for every call, concurrently with control-plane
// work.
//
// This package does not implement any balancing algorithm. It implements
// the contract every concrete policy shares:
//
//   - the serialization discipline: all policy state mutations run as
//     closures on one [serialize.Serializer], the policy's control-plane
//     domain. Methods suffixed "Locked" must only be invoked from it.
//   - the lifecycle: reference counting with traceable identities, and the
//     orphan protocol, which funnels shutdown through the domain so that
//     destruction is strictly ordered after all previously scheduled work.
//   - the update payload: [UpdateArgs] gives value semantics to the
//     channel-argument bag so policies never manage its lifetime by hand.
//   - the config envelope: [ParseConfig] selects the first usable entry of
//     a loadBalancingConfig array.
//   - the default queue picker: [NewQueuePicker] stalls picks while a
//     policy leaves its idle state.
//
// Concrete policies embed [*Base] and implement UpdateLocked,
// ExitIdleLocked, and ResetBackoffLocked.
package lbkit
