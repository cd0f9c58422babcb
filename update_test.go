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

package lbkit_test

import (
	"sync/atomic"
	"testing"

	"github.com/lbkit/lbkit"
	"github.com/lbkit/lbkit/chanargs"
	"github.com/lbkit/lbkit/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingResource counts closes across itself and its clones.
type countingResource struct {
	closes *atomic.Int32
}

func newCountingResource() *countingResource {
	return &countingResource{closes: &atomic.Int32{}}
}

func (r *countingResource) Close() error {
	r.closes.Add(1)
	return nil
}

func (r *countingResource) Clone() chanargs.Resource {
	return &countingResource{closes: r.closes}
}

type stubConfig struct {
	policy string
}

func (c stubConfig) PolicyName() string {
	return c.policy
}

func testAddresses() []resolver.Address {
	return []resolver.Address{
		{HostPort: "10.0.0.1:443"},
		{HostPort: "10.0.0.2:443"},
	}
}

func TestUpdateArgsBorrow(t *testing.T) {
	t.Parallel()
	bag := chanargs.New().Set("service", "inventory")
	update := lbkit.NewUpdateArgs(testAddresses(), stubConfig{policy: "round_robin"}, bag)

	assert.Same(t, bag, update.Args())
	assert.Len(t, update.Addresses, 2)
	assert.Equal(t, "round_robin", update.Config.PolicyName())
	require.NoError(t, update.Close())
	assert.Nil(t, update.Args())
}

func TestUpdateArgsClone(t *testing.T) {
	t.Parallel()
	res := newCountingResource()
	bag := chanargs.New().Set("factory", res)
	addrs := testAddresses()
	update := lbkit.NewUpdateArgs(addrs, stubConfig{policy: "round_robin"}, bag)

	dup := update.Clone()
	assert.NotSame(t, update.Args(), dup.Args())
	// Addresses and config are shared, only the bag is deep-copied.
	assert.Same(t, &addrs[0], &dup.Addresses[0])
	assert.Equal(t, update.Config, dup.Config)

	require.NoError(t, update.Close())
	assert.Equal(t, int32(1), res.closes.Load())
	require.NoError(t, dup.Close())
	assert.Equal(t, int32(2), res.closes.Load())
}

func TestUpdateArgsTake(t *testing.T) {
	t.Parallel()
	res := newCountingResource()
	bag := chanargs.New().Set("factory", res)
	update := lbkit.NewUpdateArgs(testAddresses(), nil, bag)

	taken := update.Take()
	assert.Nil(t, update.Args())
	assert.Same(t, bag, taken.Args())

	// Closing the drained source must not touch the transferred bag.
	require.NoError(t, update.Close())
	assert.Zero(t, res.closes.Load())

	require.NoError(t, taken.Close())
	assert.Equal(t, int32(1), res.closes.Load())
}

func TestUpdateArgsCopyFrom(t *testing.T) {
	t.Parallel()
	dstRes := newCountingResource()
	srcRes := newCountingResource()
	dst := lbkit.NewUpdateArgs(nil, nil, chanargs.New().Set("factory", dstRes))
	src := lbkit.NewUpdateArgs(testAddresses(), stubConfig{policy: "pick_first"}, chanargs.New().Set("factory", srcRes))
	srcBag := src.Args()

	dst.CopyFrom(&src)
	assert.Equal(t, int32(1), dstRes.closes.Load(), "old destination bag released")
	assert.Same(t, srcBag, src.Args(), "source keeps its bag")
	assert.NotSame(t, srcBag, dst.Args(), "destination gets an independent copy")
	assert.Len(t, dst.Addresses, 2)
	assert.Equal(t, "pick_first", dst.Config.PolicyName())

	require.NoError(t, dst.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, int32(2), srcRes.closes.Load())
}

func TestUpdateArgsMoveFrom(t *testing.T) {
	t.Parallel()
	dstRes := newCountingResource()
	srcRes := newCountingResource()
	dst := lbkit.NewUpdateArgs(nil, nil, chanargs.New().Set("factory", dstRes))
	src := lbkit.NewUpdateArgs(testAddresses(), stubConfig{policy: "pick_first"}, chanargs.New().Set("factory", srcRes))
	srcBag := src.Args()

	dst.MoveFrom(&src)
	assert.Equal(t, int32(1), dstRes.closes.Load(), "old destination bag released")
	assert.Same(t, srcBag, dst.Args(), "bag transferred, not copied")
	assert.Nil(t, src.Args())

	require.NoError(t, src.Close())
	assert.Zero(t, srcRes.closes.Load())
	require.NoError(t, dst.Close())
	assert.Equal(t, int32(1), srcRes.closes.Load())
}

func TestUpdateArgsSelfAssign(t *testing.T) {
	t.Parallel()
	res := newCountingResource()
	update := lbkit.NewUpdateArgs(nil, nil, chanargs.New().Set("factory", res))

	update.CopyFrom(&update)
	assert.Zero(t, res.closes.Load())
	update.MoveFrom(&update)
	assert.Zero(t, res.closes.Load())
	assert.NotNil(t, update.Args())

	require.NoError(t, update.Close())
	assert.Equal(t, int32(1), res.closes.Load())
}

func TestUpdateArgsCloseIdempotent(t *testing.T) {
	t.Parallel()
	res := newCountingResource()
	update := lbkit.NewUpdateArgs(nil, nil, chanargs.New().Set("factory", res))

	require.NoError(t, update.Close())
	require.NoError(t, update.Close())
	assert.Equal(t, int32(1), res.closes.Load())
}

func TestUpdateArgsNilBag(t *testing.T) {
	t.Parallel()
	update := lbkit.NewUpdateArgs(testAddresses(), nil, nil)

	assert.Nil(t, update.Args())
	dup := update.Clone()
	assert.Nil(t, dup.Args())
	require.NoError(t, update.Close())
}
