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

package attribute_test

import (
	"testing"

	"github.com/lbkit/lbkit/attribute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	t.Parallel()
	weight := attribute.NewKey[float64]()
	region := attribute.NewKey[string]()
	other := attribute.NewKey[string]()

	vals := attribute.NewValues(
		weight.Value(1.25),
		region.Value("us-east1"),
	)
	assert.Equal(t, 2, vals.Len())

	w, ok := attribute.GetValue(vals, weight)
	require.True(t, ok)
	assert.Equal(t, 1.25, w)

	r, ok := attribute.GetValue(vals, region)
	require.True(t, ok)
	assert.Equal(t, "us-east1", r)

	_, ok = attribute.GetValue(vals, other)
	assert.False(t, ok)
}

func TestValuesLastKeyWins(t *testing.T) {
	t.Parallel()
	region := attribute.NewKey[string]()
	vals := attribute.NewValues(
		region.Value("us-east1"),
		region.Value("us-west2"),
	)
	assert.Equal(t, 1, vals.Len())
	r, ok := attribute.GetValue(vals, region)
	require.True(t, ok)
	assert.Equal(t, "us-west2", r)
}

func TestKeysAreDistinct(t *testing.T) {
	t.Parallel()
	key1 := attribute.NewKey[string]()
	key2 := attribute.NewKey[string]()

	vals := attribute.NewValues(key1.Value("one"), key2.Value("two"))
	assert.Equal(t, 2, vals.Len())

	v1, ok := attribute.GetValue(vals, key1)
	require.True(t, ok)
	assert.Equal(t, "one", v1)
	v2, ok := attribute.GetValue(vals, key2)
	require.True(t, ok)
	assert.Equal(t, "two", v2)
}

func TestZeroValues(t *testing.T) {
	t.Parallel()
	var vals attribute.Values
	assert.Zero(t, vals.Len())
	_, ok := attribute.GetValue(vals, attribute.NewKey[int]())
	assert.False(t, ok)
}
