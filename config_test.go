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
	"encoding/json"
	"testing"

	"github.com/lbkit/lbkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactory struct {
	name string
}

func (f fakeFactory) Name() string {
	return f.name
}

func (f fakeFactory) New(_ lbkit.Args) lbkit.Policy {
	return nil
}

func newTestRegistry(names ...string) *lbkit.Registry {
	reg := lbkit.NewRegistry()
	for _, name := range names {
		reg.Register(fakeFactory{name: name})
	}
	return reg
}

func TestParseConfigFirstKnownWins(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("round_robin", "pick_first")

	raw := json.RawMessage(`[{"unknown_a":{}},{"round_robin":{}},{"pick_first":{}}]`)
	cfg := lbkit.ParseConfig(reg, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "round_robin", cfg.Name)
	assert.JSONEq(t, `{}`, string(cfg.Raw))
}

func TestParseConfigCarriesPolicySubtree(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("weighted_round_robin")

	raw := json.RawMessage(`[{"weighted_round_robin":{"enableOobLoadReport":true,"weightUpdatePeriod":"1s"}}]`)
	cfg := lbkit.ParseConfig(reg, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "weighted_round_robin", cfg.Name)
	assert.JSONEq(t, `{"enableOobLoadReport":true,"weightUpdatePeriod":"1s"}`, string(cfg.Raw))
}

func TestParseConfigAllUnknown(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("round_robin")

	raw := json.RawMessage(`[{"unknown_a":{}},{"unknown_b":{}}]`)
	assert.Nil(t, lbkit.ParseConfig(reg, raw))
}

func TestParseConfigStructuralViolations(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("round_robin")

	testCases := []struct {
		name string
		raw  string
	}{
		// A malformed element rejects the envelope even when a later
		// element names a registered policy.
		{name: "multi field element", raw: `[{"unknown_a":{},"unknown_b":{}},{"round_robin":{}}]`},
		{name: "empty element", raw: `[{},{"round_robin":{}}]`},
		{name: "null element", raw: `[null,{"round_robin":{}}]`},
		{name: "non-object element", raw: `[3,{"round_robin":{}}]`},
		{name: "non-object config value", raw: `[{"round_robin":3}]`},
		{name: "array config value", raw: `[{"round_robin":[]}]`},
		{name: "top-level object", raw: `{"round_robin":{}}`},
		{name: "top-level string", raw: `"round_robin"`},
		{name: "malformed json", raw: `[{`},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Nil(t, lbkit.ParseConfig(reg, json.RawMessage(testCase.raw)))
		})
	}
}

func TestParseConfigDuplicateKeyElement(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("round_robin")

	// encoding/json collapses duplicate keys before the field count is
	// checked, so the element parses as a single field with the last
	// value winning.
	raw := json.RawMessage(`[{"round_robin":{},"round_robin":{"x":1}}]`)
	cfg := lbkit.ParseConfig(reg, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "round_robin", cfg.Name)
	assert.JSONEq(t, `{"x":1}`, string(cfg.Raw))
}

func TestParseConfigEmptyInputs(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry("round_robin")

	assert.Nil(t, lbkit.ParseConfig(reg, nil))
	assert.Nil(t, lbkit.ParseConfig(reg, json.RawMessage(`[]`)))
	assert.Nil(t, lbkit.ParseConfig(reg, json.RawMessage(`null`)))
}

func TestParseConfigRegistrationDeterminesSelection(t *testing.T) {
	t.Parallel()
	raw := json.RawMessage(`[{"pick_first":{}},{"round_robin":{}}]`)

	// Selection follows envelope order among registered names, not the
	// order of registration.
	reg := newTestRegistry("round_robin", "pick_first")
	cfg := lbkit.ParseConfig(reg, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "pick_first", cfg.Name)

	// A registry missing the earlier name falls through to the later one.
	reg = newTestRegistry("round_robin")
	cfg = lbkit.ParseConfig(reg, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "round_robin", cfg.Name)
}

func TestParseConfigNilRegistryUsesDefault(t *testing.T) {
	t.Parallel()
	lbkit.Register(fakeFactory{name: "config_test_default_policy"})

	raw := json.RawMessage(`[{"config_test_default_policy":{}}]`)
	cfg := lbkit.ParseConfig(nil, raw)
	require.NotNil(t, cfg)
	assert.Equal(t, "config_test_default_policy", cfg.Name)
}
