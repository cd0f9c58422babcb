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
	"bytes"
	"encoding/json"
)

// Config is the envelope entry selected by [ParseConfig]: a policy name
// and its raw policy-specific config subtree.
type Config struct {
	// Name is the selected policy's name.
	Name string
	// Raw is the policy-specific config object, to be handed to the
	// factory's ConfigParser.
	Raw json.RawMessage
}

// ParseConfig selects a policy from a loadBalancingConfig envelope: an
// array whose elements are single-field objects mapping a policy name to
// that policy's config. The first element whose name is registered in reg
// wins; unknown names are skipped. reg may be nil to use DefaultRegistry.
//
// ParseConfig returns nil when no usable policy is found: the input is
// absent or not an array, every name is unknown, or any element is
// structurally invalid (not an object, zero or multiple fields, or a
// field whose value is not an object). A structurally invalid element
// rejects the whole envelope rather than being skipped: each element is a
// "oneof", and ambiguity must not silently select a later entry.
//
// An element that repeats the same field name is not detectable here:
// encoding/json collapses duplicate keys (last value wins) before the
// field count is checked, so such an element parses as single-field.
// Other envelope parsers in the Go ecosystem behave the same way.
func ParseConfig(reg *Registry, raw json.RawMessage) *Config {
	if reg == nil {
		reg = DefaultRegistry
	}
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil {
		return nil
	}
	for _, elem := range elems {
		var fields map[string]json.RawMessage
		if json.Unmarshal(elem, &fields) != nil {
			return nil
		}
		if len(fields) != 1 {
			return nil
		}
		for name, sub := range fields {
			if !isJSONObject(sub) {
				return nil
			}
			if reg.Contains(name) {
				return &Config{Name: name, Raw: sub}
			}
		}
	}
	return nil
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
