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

// Package attribute provides a type-safe container for the opaque
// per-address metadata carried by resolved endpoint descriptors. Name
// resolution attaches values to a resolver.Address; policies and pickers
// read them back in a type-safe way using [GetValue].
//
// Attributes are declared with [NewKey], which yields a strongly-typed key:
//
//	var (
//		Weight = attribute.NewKey[float64]()
//		Region = attribute.NewKey[string]()
//	)
//
//	addr := resolver.Address{
//		HostPort: "10.0.4.7:8443",
//		Attributes: attribute.NewValues(
//			Weight.Value(1.25),
//			Region.Value("us-east1"),
//		),
//	}
//
// A picker that implements weighted selection or regional affinity would
// read these back with attribute.GetValue(addr.Attributes, Weight).
package attribute

// Values is an immutable collection of attribute values. The zero value is
// an empty collection.
type Values struct {
	data map[any]any
}

// NewValues creates a Values holding the given attribute values. If the
// same key appears more than once, the last occurrence wins.
func NewValues(values ...Value) Values {
	data := make(map[any]any, len(values))
	for _, attr := range values {
		data[attr.key] = attr.value
	}
	return Values{data: data}
}

// Len returns the number of attribute values in the collection.
func (v Values) Len() int {
	return len(v.data)
}

// Key is an attribute key whose values have type T. Use NewKey to create
// one per distinct attribute.
type Key[T any] struct {
	// can't be empty or else pointers won't be distinct
	_ bool
}

// NewKey returns a new key for values of type T. Every call returns a
// distinct key, even for the same T; keys are identified by address.
func NewKey[T any]() *Key[T] {
	return new(Key[T])
}

// Value pairs the key with a value, for use with [NewValues].
func (k *Key[T]) Value(value T) Value {
	return Value{key: k, value: value}
}

// Value is a single attribute: a key and its corresponding value.
type Value struct {
	key, value any
}

// GetValue retrieves the value for key from values. The second return is
// false if the key is absent.
func GetValue[T any](values Values, key *Key[T]) (value T, ok bool) {
	val, ok := values.data[key]
	if !ok {
		var zero T
		return zero, false
	}
	tval, ok := val.(T)
	return tval, ok
}
