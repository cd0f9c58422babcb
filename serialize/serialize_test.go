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

package serialize_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/lbkit/lbkit/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSerializerRunsInOrder(t *testing.T) {
	t.Parallel()
	ser := serialize.New()
	defer ser.Unref()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, ser.Schedule(func() {
			got = append(got, i)
		}))
	}
	flush(t, ser)

	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestSerializerMutualExclusion(t *testing.T) {
	t.Parallel()
	ser := serialize.New()
	defer ser.Unref()

	var active, violations, ran atomic.Int32
	var grp errgroup.Group
	for i := 0; i < 8; i++ {
		grp.Go(func() error {
			for j := 0; j < 50; j++ {
				ser.Schedule(func() {
					if active.Add(1) != 1 {
						violations.Add(1)
					}
					ran.Add(1)
					active.Add(-1)
				})
			}
			return nil
		})
	}
	require.NoError(t, grp.Wait())
	flush(t, ser)

	assert.Equal(t, int32(8*50), ran.Load())
	assert.Zero(t, violations.Load())
}

func TestSerializerScheduleFromClosure(t *testing.T) {
	t.Parallel()
	ser := serialize.New()
	defer ser.Unref()

	var got []string
	require.True(t, ser.Schedule(func() {
		got = append(got, "outer")
		ser.Schedule(func() {
			got = append(got, "inner")
		})
	}))
	flush(t, ser)
	flush(t, ser)

	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestSerializerDrainsOnLastUnref(t *testing.T) {
	t.Parallel()
	ser := serialize.New()

	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		require.True(t, ser.Schedule(func() {
			ran.Add(1)
		}))
	}
	ser.Unref()

	select {
	case <-ser.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for serializer to drain")
	}
	assert.Equal(t, int32(20), ran.Load())
}

func TestSerializerRejectsAfterStop(t *testing.T) {
	t.Parallel()
	ser := serialize.New()
	ser.Unref()

	assert.False(t, ser.Schedule(func() {
		t.Error("closure ran after stop")
	}))
	select {
	case <-ser.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for serializer to exit")
	}
}

func TestSerializerRefExtendsLifetime(t *testing.T) {
	t.Parallel()
	ser := serialize.New()
	ser.Ref()

	ser.Unref()
	select {
	case <-ser.Done():
		t.Fatal("serializer exited with a reference outstanding")
	case <-time.After(50 * time.Millisecond):
	}
	require.True(t, ser.Schedule(func() {}))

	ser.Unref()
	select {
	case <-ser.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for serializer to exit")
	}
}

func flush(t *testing.T, ser *serialize.Serializer) {
	t.Helper()
	ran := make(chan struct{})
	require.True(t, ser.Schedule(func() { close(ran) }))
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for serializer to flush")
	}
}
