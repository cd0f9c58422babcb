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
	"sync/atomic"

	"github.com/lbkit/lbkit/picker"
)

// NewQueuePicker returns the picker an idle policy publishes: every pick
// queues, and the first pick wakes the policy by arranging for its
// ExitIdleLocked to run on the serialization domain. The policy replaces
// it with a real picker once it has one.
//
// The picker holds only an uncounted handle on the policy; it takes a
// counted reference just for the duration of the exit-idle closure, so a
// long-lived picker cannot keep an orphaned policy's resources alive.
func NewQueuePicker(p Policy) picker.Picker {
	return &queuePicker{policy: p}
}

type queuePicker struct {
	policy Policy
	// +checkatomic
	exitIdleCalled atomic.Bool
}

func (q *queuePicker) Pick(_ *picker.Request) picker.Result {
	// ExitIdleLocked is invoked via a scheduled closure rather than
	// directly, for two reasons:
	//  1. It may cause a new picker to be published before it returns; if
	//     that happened mid-pick, the same pick would be processed again
	//     re-entrantly.
	//  2. Picks run on the data plane, and ExitIdleLocked requires the
	//     control-plane domain.
	if q.exitIdleCalled.CompareAndSwap(false, true) {
		base := q.policy.policyBase()
		base.Ref("queue_picker_exit_idle")
		scheduled := base.Serializer().Schedule(func() {
			q.policy.ExitIdleLocked()
			base.Unref("queue_picker_exit_idle")
		})
		if !scheduled {
			// Domain already stopping; the policy is past the point where
			// exiting idle means anything.
			base.Unref("queue_picker_exit_idle")
		}
	}
	return picker.Queue()
}
