/*
Copyright 2025 The Kubestitch Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package engine

import (
	"testing"
	"time"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/testutil"
)

func TestStepBackoffFixed(t *testing.T) {
	b := stepBackoff(plan.RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second, Strategy: plan.BackoffFixed})

	testutil.CheckDeepEqual(t, 2*time.Second, b.NextBackOff())
	testutil.CheckDeepEqual(t, 2*time.Second, b.NextBackOff())
}

func TestStepBackoffExponential(t *testing.T) {
	b := stepBackoff(plan.RetryPolicy{MaxAttempts: 5, Delay: time.Second, Strategy: plan.BackoffExponential})

	// The exponential delays are jittered, so only check they stay positive
	// and never stop.
	for i := 0; i < 5; i++ {
		if d := b.NextBackOff(); d <= 0 {
			t.Fatalf("backoff #%d: got %s, want > 0", i, d)
		}
	}
}
