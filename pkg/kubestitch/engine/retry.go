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
	"github.com/cenkalti/backoff/v4"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
)

// stepBackoff builds the delay sequence between attempts of one step. The
// attempt count is bounded by the retry policy itself, so MaxElapsedTime is
// disabled here.
func stepBackoff(policy plan.RetryPolicy) backoff.BackOff {
	switch policy.Strategy {
	case plan.BackoffExponential:
		return backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(policy.Delay),
			backoff.WithMaxElapsedTime(0),
		)
	default:
		return backoff.NewConstantBackOff(policy.Delay)
	}
}
