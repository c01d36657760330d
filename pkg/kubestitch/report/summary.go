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

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/output"
)

func outcomeColor(o Outcome) output.Color {
	switch o {
	case OutcomeChanged:
		return output.Yellow
	case OutcomeUnchanged:
		return output.Green
	case OutcomeFailed:
		return output.Red
	case OutcomeSkipped:
		return output.LightBlue
	default:
		return output.None
	}
}

// WriteSummary prints the per-host outcomes and the final tally.
func (r *RunReport) WriteSummary(out io.Writer) {
	for _, host := range r.hosts {
		output.Default.Fprintf(out, "%s:\n", host)
		for _, res := range r.perHost[host] {
			label := string(res.Outcome)
			if res.Ignored {
				label += " (ignored)"
			}
			outcomeColor(res.Outcome).Fprintf(out, "  %-40s %-14s %s\n",
				res.Role+"/"+res.Step, label, res.Duration.Round(time.Millisecond))
			if res.Err != nil {
				output.Red.Fprintf(out, "    %v\n", res.Err)
			}
		}
	}

	counts := map[Outcome]int{}
	for _, res := range r.Results() {
		counts[res.Outcome]++
	}

	output.Default.Fprintf(out, "\nRun %s: ", r.runID)
	statusColor(r.Status()).Fprintf(out, "%s", r.Status())
	output.Default.Fprintf(out, " in %s (ok=%d changed=%d failed=%d skipped=%d)\n",
		r.Duration().Round(time.Millisecond),
		counts[OutcomeUnchanged], counts[OutcomeChanged], counts[OutcomeFailed], counts[OutcomeSkipped])

	if aborted, reason := r.Aborted(); aborted {
		output.Red.Fprintf(out, "Run aborted: %s\n", reason)
	}
}

func statusColor(s Status) output.Color {
	switch s {
	case StatusSuccess:
		return output.Green
	case StatusPartial:
		return output.Yellow
	default:
		return output.Red
	}
}

// String renders one result the way the summary prints it, useful for logs.
func (res ExecutionResult) String() string {
	return fmt.Sprintf("%s/%s/%s: %s", res.Host, res.Role, res.Step, res.Outcome)
}
