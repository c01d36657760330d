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

// Package report aggregates per-node outcomes into the operator-facing
// result of one run.
package report

import (
	"time"
)

// Outcome is the terminal result of one (host, step) node.
type Outcome string

const (
	// OutcomeUnchanged means the step ran and found the desired state in place.
	OutcomeUnchanged Outcome = "ok-unchanged"
	// OutcomeChanged means the step ran and changed the host.
	OutcomeChanged Outcome = "ok-changed"
	// OutcomeFailed means the step failed after its retry budget.
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped means the step never ran because a dependency failed
	// or the run stopped.
	OutcomeSkipped Outcome = "skipped"
)

// ErrKind classifies a failed node.
type ErrKind string

const (
	ErrKindNone       ErrKind = ""
	ErrKindStepFailed ErrKind = "StepFailed"
	ErrKindTimeout    ErrKind = "Timeout"
)

// Status is the overall result of a run.
type Status string

const (
	// StatusSuccess means every node reached ok-unchanged or ok-changed.
	StatusSuccess Status = "success"
	// StatusPartial means some nodes failed or were skipped but the run
	// was not halted; independent hosts completed.
	StatusPartial Status = "partial"
	// StatusFailed means the run was halted, by a cluster-fatal step or
	// by cancellation.
	StatusFailed Status = "failed"
)

// ExecutionResult records the terminal outcome of one node. Immutable once
// recorded.
type ExecutionResult struct {
	Host     string
	Role     string
	Step     string
	Outcome  Outcome
	ErrKind  ErrKind
	Err      error
	Attempts int
	Duration time.Duration

	// Ignored marks a failure of a continue-on-error step. It is recorded
	// but does not degrade the overall status.
	Ignored bool
}

// RunReport collects every node's ExecutionResult. It is mutated only by the
// engine during a run and read-only afterwards.
type RunReport struct {
	runID     string
	started   time.Time
	finished  time.Time
	hosts     []string
	perHost   map[string][]ExecutionResult
	aborted   bool
	abortedBy string
}

// NewRunReport starts an empty report for one run.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		runID:   runID,
		started: time.Now(),
		perHost: map[string][]ExecutionResult{},
	}
}

// RunID identifies the run.
func (r *RunReport) RunID() string {
	return r.runID
}

// Record appends one node's outcome. Results for one host arrive in that
// host's execution order.
func (r *RunReport) Record(res ExecutionResult) {
	if _, ok := r.perHost[res.Host]; !ok {
		r.hosts = append(r.hosts, res.Host)
	}
	r.perHost[res.Host] = append(r.perHost[res.Host], res)
}

// Abort marks the run as halted, recording why.
func (r *RunReport) Abort(reason string) {
	r.aborted = true
	r.abortedBy = reason
}

// Finish stamps the end of the run.
func (r *RunReport) Finish() {
	r.finished = time.Now()
}

// Aborted reports whether the run was halted, and why.
func (r *RunReport) Aborted() (bool, string) {
	return r.aborted, r.abortedBy
}

// Hosts returns the hosts with recorded results, in first-result order.
func (r *RunReport) Hosts() []string {
	return r.hosts
}

// HostResults returns one host's results in execution order.
func (r *RunReport) HostResults(host string) []ExecutionResult {
	return r.perHost[host]
}

// Results returns all results, grouped by host.
func (r *RunReport) Results() []ExecutionResult {
	var all []ExecutionResult
	for _, host := range r.hosts {
		all = append(all, r.perHost[host]...)
	}
	return all
}

// Duration is the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

// Status computes the overall run status.
func (r *RunReport) Status() Status {
	if r.aborted {
		return StatusFailed
	}
	for _, res := range r.Results() {
		if res.Outcome == OutcomeFailed && !res.Ignored {
			return StatusPartial
		}
		if res.Outcome == OutcomeSkipped {
			return StatusPartial
		}
	}
	return StatusSuccess
}
