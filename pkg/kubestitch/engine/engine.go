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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/constants"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/exec"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/output/log"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/report"
)

// Options tunes one convergence run.
type Options struct {
	// Concurrency caps the number of steps in flight across all hosts.
	// Zero means constants.DefaultConcurrency.
	Concurrency int

	// RunID labels the run report. Generated when empty.
	RunID string
}

// Converge drives every node of the graph to a terminal outcome and returns
// the run report. The report is complete even when the run was aborted or
// cancelled: nodes that never ran are recorded as skipped.
//
// The returned error is non-nil only when the run did not end in full
// success, mirroring the report status; inspect the report for detail.
func Converge(ctx context.Context, graph *plan.TaskGraph, executor exec.Executor, opts Options) (*report.RunReport, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = constants.DefaultConcurrency
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	s := newScheduler(graph, executor, concurrency)
	rep := report.NewRunReport(runID)

	s.run(ctx, rep)
	s.finalizeHosts(rep)
	rep.Finish()

	switch rep.Status() {
	case report.StatusSuccess:
		return rep, nil
	case report.StatusPartial:
		return rep, errors.New("some steps failed or were skipped")
	default:
		_, reason := rep.Aborted()
		return rep, errors.Errorf("run aborted: %s", reason)
	}
}

type scheduler struct {
	graph    *plan.TaskGraph
	executor exec.Executor
	states   map[string]*nodeState

	// sem caps global concurrency; hostSlots serializes steps per host.
	sem       countingSemaphore
	hostSlots map[string]countingSemaphore

	results chan report.ExecutionResult

	abortOnce   sync.Once
	abort       chan struct{}
	abortReason string
}

func newScheduler(graph *plan.TaskGraph, executor exec.Executor, concurrency int) *scheduler {
	s := &scheduler{
		graph:     graph,
		executor:  executor,
		states:    map[string]*nodeState{},
		sem:       newCountingSemaphore(concurrency),
		hostSlots: map[string]countingSemaphore{},
		results:   make(chan report.ExecutionResult),
		abort:     make(chan struct{}),
	}
	for _, n := range graph.Nodes() {
		s.states[n.ID()] = newNodeState(n)
		if _, ok := s.hostSlots[n.Host.Name]; !ok {
			s.hostSlots[n.Host.Name] = newCountingSemaphore(1)
			n.Host.Status = inventory.StatusPending
		}
	}
	return s
}

// triggerAbort halts dispatch of new steps. Steps already in flight run to
// completion so no remote action is killed halfway.
func (s *scheduler) triggerAbort(reason string) {
	s.abortOnce.Do(func() {
		s.abortReason = reason
		close(s.abort)
	})
}

func (s *scheduler) run(ctx context.Context, rep *report.RunReport) {
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for res := range s.results {
			rep.Record(res)
		}
	}()

	var g errgroup.Group
	for _, ns := range s.states {
		ns := ns
		g.Go(func() error {
			s.runNode(ctx, ns)
			return nil
		})
	}
	g.Wait()
	close(s.results)
	<-collected

	if s.aborted() {
		rep.Abort(s.abortReason)
	} else if ctx.Err() != nil {
		rep.Abort("run cancelled")
	}
}

func (s *scheduler) aborted() bool {
	select {
	case <-s.abort:
		return true
	default:
		return false
	}
}

// runNode waits for the node's dependencies, its host slot and a worker
// slot, then executes the step. Every path produces exactly one result.
func (s *scheduler) runNode(ctx context.Context, ns *nodeState) {
	n := ns.node
	skipped := report.ExecutionResult{
		Host:    n.Host.Name,
		Role:    n.Role,
		Step:    n.Step.Name,
		Outcome: report.OutcomeSkipped,
	}

	if !s.waitForDependencies(ctx, ns) {
		s.finish(ns, skipped)
		return
	}

	releaseHost, ok := s.hostSlots[n.Host.Name].acquire(ctx.Done(), s.abort)
	if !ok {
		s.finish(ns, skipped)
		return
	}
	defer releaseHost()

	release, ok := s.sem.acquire(ctx.Done(), s.abort)
	if !ok {
		s.finish(ns, skipped)
		return
	}
	defer release()

	n.Host.Status = inventory.StatusInProgress
	res := s.executeNode(ctx, n)

	if res.Outcome == report.OutcomeFailed && !res.Ignored && n.Step.ClusterFatal {
		s.triggerAbort(fmt.Sprintf("cluster-fatal step %s failed on host %s: %v", n.Step.Name, n.Host.Name, res.Err))
	}

	s.finish(ns, res)
}

// finish publishes the node's result to the collector, then unblocks the
// node's dependents. The collector consumes one result at a time, so a
// dependent woken by markComplete can never have its own result recorded
// ahead of this one: each host's results land in execution order.
func (s *scheduler) finish(ns *nodeState, res report.ExecutionResult) {
	s.results <- res

	satisfies := res.Outcome == report.OutcomeChanged ||
		res.Outcome == report.OutcomeUnchanged ||
		res.Ignored
	ns.markComplete(res.Outcome, satisfies)
}

// waitForDependencies blocks until every dependency completed satisfied. It
// returns false when the node must be skipped instead: a dependency failed
// or was skipped, the run was aborted, or the context was cancelled.
func (s *scheduler) waitForDependencies(ctx context.Context, ns *nodeState) bool {
	for _, depID := range s.graph.Dependencies(ns.node) {
		dep := s.states[depID]
		select {
		case <-dep.done:
			if !dep.satisfies {
				log.Entry(ctx).Debugf("skipping %s: dependency %s ended %s", ns.node.ID(), depID, dep.outcome)
				return false
			}
		case <-ctx.Done():
			return false
		case <-s.abort:
			return false
		}
	}
	return true
}

// executeNode runs the step with the node's retry policy. Each attempt gets
// its own timeout context, detached from the run context, so cancelling the
// run never kills an attempt already in flight.
func (s *scheduler) executeNode(ctx context.Context, n *plan.Node) report.ExecutionResult {
	step := n.Step
	res := report.ExecutionResult{
		Host: n.Host.Name,
		Role: n.Role,
		Step: step.Name,
	}

	logCtx := log.WithEventContext(ctx, constants.Converge, n.ID())
	delay := stepBackoff(step.Retry)
	start := time.Now()

	maxAttempts := step.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultStepTimeout
	}

	var lastErr error
	for res.Attempts < maxAttempts {
		res.Attempts++

		attemptCtx, cancel := context.WithTimeout(context.Background(), timeout)
		out, err := s.executor.Execute(attemptCtx, n.Host, step)
		cancel()

		if err == nil {
			res.Duration = time.Since(start)
			res.Outcome = report.OutcomeChanged
			if !out.Changed {
				res.Outcome = report.OutcomeUnchanged
			}
			log.Entry(logCtx).Debugf("step %s on %s: %s after %d attempt(s)", step.Name, n.Host.Name, res.Outcome, res.Attempts)
			return res
		}
		lastErr = err

		if res.Attempts < maxAttempts {
			wait := delay.NextBackOff()
			log.Entry(logCtx).Warnf("step %s failed on %s (attempt %d/%d), retrying in %s: %v",
				step.Name, n.Host.Name, res.Attempts, maxAttempts, wait, err)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
			case <-s.abort:
			}
			break
		}
	}

	res.Duration = time.Since(start)
	res.Outcome = report.OutcomeFailed
	res.Err = lastErr
	res.ErrKind = report.ErrKindStepFailed
	if errors.Is(lastErr, context.DeadlineExceeded) {
		res.ErrKind = report.ErrKindTimeout
	}
	if step.ContinueOnError {
		res.Ignored = true
		log.Entry(logCtx).Warnf("step %s failed on %s, continuing: %v", step.Name, n.Host.Name, lastErr)
	} else {
		log.Entry(logCtx).Errorf("step %s failed on %s after %d attempt(s): %v", step.Name, n.Host.Name, res.Attempts, lastErr)
	}
	return res
}

// finalizeHosts settles every host's status from its recorded results. A
// host whose steps never ran stays pending.
func (s *scheduler) finalizeHosts(rep *report.RunReport) {
	byHost := map[string]*inventory.Host{}
	for _, n := range s.graph.Nodes() {
		byHost[n.Host.Name] = n.Host
	}

	for name, host := range byHost {
		status := inventory.StatusConverged
		for _, res := range rep.HostResults(name) {
			if res.Outcome == report.OutcomeFailed && !res.Ignored {
				status = inventory.StatusFailed
				break
			}
			if res.Outcome == report.OutcomeSkipped {
				status = inventory.StatusPending
			}
		}
		host.Status = status
	}
}
