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
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kubestitch/kubestitch/pkg/kubestitch/exec"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/report"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/schema/latest"
	"github.com/kubestitch/kubestitch/testutil"
)

// fakeExecutor records execution order and fails or delays selected steps.
// Keys are "host/step".
type fakeExecutor struct {
	mu       sync.Mutex
	order    []string
	calls    map[string]int
	inflight map[string]int

	failures  map[string]int // attempts that fail before succeeding; -1 fails forever
	delays    map[string]time.Duration
	unchanged map[string]bool
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		calls:     map[string]int{},
		inflight:  map[string]int{},
		failures:  map[string]int{},
		delays:    map[string]time.Duration{},
		unchanged: map[string]bool{},
	}
}

func (f *fakeExecutor) Execute(ctx context.Context, host *inventory.Host, step plan.Step) (exec.Result, error) {
	key := host.Name + "/" + step.Name

	f.mu.Lock()
	f.order = append(f.order, key)
	f.calls[key]++
	call := f.calls[key]
	f.inflight[host.Name]++
	if f.inflight[host.Name] > 1 {
		f.mu.Unlock()
		return exec.Result{}, fmt.Errorf("concurrent steps on host %s", host.Name)
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight[host.Name]--
		f.mu.Unlock()
	}()

	if delay := f.delays[key]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return exec.Result{}, ctx.Err()
		}
	}

	if n := f.failures[key]; n == -1 || call <= n {
		return exec.Result{}, errors.New("exit status 1")
	}
	return exec.Result{Changed: !f.unchanged[key]}, nil
}

func (f *fakeExecutor) index(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, k := range f.order {
		if k == key {
			return i
		}
	}
	return -1
}

func clusterGraph(t *testing.T) *plan.TaskGraph {
	t.Helper()
	inv, err := inventory.Load(&latest.Topology{Hosts: []*latest.HostConfig{
		{Name: "master-1", Address: "10.0.0.10", Roles: []string{"master"}},
		{Name: "worker-1", Address: "10.0.0.11", Roles: []string{"worker"}},
		{Name: "worker-2", Address: "10.0.0.12", Roles: []string{"worker"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	roles := []plan.Role{
		{Name: "master-setup", AppliesTo: []string{"master"}, Steps: []plan.Step{
			{Name: "kubeadm-init", Run: "kubeadm init", ClusterFatal: true},
		}},
		{Name: "network", AppliesTo: []string{"master"}, DependsOn: []string{"master-setup"}, Steps: []plan.Step{
			{Name: "apply-calico", Run: "kubectl apply calico"},
		}},
		{Name: "worker-setup", AppliesTo: []string{"worker"}, DependsOn: []string{"master-setup"}, Steps: []plan.Step{
			{Name: "kubeadm-join", Run: "kubeadm join"},
			{Name: "label-node", Run: "kubectl label"},
		}},
	}
	g, err := plan.Build(inv, roles, plan.TagFilter{})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func outcomes(rep *report.RunReport) map[string]report.Outcome {
	out := map[string]report.Outcome{}
	for _, res := range rep.Results() {
		out[res.Host+"/"+res.Step] = res.Outcome
	}
	return out
}

func TestConvergeHappyPath(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.unchanged["worker-2/kubeadm-join"] = true

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4, RunID: "run-1"})

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, report.StatusSuccess, rep.Status())
	testutil.CheckDeepEqual(t, map[string]report.Outcome{
		"master-1/kubeadm-init": report.OutcomeChanged,
		"master-1/apply-calico": report.OutcomeChanged,
		"worker-1/kubeadm-join": report.OutcomeChanged,
		"worker-1/label-node":   report.OutcomeChanged,
		"worker-2/kubeadm-join": report.OutcomeUnchanged,
		"worker-2/label-node":   report.OutcomeChanged,
	}, outcomes(rep))

	for _, n := range g.Nodes() {
		testutil.CheckDeepEqual(t, inventory.StatusConverged, n.Host.Status)
	}

	// Dependents only start after kubeadm-init completed.
	init := f.index("master-1/kubeadm-init")
	for _, key := range []string{"master-1/apply-calico", "worker-1/kubeadm-join", "worker-2/kubeadm-join"} {
		if f.index(key) < init {
			t.Errorf("%s ran before master-1/kubeadm-init", key)
		}
	}
	// Per-host order: join before label.
	for _, host := range []string{"worker-1", "worker-2"} {
		if f.index(host+"/label-node") < f.index(host+"/kubeadm-join") {
			t.Errorf("steps on %s ran out of order: %v", host, f.order)
		}
	}
}

func TestConvergeFailureSkipsDependents(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.failures["worker-1/kubeadm-join"] = -1

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, true, err)
	testutil.CheckDeepEqual(t, report.StatusPartial, rep.Status())
	testutil.CheckDeepEqual(t, map[string]report.Outcome{
		"master-1/kubeadm-init": report.OutcomeChanged,
		"master-1/apply-calico": report.OutcomeChanged,
		"worker-1/kubeadm-join": report.OutcomeFailed,
		"worker-1/label-node":   report.OutcomeSkipped,
		"worker-2/kubeadm-join": report.OutcomeChanged,
		"worker-2/label-node":   report.OutcomeChanged,
	}, outcomes(rep))

	failed := rep.HostResults("worker-1")[0]
	testutil.CheckDeepEqual(t, report.ErrKindStepFailed, failed.ErrKind)

	testutil.CheckDeepEqual(t, inventory.StatusFailed, g.Node("worker-1/worker-setup/kubeadm-join").Host.Status)
	testutil.CheckDeepEqual(t, inventory.StatusConverged, g.Node("worker-2/worker-setup/kubeadm-join").Host.Status)
	testutil.CheckDeepEqual(t, inventory.StatusConverged, g.Node("master-1/master-setup/kubeadm-init").Host.Status)

	if aborted, _ := rep.Aborted(); aborted {
		t.Error("non-fatal failure must not abort the run")
	}
}

func TestConvergeClusterFatalAbortsRun(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.failures["master-1/kubeadm-init"] = -1

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, true, err)
	testutil.CheckDeepEqual(t, report.StatusFailed, rep.Status())

	aborted, reason := rep.Aborted()
	testutil.CheckDeepEqual(t, true, aborted)
	testutil.CheckContains(t, "cluster-fatal step kubeadm-init failed on host master-1", reason)

	// Nothing besides the fatal step ran.
	got := outcomes(rep)
	for key, outcome := range got {
		if key == "master-1/kubeadm-init" {
			testutil.CheckDeepEqual(t, report.OutcomeFailed, outcome)
		} else if outcome != report.OutcomeSkipped {
			t.Errorf("%s: got %s, want skipped", key, outcome)
		}
	}
	testutil.CheckDeepEqual(t, 6, len(got))
}

func TestConvergeRetriesUntilSuccess(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.failures["worker-1/kubeadm-join"] = 2

	// Rebuild the flaky step with a retry budget large enough to absorb the
	// two transient failures.
	join := g.Node("worker-1/worker-setup/kubeadm-join")
	join.Step.Retry = plan.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond, Strategy: plan.BackoffFixed}

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, report.StatusSuccess, rep.Status())

	for _, res := range rep.HostResults("worker-1") {
		if res.Step == "kubeadm-join" {
			testutil.CheckDeepEqual(t, 3, res.Attempts)
			testutil.CheckDeepEqual(t, report.OutcomeChanged, res.Outcome)
		}
	}
}

func TestConvergeRetriesExhausted(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.failures["worker-1/kubeadm-join"] = -1

	join := g.Node("worker-1/worker-setup/kubeadm-join")
	join.Step.Retry = plan.RetryPolicy{MaxAttempts: 2, Delay: time.Millisecond, Strategy: plan.BackoffExponential}

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, true, err)
	for _, res := range rep.HostResults("worker-1") {
		if res.Step == "kubeadm-join" {
			testutil.CheckDeepEqual(t, 2, res.Attempts)
			testutil.CheckDeepEqual(t, report.OutcomeFailed, res.Outcome)
		}
	}
}

func TestConvergeTimeout(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.delays["worker-2/kubeadm-join"] = time.Minute

	join := g.Node("worker-2/worker-setup/kubeadm-join")
	join.Step.Timeout = 20 * time.Millisecond

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, true, err)
	testutil.CheckDeepEqual(t, report.StatusPartial, rep.Status())

	for _, res := range rep.HostResults("worker-2") {
		switch res.Step {
		case "kubeadm-join":
			testutil.CheckDeepEqual(t, report.OutcomeFailed, res.Outcome)
			testutil.CheckDeepEqual(t, report.ErrKindTimeout, res.ErrKind)
			if !errors.Is(res.Err, context.DeadlineExceeded) {
				t.Errorf("want deadline error, got %v", res.Err)
			}
		case "label-node":
			testutil.CheckDeepEqual(t, report.OutcomeSkipped, res.Outcome)
		}
	}
}

func TestConvergeContinueOnError(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.failures["worker-1/kubeadm-join"] = -1

	join := g.Node("worker-1/worker-setup/kubeadm-join")
	join.Step.ContinueOnError = true

	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 4})

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, report.StatusSuccess, rep.Status())

	got := outcomes(rep)
	testutil.CheckDeepEqual(t, report.OutcomeFailed, got["worker-1/kubeadm-join"])
	// The ignored failure does not block the rest of the host's chain.
	testutil.CheckDeepEqual(t, report.OutcomeChanged, got["worker-1/label-node"])
	testutil.CheckDeepEqual(t, inventory.StatusConverged, g.Node("worker-1/worker-setup/kubeadm-join").Host.Status)
}

func TestConvergeCancellation(t *testing.T) {
	g := clusterGraph(t)
	f := newFakeExecutor()
	f.delays["master-1/kubeadm-init"] = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	rep, err := Converge(ctx, g, f, Options{Concurrency: 4})

	testutil.CheckError(t, true, err)
	testutil.CheckDeepEqual(t, report.StatusFailed, rep.Status())

	aborted, reason := rep.Aborted()
	testutil.CheckDeepEqual(t, true, aborted)
	testutil.CheckDeepEqual(t, "run cancelled", reason)

	// Cancellation does not kill the attempt already in flight.
	got := outcomes(rep)
	testutil.CheckDeepEqual(t, report.OutcomeChanged, got["master-1/kubeadm-init"])
	testutil.CheckDeepEqual(t, report.OutcomeSkipped, got["worker-1/kubeadm-join"])
}

func TestConvergeSerializesStepsPerHost(t *testing.T) {
	inv, err := inventory.Load(&latest.Topology{Hosts: []*latest.HostConfig{
		{Name: "node-1", Address: "10.0.0.20", Roles: []string{"all"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	roles := []plan.Role{{Name: "burn-in", AppliesTo: []string{"all"}, Steps: []plan.Step{
		{Name: "one", Run: "true"},
		{Name: "two", Run: "true"},
		{Name: "three", Run: "true"},
	}}}
	g, err := plan.Build(inv, roles, plan.TagFilter{})
	if err != nil {
		t.Fatal(err)
	}

	f := newFakeExecutor()
	for _, step := range []string{"one", "two", "three"} {
		f.delays["node-1/"+step] = 5 * time.Millisecond
	}

	// fakeExecutor fails any step that overlaps another on the same host.
	rep, err := Converge(context.Background(), g, f, Options{Concurrency: 8})

	testutil.CheckError(t, false, err)
	testutil.CheckDeepEqual(t, report.StatusSuccess, rep.Status())
	testutil.CheckDeepEqual(t, []string{"node-1/one", "node-1/two", "node-1/three"}, f.order)
}

func TestConvergeRecordsResultsInExecutionOrder(t *testing.T) {
	// A failing first step wakes its dependents, which record skips; those
	// must never land in the report ahead of the failure that caused them.
	// Repeat to give the scheduler goroutines room to interleave.
	for i := 0; i < 300; i++ {
		inv, err := inventory.Load(&latest.Topology{Hosts: []*latest.HostConfig{
			{Name: "node-1", Address: "10.0.0.20", Roles: []string{"all"}},
		}})
		if err != nil {
			t.Fatal(err)
		}
		roles := []plan.Role{{Name: "burn-in", AppliesTo: []string{"all"}, Steps: []plan.Step{
			{Name: "one", Run: "true"},
			{Name: "two", Run: "true"},
			{Name: "three", Run: "true"},
		}}}
		g, err := plan.Build(inv, roles, plan.TagFilter{})
		if err != nil {
			t.Fatal(err)
		}

		f := newFakeExecutor()
		f.failures["node-1/one"] = -1

		rep, err := Converge(context.Background(), g, f, Options{Concurrency: 8})
		testutil.CheckError(t, true, err)

		var steps []string
		for _, res := range rep.HostResults("node-1") {
			steps = append(steps, res.Step)
		}
		testutil.CheckDeepEqual(t, []string{"one", "two", "three"}, steps)
		testutil.CheckDeepEqual(t, report.OutcomeFailed, rep.HostResults("node-1")[0].Outcome)
		testutil.CheckDeepEqual(t, report.OutcomeSkipped, rep.HostResults("node-1")[1].Outcome)
	}
}

func TestConvergeGeneratesRunID(t *testing.T) {
	g := clusterGraph(t)
	rep, err := Converge(context.Background(), g, newFakeExecutor(), Options{})

	testutil.CheckError(t, false, err)
	if rep.RunID() == "" {
		t.Error("expected a generated run ID")
	}
}
