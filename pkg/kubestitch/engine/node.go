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
	"github.com/kubestitch/kubestitch/pkg/kubestitch/plan"
	"github.com/kubestitch/kubestitch/pkg/kubestitch/report"
)

// nodeState tracks one graph node through the run. done is closed exactly
// once, after outcome and satisfies are set, so dependents waiting on the
// channel observe consistent values.
type nodeState struct {
	node      *plan.Node
	done      chan struct{}
	outcome   report.Outcome
	satisfies bool
}

func newNodeState(n *plan.Node) *nodeState {
	return &nodeState{
		node: n,
		done: make(chan struct{}),
	}
}

func (ns *nodeState) markComplete(outcome report.Outcome, satisfies bool) {
	ns.outcome = outcome
	ns.satisfies = satisfies
	close(ns.done)
}

type countingSemaphore struct {
	sem chan bool
}

func newCountingSemaphore(count int) countingSemaphore {
	return countingSemaphore{sem: make(chan bool, count)}
}

// acquire blocks until a slot is free or one of the stop channels fires.
// It returns the release func and whether the slot was actually taken.
func (c countingSemaphore) acquire(cancel, abort <-chan struct{}) (func(), bool) {
	select {
	case c.sem <- true:
		return func() { <-c.sem }, true
	case <-cancel:
	case <-abort:
	}
	return nil, false
}
