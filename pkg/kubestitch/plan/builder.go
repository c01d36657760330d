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

package plan

import (
	"github.com/kubestitch/kubestitch/pkg/kubestitch/inventory"
)

// TagFilter selects the subset of steps a run executes.
type TagFilter struct {
	Include []string
	Exclude []string
}

// Selects reports whether the step survives the filter. Exclude takes
// precedence over include when both match.
func (f TagFilter) Selects(s Step) bool {
	for _, tag := range f.Exclude {
		if s.HasTag(tag) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, tag := range f.Include {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}

// Build assembles the task graph for one run.
//
// Each host gets one node per step of every role applying to it, chained in
// declared order, so steps on one host never reorder. Steps dropped by the
// tag filter are skipped over while chaining, which keeps the ordering among
// the remaining nodes intact. Cross-role dependencies then fan in: every node
// of a role that depends on role A waits for every surviving node of A across
// A's whole host group.
func Build(inv *inventory.Inventory, roles []Role, filter TagFilter) (*TaskGraph, error) {
	declared := map[string]bool{}
	for _, r := range roles {
		declared[r.Name] = true
	}
	for _, r := range roles {
		for _, dep := range r.DependsOn {
			if !declared[dep] {
				return nil, &UnknownRoleReferenceError{Role: r.Name, Reference: dep}
			}
		}
	}

	// Resolve each role's host group up front: the union of the hosts
	// carrying any of the role's tags.
	memberOf := map[string]map[string]bool{}
	for _, role := range roles {
		members := map[string]bool{}
		for _, tag := range role.AppliesTo {
			for _, h := range inv.HostsWithRole(tag) {
				members[h.Name] = true
			}
		}
		memberOf[role.Name] = members
	}

	g := newTaskGraph()
	nodesByRole := map[string][]*Node{}

	for _, host := range inv.Hosts() {
		var prev *Node
		for _, role := range roles {
			if !memberOf[role.Name][host.Name] {
				continue
			}
			for _, step := range role.Steps {
				if !filter.Selects(step) {
					continue
				}
				n := &Node{Host: host, Role: role.Name, Step: step}
				g.addNode(n)
				nodesByRole[role.Name] = append(nodesByRole[role.Name], n)
				if prev != nil {
					g.addEdge(prev, n)
				}
				prev = n
			}
		}
	}

	for _, role := range roles {
		for _, dep := range role.DependsOn {
			for _, to := range nodesByRole[role.Name] {
				for _, from := range nodesByRole[dep] {
					if from == to {
						continue
					}
					g.addEdge(from, to)
				}
			}
		}
	}

	if cycle := findCycle(g); cycle != nil {
		return nil, &CyclicDependencyError{Nodes: cycle}
	}

	return g, nil
}
